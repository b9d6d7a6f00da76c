package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/config"
)

var testReport = FaultReport{
	Timestamp:    "11:20",
	ErrorCode:    "500 Internal Server Error",
	ErrorMessage: "svc down",
	Latency:      "3000ms",
}

func newTestCreator(apiURL string) *FaultDocCreator {
	c := NewFaultDocCreator(config.FaultDocConfig{
		APIURL:    apiURL,
		APIToken:  "token-123",
		ProjectID: "42",
		FolderID:  "7",
	}, zap.NewNop())
	c.now = func() time.Time { return time.Date(2025, 3, 4, 11, 20, 5, 0, time.UTC) }
	return c
}

func TestFaultDocSimulatesWithPlaceholders(t *testing.T) {
	c := NewFaultDocCreator(config.FaultDocConfig{
		APIToken:  "your-apifox-token-here",
		ProjectID: "your-project-id-here",
	}, zap.NewNop())

	res := c.Create(context.Background(), testReport)

	assert.Equal(t, Simulated, res.Outcome)
	assert.Regexp(t, regexp.MustCompile(`^DOC_[0-9a-f]{8}$`), res.Value)
}

func TestFaultDocCreated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/doc", r.URL.Path)
		assert.Equal(t, "zh-CN", r.URL.Query().Get("locale"))
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		assert.Equal(t, "42", r.Header.Get("x-project-id"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "[Fault record] 2025-03-04 11:20:05", r.PostForm.Get("name"))
		assert.Equal(t, "7", r.PostForm.Get("folderId"))
		assert.Empty(t, r.PostForm.Get("moduleId"))
		assert.Contains(t, r.PostForm.Get("content"), "svc down")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":987654}}`))
	}))
	defer srv.Close()

	res := newTestCreator(srv.URL).Create(context.Background(), testReport)

	assert.Equal(t, Delivered, res.Outcome)
	assert.Equal(t, "987654", res.Value)
}

func TestFaultDocFallbackOnRejection(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"success":false}`},
		{"unsuccessful body", http.StatusOK, `{"success":false,"data":{}}`},
		{"bad json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res := newTestCreator(srv.URL).Create(context.Background(), testReport)

			assert.Equal(t, Failed, res.Outcome)
			assert.Equal(t, "DOC_20250304_112005_500_Internal_Server_Error", res.Value)
		})
	}
}

func TestFaultDocFallbackOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := newTestCreator(url).Create(context.Background(), testReport)

	assert.Equal(t, Failed, res.Outcome)
	assert.Equal(t, "DOC_20250304_112005_500_Internal_Server_Error", res.Value)
	assert.Error(t, res.Reason)
}
