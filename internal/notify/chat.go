package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ChatAlert is the payload of a chat notification.
type ChatAlert struct {
	Timestamp string
	ErrorCode string
	Latency   string
}

// ChatNotifier posts interactive alert cards to a chat bot webhook.
type ChatNotifier struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

func NewChatNotifier(webhookURL string, logger *zap.Logger) *ChatNotifier {
	return &ChatNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Configured reports whether a real webhook URL has been set.
func (n *ChatNotifier) Configured() bool {
	return n.webhookURL != "" && !strings.Contains(n.webhookURL, "placeholder")
}

type cardText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type cardElement struct {
	Tag  string   `json:"tag"`
	Text cardText `json:"text"`
}

type cardHeader struct {
	Title    cardText `json:"title"`
	Template string   `json:"template"`
}

type card struct {
	Header   cardHeader    `json:"header"`
	Elements []cardElement `json:"elements"`
}

type cardMessage struct {
	MsgType string `json:"msg_type"`
	Card    card   `json:"card"`
}

func buildCard(alert ChatAlert) cardMessage {
	return cardMessage{
		MsgType: "interactive",
		Card: card{
			Header: cardHeader{
				Title:    cardText{Tag: "plain_text", Content: "🚨 System anomaly alert"},
				Template: "red",
			},
			Elements: []cardElement{{
				Tag: "div",
				Text: cardText{
					Tag: "lark_md",
					Content: fmt.Sprintf("**Time**: %s\n**Error code**: %s\n**Latency**: %s",
						alert.Timestamp, alert.ErrorCode, alert.Latency),
				},
			}},
		},
	}
}

// Notify sends the alert card. It never returns an error: an unconfigured
// webhook yields a simulated result and transport problems a failed one.
func (n *ChatNotifier) Notify(ctx context.Context, alert ChatAlert) Result {
	n.logger.Info("sending chat alert",
		zap.String("timestamp", alert.Timestamp),
		zap.String("error_code", alert.ErrorCode),
		zap.String("latency", alert.Latency),
	)

	if !n.Configured() {
		msg := fmt.Sprintf("Chat webhook URL not configured. Alert details: time=%s, code=%s, latency=%s",
			alert.Timestamp, alert.ErrorCode, alert.Latency)
		n.logger.Warn(msg)
		return simulated("Simulation: " + msg)
	}

	body, err := json.Marshal(buildCard(alert))
	if err != nil {
		return failed("Error: "+err.Error(), fmt.Errorf("failed to encode card: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return failed("Error: "+err.Error(), fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Error("error sending chat alert", zap.Error(err))
		return failed("Error: "+err.Error(), fmt.Errorf("failed to send chat alert: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		n.logger.Error("chat webhook rejected alert", zap.Int("status_code", resp.StatusCode))
		return failed(fmt.Sprintf("Failed: %d", resp.StatusCode),
			fmt.Errorf("chat webhook returned status %d", resp.StatusCode))
	}

	n.logger.Info("chat alert sent")
	return delivered("Sent success")
}
