package service

import (
	"fmt"
	"strings"

	"github.com/emirozbir/monitor-agent/internal/models"
	"github.com/emirozbir/monitor-agent/internal/monitor"
)

// BuildPrompt prefixes the user query with a status banner when the API is
// unhealthy and with a digest of the monitor log when one was sent.
func BuildPrompt(req *models.CaseRequest) string {
	var b strings.Builder

	if !monitor.IsHealthy(req.APIStatus) {
		fmt.Fprintf(&b, "[System status alert: API status abnormal - %s, response time: %s]\n\n",
			req.APIStatus, req.APIResponseTime)
	}

	if len(req.MonitorLog) > 0 {
		b.WriteString("[Recent monitor logs:\n")
		for _, entry := range req.MonitorLog {
			fmt.Fprintf(&b, "  - %s: %s (%s)\n", entry.Timestamp, entry.Status, entry.Message)
		}
		b.WriteString("]\n\n")
	}

	b.WriteString(req.UserQuery)
	return b.String()
}
