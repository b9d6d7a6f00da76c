package models

// LogEntry is one upstream monitor log line. The first entry of a request's
// log is the most recent one.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	Message   string `json:"msg"`
}

// CaseRequest is a single inbound case: a user query plus the upstream API
// health report that accompanies it.
type CaseRequest struct {
	CaseID          string     `json:"case_id"`
	UserQuery       string     `json:"user_query"`
	APIStatus       string     `json:"api_status"`
	APIResponseTime string     `json:"api_response_time"`
	MonitorLog      []LogEntry `json:"monitor_log"`
}

// Latest returns the most recent log entry of the request, if any.
func (r *CaseRequest) Latest() (LogEntry, bool) {
	if len(r.MonitorLog) == 0 {
		return LogEntry{}, false
	}
	return r.MonitorLog[0], true
}

// ActionResult records the side effects of one alert. Either field may be
// empty independently of the other.
type ActionResult struct {
	ChatNotifyStatus string `json:"chat_notify_status,omitempty"`
	FaultDocID       string `json:"fault_doc_id,omitempty"`
}

// CaseResult is the terminal output of one request cycle.
type CaseResult struct {
	CaseID       string        `json:"case_id"`
	Reply        string        `json:"reply"`
	ActionResult *ActionResult `json:"action_triggered"`
}

// BatchStats summarises a batch run.
type BatchStats struct {
	TotalCases        int `json:"total_cases"`
	SuccessfulReplies int `json:"successful_replies"`
	AlertsTriggered   int `json:"alerts_triggered"`
}

// NewBatchStats counts replies and alerts over results.
func NewBatchStats(results []CaseResult) BatchStats {
	stats := BatchStats{TotalCases: len(results)}
	for _, r := range results {
		if r.ActionResult != nil {
			stats.AlertsTriggered++
		}
		if r.Reply != "" {
			stats.SuccessfulReplies++
		}
	}
	return stats
}
