package models

// AlertManagerWebhook represents the standard AlertManager webhook payload
type AlertManagerWebhook struct {
	Version           string            `json:"version"`
	GroupKey          string            `json:"groupKey"`
	TruncatedAlerts   int               `json:"truncatedAlerts"`
	Status            string            `json:"status"` // "firing" or "resolved"
	Receiver          string            `json:"receiver"`
	GroupLabels       map[string]string `json:"groupLabels"`
	CommonLabels      map[string]string `json:"commonLabels"`
	CommonAnnotations map[string]string `json:"commonAnnotations"`
	ExternalURL       string            `json:"externalURL"`
	Alerts            []Alert           `json:"alerts"`
}

// WebhookIngestResponse reports how a webhook payload was applied to the
// monitor state.
type WebhookIngestResponse struct {
	Received int             `json:"received"`
	Firing   int             `json:"firing"`
	Status   string          `json:"status"`
	Snapshot MonitorSnapshot `json:"snapshot"`
}
