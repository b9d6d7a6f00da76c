package models

import "time"

type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
	EndsAt      time.Time         `json:"endsAt"`
	Status      string            `json:"status"`
	Fingerprint string            `json:"fingerprint"`
}

func (a *Alert) IsFiring() bool {
	return a.Status == "firing"
}

func (a *Alert) GetAlertName() string {
	if name, ok := a.Labels["alertname"]; ok {
		return name
	}
	return "unknown"
}

func (a *Alert) GetSeverity() string {
	if sev, ok := a.Labels["severity"]; ok {
		return sev
	}
	return "unknown"
}

// GetTarget returns the service the alert is about, falling back through the
// usual Prometheus target labels.
func (a *Alert) GetTarget() string {
	for _, key := range []string{"service", "job", "instance"} {
		if v, ok := a.Labels[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

func (a *Alert) GetSummary() string {
	if s, ok := a.Annotations["summary"]; ok && s != "" {
		return s
	}
	if s, ok := a.Annotations["description"]; ok && s != "" {
		return s
	}
	return a.GetAlertName()
}

// ToLogEntry renders the alert as a monitor log line.
func (a *Alert) ToLogEntry() LogEntry {
	msg := a.GetSummary()
	if target := a.GetTarget(); target != "" {
		msg = target + ": " + msg
	}
	return LogEntry{
		Timestamp: a.StartsAt.Format("2006-01-02 15:04:05"),
		Status:    a.GetSeverity(),
		Message:   msg,
	}
}
