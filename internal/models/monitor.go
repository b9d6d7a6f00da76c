package models

import "time"

// MonitorSnapshot is a point-in-time rendering of the monitor state. It is
// replaced wholesale on every update and never mutated afterwards.
type MonitorSnapshot struct {
	Status        string    `json:"status"`
	ResponseTime  string    `json:"responseTime"`
	Healthy       bool      `json:"healthy"`
	ErrorCount    int       `json:"errorCount"`
	LastCheckTime time.Time `json:"lastCheckTime"`
}
