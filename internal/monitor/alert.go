package monitor

import "strings"

// SuccessStatus is the only status value that counts as healthy.
const SuccessStatus = "200 OK"

// IsHealthy reports whether status is the success marker, ignoring case.
func IsHealthy(status string) bool {
	return strings.EqualFold(status, SuccessStatus)
}

// NeedsAlert reports whether status warrants an alert. Anything other than
// the success marker does, including the empty string.
func NeedsAlert(status string) bool {
	return !IsHealthy(status)
}
