package notify

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/emirozbir/monitor-agent/internal/models"
)

// Policy decides how often an ongoing incident is alerted.
type Policy string

const (
	// EveryRequest fires on every unhealthy request.
	EveryRequest Policy = "every_request"
	// OncePerIncident fires once until the incident changes or resolves.
	OncePerIncident Policy = "once_per_incident"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", EveryRequest:
		return EveryRequest, nil
	case OncePerIncident:
		return OncePerIncident, nil
	default:
		return "", fmt.Errorf("unknown alert policy: %s", s)
	}
}

// Fingerprint identifies an incident by its status and latest log message.
func Fingerprint(req *models.CaseRequest) string {
	msg, _ := ErrorContext(req)
	h := md5.New()
	h.Write([]byte(strings.ToLower(req.APIStatus)))
	h.Write([]byte{0})
	h.Write([]byte(msg))
	return hex.EncodeToString(h.Sum(nil))
}

// IncidentGate admits alerts according to a Policy.
type IncidentGate struct {
	policy Policy

	mu     sync.Mutex
	active string
}

func NewIncidentGate(policy Policy) *IncidentGate {
	return &IncidentGate{policy: policy}
}

// Admit reports whether an alert for req should fire. Under
// OncePerIncident the first request of an incident is admitted and
// repeats with the same fingerprint are not.
func (g *IncidentGate) Admit(req *models.CaseRequest) bool {
	if g.policy != OncePerIncident {
		return true
	}
	fp := Fingerprint(req)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == fp {
		return false
	}
	g.active = fp
	return true
}

// Resolve ends the current incident.
func (g *IncidentGate) Resolve() {
	g.mu.Lock()
	g.active = ""
	g.mu.Unlock()
}
