package notify

import "fmt"

// Outcome classifies how a notifier call ended.
type Outcome int

const (
	// Delivered means the remote side accepted the notification.
	Delivered Outcome = iota
	// Simulated means the notifier is not configured and no call was made.
	Simulated
	// Failed means the call was attempted and did not succeed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Simulated:
		return "simulated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is what a notifier returns instead of an error. Value is always
// usable: for failures it carries a locally synthesized fallback.
type Result struct {
	Outcome Outcome
	Value   string
	Reason  error
}

func delivered(value string) Result {
	return Result{Outcome: Delivered, Value: value}
}

func simulated(value string) Result {
	return Result{Outcome: Simulated, Value: value}
}

func failed(value string, reason error) Result {
	return Result{Outcome: Failed, Value: value, Reason: reason}
}
