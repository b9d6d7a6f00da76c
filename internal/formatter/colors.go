package formatter

import (
	"fmt"
	"strings"
)

// ANSI color codes for terminal output
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	// Foreground colors
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"

	// Background colors
	BgRed   = "\033[41m"
	BgGreen = "\033[42m"
)

func Colorize(color, text string) string {
	return fmt.Sprintf("%s%s%s", color, text, Reset)
}

func BoldColorize(color, text string) string {
	return fmt.Sprintf("%s%s%s%s", Bold, color, text, Reset)
}

// palette applies colors only when enabled.
type palette struct {
	enabled bool
}

func (p palette) color(color, text string) string {
	if !p.enabled {
		return text
	}
	return Colorize(color, text)
}

func (p palette) bold(color, text string) string {
	if !p.enabled {
		return text
	}
	return BoldColorize(color, text)
}

func (p palette) title(text string) string   { return p.bold(Cyan, text) }
func (p palette) section(text string) string { return p.bold(Blue, text) }
func (p palette) success(text string) string { return p.color(Green, text) }
func (p palette) warning(text string) string { return p.color(Yellow, text) }
func (p palette) failure(text string) string { return p.color(Red, text) }
func (p palette) info(text string) string    { return p.color(Cyan, text) }
func (p palette) muted(text string) string   { return p.color(Gray, text) }

func (p palette) healthBadge(healthy bool) string {
	if !p.enabled {
		if healthy {
			return "HEALTHY"
		}
		return "UNHEALTHY"
	}
	if healthy {
		return fmt.Sprintf("%s%s HEALTHY %s", Bold, BgGreen, Reset)
	}
	return fmt.Sprintf("%s%s UNHEALTHY %s", Bold, BgRed, Reset)
}

// notifyStatus colors a chat notifier status by outcome.
func (p palette) notifyStatus(status string) string {
	switch {
	case status == "Sent success":
		return p.success("● " + status)
	case strings.HasPrefix(status, "Simulation:"):
		return p.warning("◉ " + status)
	default:
		return p.failure("⚠ " + status)
	}
}
