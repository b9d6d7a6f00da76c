package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/emirozbir/monitor-agent/internal/models"
)

const (
	divider      = "═══════════════════════════════════════════════════════════════════════════════"
	sectionBreak = "───────────────────────────────────────────────────────────────────────────────"
)

// Report is everything printed after a batch run.
type Report struct {
	Results    []models.CaseResult
	Stats      models.BatchStats
	OutputPath string
	Elapsed    time.Duration
	// Snapshot is the monitor state after the last case, if known.
	Snapshot *models.MonitorSnapshot
}

type Formatter struct {
	p palette
}

func NewFormatter(useColors bool) *Formatter {
	return &Formatter{
		p: palette{enabled: useColors},
	}
}

func (f *Formatter) FormatReport(r Report) string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(f.p.color(Cyan, divider))
	sb.WriteString("\n")
	sb.WriteString(f.p.title("  🤖 MONITOR AGENT BATCH REPORT"))
	sb.WriteString("\n")
	sb.WriteString(f.p.color(Cyan, divider))
	sb.WriteString("\n\n")

	for i, res := range r.Results {
		f.writeCase(&sb, i+1, res)
	}

	if r.Snapshot != nil {
		f.writeSnapshot(&sb, *r.Snapshot)
	}

	f.writeStats(&sb, r)

	sb.WriteString(f.p.color(Cyan, divider))
	sb.WriteString("\n")

	return sb.String()
}

// FormatCase renders a single case result.
func (f *Formatter) FormatCase(res models.CaseResult) string {
	var sb strings.Builder
	f.writeCase(&sb, 0, res)
	return sb.String()
}

func (f *Formatter) writeCase(sb *strings.Builder, n int, res models.CaseResult) {
	header := "📋 CASE " + res.CaseID
	if n > 0 {
		header = fmt.Sprintf("📋 %s. CASE %s", humanize.Comma(int64(n)), res.CaseID)
	}
	sb.WriteString(f.p.section(header))
	sb.WriteString("\n")
	sb.WriteString(f.p.color(Gray, sectionBreak))
	sb.WriteString("\n")

	if res.ActionResult == nil {
		sb.WriteString(fmt.Sprintf("  Alert:       %s\n", f.p.muted("none")))
	} else {
		sb.WriteString(fmt.Sprintf("  Alert:       %s\n", f.p.bold(Red, "TRIGGERED")))
		if res.ActionResult.ChatNotifyStatus != "" {
			sb.WriteString(fmt.Sprintf("  Chat:        %s\n", f.p.notifyStatus(res.ActionResult.ChatNotifyStatus)))
		}
		if res.ActionResult.FaultDocID != "" {
			sb.WriteString(fmt.Sprintf("  Fault doc:   %s\n", f.p.info(res.ActionResult.FaultDocID)))
		}
	}

	if res.Reply == "" {
		sb.WriteString(fmt.Sprintf("  Reply:       %s\n", f.p.warning("(empty)")))
	} else {
		sb.WriteString(f.p.muted("  Reply:"))
		sb.WriteString("\n")
		sb.WriteString(f.indentText(res.Reply, "    "))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func (f *Formatter) writeSnapshot(sb *strings.Builder, snap models.MonitorSnapshot) {
	sb.WriteString(f.p.section("🩺 MONITOR STATE"))
	sb.WriteString("\n")
	sb.WriteString(f.p.color(Gray, sectionBreak))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("  Health:        %s\n", f.p.healthBadge(snap.Healthy)))
	sb.WriteString(fmt.Sprintf("  Status:        %s\n", f.p.bold(White, snap.Status)))
	sb.WriteString(fmt.Sprintf("  Response time: %s\n", f.p.info(snap.ResponseTime)))
	sb.WriteString(fmt.Sprintf("  Error count:   %s\n", f.p.info(humanize.Comma(int64(snap.ErrorCount)))))

	checked := "never"
	if !snap.LastCheckTime.IsZero() {
		checked = humanize.Time(snap.LastCheckTime)
	}
	sb.WriteString(fmt.Sprintf("  Last check:    %s\n", f.p.muted(checked)))
	sb.WriteString("\n")
}

func (f *Formatter) writeStats(sb *strings.Builder, r Report) {
	sb.WriteString(f.p.section("📊 BATCH STATS"))
	sb.WriteString("\n")
	sb.WriteString(f.p.color(Gray, sectionBreak))
	sb.WriteString("\n")

	rate := "n/a"
	if r.Stats.TotalCases > 0 {
		rate = humanize.FormatFloat("#,###.#", float64(r.Stats.SuccessfulReplies)*100/float64(r.Stats.TotalCases)) + "%"
	}

	sb.WriteString(fmt.Sprintf("  Total cases:   %s\n", f.p.info(humanize.Comma(int64(r.Stats.TotalCases)))))
	sb.WriteString(fmt.Sprintf("  Replies:       %s (%s)\n", f.p.info(humanize.Comma(int64(r.Stats.SuccessfulReplies))), rate))
	sb.WriteString(fmt.Sprintf("  Alerts:        %s\n", f.p.info(humanize.Comma(int64(r.Stats.AlertsTriggered)))))
	if r.Elapsed > 0 {
		sb.WriteString(fmt.Sprintf("  Elapsed:       %s\n", f.p.info(r.Elapsed.Round(time.Millisecond).String())))
	}
	if r.OutputPath != "" {
		sb.WriteString(fmt.Sprintf("  Output:        %s\n", f.p.muted(r.OutputPath)))
	}
	sb.WriteString("\n")
}

func (f *Formatter) indentText(text string, indent string) string {
	lines := strings.Split(text, "\n")
	var result strings.Builder

	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			result.WriteString(indent)
			result.WriteString(line)
		}
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}

	return result.String()
}
