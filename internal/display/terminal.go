// Package display provides terminal output formatting for litesync.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gauthierbraillon/litesync/internal/checkpoint"
	"github.com/gauthierbraillon/litesync/internal/syncer"
)

const (
	separator     = " • "
	maxTitleWidth = 60
)

var (
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// TerminalFormatter formats pass reports and checkpoints for terminal display.
type TerminalFormatter struct {
	now func() time.Time
}

// NewTerminalFormatter creates a new terminal formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{now: time.Now}
}

// FormatReport formats the summary of one pass.
func (f *TerminalFormatter) FormatReport(r *syncer.Report) string {
	var lines []string

	// Header: [OUTCOME] headline
	lines = append(lines, f.outcomeStyle(r.Outcome).Render("["+strings.ToUpper(string(r.Outcome))+"]")+" "+headline(r))

	// Counters
	counts := strings.Join([]string{
		fmt.Sprintf("%d found", r.Found),
		fmt.Sprintf("%d pending", r.Pending),
		fmt.Sprintf("%d published", r.PublishedCount()),
		fmt.Sprintf("%d skipped", r.Skipped()),
	}, separator)
	lines = append(lines, "  "+counts)

	// Confirmed notes
	for _, p := range r.Published {
		line := fmt.Sprintf("  + %s%snote %s", f.TruncateText(p.Title, maxTitleWidth), separator, p.Confirmation.ID)
		if p.Confirmation.Reference != "" {
			line += separator + p.Confirmation.Reference
		}
		lines = append(lines, line)
	}

	// Checkpoint movement
	if r.After.LastSyncedAt.Equal(r.Before.LastSyncedAt) {
		lines = append(lines, "  checkpoint unchanged at "+formatCheckpointTime(r.After))
	} else {
		lines = append(lines, fmt.Sprintf("  checkpoint %s -> %s", formatCheckpointTime(r.Before), formatCheckpointTime(r.After)))
	}

	if r.Err != nil {
		lines = append(lines, errorStyle.Render("  stopped: ")+syncer.StopReason(r.Err)+": "+r.Err.Error())
	}
	if r.LoadErr != nil {
		lines = append(lines, warnStyle.Render("  warning: ")+"checkpoint unreadable, started from the beginning: "+r.LoadErr.Error())
	}
	if r.SaveErr != nil {
		lines = append(lines, warnStyle.Render("  warning: ")+"checkpoint not saved, published notes may be repeated next run: "+r.SaveErr.Error())
	}

	lines = append(lines, dimStyle.Render(fmt.Sprintf("  run %s in %s", r.RunID, r.Duration.Round(time.Millisecond))))
	return strings.Join(lines, "\n") + "\n"
}

func headline(r *syncer.Report) string {
	switch r.Outcome {
	case syncer.OutcomeNoOp:
		return "nothing new to publish"
	case syncer.OutcomeSynced:
		return fmt.Sprintf("published %d of %d", r.PublishedCount(), r.Pending)
	case syncer.OutcomePartial:
		return fmt.Sprintf("published %d of %d before stopping", r.PublishedCount(), r.Pending)
	case syncer.OutcomePublishFailed:
		return "no note could be published"
	case syncer.OutcomeFetchFailed:
		return "could not collect the feed"
	case syncer.OutcomeSelectFailed:
		return "feed contains an unusable entry"
	default:
		return string(r.Outcome)
	}
}

func (f *TerminalFormatter) outcomeStyle(o syncer.Outcome) lipgloss.Style {
	switch o {
	case syncer.OutcomeSynced, syncer.OutcomeNoOp:
		return okStyle
	case syncer.OutcomePartial:
		return warnStyle
	default:
		return errorStyle
	}
}

// FormatCheckpoint formats persisted progress. explorerURL, when set, is
// used to build a link to the last confirmed reference.
func (f *TerminalFormatter) FormatCheckpoint(cp checkpoint.Checkpoint, explorerURL string) string {
	if cp.IsOrigin() {
		return "Never synced.\n"
	}

	lines := []string{
		fmt.Sprintf("Last synced: %s (%s)", cp.LastSyncedAt.UTC().Format(time.RFC3339), f.FormatTimestamp(cp.LastSyncedAt)),
	}
	if cp.LastNoteID != "" {
		lines = append(lines, "Last note:   "+cp.LastNoteID)
	}
	if cp.LastReference != "" {
		lines = append(lines, "Reference:   "+cp.LastReference)
		if link := ReferenceURL(explorerURL, cp.LastReference); link != "" {
			lines = append(lines, "  "+link)
		}
	}
	if !cp.UpdatedAt.IsZero() {
		lines = append(lines, dimStyle.Render("Saved "+f.FormatTimestamp(cp.UpdatedAt)))
	}
	return strings.Join(lines, "\n") + "\n"
}

// ReferenceURL joins an explorer base URL and a reference.
func ReferenceURL(explorerURL, reference string) string {
	if explorerURL == "" || reference == "" {
		return ""
	}
	return strings.TrimRight(explorerURL, "/") + "/" + reference
}

func formatCheckpointTime(cp checkpoint.Checkpoint) string {
	if cp.IsOrigin() {
		return "origin"
	}
	return cp.LastSyncedAt.UTC().Format(time.RFC3339)
}

// FormatTimestamp formats a timestamp as relative time.
func (f *TerminalFormatter) FormatTimestamp(t time.Time) string {
	diff := f.now().Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

// pluralize returns "N unit ago" or "N units ago" based on count.
func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// TruncateText truncates text to maxLen runes, adding "..." if truncated.
func (f *TerminalFormatter) TruncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(runes[:maxLen-3]) + "..."
}
