// Package report renders scan reports for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/trelloha/internal/scan"
	"github.com/nhle/trelloha/internal/theme"
)

// Render formats r as a header, the completions grouped by card, and a
// summary line.
func Render(r *scan.Report) string {
	var b strings.Builder

	header := fmt.Sprintf("Board %s", r.BoardID)
	if len(r.RunID) >= 8 {
		header += " · run " + r.RunID[:8]
	}
	b.WriteString(theme.HeaderStyle.Render(header))
	if r.DryRun {
		b.WriteString(" " + theme.WarningStyle.Render("dry run: board not modified"))
	}
	b.WriteString("\n\n")

	if len(r.Completed) == 0 {
		b.WriteString(theme.MutedStyle.Render("Nothing to complete."))
		b.WriteString("\n\n")
	}

	lastCard := ""
	for _, c := range r.Completed {
		if c.CardID != lastCard {
			if lastCard != "" {
				b.WriteString("\n")
			}
			b.WriteString(theme.CardStyle.Render(c.CardName))
			if c.CardURL != "" {
				b.WriteString(" " + theme.MutedStyle.Render(c.CardURL))
			}
			b.WriteString("\n")
			lastCard = c.CardID
		}
		b.WriteString(CompletionLine(c))
		b.WriteString("\n")
	}
	if len(r.Completed) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(Summary(r))
	b.WriteString("\n")

	return b.String()
}

// CompletionLine renders a single completed item.
func CompletionLine(c scan.Completion) string {
	st := string(c.Reference.SourceType)
	return fmt.Sprintf("  %s %s %s %s",
		theme.CompletedStyle.Render("✓"),
		theme.SourceLabelStyle(st).Render(st),
		c.ChecklistName+":",
		c.ItemName,
	)
}

// Summary renders the counters of a run on one line.
func Summary(r *scan.Report) string {
	return theme.MutedStyle.Render(fmt.Sprintf(
		"%d cards · %d items checked · %d completed · %s",
		r.Cards, r.Items, len(r.Completed),
		r.Duration().Round(time.Millisecond),
	))
}

// RenderError formats a fatal error for the terminal.
func RenderError(err error) string {
	return theme.ErrorStyle.Render("Error:") + " " + err.Error()
}
