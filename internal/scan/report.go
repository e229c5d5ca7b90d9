package scan

import (
	"time"

	"github.com/nhle/trelloha/internal/source"
)

// Completion records one checklist item marked complete during a run.
type Completion struct {
	CardID        string
	CardName      string
	CardURL       string
	ChecklistID   string
	ChecklistName string
	ItemID        string
	ItemName      string
	Reference     source.Reference
}

// Report summarizes a single pass over a board. A report returned with
// an error covers the work done before the failure.
type Report struct {
	RunID      string
	BoardID    string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	// Cards is the number of visible cards fetched.
	Cards int

	// Items is the number of incomplete items inspected.
	Items int

	Completed []Completion
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
