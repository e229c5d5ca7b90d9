// Package bugzilla resolves defect references against Bugzilla trackers.
package bugzilla

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/crossref"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/transport"
)

// Checker implements source.Checker for the configured trackers.
type Checker struct {
	matcher *crossref.BugMatcher
	trust   *transport.Trust
	log     *zap.Logger
}

// NewChecker creates a checker over the given trackers.
func NewChecker(
	trackers []model.SystemConfig,
	trust *transport.Trust,
	log *zap.Logger,
) *Checker {
	return &Checker{
		matcher: crossref.NewBugMatcher(trackers),
		trust:   trust,
		log:     log.Named("bugzilla"),
	}
}

// Type returns the source type identifier for Bugzilla.
func (c *Checker) Type() source.SourceType {
	return source.SourceTypeBugzilla
}

// Match extracts a bug reference from label.
func (c *Checker) Match(label string) (source.Reference, bool) {
	return c.matcher.Match(label)
}

// Resolve reports whether the referenced bug reached a fixed status.
// Bugs the tracker refuses to show are treated as not done.
func (c *Checker) Resolve(ctx context.Context, ref source.Reference) (bool, error) {
	httpClient, err := c.trust.ClientFor(ref.BaseURL)
	if err != nil {
		return false, err
	}

	bug, err := NewClient(ref.BaseURL, httpClient).GetBug(ctx, ref.Number)
	if err != nil {
		return false, fmt.Errorf("fetching %s: %w", ref, err)
	}

	if bug.Error != "" {
		c.log.Debug("bug status unknown",
			zap.String("tracker", ref.System),
			zap.Int("bug", ref.Number),
			zap.String("error", bug.Error),
		)
		return false, nil
	}

	c.log.Debug("bug status",
		zap.String("tracker", ref.System),
		zap.Int("bug", ref.Number),
		zap.String("status", bug.Status),
	)

	return doneStatuses[bug.Status], nil
}
