// Package gerrit resolves code review references against Gerrit servers.
// A change counts as done once it is merged.
package gerrit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/crossref"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/transport"
)

// Checker implements source.Checker for the configured review systems.
type Checker struct {
	matcher *crossref.ReviewMatcher
	trust   *transport.Trust
	log     *zap.Logger
}

// NewChecker creates a checker over systems, tried in order.
func NewChecker(
	systems []model.SystemConfig,
	trust *transport.Trust,
	log *zap.Logger,
) *Checker {
	return &Checker{
		matcher: crossref.NewReviewMatcher(systems),
		trust:   trust,
		log:     log.Named("gerrit"),
	}
}

// Type returns the source type identifier for Gerrit.
func (c *Checker) Type() source.SourceType {
	return source.SourceTypeGerrit
}

// Match extracts a change reference from label.
func (c *Checker) Match(label string) (source.Reference, bool) {
	return c.matcher.Match(label)
}

// Resolve reports whether the referenced change has been merged.
func (c *Checker) Resolve(ctx context.Context, ref source.Reference) (bool, error) {
	httpClient, err := c.trust.ClientFor(ref.BaseURL)
	if err != nil {
		return false, err
	}

	change, err := NewClient(ref.BaseURL, httpClient).GetChange(ctx, ref.Number)
	if err != nil {
		return false, fmt.Errorf("fetching %s: %w", ref, err)
	}

	c.log.Debug("change status",
		zap.String("system", ref.System),
		zap.Int("change", ref.Number),
		zap.String("status", change.Status),
	)

	return change.Status == StatusMerged, nil
}
