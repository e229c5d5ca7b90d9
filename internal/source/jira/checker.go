package jira

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/crossref"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/transport"
)

// Checker implements source.Checker for Jira Server/DC issues.
type Checker struct {
	matcher *crossref.JiraMatcher
	tokens  source.TokenSource
	trust   *transport.Trust
	log     *zap.Logger
}

// NewChecker creates a checker over the configured servers.
func NewChecker(
	servers []model.SystemConfig,
	tokens source.TokenSource,
	trust *transport.Trust,
	log *zap.Logger,
) *Checker {
	return &Checker{
		matcher: crossref.NewJiraMatcher(servers),
		tokens:  tokens,
		trust:   trust,
		log:     log.Named("jira"),
	}
}

// Type returns the source type identifier for Jira.
func (c *Checker) Type() source.SourceType {
	return source.SourceTypeJira
}

// Match extracts an issue key from label.
func (c *Checker) Match(label string) (source.Reference, bool) {
	return c.matcher.Match(label)
}

// Resolve reports whether the issue's status is in the done category.
func (c *Checker) Resolve(ctx context.Context, ref source.Reference) (bool, error) {
	token, err := c.tokens.HostToken(ref.BaseURL)
	if err != nil {
		return false, fmt.Errorf("looking up token for %s: %w", ref.BaseURL, err)
	}

	httpClient, err := c.trust.ClientFor(ref.BaseURL)
	if err != nil {
		return false, err
	}

	issue, err := NewClient(ref.BaseURL, token, httpClient).
		GetIssueStatus(ctx, ref.Key)
	if err != nil {
		return false, fmt.Errorf("fetching %s: %w", ref, err)
	}

	status := issue.Fields.Status
	c.log.Debug("issue status",
		zap.String("key", ref.Key),
		zap.String("status", status.Name),
		zap.String("category", status.StatusCategory.Key),
	)

	return status.StatusCategory.Key == StatusCategoryDone, nil
}
