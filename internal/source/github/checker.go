// Package github resolves pull request and issue references against the
// GitHub REST API.
package github

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/crossref"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/transport"
)

// Checker implements source.Checker for GitHub.
type Checker struct {
	matcher *crossref.PullRequestMatcher
	apiURL  string
	token   string
	trust   *transport.Trust
	log     *zap.Logger
}

// NewChecker creates a checker matching URLs under cfg.URL and querying
// cfg.APIURL.
func NewChecker(
	cfg model.GitHubConfig,
	trust *transport.Trust,
	log *zap.Logger,
) *Checker {
	return &Checker{
		matcher: crossref.NewPullRequestMatcher(cfg.URL),
		apiURL:  cfg.APIURL,
		token:   cfg.Token,
		trust:   trust,
		log:     log.Named("github"),
	}
}

// Type returns the source type identifier for GitHub.
func (c *Checker) Type() source.SourceType {
	return source.SourceTypeGitHub
}

// Match extracts a pull request or issue reference from label.
func (c *Checker) Match(label string) (source.Reference, bool) {
	return c.matcher.Match(label)
}

// Resolve reports whether the referenced pull request or issue is closed
// or merged.
func (c *Checker) Resolve(ctx context.Context, ref source.Reference) (bool, error) {
	httpClient, err := c.trust.ClientFor(c.apiURL)
	if err != nil {
		return false, err
	}

	item, err := NewClient(c.apiURL, c.token, httpClient).
		GetItem(ctx, ref.Repo, ref.Kind, ref.Number)
	if err != nil {
		return false, fmt.Errorf("fetching %s: %w", ref, err)
	}

	c.log.Debug("item state",
		zap.String("repo", ref.Repo),
		zap.String("kind", ref.Kind),
		zap.Int("number", ref.Number),
		zap.String("state", item.State),
	)

	switch item.State {
	case StateClosed, StateMerged:
		return true, nil
	default:
		return false, nil
	}
}
