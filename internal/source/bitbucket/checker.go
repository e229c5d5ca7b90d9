package bitbucket

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/crossref"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/transport"
)

// Checker implements source.Checker for Bitbucket Server pull requests.
// A pull request is done once it is merged or declined.
type Checker struct {
	matcher *crossref.BitbucketMatcher
	tokens  source.TokenSource
	trust   *transport.Trust
	log     *zap.Logger
}

// NewChecker creates a checker over the configured servers. Tokens are
// looked up per server base URL.
func NewChecker(
	servers []model.SystemConfig,
	tokens source.TokenSource,
	trust *transport.Trust,
	log *zap.Logger,
) *Checker {
	return &Checker{
		matcher: crossref.NewBitbucketMatcher(servers),
		tokens:  tokens,
		trust:   trust,
		log:     log.Named("bitbucket"),
	}
}

// Type returns the source type identifier for Bitbucket.
func (c *Checker) Type() source.SourceType {
	return source.SourceTypeBitbucket
}

// Match extracts a pull request reference from label.
func (c *Checker) Match(label string) (source.Reference, bool) {
	return c.matcher.Match(label)
}

// Resolve reports whether the referenced pull request is closed.
func (c *Checker) Resolve(ctx context.Context, ref source.Reference) (bool, error) {
	projectKey, repoSlug, ok := strings.Cut(ref.Repo, "/")
	if !ok {
		return false, fmt.Errorf("malformed repository %q", ref.Repo)
	}

	token, err := c.tokens.HostToken(ref.BaseURL)
	if err != nil {
		return false, fmt.Errorf("looking up token for %s: %w", ref.BaseURL, err)
	}

	httpClient, err := c.trust.ClientFor(ref.BaseURL)
	if err != nil {
		return false, err
	}

	pr, err := NewClient(ref.BaseURL, token, httpClient).
		GetPullRequest(ctx, projectKey, repoSlug, ref.Number)
	if err != nil {
		return false, fmt.Errorf("fetching %s: %w", ref, err)
	}

	c.log.Debug("pull request state",
		zap.String("repo", ref.Repo),
		zap.Int("id", ref.Number),
		zap.String("state", pr.State),
	)

	return pr.State == StateMerged || pr.State == StateDeclined, nil
}
