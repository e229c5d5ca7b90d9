// Package crossref extracts references to external systems from free-text
// checklist item labels. Matching is substring-then-regex so labels may
// carry surrounding text around the URL.
package crossref

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
)

// jiraKeyPattern matches Jira issue keys (e.g., PROJ-123, ABC-1).
const jiraKeyPattern = `([A-Z][A-Z0-9]+-\d+)`

// system is a configured instance with its pattern compiled once.
type system struct {
	name    string
	baseURL string
	pattern *regexp.Regexp
}

func compileSystems(systems []model.SystemConfig, suffix string) []system {
	compiled := make([]system, 0, len(systems))
	for _, s := range systems {
		base := strings.TrimRight(s.BaseURL, "/")
		if base == "" {
			continue
		}
		compiled = append(compiled, system{
			name:    s.Name,
			baseURL: base,
			pattern: regexp.MustCompile(regexp.QuoteMeta(base) + suffix),
		})
	}
	return compiled
}

// ReviewMatcher finds Gerrit change URLs, either `<base>/<n>` or the
// `<base>/#/c/<n>` form used by the old UI.
type ReviewMatcher struct {
	systems []system
}

// NewReviewMatcher builds a matcher over the review systems in the
// given order; the first system whose URL matches wins.
func NewReviewMatcher(systems []model.SystemConfig) *ReviewMatcher {
	return &ReviewMatcher{
		systems: compileSystems(systems, `/(?:#/c/)?(\d+)`),
	}
}

// Match returns the change referenced by label, if any.
func (m *ReviewMatcher) Match(label string) (source.Reference, bool) {
	for _, s := range m.systems {
		if !strings.Contains(label, s.baseURL) {
			continue
		}
		match := s.pattern.FindStringSubmatch(label)
		if match == nil {
			continue
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return source.Reference{
			SourceType: source.SourceTypeGerrit,
			System:     s.name,
			BaseURL:    s.baseURL,
			Number:     id,
		}, true
	}
	return source.Reference{}, false
}

// PullRequestMatcher finds GitHub pull request and issue URLs.
type PullRequestMatcher struct {
	hostURL string
	pattern *regexp.Regexp
}

// NewPullRequestMatcher builds a matcher for the given host prefix
// (normally https://github.com).
func NewPullRequestMatcher(hostURL string) *PullRequestMatcher {
	host := strings.TrimRight(hostURL, "/")
	return &PullRequestMatcher{
		hostURL: host,
		pattern: regexp.MustCompile(
			regexp.QuoteMeta(host) + `/([^/\s]+/[^/\s]+)/(pull|issue)s?/(\d+)`,
		),
	}
}

// Match returns the pull request or issue referenced by label, if any.
func (m *PullRequestMatcher) Match(label string) (source.Reference, bool) {
	if m.hostURL == "" || !strings.Contains(label, m.hostURL) {
		return source.Reference{}, false
	}
	match := m.pattern.FindStringSubmatch(label)
	if match == nil {
		return source.Reference{}, false
	}
	number, err := strconv.Atoi(match[3])
	if err != nil {
		return source.Reference{}, false
	}
	return source.Reference{
		SourceType: source.SourceTypeGitHub,
		BaseURL:    m.hostURL,
		Repo:       match[1],
		Kind:       match[2],
		Number:     number,
	}, true
}

// BugMatcher finds Bugzilla show_bug.cgi URLs.
type BugMatcher struct {
	trackers []system
}

// NewBugMatcher builds a matcher over the given trackers.
func NewBugMatcher(trackers []model.SystemConfig) *BugMatcher {
	return &BugMatcher{
		trackers: compileSystems(trackers, `/show_bug\.cgi\?id=(\d+)`),
	}
}

// Match returns the bug referenced by label, if any.
func (m *BugMatcher) Match(label string) (source.Reference, bool) {
	for _, t := range m.trackers {
		if !strings.Contains(label, t.baseURL) {
			continue
		}
		match := t.pattern.FindStringSubmatch(label)
		if match == nil {
			continue
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return source.Reference{
			SourceType: source.SourceTypeBugzilla,
			System:     t.name,
			BaseURL:    t.baseURL,
			Number:     id,
		}, true
	}
	return source.Reference{}, false
}

// BitbucketMatcher finds Bitbucket Server pull request URLs.
type BitbucketMatcher struct {
	servers []system
}

// NewBitbucketMatcher builds a matcher over the given servers.
func NewBitbucketMatcher(servers []model.SystemConfig) *BitbucketMatcher {
	return &BitbucketMatcher{
		servers: compileSystems(
			servers, `/projects/([^/\s]+)/repos/([^/\s]+)/pull-requests/(\d+)`,
		),
	}
}

// Match returns the pull request referenced by label, if any.
func (m *BitbucketMatcher) Match(label string) (source.Reference, bool) {
	for _, s := range m.servers {
		if !strings.Contains(label, s.baseURL) {
			continue
		}
		match := s.pattern.FindStringSubmatch(label)
		if match == nil {
			continue
		}
		id, err := strconv.Atoi(match[3])
		if err != nil {
			continue
		}
		return source.Reference{
			SourceType: source.SourceTypeBitbucket,
			System:     s.name,
			BaseURL:    s.baseURL,
			Repo:       match[1] + "/" + match[2],
			Number:     id,
		}, true
	}
	return source.Reference{}, false
}

// JiraMatcher finds Jira issue URLs of the form <base>/browse/KEY-123.
type JiraMatcher struct {
	servers []system
}

// NewJiraMatcher builds a matcher over the given servers.
func NewJiraMatcher(servers []model.SystemConfig) *JiraMatcher {
	return &JiraMatcher{
		servers: compileSystems(servers, `/browse/`+jiraKeyPattern),
	}
}

// Match returns the issue referenced by label, if any.
func (m *JiraMatcher) Match(label string) (source.Reference, bool) {
	for _, s := range m.servers {
		if !strings.Contains(label, s.baseURL) {
			continue
		}
		match := s.pattern.FindStringSubmatch(label)
		if match == nil {
			continue
		}
		return source.Reference{
			SourceType: source.SourceTypeJira,
			System:     s.name,
			BaseURL:    s.baseURL,
			Key:        match[1],
		}, true
	}
	return source.Reference{}, false
}
