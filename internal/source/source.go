package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// AuthError indicates that authentication has failed or expired for a source.
// It is returned by source clients when a 401 response is received.
type AuthError struct {
	SourceType SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsAuthErrorFrom reports whether err carries an AuthError raised by the
// given source type.
func IsAuthErrorFrom(err error, st SourceType) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.SourceType == st
}

// StatusError is returned for any non-2xx response other than 401.
type StatusError struct {
	SourceType SourceType
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"%s: unexpected status %d on %s %s: %s",
		e.SourceType, e.StatusCode, e.Method, e.Path, strings.TrimSpace(e.Body),
	)
}

// CheckResponse maps an HTTP status to the package error types. It
// returns nil for 2xx responses.
func CheckResponse(
	st SourceType,
	method, path string,
	statusCode int,
	body []byte,
	authHint string,
) error {
	if statusCode == http.StatusUnauthorized {
		return &AuthError{
			SourceType: st,
			Message:    "authentication failed (401): " + authHint,
		}
	}
	if statusCode < 200 || statusCode >= 300 {
		return &StatusError{
			SourceType: st,
			Method:     method,
			Path:       path,
			StatusCode: statusCode,
			Body:       string(body),
		}
	}
	return nil
}

// SourceType identifies the kind of external system.
type SourceType string

const (
	SourceTypeBoard     SourceType = "trello"
	SourceTypeGerrit    SourceType = "gerrit"
	SourceTypeGitHub    SourceType = "github"
	SourceTypeBugzilla  SourceType = "bugzilla"
	SourceTypeBitbucket SourceType = "bitbucket"
	SourceTypeJira      SourceType = "jira"
)

// Reference is an external artifact extracted from a checklist item
// label. It is derived on every scan and never stored.
type Reference struct {
	SourceType SourceType

	// System is the configured name of the matched instance
	// (e.g. "OpenStack"); empty for single-instance sources.
	System string

	// BaseURL is the root URL of the matched instance.
	BaseURL string

	// Repo is "owner/repo" for GitHub and "PROJECT/slug" for Bitbucket.
	Repo string

	// Kind is "pull" or "issue" for GitHub references.
	Kind string

	// Number is the numeric identifier (change, PR, issue or bug number).
	Number int

	// Key is the textual identifier for sources that use one (Jira).
	Key string
}

func (r Reference) String() string {
	name := string(r.SourceType)
	if r.System != "" {
		name = r.System + " " + name
	}
	switch {
	case r.Key != "":
		return fmt.Sprintf("%s %s", name, r.Key)
	case r.Repo != "" && r.Kind != "":
		return fmt.Sprintf("%s %s %s #%d", name, r.Repo, r.Kind, r.Number)
	case r.Repo != "":
		return fmt.Sprintf("%s %s #%d", name, r.Repo, r.Number)
	default:
		return fmt.Sprintf("%s #%d", name, r.Number)
	}
}

// TokenSource looks up the bearer token stored for a service base URL.
// An empty token with a nil error means none is stored.
type TokenSource interface {
	HostToken(baseURL string) (string, error)
}

// Checker pairs the label matcher of one external system with the
// status lookup that decides whether a matched artifact is done.
type Checker interface {
	// Type returns the source type identifier.
	Type() SourceType

	// Match extracts a reference from a checklist item label. A label
	// that does not point at this system yields false, never an error.
	Match(label string) (Reference, bool)

	// Resolve performs a single read against the external system and
	// reports whether the referenced artifact is complete.
	Resolve(ctx context.Context, ref Reference) (bool, error)
}
