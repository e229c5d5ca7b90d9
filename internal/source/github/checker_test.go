package github

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/testutil"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		wantPath string
		state    string
		want     bool
	}{
		{"merged pull", "https://github.com/foo/bar/pull/42", "/repos/foo/bar/pulls/42", "merged", true},
		{"closed pull", "https://github.com/foo/bar/pull/42", "/repos/foo/bar/pulls/42", "closed", true},
		{"open pull", "https://github.com/foo/bar/pull/42", "/repos/foo/bar/pulls/42", "open", false},
		{"closed issue", "https://github.com/foo/bar/issues/7", "/repos/foo/bar/issues/7", "closed", true},
		{"open issue", "https://github.com/foo/bar/issue/7", "/repos/foo/bar/issues/7", "open", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"))
				testutil.WriteJSON(t, w, Item{State: tt.state})
			}))

			checker := NewChecker(model.GitHubConfig{
				URL:    model.DefaultGitHubURL,
				APIURL: srv.URL,
			}, testutil.NewTrust(t), zap.NewNop())

			ref, ok := checker.Match(tt.label)
			require.True(t, ok)

			done, err := checker.Resolve(context.Background(), ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, done)
		})
	}
}

func TestResolveSendsToken(t *testing.T) {
	srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		testutil.WriteJSON(t, w, Item{State: StateOpen})
	}))

	checker := NewChecker(model.GitHubConfig{
		URL:    model.DefaultGitHubURL,
		APIURL: srv.URL,
		Token:  "s3cret",
	}, testutil.NewTrust(t), zap.NewNop())

	ref, ok := checker.Match("https://github.com/foo/bar/pull/1")
	require.True(t, ok)

	done, err := checker.Resolve(context.Background(), ref)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestResolveNotFound(t *testing.T) {
	srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		testutil.WriteJSON(t, w, ErrorResponse{Message: "Not Found"})
	}))

	checker := NewChecker(model.GitHubConfig{
		URL:    model.DefaultGitHubURL,
		APIURL: srv.URL,
	}, testutil.NewTrust(t), zap.NewNop())

	ref, _ := checker.Match("https://github.com/foo/bar/pull/404")
	_, err := checker.Resolve(context.Background(), ref)

	var statusErr *source.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.ErrorContains(t, err, "Not Found")
}
