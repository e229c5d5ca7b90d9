package bitbucket

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/testutil"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{StateOpen, false},
		{StateMerged, true},
		{StateDeclined, true},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t,
					"/rest/api/1.0/projects/PLAT/repos/api-gw/pull-requests/314",
					r.URL.Path,
				)
				assert.Equal(t, "Bearer pat-123", r.Header.Get("Authorization"))
				testutil.WriteJSON(t, w, PullRequest{ID: 314, State: tt.state})
			}))

			checker := NewChecker(
				testutil.Systems("Corp", srv.URL),
				testutil.StaticTokens{srv.URL: "pat-123"},
				testutil.NewTrust(t),
				zap.NewNop(),
			)

			ref, ok := checker.Match(srv.URL + "/projects/PLAT/repos/api-gw/pull-requests/314/overview")
			require.True(t, ok)

			done, err := checker.Resolve(context.Background(), ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, done)
		})
	}
}

func TestResolveUnauthorized(t *testing.T) {
	srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		testutil.WriteJSON(t, w, BBErrorResponse{Errors: []BBError{
			{Message: "Authentication failed. Please check your credentials and try again."},
		}})
	}))

	checker := NewChecker(
		testutil.Systems("Corp", srv.URL),
		testutil.StaticTokens{},
		testutil.NewTrust(t),
		zap.NewNop(),
	)

	ref, ok := checker.Match(srv.URL + "/projects/PLAT/repos/api-gw/pull-requests/1")
	require.True(t, ok)

	_, err := checker.Resolve(context.Background(), ref)
	assert.True(t, source.IsAuthErrorFrom(err, source.SourceTypeBitbucket))
	assert.ErrorContains(t, err, "Authentication failed")
}
