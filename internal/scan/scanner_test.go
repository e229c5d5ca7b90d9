package scan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/trelloha/internal/board"
	"github.com/nhle/trelloha/internal/credential"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/source"
	"github.com/nhle/trelloha/internal/testutil"
)

// fakeBoard is an in-memory Board recording every update.
type fakeBoard struct {
	mu        sync.Mutex
	cards     []model.Card
	updated   []string
	listErr   error
	updateErr error
}

func (b *fakeBoard) ListCards(ctx context.Context, boardID string) ([]model.Card, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.cards, nil
}

func (b *fakeBoard) SetCheckItemState(
	ctx context.Context,
	cardID string,
	checklistID string,
	itemID string,
	state string,
) error {
	if b.updateErr != nil {
		return b.updateErr
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.updated = append(b.updated, itemID)
	return nil
}

func (b *fakeBoard) updates() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.updated...)
}

// boardWith puts every item on a single checklist of a single card.
func boardWith(items ...model.CheckItem) *fakeBoard {
	return &fakeBoard{cards: []model.Card{{
		ID:   "card1",
		Name: "Release",
		Checklists: []model.Checklist{{
			ID:         "cl1",
			CardID:     "card1",
			Name:       "Todo",
			CheckItems: items,
		}},
	}}}
}

func incomplete(id, name string) model.CheckItem {
	return model.CheckItem{ID: id, ChecklistID: "cl1", Name: name, State: model.StateIncomplete}
}

// services runs fake review, pull request and defect services.
type services struct {
	cfg              *model.AppConfig
	hits             atomic.Int32
	gerrit, bugzilla string
}

func newServices(t *testing.T) *services {
	t.Helper()

	s := &services{}

	gerritSrv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		switch r.URL.Path {
		case "/changes/12345":
			_, _ = w.Write([]byte(")]}'\n{\"status\":\"MERGED\",\"_number\":12345}"))
		case "/changes/200":
			_, _ = w.Write([]byte(")]}'\n{\"status\":\"NEW\",\"_number\":200}"))
		default:
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}))

	githubSrv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		switch {
		case r.URL.Path == "/repos/foo/bar/pulls/401":
			w.WriteHeader(http.StatusUnauthorized)
		case strings.HasSuffix(r.URL.Path, "/42"):
			testutil.WriteJSON(t, w, map[string]string{"state": "merged"})
		default:
			var n int
			_, _ = fmt.Sscanf(r.URL.Path, "/repos/foo/bar/pulls/%d", &n)
			state := "open"
			if n%2 == 0 {
				state = "closed"
			}
			testutil.WriteJSON(t, w, map[string]string{"state": state})
		}
	}))

	bugzillaSrv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		var bug string
		switch r.URL.Query().Get("id") {
		case "999":
			bug = `<bug><bug_id>999</bug_id><bug_status>VERIFIED</bug_status></bug>`
		case "1000":
			bug = `<bug><bug_id>1000</bug_id><bug_status>NEW</bug_status></bug>`
		default:
			bug = `<bug error="NotPermitted"><bug_id>1001</bug_id></bug>`
		}
		_, _ = w.Write([]byte("<bugzilla>" + bug + "</bugzilla>"))
	}))

	cfg := model.DefaultAppConfig()
	cfg.Gerrit = testutil.Systems("Review", gerritSrv.URL)
	cfg.GitHub.APIURL = githubSrv.URL
	cfg.Bugzilla = testutil.Systems("Tracker", bugzillaSrv.URL)
	cfg.Trust = nil

	s.cfg = cfg
	s.gerrit = gerritSrv.URL
	s.bugzilla = bugzillaSrv.URL
	return s
}

func (s *services) scanner(t *testing.T, b Board, opts Options) *Scanner {
	t.Helper()

	log := zap.NewNop()
	checkers := Checkers(s.cfg, testutil.NewTrust(t), testutil.StaticTokens{}, log)
	return New(b, checkers, s.cfg.Board, opts, log)
}

func TestRunCompletesDoneReferences(t *testing.T) {
	svc := newServices(t)

	b := boardWith(
		incomplete("pr", "https://github.com/foo/bar/pull/42"),
		incomplete("review", "land "+svc.gerrit+"/12345"),
		incomplete("bug-verified", svc.bugzilla+"/show_bug.cgi?id=999"),
		incomplete("bug-new", svc.bugzilla+"/show_bug.cgi?id=1000"),
		incomplete("bug-private", svc.bugzilla+"/show_bug.cgi?id=1001"),
		incomplete("plain", "write the release notes"),
		model.CheckItem{
			ID: "done-already", Name: "https://github.com/foo/bar/pull/42",
			State: model.StateComplete,
		},
	)

	report, err := svc.scanner(t, b, Options{}).Run(context.Background(), "board1")
	require.NoError(t, err)

	assert.Equal(t, []string{"pr", "review", "bug-verified"}, b.updates())
	assert.Equal(t, 1, report.Cards)
	assert.Equal(t, 6, report.Items)
	require.Len(t, report.Completed, 3)
	assert.Equal(t, source.SourceTypeGitHub, report.Completed[0].Reference.SourceType)
	assert.Equal(t, source.SourceTypeGerrit, report.Completed[1].Reference.SourceType)
	assert.Equal(t, source.SourceTypeBugzilla, report.Completed[2].Reference.SourceType)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.FinishedAt.IsZero())
}

func TestRunLeavesUnrelatedLabelsAlone(t *testing.T) {
	svc := newServices(t)
	hosts := []string{"github.com", svc.gerrit, svc.bugzilla}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("no request and no update without a known host", prop.ForAll(
		func(label string) bool {
			for _, h := range hosts {
				if strings.Contains(label, h) {
					return true
				}
			}

			before := svc.hits.Load()
			b := boardWith(incomplete("i1", label))

			report, err := svc.scanner(t, b, Options{}).Run(context.Background(), "board1")
			return err == nil &&
				len(b.updates()) == 0 &&
				len(report.Completed) == 0 &&
				svc.hits.Load() == before
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

type fakeChecker struct {
	name  string
	match bool
	done  bool
	err   error
	calls atomic.Int32
}

func (c *fakeChecker) Type() source.SourceType { return source.SourceType(c.name) }

func (c *fakeChecker) Match(label string) (source.Reference, bool) {
	return source.Reference{SourceType: c.Type()}, c.match
}

func (c *fakeChecker) Resolve(ctx context.Context, ref source.Reference) (bool, error) {
	c.calls.Add(1)
	return c.done, c.err
}

func TestRunFirstDoneCheckerWins(t *testing.T) {
	skipped := &fakeChecker{name: "skipped"}
	notDone := &fakeChecker{name: "not-done", match: true}
	done := &fakeChecker{name: "done", match: true, done: true}
	never := &fakeChecker{name: "never", match: true, done: true}

	b := boardWith(incomplete("i1", "anything"))
	s := New(
		b, []source.Checker{skipped, notDone, done, never},
		model.DefaultAppConfig().Board, Options{}, zap.NewNop(),
	)

	report, err := s.Run(context.Background(), "board1")
	require.NoError(t, err)

	assert.Equal(t, int32(0), skipped.calls.Load())
	assert.Equal(t, int32(1), notDone.calls.Load())
	assert.Equal(t, int32(1), done.calls.Load())
	assert.Equal(t, int32(0), never.calls.Load())
	require.Len(t, report.Completed, 1)
	assert.Equal(t, source.SourceType("done"), report.Completed[0].Reference.SourceType)
	assert.Equal(t, []string{"i1"}, b.updates())
}

func TestRunReviewNotMergedFallsThroughToPullRequest(t *testing.T) {
	svc := newServices(t)
	b := boardWith(incomplete(
		"i1", svc.gerrit+"/200 backport of https://github.com/foo/bar/pull/42",
	))

	report, err := svc.scanner(t, b, Options{}).Run(context.Background(), "board1")
	require.NoError(t, err)

	require.Len(t, report.Completed, 1)
	assert.Equal(t, source.SourceTypeGitHub, report.Completed[0].Reference.SourceType)
}

func TestRunBoardUnauthorized(t *testing.T) {
	srv := testutil.NewServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))

	cfg := model.DefaultAppConfig()
	client := board.NewClient(srv.URL, cfg.Board.AppKey, "expired", srv.Client())
	s := New(client, nil, cfg.Board, Options{}, zap.NewNop())

	_, err := s.Run(context.Background(), "board1")

	var noAuth *credential.NoAuthError
	require.ErrorAs(t, err, &noAuth)
	assert.Contains(t, err.Error(), "https://trello.com/1/authorize?")
	assert.True(t, source.IsAuthErrorFrom(err, source.SourceTypeBoard))
}

func TestRunUpdateUnauthorized(t *testing.T) {
	svc := newServices(t)
	b := boardWith(incomplete("pr", "https://github.com/foo/bar/pull/42"))
	b.updateErr = &source.AuthError{SourceType: source.SourceTypeBoard, Message: "expired"}

	_, err := svc.scanner(t, b, Options{}).Run(context.Background(), "board1")
	assert.True(t, credential.IsNoAuthError(err))
}

func TestRunResolverUnauthorizedIsNotNoAuth(t *testing.T) {
	svc := newServices(t)
	b := boardWith(incomplete("pr", "https://github.com/foo/bar/pull/401"))

	_, err := svc.scanner(t, b, Options{}).Run(context.Background(), "board1")
	require.Error(t, err)
	assert.False(t, credential.IsNoAuthError(err))
	assert.True(t, source.IsAuthErrorFrom(err, source.SourceTypeGitHub))
}

func TestRunErrorKeepsEarlierCompletions(t *testing.T) {
	svc := newServices(t)
	b := boardWith(
		incomplete("pr", "https://github.com/foo/bar/pull/42"),
		incomplete("broken", svc.gerrit+"/500"),
		incomplete("after", "https://github.com/foo/bar/pull/42"),
	)

	report, err := svc.scanner(t, b, Options{}).Run(context.Background(), "board1")

	var statusErr *source.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.False(t, credential.IsNoAuthError(err))

	assert.Equal(t, []string{"pr"}, b.updates())
	require.Len(t, report.Completed, 1)
	assert.Equal(t, "pr", report.Completed[0].ItemID)
}

func TestRunListError(t *testing.T) {
	b := &fakeBoard{listErr: errors.New("connection refused")}
	s := New(b, nil, model.DefaultAppConfig().Board, Options{}, zap.NewNop())

	report, err := s.Run(context.Background(), "board1")
	assert.ErrorContains(t, err, "listing cards: connection refused")
	assert.Zero(t, report.Cards)
}

func TestRunDryRun(t *testing.T) {
	svc := newServices(t)
	b := boardWith(incomplete("pr", "https://github.com/foo/bar/pull/42"))

	report, err := svc.scanner(t, b, Options{DryRun: true}).Run(context.Background(), "board1")
	require.NoError(t, err)

	assert.Empty(t, b.updates())
	assert.True(t, report.DryRun)
	require.Len(t, report.Completed, 1)
}

func TestRunConcurrentKeepsBoardOrder(t *testing.T) {
	svc := newServices(t)

	var items []model.CheckItem
	var want []string
	for n := 1; n <= 20; n++ {
		id := fmt.Sprintf("i%d", n)
		items = append(items, incomplete(id, fmt.Sprintf("https://github.com/foo/bar/pull/%d", n)))
		if n%2 == 0 {
			want = append(want, id)
		}
	}
	b := boardWith(items...)

	report, err := svc.scanner(t, b, Options{Workers: 4}).Run(context.Background(), "board1")
	require.NoError(t, err)

	assert.Equal(t, 20, report.Items)
	assert.ElementsMatch(t, want, b.updates())

	got := make([]string, 0, len(report.Completed))
	for _, c := range report.Completed {
		got = append(got, c.ItemID)
	}
	assert.Equal(t, want, got)
}
