package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trelloha/internal/credential"
	"github.com/nhle/trelloha/internal/model"
	"github.com/nhle/trelloha/internal/scan"
)

type fakeRunner struct {
	mu    gosync.Mutex
	calls int
	errs  []error
}

func (r *fakeRunner) Run(ctx context.Context, boardID string) (*scan.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.calls < len(r.errs) {
		err = r.errs[r.calls]
	}
	r.calls++

	return &scan.Report{
		BoardID:   boardID,
		Completed: []scan.Completion{{ItemID: "i1"}},
	}, err
}

// next waits for the next ScanResultMsg, skipping start notifications.
func next(t *testing.T, p *Poller) ScanResultMsg {
	t.Helper()

	done := make(chan ScanResultMsg, 1)
	go func() {
		for {
			if msg, ok := p.WaitForNextResult()().(ScanResultMsg); ok {
				done <- msg
				return
			}
		}
	}()

	select {
	case msg := <-done:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for scan result")
		return ScanResultMsg{}
	}
}

func TestPollerScansImmediatelyAndOnRefresh(t *testing.T) {
	runner := &fakeRunner{}
	p := New(runner, "board1", time.Hour)
	t.Cleanup(p.Stop)

	first, ok := p.Start()().(ScanStartedMsg)
	require.True(t, ok)
	assert.False(t, first.At.IsZero())

	msg := next(t, p)
	require.NoError(t, msg.Error)
	assert.Equal(t, "board1", msg.Report.BoardID)

	p.Refresh()
	msg = next(t, p)
	require.NoError(t, msg.Error)

	status := p.Status()
	assert.Equal(t, 2, status.Runs)
	assert.Equal(t, 2, status.Completed)
	assert.Equal(t, RunIdle, status.State)
}

func TestPollerKeepsGoingAfterScanError(t *testing.T) {
	runner := &fakeRunner{errs: []error{errors.New("gerrit: unexpected status 502")}}
	p := New(runner, "board1", time.Hour)
	t.Cleanup(p.Stop)

	p.Start()

	msg := next(t, p)
	assert.ErrorContains(t, msg.Error, "502")
	assert.Nil(t, msg.AuthError)
	assert.Equal(t, RunError, p.Status().State)

	p.Refresh()
	msg = next(t, p)
	assert.NoError(t, msg.Error)
}

func TestPollerStopsOnAuthError(t *testing.T) {
	noAuth := credential.NewNoAuthError(model.DefaultAppConfig().Board, nil)
	runner := &fakeRunner{errs: []error{noAuth}}
	p := New(runner, "board1", 10*time.Millisecond)
	t.Cleanup(p.Stop)

	p.Start()

	msg := next(t, p)
	require.NotNil(t, msg.AuthError)
	assert.Contains(t, msg.AuthError.Message, "No authentication token found")

	time.Sleep(50 * time.Millisecond)
	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, 1, runner.calls)
}

func TestPollerStartTwice(t *testing.T) {
	p := New(&fakeRunner{}, "board1", time.Hour)
	t.Cleanup(p.Stop)

	require.NotNil(t, p.Start())
	assert.Nil(t, p.Start())

	p.Stop()
	assert.Equal(t, RunStopped, p.Status().State)
}
