package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/trelloha/internal/credential"
	"github.com/nhle/trelloha/internal/scan"
)

// RunState represents the current state of the watch loop.
type RunState int

const (
	RunIdle RunState = iota
	RunScanning
	RunError
	RunStopped
)

// Status is a snapshot of the watch loop.
type Status struct {
	State     RunState
	Runs      int
	Completed int
	LastRun   time.Time
	NextRun   time.Time
	Error     error
}

// Runner performs one full board scan.
type Runner interface {
	Run(ctx context.Context, boardID string) (*scan.Report, error)
}

// ScanStartedMsg is a tea.Msg sent when a scan begins.
type ScanStartedMsg struct {
	At time.Time
}

// ScanResultMsg is a tea.Msg sent when a scan completes.
type ScanResultMsg struct {
	Report    *scan.Report
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is set on a ScanResultMsg when the board credentials are
// missing or expired. The poller stops after emitting it.
type AuthErrorMsg struct {
	Message string
}

// defaultInterval applies when no interval is configured.
const defaultInterval = 5 * time.Minute

// Poller re-scans a board on a fixed interval and on demand.
type Poller struct {
	runner    Runner
	boardID   string
	interval  time.Duration
	status    Status
	resultCh  chan tea.Msg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller for boardID.
func New(runner Runner, boardID string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		runner:    runner,
		boardID:   boardID,
		interval:  interval,
		resultCh:  make(chan tea.Msg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and waits
// for its first message.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine and cancels a scan in flight.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
	p.status.State = RunStopped
}

// Refresh triggers an immediate scan unless one is already queued.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
	return nil
}

// Status returns the current state of the watch loop.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Interval returns the time between scheduled scans.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

func (p *Poller) loop() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.stopCh
		cancel()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Scan immediately, then on every tick.
	if !p.scan(ctx) {
		return
	}

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
		case <-p.triggerCh:
			ticker.Reset(p.interval)
		}
		if !p.scan(ctx) {
			return
		}
	}
}

// scan runs one pass and reports whether polling should continue.
func (p *Poller) scan(ctx context.Context) bool {
	p.setState(RunScanning, nil)
	p.send(ScanStartedMsg{At: time.Now()})

	report, err := p.runner.Run(ctx, p.boardID)

	p.mu.Lock()
	p.status.Runs++
	p.status.LastRun = time.Now()
	p.status.NextRun = p.status.LastRun.Add(p.interval)
	if report != nil {
		p.status.Completed += len(report.Completed)
	}
	p.mu.Unlock()

	if err != nil {
		p.setState(RunError, err)

		if credential.IsNoAuthError(err) {
			p.send(ScanResultMsg{
				Report:    report,
				Error:     err,
				AuthError: &AuthErrorMsg{Message: err.Error()},
			})
			return false
		}

		p.send(ScanResultMsg{Report: report, Error: err})
		return true
	}

	p.setState(RunIdle, nil)
	p.send(ScanResultMsg{Report: report})
	return true
}

func (p *Poller) setState(state RunState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.status.State == RunStopped {
		return
	}
	p.status.State = state
	p.status.Error = err
}

// send delivers msg without blocking the loop.
func (p *Poller) send(msg tea.Msg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		return <-p.resultCh
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next message.
// It should be issued after handling each poller message.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
