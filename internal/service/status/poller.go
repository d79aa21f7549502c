// Package status polls the backend for a job's progress until it reaches a
// terminal state, and resolves the result download URL on completion.
package status

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Deji-py/insta-enricher/internal/domain"
	"github.com/Deji-py/insta-enricher/internal/enrichment"
)

// Messages surfaced to the user.
const (
	FallbackMessage = "Failed to fetch job status"
	DownloadNotice  = "Failed to get download URL. Please try again later."
)

// DefaultInterval is the polling period used when none is configured.
const DefaultInterval = 5 * time.Second

// ErrClosed is returned by operations on a closed Poller.
var ErrClosed = errors.New("poller closed")

// State is the poller's request state.
type State string

// Poller states.
const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// API is the slice of the enrichment client the poller needs.
type API interface {
	GetStatus(ctx context.Context, jobID string) (*domain.Job, error)
	GetDownloadURL(ctx context.Context, jobID string) (string, error)
}

// Snapshot is a consistent copy of a poller's state.
type Snapshot struct {
	JobID       string      `json:"job_id"`
	State       State       `json:"state"`
	Job         *domain.Job `json:"job,omitempty"`
	Progress    int         `json:"progress"`
	Error       string      `json:"error,omitempty"`
	DownloadURL string      `json:"download_url,omitempty"`
	Notice      string      `json:"notice,omitempty"`
	Polling     bool        `json:"polling"`
	Seq         uint64      `json:"seq"`
}

// Options configure a Poller. Callbacks run on the goroutine that caused the
// change, outside the poller's lock, and must not call Close.
type Options struct {
	Interval   time.Duration
	Logger     *slog.Logger
	OnSnapshot func(Snapshot)
	OnNotice   func(string)
}

// Poller tracks one job. A single loop goroutine owns the ticker; it runs
// while the last known status is running and stops on a terminal status,
// on error, on Close, or when the context passed to Start is cancelled.
type Poller struct {
	api        API
	jobID      string
	interval   time.Duration
	logger     *slog.Logger
	onSnapshot func(Snapshot)
	onNotice   func(string)

	base       context.Context
	cancelBase context.CancelFunc

	mu          sync.Mutex
	state       State
	job         *domain.Job
	errMsg      string
	downloadURL string
	notice      string
	nextSeq     uint64
	appliedSeq  uint64
	inFlight    int
	closed      bool
	started     bool
	parent      context.Context
	stopLoop    context.CancelFunc
	loopDone    chan struct{}
}

// NewPoller creates a poller for jobID. It does nothing until Start,
// FetchStatus or Refresh is called.
func NewPoller(api API, jobID string, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Poller{
		api:        api,
		jobID:      jobID,
		interval:   opts.Interval,
		logger:     opts.Logger.With("job_id", jobID),
		onSnapshot: opts.OnSnapshot,
		onNotice:   opts.OnNotice,
		base:       base,
		cancelBase: cancel,
		state:      StateLoading,
	}
}

// JobID returns the job this poller tracks.
func (p *Poller) JobID() string { return p.jobID }

// Start fetches the status immediately and then keeps polling while the job
// is running. Calling Start on a running or closed poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.started {
		return
	}
	p.started = true
	p.parent = ctx
	p.startLoopLocked(true)
}

// startLoopLocked launches the loop goroutine. p.mu must be held.
func (p *Poller) startLoopLocked(immediate bool) {
	parent := p.parent
	if parent == nil {
		parent = p.base
	}
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(p.base, cancel)
	done := make(chan struct{})
	p.stopLoop = func() {
		stop()
		cancel()
	}
	p.loopDone = done
	go p.run(ctx, done, immediate)
}

func (p *Poller) run(ctx context.Context, done chan struct{}, immediate bool) {
	defer func() {
		p.mu.Lock()
		if p.loopDone == done {
			p.loopDone = nil
			p.stopLoop = nil
		}
		p.mu.Unlock()
		close(done)
	}()

	if immediate && !p.busy() {
		_ = p.FetchStatus(ctx)
	}

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if ctx.Err() != nil {
				return
			}
			if !p.shouldPoll() {
				continue
			}
			_ = p.FetchStatus(ctx)
		}
	}
}

// shouldPoll reports whether a tick should issue a request: the last known
// status is running and nothing is already in flight.
func (p *Poller) shouldPoll() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && p.inFlight == 0 && p.job != nil && p.job.Status == domain.JobStatusRunning
}

func (p *Poller) busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight > 0
}

// haltLocked releases the ticker. p.mu must be held.
func (p *Poller) haltLocked() {
	if p.stopLoop != nil {
		p.stopLoop()
		p.stopLoop = nil
	}
}

// requestCtx derives a request context that is also cancelled by Close.
func (p *Poller) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	rctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(p.base, cancel)
	return rctx, func() {
		stop()
		cancel()
	}
}

// FetchStatus performs one status request and applies the result. A response
// older than the newest applied one is discarded. On completion the download
// URL is fetched before returning.
func (p *Poller) FetchStatus(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.nextSeq++
	seq := p.nextSeq
	p.inFlight++
	prev := p.state
	p.state = StateLoading
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)

	rctx, cancel := p.requestCtx(ctx)
	job, err := p.api.GetStatus(rctx, p.jobID)
	cancelled := errors.Is(rctx.Err(), context.Canceled)
	cancel()

	p.mu.Lock()
	p.inFlight--
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if seq < p.appliedSeq {
		p.mu.Unlock()
		p.logger.Debug("discarding stale status response", "seq", seq)
		return nil
	}
	if err != nil && cancelled {
		// Caller gave up; leave the last applied result in place.
		if p.state == StateLoading && p.inFlight == 0 {
			p.state = prev
		}
		snap = p.snapshotLocked()
		p.mu.Unlock()
		p.emit(snap)
		return err
	}
	p.appliedSeq = seq

	if err != nil {
		p.state = StateError
		p.errMsg = enrichment.ErrorMessage(err, FallbackMessage)
		p.haltLocked()
		snap = p.snapshotLocked()
		p.mu.Unlock()
		p.logger.Warn("status fetch failed", "error", err)
		p.emit(snap)
		return err
	}

	p.job = job
	p.state = StateReady
	p.errMsg = ""
	completed := job.Status == domain.JobStatusCompleted
	if job.Status != domain.JobStatusRunning {
		p.haltLocked()
	}
	snap = p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)

	if completed {
		p.logger.Info("job completed", "processed_profiles", job.ProcessedProfiles)
		_ = p.FetchDownloadURL(p.base)
	}
	return nil
}

// FetchDownloadURL looks up the result URL and caches it. A failed lookup
// emits DownloadNotice and leaves the request state untouched. A successful
// response without a URL changes nothing.
func (p *Poller) FetchDownloadURL(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.mu.Unlock()

	rctx, cancel := p.requestCtx(ctx)
	url, err := p.api.GetDownloadURL(rctx, p.jobID)
	cancel()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if errors.Is(err, enrichment.ErrNoDownloadURL) {
		p.mu.Unlock()
		p.logger.Debug("download url not ready yet")
		return nil
	}
	if err != nil {
		p.notice = DownloadNotice
		snap := p.snapshotLocked()
		p.mu.Unlock()
		p.logger.Warn("download url lookup failed", "error", err)
		p.notify(DownloadNotice)
		p.emit(snap)
		return err
	}
	p.downloadURL = url
	p.notice = ""
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)
	return nil
}

// Refresh is an explicit user refresh: it fetches the status now and re-arms
// the ticker when the fetch succeeded and the job is still running. A failed
// refresh leaves polling stopped.
func (p *Poller) Refresh(ctx context.Context) error {
	err := p.FetchStatus(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err == nil && p.state == StateReady && p.stopLoop == nil &&
		p.job != nil && p.job.Status == domain.JobStatusRunning {
		p.startLoopLocked(false)
	}
	return err
}

// Close stops polling, cancels outstanding requests and waits for the loop
// goroutine to exit. No state changes after Close returns.
func (p *Poller) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.haltLocked()
	p.cancelBase()
	done := p.loopDone
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Closed reports whether Close has been called.
func (p *Poller) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Snapshot returns the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Poller) snapshotLocked() Snapshot {
	s := Snapshot{
		JobID:       p.jobID,
		State:       p.state,
		Error:       p.errMsg,
		DownloadURL: p.downloadURL,
		Notice:      p.notice,
		Polling:     p.stopLoop != nil,
		Seq:         p.appliedSeq,
	}
	if p.job != nil {
		j := *p.job
		s.Job = &j
		s.Progress = domain.OverallProgress(&j)
	}
	return s
}

func (p *Poller) emit(s Snapshot) {
	if p.onSnapshot != nil {
		p.onSnapshot(s)
	}
}

func (p *Poller) notify(msg string) {
	if p.onNotice != nil {
		p.onNotice(msg)
	}
}
