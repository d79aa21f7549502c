package status

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultIdleTimeout is how long a poller survives without being viewed.
const DefaultIdleTimeout = 10 * time.Minute

// RegistryOptions configure a Registry.
type RegistryOptions struct {
	Interval    time.Duration
	IdleTimeout time.Duration
	Logger      *slog.Logger
}

type registryEntry struct {
	poller   *Poller
	lastSeen time.Time
}

// Registry hands out one started Poller per job for the dashboard and closes
// pollers that have not been viewed for IdleTimeout.
type Registry struct {
	api      API
	interval time.Duration
	idle     time.Duration
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]*registryEntry
	closed  bool
}

// NewRegistry creates a Registry. Pollers it starts are bound to ctx.
func NewRegistry(ctx context.Context, api API, opts RegistryOptions) *Registry {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	rctx, cancel := context.WithCancel(ctx)
	return &Registry{
		api:      api,
		interval: opts.Interval,
		idle:     opts.IdleTimeout,
		logger:   opts.Logger,
		now:      time.Now,
		ctx:      rctx,
		cancel:   cancel,
		entries:  make(map[string]*registryEntry),
	}
}

// Get returns the poller for jobID, creating and starting it on first use.
// Every call counts as a view.
func (r *Registry) Get(jobID string) (*Poller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if e, ok := r.entries[jobID]; ok {
		e.lastSeen = r.now()
		return e.poller, nil
	}
	p := NewPoller(r.api, jobID, Options{Interval: r.interval, Logger: r.logger})
	r.entries[jobID] = &registryEntry{poller: p, lastSeen: r.now()}
	p.Start(r.ctx)
	r.logger.Debug("poller created", "job_id", jobID)
	return p, nil
}

// Lookup returns an existing poller without creating one.
func (r *Registry) Lookup(jobID string) (*Poller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[jobID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.poller, true
}

// Len returns the number of live pollers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// EvictIdle closes pollers not viewed within the idle timeout and returns
// how many were removed.
func (r *Registry) EvictIdle() int {
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	var stale []*Poller
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.poller)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, p := range stale {
		p.Close()
		r.logger.Debug("poller evicted", "job_id", p.JobID())
	}
	return len(stale)
}

// Run evicts idle pollers periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	period := r.idle / 2
	if period < time.Second {
		period = time.Second
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ctx.Done():
			return
		case <-t.C:
			if n := r.EvictIdle(); n > 0 {
				r.logger.Info("evicted idle pollers", "count", n)
			}
		}
	}
}

// Close stops every poller. Get fails afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	pollers := make([]*Poller, 0, len(r.entries))
	for _, e := range r.entries {
		pollers = append(pollers, e.poller)
	}
	r.entries = map[string]*registryEntry{}
	r.mu.Unlock()

	r.cancel()
	for _, p := range pollers {
		p.Close()
	}
}
