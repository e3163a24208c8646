package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Jacky-111111/pillulu-health-assistant/internal/countdown"
	"github.com/Jacky-111111/pillulu-health-assistant/internal/metrics"
)

// Renderer is what the scheduler hands each recomputed countdown to.
// Render runs on the loop goroutine; calling Start or Stop from it directly
// would wait on itself, so do that from a new goroutine.
type Renderer interface {
	Render(entries []countdown.Entry, now time.Time)
}

// RenderFunc adapts a plain function to Renderer.
type RenderFunc func(entries []countdown.Entry, now time.Time)

// Render calls f.
func (f RenderFunc) Render(entries []countdown.Entry, now time.Time) { f(entries, now) }

// Scheduler keeps a live countdown: it owns the current pillbox snapshot and the
// one periodic timer that recomputes the countdown from it.
type Scheduler struct {
	log      *zap.Logger
	render   Renderer
	interval time.Duration
	now      func() time.Time

	snap    atomic.Pointer[countdown.Snapshot]
	refresh chan struct{}

	mu     sync.Mutex // guards cancel and done
	cancel context.CancelFunc
	done   chan struct{}

	loops atomic.Int32 // loops currently inside run
}

// New creates a Scheduler that recomputes every interval (1s when interval <= 0).
func New(log *zap.Logger, render Renderer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	s := &Scheduler{
		log:      log,
		render:   render,
		interval: interval,
		now:      time.Now,
		refresh:  make(chan struct{}, 1),
	}
	s.snap.Store(&countdown.Snapshot{})
	return s
}

// Replace swaps in a new snapshot and asks the running loop to recompute now.
func (s *Scheduler) Replace(snap countdown.Snapshot) {
	s.snap.Store(&snap)
	select {
	case s.refresh <- struct{}{}:
	default: // a refresh is already pending
	}
}

// Snapshot returns the current snapshot.
func (s *Scheduler) Snapshot() countdown.Snapshot {
	return *s.snap.Load()
}

// Start launches the refresh loop in the background. A loop started earlier is
// stopped first, so at most one timer is ever active.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	prevCancel, prevDone := s.cancel, s.done
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	stopLoop(prevCancel, prevDone)
	go func() {
		defer close(done)
		s.run(ctx)
	}()
}

// Stop cancels the active loop, if any, and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	stopLoop(cancel, done)
}

// stopLoop is called without s.mu held so a slow Render never blocks other callers.
func stopLoop(cancel context.CancelFunc, done <-chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// run recomputes immediately and then on every tick or snapshot replacement until ctx is canceled.
func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		// Replaced by a later Start before it got going.
		return
	}
	s.loops.Add(1)
	defer s.loops.Add(-1)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick("start")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("countdown loop stopping")
			return
		case <-ticker.C:
			s.tick("tick")
		case <-s.refresh:
			s.tick("replace")
		}
	}
}

// tick performs one full recompute from the latest snapshot and a fresh clock read.
func (s *Scheduler) tick(trigger string) {
	now := s.now()
	entries := countdown.Compute(s.Snapshot(), now)
	metrics.RecordRecompute(trigger, len(entries))
	s.render.Render(entries, now)
}
