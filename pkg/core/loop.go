package core

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Loop runs a job body on a fixed period until stopped.
//
// Start is idempotent. A tick that arrives while the previous body is still
// running is skipped. Once Stop returns no further tick fires; a body that
// was already running finishes on its own with a context that Stop does not
// cancel.
type Loop struct {
	*BaseJob
	period time.Duration
	fn     func(context.Context)

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	fired   atomic.Int64
	skipped atomic.Int64
}

// NewLoop creates a stopped loop. The period is fixed for the loop's lifetime.
func NewLoop(name string, period time.Duration, fn func(context.Context)) *Loop {
	return &Loop{
		BaseJob: NewBaseJob(name),
		period:  period,
		fn:      fn,
	}
}

// Period returns the tick interval.
func (l *Loop) Period() time.Duration {
	return l.period
}

// Start begins ticking. It returns false if the loop was already running.
func (l *Loop) Start(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return false
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done

	go l.run(loopCtx, done)

	slog.Debug("Loop started", "loop", l.name, "period", l.period)
	return true
}

// Stop halts ticking and waits for the ticker goroutine to exit.
// Stopping a stopped loop is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	slog.Debug("Loop stopped", "loop", l.name)
}

// Running reports whether the loop is ticking.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// Fired returns how many ticks started a body.
func (l *Loop) Fired() int64 { return l.fired.Load() }

// Skipped returns how many ticks were dropped because a body was still running.
func (l *Loop) Skipped() int64 { return l.skipped.Load() }

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Stop may race with a ready tick
			if ctx.Err() != nil {
				return
			}
			l.fire(ctx)
		}
	}
}

func (l *Loop) fire(ctx context.Context) {
	if !l.TryLock() {
		l.skipped.Add(1)
		slog.Debug("Loop tick skipped, previous run still active", "loop", l.name)
		return
	}
	l.fired.Add(1)

	bodyCtx := context.WithoutCancel(ctx)
	go func(started time.Time) {
		defer l.finish(started)
		l.fn(bodyCtx)
	}(time.Now())
}
