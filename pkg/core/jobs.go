// Package core provides the periodic job primitives the tracking loops run on.
package core

import (
	"sync/atomic"
	"time"
)

// BaseJob guards a job body against re-entry and remembers how long the last
// body took.
type BaseJob struct {
	name    string
	running atomic.Bool
	lastRun atomic.Int64 // nanoseconds
}

func NewBaseJob(name string) *BaseJob {
	return &BaseJob{name: name}
}

func (b *BaseJob) Name() string {
	return b.name
}

// TryLock marks the job as running. It fails while a body is executing.
func (b *BaseJob) TryLock() bool {
	return b.running.CompareAndSwap(false, true)
}

func (b *BaseJob) Unlock() {
	b.running.Store(false)
}

// Busy reports whether the job body is currently executing.
func (b *BaseJob) Busy() bool {
	return b.running.Load()
}

// LastDuration returns the run time of the most recently finished body.
func (b *BaseJob) LastDuration() time.Duration {
	return time.Duration(b.lastRun.Load())
}

// finish records the body's run time and releases the lock.
func (b *BaseJob) finish(started time.Time) {
	b.lastRun.Store(int64(time.Since(started)))
	b.Unlock()
}
