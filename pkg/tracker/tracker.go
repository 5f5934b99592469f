package tracker

import (
	"sync"
	"sync/atomic"
)

// Collaborator names used by the tracking controller.
const (
	Location   = "location"
	Permission = "permission"
	Power      = "power"
	Viewport   = "viewport"
)

// Tracker tracks outcome counters per collaborator.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*CollaboratorStats
}

// CollaboratorStats holds outcome counters for a specific collaborator.
// Fields are accessed atomically.
type CollaboratorStats struct {
	Success     int64 `json:"success"`
	Failures    int64 `json:"failures"`
	Unavailable int64 `json:"unavailable"`
	Timeouts    int64 `json:"timeouts"`
	Denied      int64 `json:"denied"`
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*CollaboratorStats),
	}
}

// getStats returns the stats object for a collaborator, creating it if needed.
func (t *Tracker) getStats(name string) *CollaboratorStats {
	t.mu.RLock()
	s, ok := t.stats[name]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[name]; ok {
		return s
	}
	s = &CollaboratorStats{}
	t.stats[name] = s
	return s
}

// TrackSuccess increments the success counter.
func (t *Tracker) TrackSuccess(name string) {
	atomic.AddInt64(&t.getStats(name).Success, 1)
}

func (t *Tracker) TrackFailure(name string) {
	atomic.AddInt64(&t.getStats(name).Failures, 1)
}

func (t *Tracker) TrackUnavailable(name string) {
	atomic.AddInt64(&t.getStats(name).Unavailable, 1)
}

func (t *Tracker) TrackTimeout(name string) {
	atomic.AddInt64(&t.getStats(name).Timeouts, 1)
}

func (t *Tracker) TrackDenied(name string) {
	atomic.AddInt64(&t.getStats(name).Denied, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]CollaboratorStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]CollaboratorStats, len(t.stats))
	for k, v := range t.stats {
		result[k] = CollaboratorStats{
			Success:     atomic.LoadInt64(&v.Success),
			Failures:    atomic.LoadInt64(&v.Failures),
			Unavailable: atomic.LoadInt64(&v.Unavailable),
			Timeouts:    atomic.LoadInt64(&v.Timeouts),
			Denied:      atomic.LoadInt64(&v.Denied),
		}
	}
	return result
}
