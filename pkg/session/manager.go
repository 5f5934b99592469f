// Package session holds the process-session identity and its event history.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"geotrail/pkg/logging"
	"geotrail/pkg/model"
)

// DefaultMaxEvents bounds the in-memory history.
const DefaultMaxEvents = 500

// Manager handles the transient event history of one process run.
type Manager struct {
	mu        sync.RWMutex
	id        string
	startedAt time.Time
	events    []model.Event
	maxEvents int
}

// NewManager creates a new session manager with a fresh session id.
func NewManager() *Manager {
	return &Manager{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		maxEvents: DefaultMaxEvents,
	}
}

// ID returns the session id.
func (m *Manager) ID() string {
	return m.id
}

// StartedAt returns when the session began.
func (m *Manager) StartedAt() time.Time {
	return m.startedAt
}

// AddEvent adds a structured event to the session history.
func (m *Manager) AddEvent(event *model.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	m.events = append(m.events, *event)
	if len(m.events) > m.maxEvents {
		m.events = m.events[len(m.events)-m.maxEvents:]
	}

	// Log to events.log
	logging.LogEvent(event)
}

// Events returns a copy of the event history, oldest first.
func (m *Manager) Events() []model.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Event, len(m.events))
	copy(out, m.events)
	return out
}

// CountByType returns how many recorded events have the given type.
func (m *Manager) CountByType(eventType string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for i := range m.events {
		if m.events[i].Type == eventType {
			n++
		}
	}
	return n
}
