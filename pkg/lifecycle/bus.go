// Package lifecycle delivers foreground/background transitions of the app.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
)

// State is the app's lifecycle state.
type State string

const (
	Active     State = "active"
	Background State = "background"
)

// ParseState maps "active" or "background" to a State.
func ParseState(s string) (State, error) {
	switch State(s) {
	case Active, Background:
		return State(s), nil
	default:
		return "", fmt.Errorf("unknown lifecycle state %q", s)
	}
}

// Listener receives lifecycle transitions.
type Listener func(State)

// ErrAlreadyRegistered is returned when a second listener registers on a bus.
var ErrAlreadyRegistered = errors.New("lifecycle listener already registered")

// Bus delivers state transitions to a single listener. Repeated publications
// of the current state are dropped and nothing is replayed to a late
// listener.
type Bus struct {
	mu       sync.Mutex
	listener Listener
	gen      uint64
	current  State

	// serializes deliveries so the listener sees transitions in order
	deliver sync.Mutex
}

// NewBus creates a bus whose current state is Active.
func NewBus() *Bus {
	return &Bus{current: Active}
}

// Register installs l. The returned func removes it and is safe to call more
// than once.
func (b *Bus) Register(l Listener) (unregister func(), err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listener != nil {
		return nil, ErrAlreadyRegistered
	}
	b.listener = l
	b.gen++
	gen := b.gen

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.gen == gen {
			b.listener = nil
		}
	}, nil
}

// Publish records s and delivers it if it differs from the current state.
// It reports whether a transition happened.
func (b *Bus) Publish(s State) bool {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	if s == b.current {
		b.mu.Unlock()
		return false
	}
	b.current = s
	l := b.listener
	b.mu.Unlock()

	if l != nil {
		l(s)
	}
	return true
}

// Current returns the last published state.
func (b *Bus) Current() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
