package permission

import (
	"context"
	"log/slog"
	"sync"

	"geotrail/pkg/config"
)

// Policy answers permission requests from configuration. The resolver is
// consulted on every request so runtime overrides apply immediately. Revoke
// forces Denied until Restore.
type Policy struct {
	resolve func() string

	mu       sync.Mutex
	revoked  bool
	requests int
}

// NewPolicy creates a policy gate. resolve returns config.PolicyGrant or
// config.PolicyDeny; anything else is treated as a denial.
func NewPolicy(resolve func() string) *Policy {
	return &Policy{resolve: resolve}
}

// Request implements Gate.
func (p *Policy) Request(_ context.Context, r Rationale) (Result, error) {
	p.mu.Lock()
	p.requests++
	revoked := p.revoked
	p.mu.Unlock()

	if revoked {
		slog.Info("Permission request denied: revoked", "title", r.Title)
		return Denied, nil
	}

	if p.resolve() == config.PolicyGrant {
		return Granted, nil
	}
	return Denied, nil
}

// Revoke makes every following request return Denied.
func (p *Policy) Revoke() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = true
}

// Restore lifts a previous Revoke.
func (p *Policy) Restore() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = false
}

// Revoked reports whether the gate is currently revoked.
func (p *Policy) Revoked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revoked
}

// Requests returns how many requests the gate has answered.
func (p *Policy) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}
