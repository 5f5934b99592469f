package api

import (
	"context"
	"sync"

	"geotrail/pkg/tracking"
)

type fakeController struct {
	mu        sync.Mutex
	state     tracking.State
	sampling  bool
	refit     bool
	revokes   int
	requests  int
	requested chan struct{}
}

func newFakeController(s tracking.State) *fakeController {
	return &fakeController{state: s, requested: make(chan struct{}, 8)}
}

func (f *fakeController) Snapshot() tracking.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Clone()
}

func (f *fakeController) SamplingActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sampling
}

func (f *fakeController) RefitActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refit
}

func (f *fakeController) RequestAuthorization(ctx context.Context) {
	f.mu.Lock()
	f.requests++
	f.mu.Unlock()
	f.requested <- struct{}{}
}

func (f *fakeController) Revoke() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revokes++
	f.state.PermissionGranted = false
	f.state.Phase = tracking.PhaseUnauthorized
	f.sampling = false
}

func (f *fakeController) Revokes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revokes
}

type memStore struct {
	mu    sync.Mutex
	state map[string]string
}

func newMemStore(init map[string]string) *memStore {
	m := &memStore{state: make(map[string]string)}
	for k, v := range init {
		m.state[k] = v
	}
	return m
}

func (m *memStore) GetState(ctx context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state[key]
	return v, ok
}

func (m *memStore) SetState(ctx context.Context, key, val string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = val
	return nil
}

func (m *memStore) DeleteState(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key)
	return nil
}

func (m *memStore) ListState(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.state))
	for k, v := range m.state {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }
