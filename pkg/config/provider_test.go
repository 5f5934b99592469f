package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mapStore implements store.StateStore for testing.
type mapStore map[string]string

func (m mapStore) GetState(_ context.Context, key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapStore) SetState(_ context.Context, key, val string) error {
	m[key] = val
	return nil
}

func (m mapStore) DeleteState(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestUnifiedProvider_Cadence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracking.SampleInterval = Duration(5 * time.Second)
	p := NewProvider(cfg, mapStore{})

	assert.Equal(t, 5*time.Second, p.SampleInterval(t.Context()))
	assert.Equal(t, 60*time.Second, p.SampleTimeout(t.Context()))
	assert.Equal(t, 10*time.Second, p.RefitInterval(t.Context()))
	assert.Same(t, cfg, p.AppConfig())
}

func TestUnifiedProvider_Overrides(t *testing.T) {
	type resolved struct {
		background, permission string
		powerSave              bool
		margin                 int
	}
	defaults := resolved{BackgroundContinue, PolicyGrant, false, 50}

	tests := []struct {
		name  string
		store mapStore
		want  resolved
	}{
		{name: "NilStore", want: defaults},
		{name: "Empty", store: mapStore{}, want: defaults},
		{
			name: "AllOverridden",
			store: mapStore{
				KeyBackgroundPolicy: BackgroundSuspend,
				KeyPermissionPolicy: PolicyDeny,
				KeyPowerSaveStatic:  "true",
				KeyEdgeMargin:       "80",
			},
			want: resolved{BackgroundSuspend, PolicyDeny, true, 80},
		},
		{
			name: "InvalidFallBack",
			store: mapStore{
				KeyBackgroundPolicy: "sometimes",
				KeyPermissionPolicy: "maybe",
				KeyPowerSaveStatic:  "perhaps",
				KeyEdgeMargin:       "-3",
			},
			want: defaults,
		},
		{
			name:  "BlankIsUnset",
			store: mapStore{KeyBackgroundPolicy: "", KeyEdgeMargin: ""},
			want:  defaults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p *UnifiedProvider
			if tt.store == nil {
				p = NewProvider(DefaultConfig(), nil)
			} else {
				p = NewProvider(DefaultConfig(), tt.store)
			}
			ctx := t.Context()
			assert.Equal(t, tt.want, resolved{
				background: p.BackgroundPolicy(ctx),
				permission: p.PermissionPolicy(ctx),
				powerSave:  p.PowerSaveStatic(ctx),
				margin:     p.EdgeMargin(ctx),
			})
		})
	}
}
