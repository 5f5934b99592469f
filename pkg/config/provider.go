package config

import (
	"context"
	"strconv"
	"time"

	"geotrail/pkg/store"
)

// Provider resolves settings: runtime overrides from the store first, then
// the loaded YAML config.
type Provider interface {
	SampleInterval(ctx context.Context) time.Duration
	SampleTimeout(ctx context.Context) time.Duration
	RefitInterval(ctx context.Context) time.Duration
	BackgroundPolicy(ctx context.Context) string

	PermissionPolicy(ctx context.Context) string
	PowerSaveStatic(ctx context.Context) bool
	EdgeMargin(ctx context.Context) int

	AppConfig() *Config
}

// UnifiedProvider implements Provider over a Config and an optional store.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider. st may be nil.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{base: base, store: st}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

// Cadences are not runtime-tunable.

func (p *UnifiedProvider) SampleInterval(context.Context) time.Duration {
	return p.base.Tracking.SampleInterval.Std()
}

func (p *UnifiedProvider) SampleTimeout(context.Context) time.Duration {
	return p.base.Tracking.SampleTimeout.Std()
}

func (p *UnifiedProvider) RefitInterval(context.Context) time.Duration {
	return p.base.Tracking.RefitInterval.Std()
}

func (p *UnifiedProvider) BackgroundPolicy(ctx context.Context) string {
	return override(ctx, p.store, KeyBackgroundPolicy, p.base.Tracking.BackgroundPolicy, validString(IsValidBackgroundPolicy))
}

func (p *UnifiedProvider) PermissionPolicy(ctx context.Context) string {
	return override(ctx, p.store, KeyPermissionPolicy, p.base.Permission.Policy, validString(IsValidPermissionPolicy))
}

func (p *UnifiedProvider) PowerSaveStatic(ctx context.Context) bool {
	return override(ctx, p.store, KeyPowerSaveStatic, p.base.Power.Static, parseBool)
}

func (p *UnifiedProvider) EdgeMargin(ctx context.Context) int {
	return override(ctx, p.store, KeyEdgeMargin, p.base.Viewport.EdgeMargin, parseMargin)
}

// override returns the parsed stored value for key, or fallback when the key
// is unset, empty or does not parse.
func override[T any](ctx context.Context, st store.StateStore, key string, fallback T, parse func(string) (T, bool)) T {
	if st == nil {
		return fallback
	}
	raw, ok := st.GetState(ctx, key)
	if !ok || raw == "" {
		return fallback
	}
	if v, ok := parse(raw); ok {
		return v
	}
	return fallback
}

func validString(valid func(string) bool) func(string) (string, bool) {
	return func(s string) (string, bool) { return s, valid(s) }
}

func parseBool(s string) (bool, bool) {
	v, err := strconv.ParseBool(s)
	return v, err == nil
}

func parseMargin(s string) (int, bool) {
	v, err := strconv.Atoi(s)
	return v, err == nil && v >= 0
}
