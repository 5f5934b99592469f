package probe

import (
	"context"
	"fmt"
	"time"

	"geotrail/pkg/location"
	"geotrail/pkg/power"
	"geotrail/pkg/store"
)

// Location asks src for one fix. It is never critical: a missing fix only
// degrades to alerts at runtime.
func Location(src location.Source, timeout time.Duration) Probe {
	return Probe{
		Name:    "Location Source",
		Timeout: timeout + time.Second,
		Check: func(ctx context.Context) error {
			p, err := location.Fetch(ctx, src, location.Options{Timeout: timeout})
			if err != nil {
				return fmt.Errorf("%s: %w", location.Classify(err), err)
			}
			if !p.Valid() {
				return fmt.Errorf("invalid fix %s", p)
			}
			return nil
		},
	}
}

// Power reads the power-save flag once.
func Power(p power.Probe) Probe {
	return Probe{
		Name: "Power Probe",
		Check: func(ctx context.Context) error {
			_, err := p.IsPowerSaveActive(ctx)
			return err
		},
	}
}

// Store round-trips a marker key through the settings store.
func Store(st store.StateStore) Probe {
	const key = "probe_marker"
	return Probe{
		Name:     "Settings Store",
		Critical: true,
		Check: func(ctx context.Context) error {
			want := time.Now().UTC().Format(time.RFC3339Nano)
			if err := st.SetState(ctx, key, want); err != nil {
				return err
			}
			got, ok := st.GetState(ctx, key)
			if !ok || got != want {
				return fmt.Errorf("read back %q, want %q", got, want)
			}
			return st.DeleteState(ctx, key)
		},
	}
}
