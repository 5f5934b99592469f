package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"SampleInterval", "60s", time.Minute, false},
		{"RefitInterval", "10s", 10 * time.Second, false},
		{"Fractional", "1.5h", 90 * time.Minute, false},
		{"Days", "1d", Day, false},
		{"Weeks", "1w", Week, false},
		{"Composite", "2d2h", 50 * time.Hour, false},
		{"Millis", "100ms", 100 * time.Millisecond, false},
		{"Blank", "  ", 0, false},
		{"Garbage", "soon", 0, true},
		{"UnknownExtendedUnit", "1dx", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDistance(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"Meters", "25m", 25, false},
		{"Kilometers", "1.5km", 1500, false},
		{"NauticalMiles", "1nm", 1852, false},
		{"Feet", "30ft", 9.144, false},
		{"Unitless", "500", 500, false},
		{"BadNumber", "10x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDistance(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestUnits_YAMLRoundTrip(t *testing.T) {
	type walker struct {
		Every Duration `yaml:"every"`
		Step  Distance `yaml:"step"`
		Bare  Distance `yaml:"bare"`
	}

	var w walker
	require.NoError(t, yaml.Unmarshal([]byte("every: 1d12h\nstep: 0.5km\nbare: 25\n"), &w))
	assert.Equal(t, 36*time.Hour, w.Every.Std())
	assert.InDelta(t, 500, float64(w.Step), 1e-9)
	assert.InDelta(t, 25, float64(w.Bare), 1e-9)

	out, err := yaml.Marshal(w)
	require.NoError(t, err)
	assert.Contains(t, string(out), "every: 36h0m0s")
	assert.Contains(t, string(out), "step: 500.00m")
}

func TestUnits_RejectsTrailingGarbage(t *testing.T) {
	for _, in := range []string{"1d!", "1d 12h", "x1d"} {
		_, err := ParseDuration(in)
		assert.Error(t, err, in)
	}
	_, err := ParseDistance("5km and change")
	assert.Error(t, err)
}
