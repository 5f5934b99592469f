package viewport

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotrail/pkg/geo"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []Frame
}

func (s *recordingSink) PublishFrame(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func TestCamera_EmptyIsNoop(t *testing.T) {
	sink := &recordingSink{}
	c := NewCamera(600, 600, 0.005, sink)

	require.NoError(t, c.FitToPoints(context.Background(), nil, Uniform(50), true))
	assert.Empty(t, sink.frames)
	assert.Nil(t, c.Last())
	assert.Equal(t, 0, c.Fits())
}

func TestCamera_TwoPoints(t *testing.T) {
	sink := &recordingSink{}
	c := NewCamera(600, 600, 0.005, sink)
	pts := []geo.Point{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}

	require.NoError(t, c.FitToPoints(context.Background(), pts, Uniform(50), true))
	require.Len(t, sink.frames, 1)

	f := sink.frames[0]
	assert.True(t, f.Animated)
	assert.Equal(t, 2, f.Points)
	assert.Equal(t, Uniform(50), f.Margin)

	// 500px of content for one degree: 50px margin = 0.1°
	b := f.Region.Bounds
	assert.InDelta(t, -0.1, b.West, 1e-9)
	assert.InDelta(t, 1.1, b.East, 1e-9)
	assert.InDelta(t, -0.1, b.South, 1e-9)
	assert.InDelta(t, 1.1, b.North, 1e-9)
	for _, p := range pts {
		assert.True(t, p.Lat > b.South && p.Lat < b.North && p.Lon > b.West && p.Lon < b.East, "%v outside %+v", p, b)
	}
	assert.Equal(t, f, *c.Last())
}

func TestCamera_SinglePointUsesMinSpan(t *testing.T) {
	c := NewCamera(600, 600, 0.01, nil)

	r, err := c.Fit([]geo.Point{{Lat: 10, Lon: 20}}, Uniform(50))
	require.NoError(t, err)
	assert.InDelta(t, 10, r.Center.Lat, 1e-9)
	assert.InDelta(t, 20, r.Center.Lon, 1e-9)
	assert.InDelta(t, 0.012, r.Bounds.LonSpan(), 1e-9)
	assert.Greater(t, r.Zoom, 10.0)
}

func TestCamera_UniformScale(t *testing.T) {
	c := NewCamera(1000, 500, 0, nil)

	// A tall path on a wide screen: latitude drives the scale
	r, err := c.Fit([]geo.Point{{Lat: 0, Lon: 0}, {Lat: 4, Lon: 1}}, Margin{})
	require.NoError(t, err)
	assert.InDelta(t, 4, r.Bounds.LatSpan(), 1e-9)
	assert.InDelta(t, 8, r.Bounds.LonSpan(), 1e-9)
}

func TestCamera_NoRoom(t *testing.T) {
	c := NewCamera(80, 80, 0.005, nil)
	err := c.FitToPoints(context.Background(), []geo.Point{{Lat: 1, Lon: 1}}, Uniform(50), false)
	assert.ErrorIs(t, err, ErrNoRoom)
}

func TestCamera_ClampsLatitude(t *testing.T) {
	c := NewCamera(600, 600, 0, nil)
	r, err := c.Fit([]geo.Point{{Lat: 89, Lon: 0}, {Lat: 89.9, Lon: 1}}, Uniform(100))
	require.NoError(t, err)
	assert.LessOrEqual(t, r.Bounds.North, 90.0)
}
