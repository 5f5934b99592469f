package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotrail/pkg/geo"
	"geotrail/pkg/location"
)

func TestWalker_StartsAtStart(t *testing.T) {
	w := NewWalker(Config{StartLat: 51.6845, StartLon: 14.4234, Heading: 45, Step: 25})

	p, err := w.CurrentPosition(context.Background(), location.Options{})
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lat: 51.6845, Lon: 14.4234}, p)
}

func TestWalker_Steps(t *testing.T) {
	w := NewWalker(Config{StartLat: 10, StartLon: 20, Heading: 0, Step: 100})
	ctx := context.Background()

	first, err := w.CurrentPosition(ctx, location.Options{})
	require.NoError(t, err)
	second, err := w.CurrentPosition(ctx, location.Options{})
	require.NoError(t, err)

	assert.InDelta(t, 100, geo.Distance(first, second), 0.5)
	assert.Greater(t, second.Lat, first.Lat, "heading 0 walks north")
	assert.InDelta(t, first.Lon, second.Lon, 1e-9)
	assert.Equal(t, 2, w.Fixes())
}

func TestWalker_Turns(t *testing.T) {
	w := NewWalker(Config{StartLat: 0, StartLon: 0, Heading: 0, Step: 1000, TurnEvery: 2})
	ctx := context.Background()

	var pts []geo.Point
	for i := 0; i < 4; i++ {
		p, err := w.CurrentPosition(ctx, location.Options{})
		require.NoError(t, err)
		pts = append(pts, p)
	}

	// Two northward legs, then east
	assert.Greater(t, pts[2].Lat, pts[1].Lat)
	assert.InDelta(t, pts[2].Lat, pts[3].Lat, 1e-6)
	assert.Greater(t, pts[3].Lon, pts[2].Lon)
}

func TestWalker_Unavailable(t *testing.T) {
	w := NewWalker(Config{StartLat: 1, StartLon: 2})
	w.SetUnavailable(true)

	_, err := w.CurrentPosition(context.Background(), location.Options{})
	assert.ErrorIs(t, err, location.ErrUnavailable)
	assert.Equal(t, 1, w.Calls())
	assert.Equal(t, 0, w.Fixes())

	w.SetUnavailable(false)
	p, err := w.CurrentPosition(context.Background(), location.Options{})
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lat: 1, Lon: 2}, p)
}

func TestWalker_DelayHonoursDeadline(t *testing.T) {
	w := NewWalker(Config{StartLat: 1, StartLon: 2, Delay: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := w.CurrentPosition(ctx, location.Options{})
	assert.Equal(t, location.KindTimeout, location.Classify(err))
	assert.Equal(t, 0, w.Fixes())
}

func TestNormalizeHeading(t *testing.T) {
	assert.InDelta(t, 350, normalizeHeading(-10), 1e-9)
	assert.InDelta(t, 10, normalizeHeading(370), 1e-9)
	assert.InDelta(t, 0, normalizeHeading(360), 1e-9)
}
