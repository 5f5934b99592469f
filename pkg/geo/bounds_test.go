package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsOf(t *testing.T) {
	_, ok := BoundsOf(nil)
	assert.False(t, ok, "empty input has no bounds")

	b, ok := BoundsOf([]Point{{Lat: 1, Lon: 1}, {Lat: 0, Lon: 0}, {Lat: 0.5, Lon: -2}})
	require.True(t, ok)
	assert.Equal(t, Bounds{South: 0, West: -2, North: 1, East: 1}, b)
	assert.Equal(t, Point{Lat: 0.5, Lon: -0.5}, b.Center())
	assert.InDelta(t, 1.0, b.LatSpan(), 1e-9)
	assert.InDelta(t, 3.0, b.LonSpan(), 1e-9)
}

func TestPathFeature(t *testing.T) {
	assert.Nil(t, PathFeature(nil, nil))

	single := PathFeature([]Point{{Lat: 10, Lon: 20}}, map[string]any{"samples": 1})
	require.NotNil(t, single)
	assert.Equal(t, orb.Point{20, 10}, single.Geometry)
	assert.Equal(t, 1, single.Properties["samples"])

	line := PathFeature([]Point{{Lat: 10, Lon: 20}, {Lat: 10.1, Lon: 20.1}}, nil)
	require.NotNil(t, line)
	ls, ok := line.Geometry.(orb.LineString)
	require.True(t, ok, "expected LineString, got %T", line.Geometry)
	assert.Len(t, ls, 2)
	assert.Equal(t, orb.Point{20.1, 10.1}, ls[1])
}

func TestCoveredCells(t *testing.T) {
	path := []Point{
		{Lat: 52.5200, Lon: 13.4050},
		{Lat: 52.5200, Lon: 13.4050}, // same spot, same cell
		{Lat: 48.8566, Lon: 2.3522},
	}
	assert.Equal(t, 2, CoveredCells(path, CoverageResolution))
	assert.Equal(t, 0, CoveredCells(nil, CoverageResolution))
}
