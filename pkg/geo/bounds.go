package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Bounds is an axis-aligned lat/lon rectangle.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() Point {
	return Point{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

// LatSpan returns the north-south extent in degrees.
func (b Bounds) LatSpan() float64 { return b.North - b.South }

// LonSpan returns the east-west extent in degrees.
func (b Bounds) LonSpan() float64 { return b.East - b.West }

// BoundsOf returns the smallest rectangle containing all points.
// ok is false when points is empty.
func BoundsOf(points []Point) (b Bounds, ok bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	bound := toMultiPoint(points).Bound()
	return Bounds{
		South: bound.Min.Lat(),
		West:  bound.Min.Lon(),
		North: bound.Max.Lat(),
		East:  bound.Max.Lon(),
	}, true
}

// PathFeature renders the path as a GeoJSON feature: a LineString for two or
// more points, a Point for a single one, nil for an empty path.
func PathFeature(path []Point, props map[string]any) *geojson.Feature {
	var f *geojson.Feature
	switch len(path) {
	case 0:
		return nil
	case 1:
		f = geojson.NewFeature(path[0].Orb())
	default:
		f = geojson.NewFeature(orb.LineString(toMultiPoint(path)))
	}
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

func toMultiPoint(points []Point) orb.MultiPoint {
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = p.Orb()
	}
	return mp
}
