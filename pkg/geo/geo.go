// Package geo provides geographic value types and helpers used by the tracker.
// Great-circle math is delegated to orb/geo on a spherical earth.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// FromOrb converts an orb point ([lon, lat]).
func FromOrb(p orb.Point) Point { return Point{Lat: p.Lat(), Lon: p.Lon()} }

// Orb returns the point in orb's [lon, lat] order.
func (p Point) Orb() orb.Point { return orb.Point{p.Lon, p.Lat} }

// String formats the point as "lat,lon" with six decimals.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Valid reports whether the point lies within latitude and longitude range.
func (p Point) Valid() bool {
	return inRange(p.Lat, 90) && inRange(p.Lon, 180)
}

// inRange is false for NaN.
func inRange(v, limit float64) bool { return v >= -limit && v <= limit }

// Distance is the haversine distance between a and b in meters.
func Distance(a, b Point) float64 {
	return orbgeo.DistanceHaversine(a.Orb(), b.Orb())
}

// DestinationPoint moves distMeters from start along bearing (degrees from north).
func DestinationPoint(start Point, distMeters, bearing float64) Point {
	return FromOrb(orbgeo.PointAtBearingAndDistance(start.Orb(), bearing, distMeters))
}

// Bearing is the initial bearing from a to b, normalized to [0, 360).
func Bearing(a, b Point) float64 {
	return math.Mod(orbgeo.Bearing(a.Orb(), b.Orb())+360, 360)
}
