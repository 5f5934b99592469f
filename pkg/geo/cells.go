package geo

import (
	"github.com/uber/h3-go/v4"
)

// CoverageResolution is the H3 resolution used for path coverage stats
// (~0.1 km² hexagons).
const CoverageResolution = 9

// CoveredCells counts the distinct H3 cells visited by the path.
// Points that cannot be indexed are skipped.
func CoveredCells(path []Point, resolution int) int {
	seen := make(map[h3.Cell]struct{}, len(path))
	for _, p := range path {
		cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lon), resolution)
		if err != nil {
			continue
		}
		seen[cell] = struct{}{}
	}
	return len(seen)
}
