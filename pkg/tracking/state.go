package tracking

import (
	"time"

	"geotrail/pkg/geo"
)

// Phase is the controller's authorization/tracking phase.
type Phase string

const (
	PhaseUnauthorized Phase = "unauthorized"
	PhaseAuthorizing  Phase = "authorizing"
	PhaseTracking     Phase = "tracking"
)

// State is the tracked state. Values handed out by the controller are deep
// copies and safe to keep.
type State struct {
	Phase             Phase       `json:"phase"`
	CurrentPosition   *geo.Point  `json:"currentPosition,omitempty"`
	Path              []geo.Point `json:"path"`
	PermissionGranted bool        `json:"permissionGranted"`
	PowerSaveActive   bool        `json:"powerSaveActive"`

	SampleCount    int       `json:"sampleCount"`
	DistanceMeters float64   `json:"distanceMeters"`
	HeadingDeg     float64   `json:"headingDeg"` // bearing of the last segment, 0 before two fixes
	LastSampleAt   time.Time `json:"lastSampleAt,omitzero"`

	// Seq increases with every published transition.
	Seq uint64 `json:"seq"`
}

// Clone returns a deep copy of s.
func (s *State) Clone() State {
	out := *s
	out.Path = make([]geo.Point, len(s.Path))
	copy(out.Path, s.Path)
	if s.CurrentPosition != nil {
		p := *s.CurrentPosition
		out.CurrentPosition = &p
	}
	return out
}

// HasPosition reports whether at least one sample was ever recorded.
func (s *State) HasPosition() bool {
	return s.CurrentPosition != nil && len(s.Path) > 0
}

// record appends p and makes it the current position in one step.
func (s *State) record(p geo.Point, at time.Time) {
	if n := len(s.Path); n > 0 {
		s.DistanceMeters += geo.Distance(s.Path[n-1], p)
		s.HeadingDeg = geo.Bearing(s.Path[n-1], p)
	}
	s.Path = append(s.Path, p)
	cur := p
	s.CurrentPosition = &cur
	s.SampleCount++
	s.LastSampleAt = at
}
