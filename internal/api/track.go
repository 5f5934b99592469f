package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/paulmach/orb/geojson"

	"geotrail/pkg/geo"
	"geotrail/pkg/session"
	"geotrail/pkg/tracking"
)

// Controller is the part of the tracking controller the API drives.
type Controller interface {
	Snapshot() tracking.State
	SamplingActive() bool
	RefitActive() bool
	RequestAuthorization(ctx context.Context)
	Revoke()
}

// TrackHandler serves the tracked position and path.
type TrackHandler struct {
	ctrl    Controller
	session *session.Manager
}

// NewTrackHandler creates a new TrackHandler.
func NewTrackHandler(ctrl Controller, sess *session.Manager) *TrackHandler {
	return &TrackHandler{ctrl: ctrl, session: sess}
}

// TrackResponse is the snapshot plus session metadata.
type TrackResponse struct {
	tracking.State
	SessionID string      `json:"sessionId"`
	Bounds    *geo.Bounds `json:"bounds,omitempty"`
}

// HandleTrack returns the current snapshot.
func (h *TrackHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	s := h.ctrl.Snapshot()
	resp := TrackResponse{State: s}
	if h.session != nil {
		resp.SessionID = h.session.ID()
	}
	if b, ok := geo.BoundsOf(s.Path); ok {
		resp.Bounds = &b
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGeoJSON returns the path as a feature collection. An empty path
// yields an empty collection.
func (h *TrackHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	s := h.ctrl.Snapshot()
	fc := geojson.NewFeatureCollection()

	props := map[string]any{
		"samples":    s.SampleCount,
		"distance_m": s.DistanceMeters,
	}
	if h.session != nil {
		props["session"] = h.session.ID()
	}
	if f := geo.PathFeature(s.Path, props); f != nil {
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		http.Error(w, "Failed to encode path", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write geojson response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
