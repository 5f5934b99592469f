package api

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"geotrail/pkg/geo"
	"geotrail/pkg/tracker"
)

type StatsHandler struct {
	ctrl    Controller
	tracker *tracker.Tracker
	hub     *Hub
	started time.Time

	mu     sync.Mutex
	maxMem uint64
}

func NewStatsHandler(ctrl Controller, t *tracker.Tracker, hub *Hub) *StatsHandler {
	return &StatsHandler{
		ctrl:    ctrl,
		tracker: t,
		hub:     hub,
		started: time.Now(),
	}
}

type ComponentStats struct {
	Name        string  `json:"name"`
	MemoryMB    uint64  `json:"memory_mb"`
	MemoryMaxMB uint64  `json:"memory_max_mb"`
	Goroutines  int     `json:"goroutines"`
	UptimeSec   float64 `json:"uptime_sec"`
}

type TrackingStats struct {
	Samples        int     `json:"samples"`
	DistanceMeters float64 `json:"distance_m"`
	HeadingDeg     float64 `json:"heading_deg"`
	CoveredCells   int     `json:"covered_cells"`
	SamplingActive bool    `json:"sampling_active"`
	RefitActive    bool    `json:"refit_active"`
	StreamClients  int     `json:"stream_clients"`
}

type StatsResponse struct {
	Diagnostics   []ComponentStats                     `json:"diagnostics"`
	Tracking      TrackingStats                        `json:"tracking"`
	Collaborators map[string]tracker.CollaboratorStats `json:"collaborators"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := h.ctrl.Snapshot()

	h.mu.Lock()
	diagnostics := h.gatherDiagnostics()
	h.mu.Unlock()

	resp := StatsResponse{
		Diagnostics: diagnostics,
		Tracking: TrackingStats{
			Samples:        s.SampleCount,
			DistanceMeters: s.DistanceMeters,
			HeadingDeg:     s.HeadingDeg,
			CoveredCells:   geo.CoveredCells(s.Path, geo.CoverageResolution),
			SamplingActive: h.ctrl.SamplingActive(),
			RefitActive:    h.ctrl.RefitActive(),
		},
		Collaborators: h.tracker.Snapshot(),
	}
	if h.hub != nil {
		resp.Tracking.StreamClients = h.hub.Clients()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *StatsHandler) gatherDiagnostics() []ComponentStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	if ms.Sys > h.maxMem {
		h.maxMem = ms.Sys
	}

	return []ComponentStats{{
		Name:        "Server",
		MemoryMB:    bToMb(ms.Sys),
		MemoryMaxMB: bToMb(h.maxMem),
		Goroutines:  runtime.NumGoroutine(),
		UptimeSec:   time.Since(h.started).Seconds(),
	}}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
