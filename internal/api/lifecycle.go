package api

import (
	"encoding/json"
	"io"
	"net/http"

	"geotrail/pkg/lifecycle"
)

// LifecycleHandler forwards foreground/background transitions to the bus.
type LifecycleHandler struct {
	bus *lifecycle.Bus
}

// NewLifecycleHandler creates a new LifecycleHandler.
func NewLifecycleHandler(bus *lifecycle.Bus) *LifecycleHandler {
	return &LifecycleHandler{bus: bus}
}

// LifecycleRequest is the body of POST /api/lifecycle.
type LifecycleRequest struct {
	State string `json:"state"`
}

// LifecycleResponse reports the current state and whether the request changed it.
type LifecycleResponse struct {
	State   lifecycle.State `json:"state"`
	Changed bool            `json:"changed"`
}

// HandleGet returns the current lifecycle state.
func (h *LifecycleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LifecycleResponse{State: h.bus.Current()})
}

// HandleSet publishes a transition. It returns after the listener has handled it.
func (h *LifecycleHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	var req LifecycleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	s, err := lifecycle.ParseState(req.State)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	changed := h.bus.Publish(s)
	writeJSON(w, http.StatusOK, LifecycleResponse{State: h.bus.Current(), Changed: changed})
}
