package api

import (
	"net/http"

	"geotrail/pkg/model"
	"geotrail/pkg/session"
)

// EventsHandler serves the session's event history.
type EventsHandler struct {
	session *session.Manager
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(sess *session.Manager) *EventsHandler {
	return &EventsHandler{session: sess}
}

// EventsResponse is the body of GET /api/events.
type EventsResponse struct {
	SessionID string        `json:"sessionId"`
	Events    []model.Event `json:"events"`
}

// HandleEvents returns all events, optionally filtered by ?type=.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	events := h.session.Events()
	if t := r.URL.Query().Get("type"); t != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Type == t {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	writeJSON(w, http.StatusOK, EventsResponse{
		SessionID: h.session.ID(),
		Events:    events,
	})
}
