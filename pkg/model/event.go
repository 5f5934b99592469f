// Package model defines shared record types.
package model

import "time"

// Event types recorded in the session history.
const (
	EventPermission = "permission"
	EventAlert      = "alert"
	EventLifecycle  = "lifecycle"
	EventPower      = "power"
	EventTracking   = "tracking"
)

// Event is a notable tracking occurrence shown to the user and written to
// the events log.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
}
