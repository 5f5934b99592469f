// Package alert delivers user-visible alerts.
package alert

import (
	"context"
	"log/slog"
	"time"

	"geotrail/pkg/model"
)

// Kind identifies an alert.
type Kind string

const KindLocationUnavailable Kind = "location_unavailable"

// Alert is a user-facing notice.
type Alert struct {
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// LocationUnavailable is raised when the location service is switched off.
func LocationUnavailable() Alert {
	return Alert{
		Kind:      KindLocationUnavailable,
		Title:     "Location unavailable",
		Message:   "Location is not available. Please turn on the location.",
		Timestamp: time.Now(),
	}
}

// Notifier shows an alert to the user. Implementations must not block for long.
type Notifier interface {
	Notify(ctx context.Context, a Alert)
}

// EventRecorder stores alerts in the session history.
type EventRecorder interface {
	AddEvent(event *model.Event)
}

// LogNotifier logs alerts and records them as session events.
type LogNotifier struct {
	events EventRecorder
}

// NewLogNotifier creates a notifier backed by events, which may be nil.
func NewLogNotifier(events EventRecorder) *LogNotifier {
	return &LogNotifier{events: events}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, a Alert) {
	slog.Warn("ALERT", "kind", a.Kind, "title", a.Title, "message", a.Message)
	if n.events == nil {
		return
	}
	n.events.AddEvent(&model.Event{
		Timestamp: a.Timestamp,
		Type:      model.EventAlert,
		Title:     a.Title,
		Summary:   a.Message,
	})
}

// Multi fans an alert out to several notifiers.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, a Alert) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, a)
		}
	}
}
