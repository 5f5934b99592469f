package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"geotrail/pkg/version"
)

// Handlers groups the endpoint handlers served by NewServer.
type Handlers struct {
	Track      *TrackHandler
	Settings   *SettingsHandler
	Stats      *StatsHandler
	Permission *PermissionHandler
	Lifecycle  *LifecycleHandler
	Events     *EventsHandler
	Stream     *Hub
}

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewMux(h, shutdown),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers the routes. Nil handlers leave their routes out.
func NewMux(h Handlers, shutdown func()) *http.ServeMux {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Tracking state
	if h.Track != nil {
		mux.HandleFunc("GET /api/track", h.Track.HandleTrack)
		mux.HandleFunc("GET /api/track/geojson", h.Track.HandleGeoJSON)
	}
	if h.Stats != nil {
		mux.Handle("GET /api/stats", h.Stats)
	}
	if h.Events != nil {
		mux.HandleFunc("GET /api/events", h.Events.HandleEvents)
	}
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 3. Controls
	if h.Lifecycle != nil {
		mux.HandleFunc("GET /api/lifecycle", h.Lifecycle.HandleGet)
		mux.HandleFunc("POST /api/lifecycle", h.Lifecycle.HandleSet)
	}
	if h.Permission != nil {
		mux.HandleFunc("POST /api/permission/revoke", h.Permission.HandleRevoke)
		mux.HandleFunc("POST /api/permission/grant", h.Permission.HandleGrant)
	}
	if h.Settings != nil {
		mux.HandleFunc("/api/settings", h.Settings.HandleSettings)
	}

	// 4. Live stream
	if h.Stream != nil {
		mux.Handle("GET /api/stream", h.Stream)
	}

	// 5. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			if shutdown != nil {
				shutdown()
			}
		}()
	})

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
