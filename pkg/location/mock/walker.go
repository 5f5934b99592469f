// Package mock provides a deterministic simulated position source.
package mock

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"geotrail/pkg/geo"
	"geotrail/pkg/location"
)

// Config holds the walker's starting state.
type Config struct {
	StartLat  float64
	StartLon  float64
	Heading   float64 // degrees
	Step      float64 // meters per fix
	TurnEvery int     // fixes between 90° right turns, 0 = straight line
	Delay     time.Duration
}

// Walker implements location.Source by walking a fixed pattern from a start
// coordinate. The first fix is the start coordinate; every later fix moves one
// step along the current heading.
type Walker struct {
	mu          sync.Mutex
	config      Config
	pos         geo.Point
	heading     float64
	fixes       int
	calls       int
	unavailable bool
}

// NewWalker creates a walker positioned at the configured start.
func NewWalker(cfg Config) *Walker {
	return &Walker{
		config:  cfg,
		pos:     geo.Point{Lat: cfg.StartLat, Lon: cfg.StartLon},
		heading: normalizeHeading(cfg.Heading),
	}
}

// CurrentPosition returns the next fix along the walk.
func (w *Walker) CurrentPosition(ctx context.Context, _ location.Options) (geo.Point, error) {
	w.mu.Lock()
	w.calls++
	delay := w.config.Delay
	unavailable := w.unavailable
	w.mu.Unlock()

	if unavailable {
		return geo.Point{}, fmt.Errorf("mock walker: %w", location.ErrUnavailable)
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return geo.Point{}, fmt.Errorf("mock walker: %w", location.ErrTimeout)
		case <-timer.C:
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.advance(), nil
}

// advance must be called with w.mu held.
func (w *Walker) advance() geo.Point {
	if w.fixes > 0 {
		w.pos = geo.DestinationPoint(w.pos, w.config.Step, w.heading)
		if w.config.TurnEvery > 0 && w.fixes%w.config.TurnEvery == 0 {
			w.heading = normalizeHeading(w.heading + 90)
		}
	}
	w.fixes++
	return w.pos
}

// SetUnavailable toggles the simulated "location services off" state.
func (w *Walker) SetUnavailable(off bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unavailable = off
}

// Calls returns how many position requests were made.
func (w *Walker) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// Fixes returns how many positions were delivered.
func (w *Walker) Fixes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fixes
}

func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
