// Package tracking owns the permission lifecycle, position sampling, path
// accumulation and viewport refitting of the tracker.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"geotrail/pkg/alert"
	"geotrail/pkg/config"
	"geotrail/pkg/core"
	"geotrail/pkg/geo"
	"geotrail/pkg/lifecycle"
	"geotrail/pkg/location"
	"geotrail/pkg/logging"
	"geotrail/pkg/model"
	"geotrail/pkg/permission"
	"geotrail/pkg/power"
	"geotrail/pkg/tracker"
	"geotrail/pkg/viewport"
)

var (
	// ErrNotAuthorized is returned by SampleOnce while permission is not held.
	ErrNotAuthorized = errors.New("location permission not granted")
	// ErrClosed is returned by operations on a closed controller.
	ErrClosed = errors.New("tracking controller closed")
	// ErrStarted is returned by a second Start.
	ErrStarted = errors.New("tracking controller already started")
)

// EventRecorder stores notable transitions in the session history.
type EventRecorder interface {
	AddEvent(event *model.Event)
}

// Deps are the collaborators of a Controller. Source and Gate are required;
// the rest may be nil.
type Deps struct {
	Source   location.Source
	Gate     permission.Gate
	Power    power.Probe
	Viewport viewport.Viewport
	Bus      *lifecycle.Bus
	Alerts   alert.Notifier
	Events   EventRecorder
	Stats    *tracker.Tracker
}

// Controller is the tracking state machine. All state mutations happen under
// one mutex; no collaborator is called while it is held.
type Controller struct {
	cfg  config.Provider
	deps Deps

	sampling *core.Loop
	refit    *core.Loop

	mu               sync.Mutex
	state            State
	baseCtx          context.Context
	started          bool
	closed           bool
	authInFlight     bool
	refitEstablished bool
	suspended        bool
	unavailable      bool   // inside a LocationUnavailable episode
	epoch            uint64 // bumped on revocation and close
	unregister       func()

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int

	// pubMu orders deliveries; lastSeq is the newest snapshot delivered.
	pubMu   sync.Mutex
	lastSeq uint64
}

// NewController creates an idle controller in the unauthorized phase. Loop
// periods are read from cfg once, here.
func NewController(cfg config.Provider, deps Deps) (*Controller, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("tracking: position source is required")
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("tracking: permission gate is required")
	}
	if deps.Stats == nil {
		deps.Stats = tracker.New()
	}

	ctx := context.Background()
	c := &Controller{
		cfg:     cfg,
		deps:    deps,
		state:   State{Phase: PhaseUnauthorized, Path: []geo.Point{}},
		baseCtx: ctx,
		subs:    make(map[int]func(State)),
	}
	c.sampling = core.NewLoop("sampling", cfg.SampleInterval(ctx), c.sampleTick)
	c.refit = core.NewLoop("refit", cfg.RefitInterval(ctx), c.refitTick)
	return c, nil
}

// Start polls the power-save flag, registers for lifecycle transitions and
// issues the initial permission request. It blocks until that request is
// answered. ctx bounds the controller's loops.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.started {
		c.mu.Unlock()
		return ErrStarted
	}
	c.started = true
	c.baseCtx = ctx
	c.mu.Unlock()

	if c.deps.Bus != nil {
		unregister, err := c.deps.Bus.Register(func(s lifecycle.State) {
			c.OnAppLifecycleChange(ctx, s)
		})
		if err != nil {
			return fmt.Errorf("tracking: %w", err)
		}
		c.mu.Lock()
		if c.closed {
			// Close ran while registering and found nothing to remove.
			c.mu.Unlock()
			unregister()
			return ErrClosed
		}
		c.unregister = unregister
		c.mu.Unlock()
	}

	c.RefreshPowerState(ctx)
	c.RequestAuthorization(ctx)
	return nil
}

// Close deregisters from the lifecycle bus and stops both loops. Later calls
// are no-ops and results of in-flight requests are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.epoch++
	unregister := c.unregister
	c.unregister = nil
	c.mu.Unlock()

	if unregister != nil {
		unregister()
	}
	c.sampling.Stop()
	c.refit.Stop()

	c.subsMu.Lock()
	c.subs = make(map[int]func(State))
	c.subsMu.Unlock()

	slog.Info("Tracking controller closed")
}

// RequestAuthorization asks the gate for permission. A call made while
// another request is pending is a no-op. On grant it samples once and starts
// the sampling loop; on denial it revokes.
func (c *Controller) RequestAuthorization(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.authInFlight {
		c.mu.Unlock()
		return
	}
	c.authInFlight = true
	prevPhase := c.state.Phase
	if !c.state.PermissionGranted {
		c.state.Phase = PhaseAuthorizing
	}
	snap := c.transition()
	c.mu.Unlock()
	c.publish(snap)

	res, err := c.deps.Gate.Request(ctx, c.rationale())

	c.mu.Lock()
	c.authInFlight = false
	if c.closed {
		c.mu.Unlock()
		return
	}

	if err != nil {
		c.state.Phase = prevPhase
		snap = c.transition()
		c.mu.Unlock()

		c.deps.Stats.TrackFailure(tracker.Permission)
		slog.Error("Permission request failed", "error", err)
		c.publish(snap)
		return
	}

	if res != permission.Granted {
		c.mu.Unlock()
		c.deps.Stats.TrackDenied(tracker.Permission)
		c.revoke("Location permission denied")
		return
	}

	c.state.PermissionGranted = true
	if c.state.HasPosition() {
		c.state.Phase = PhaseTracking
	}
	snap = c.transition()
	c.mu.Unlock()

	c.deps.Stats.TrackSuccess(tracker.Permission)
	c.record(model.EventPermission, "Location permission granted", "")
	c.publish(snap)

	_ = c.SampleOnce(ctx)
	c.startSampling()
}

// Revoke drops the permission and stops the sampling loop, as if the gate
// had denied. The path is kept.
func (c *Controller) Revoke() {
	c.revoke("Location permission revoked")
}

func (c *Controller) revoke(title string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.PermissionGranted = false
	c.state.Phase = PhaseUnauthorized
	c.epoch++
	snap := c.transition()
	c.mu.Unlock()

	c.sampling.Stop()

	slog.Info(title)
	c.record(model.EventPermission, title, "")
	c.publish(snap)
}

// SampleOnce performs one position request and records the result. It
// returns ErrNotAuthorized without calling the source while permission is not
// held. A result that arrives after revocation or Close is discarded.
func (c *Controller) SampleOnce(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.state.PermissionGranted {
		c.mu.Unlock()
		return ErrNotAuthorized
	}
	epoch := c.epoch
	c.mu.Unlock()

	appCfg := c.cfg.AppConfig()
	opts := location.Options{
		HighAccuracy: appCfg.Tracking.HighAccuracy,
		Timeout:      c.cfg.SampleTimeout(ctx),
	}
	p, err := location.Fetch(ctx, c.deps.Source, opts)

	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		slog.Debug("Discarding position result after revocation", "error", err)
		return ErrNotAuthorized
	}

	if err != nil {
		kind := location.Classify(err)
		raise := kind == location.KindUnavailable && !c.unavailable
		if kind == location.KindUnavailable {
			c.unavailable = true
		}
		c.mu.Unlock()

		c.trackLocationFailure(kind)
		if raise {
			slog.Warn("Location unavailable", "error", err)
			if c.deps.Alerts != nil {
				c.deps.Alerts.Notify(ctx, alert.LocationUnavailable())
			}
		} else {
			slog.Warn("Position sample failed", "kind", kind, "error", err)
		}
		return err
	}

	c.unavailable = false
	c.state.record(p, time.Now())
	c.state.Phase = PhaseTracking
	firstFix := !c.refitEstablished
	c.refitEstablished = true
	snap := c.transition()
	c.mu.Unlock()

	c.deps.Stats.TrackSuccess(tracker.Location)
	logging.TraceDefault("Position sampled", "position", p.String(), "samples", snap.SampleCount)

	if firstFix {
		slog.Info("First position recorded", "position", p.String())
		c.startRefit()
	}
	c.publish(snap)
	return nil
}

// Refit asks the viewport to show the whole path. It is a no-op without a
// viewport or before the first position.
func (c *Controller) Refit(ctx context.Context) error {
	if c.deps.Viewport == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed || !c.state.HasPosition() {
		c.mu.Unlock()
		return nil
	}
	points := make([]geo.Point, len(c.state.Path))
	copy(points, c.state.Path)
	c.mu.Unlock()

	margin := viewport.Uniform(c.cfg.EdgeMargin(ctx))
	animated := c.cfg.AppConfig().Viewport.Animated

	if err := c.deps.Viewport.FitToPoints(ctx, points, margin, animated); err != nil {
		c.deps.Stats.TrackFailure(tracker.Viewport)
		slog.Warn("Viewport refit failed", "points", len(points), "error", err)
		return err
	}
	c.deps.Stats.TrackSuccess(tracker.Viewport)
	return nil
}

// RefreshPowerState polls the power-save flag. A failure keeps the previous
// value.
func (c *Controller) RefreshPowerState(ctx context.Context) {
	if c.deps.Power == nil {
		return
	}

	active, err := c.deps.Power.IsPowerSaveActive(ctx)
	if err != nil {
		c.deps.Stats.TrackFailure(tracker.Power)
		slog.Warn("Power-save probe failed, keeping previous value", "error", err)
		return
	}
	c.deps.Stats.TrackSuccess(tracker.Power)

	c.mu.Lock()
	if c.closed || c.state.PowerSaveActive == active {
		c.mu.Unlock()
		return
	}
	c.state.PowerSaveActive = active
	snap := c.transition()
	c.mu.Unlock()

	slog.Info("Power-save state changed", "active", active)
	c.record(model.EventPower, fmt.Sprintf("Power saving %s", onOff(active)), "")
	c.publish(snap)
}

// OnAppLifecycleChange reacts to foreground and background transitions.
func (c *Controller) OnAppLifecycleChange(ctx context.Context, s lifecycle.State) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	slog.Info("App lifecycle changed", "state", s)
	c.record(model.EventLifecycle, fmt.Sprintf("App %s", s), "")

	switch s {
	case lifecycle.Background:
		c.onBackground(ctx)
	case lifecycle.Active:
		c.onActive(ctx)
	}
}

func (c *Controller) onBackground(ctx context.Context) {
	if c.cfg.BackgroundPolicy(ctx) != config.BackgroundSuspend {
		return
	}

	c.mu.Lock()
	c.suspended = true
	c.mu.Unlock()

	c.sampling.Stop()
	c.refit.Stop()
	slog.Info("Tracking loops suspended in background")
}

func (c *Controller) onActive(ctx context.Context) {
	c.mu.Lock()
	wasSuspended := c.suspended
	c.suspended = false
	needsAuth := !c.state.HasPosition()
	c.mu.Unlock()

	if wasSuspended {
		sampling, refit := c.startSampling(), c.startRefit()
		slog.Info("Tracking loops resumed", "sampling", sampling, "refit", refit)
	}

	c.RefreshPowerState(ctx)

	if needsAuth {
		// The gate may wait on the user indefinitely; the bus must stay free
		// for the next transition.
		slog.Info("No position recorded yet, retrying authorization")
		go c.RequestAuthorization(ctx)
	}
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers fn to receive a snapshot after every state transition.
// Snapshots arrive in transition order; one superseded before delivery is
// skipped. fn is called outside the state lock, must not block for long and
// must not call back into methods that change state.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.subsMu.Lock()
		defer c.subsMu.Unlock()
		delete(c.subs, id)
	}
}

// SamplingActive reports whether the sampling loop is ticking.
func (c *Controller) SamplingActive() bool { return c.sampling.Running() }

// RefitActive reports whether the refit loop is ticking.
func (c *Controller) RefitActive() bool { return c.refit.Running() }

// transition stamps the state with the next sequence number and returns the
// copy to publish. c.mu must be held.
func (c *Controller) transition() State {
	c.state.Seq++
	return c.state.Clone()
}

func (c *Controller) publish(s State) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if s.Seq <= c.lastSeq {
		return
	}
	c.lastSeq = s.Seq

	c.subsMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range fns {
		fn(s.Clone())
	}
}

func (c *Controller) sampleTick(ctx context.Context) {
	_ = c.SampleOnce(ctx)
}

func (c *Controller) refitTick(ctx context.Context) {
	_ = c.Refit(ctx)
}

// startSampling starts the sampling loop if permission is held and the loops
// are not suspended. The check and the start happen under c.mu so a
// concurrent revoke either sees the loop running or prevents it.
func (c *Controller) startSampling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.suspended || !c.state.PermissionGranted {
		return false
	}
	c.sampling.Start(c.baseCtx)
	return true
}

// startRefit starts the refit loop once a first position exists.
func (c *Controller) startRefit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.suspended || !c.refitEstablished {
		return false
	}
	c.refit.Start(c.baseCtx)
	return true
}

func (c *Controller) rationale() permission.Rationale {
	p := c.cfg.AppConfig().Permission
	return permission.Rationale{
		Title:        p.Title,
		Message:      p.Message,
		ConfirmLabel: p.ConfirmLabel,
	}
}

func (c *Controller) trackLocationFailure(kind location.Kind) {
	switch kind {
	case location.KindUnavailable:
		c.deps.Stats.TrackUnavailable(tracker.Location)
	case location.KindTimeout:
		c.deps.Stats.TrackTimeout(tracker.Location)
	default:
		c.deps.Stats.TrackFailure(tracker.Location)
	}
}

func (c *Controller) record(eventType, title, summary string) {
	if c.deps.Events == nil {
		return
	}
	c.deps.Events.AddEvent(&model.Event{
		Type:    eventType,
		Title:   title,
		Summary: summary,
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
