package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"geotrail/pkg/alert"
	"geotrail/pkg/config"
	"geotrail/pkg/geo"
	"geotrail/pkg/lifecycle"
	"geotrail/pkg/location"
	"geotrail/pkg/model"
	"geotrail/pkg/permission"
	"geotrail/pkg/tracker"
	"geotrail/pkg/viewport"
)

type sourceResult struct {
	p   geo.Point
	err error
}

// fakeSource returns scripted results in order, then a generated walk.
type fakeSource struct {
	mu      sync.Mutex
	results []sourceResult
	calls   int
	lastOpt location.Options
	block   chan struct{}
	started chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{started: make(chan struct{}, 64)}
}

func (f *fakeSource) push(points ...geo.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range points {
		f.results = append(f.results, sourceResult{p: p})
	}
}

func (f *fakeSource) pushErr(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, err := range errs {
		f.results = append(f.results, sourceResult{err: err})
	}
}

func (f *fakeSource) blockUntil(ch chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = ch
}

func (f *fakeSource) CurrentPosition(ctx context.Context, opts location.Options) (geo.Point, error) {
	f.mu.Lock()
	f.calls++
	f.lastOpt = opts
	n := f.calls
	block := f.block
	var res sourceResult
	if len(f.results) > 0 {
		res, f.results = f.results[0], f.results[1:]
	} else {
		res = sourceResult{p: geo.Point{Lat: 10 + float64(n)*0.001, Lon: 20 + float64(n)*0.001}}
	}
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return geo.Point{}, ctx.Err()
		}
	}
	return res.p, res.err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type gateResult struct {
	res permission.Result
	err error
}

// fakeGate grants by default.
type fakeGate struct {
	mu      sync.Mutex
	results []gateResult
	calls   int
	last    permission.Rationale
	block   chan struct{}
	started chan struct{}
}

func newFakeGate(results ...permission.Result) *fakeGate {
	g := &fakeGate{started: make(chan struct{}, 64)}
	for _, r := range results {
		g.results = append(g.results, gateResult{res: r})
	}
	return g
}

func (g *fakeGate) Request(ctx context.Context, r permission.Rationale) (permission.Result, error) {
	g.mu.Lock()
	g.calls++
	g.last = r
	block := g.block
	res := gateResult{res: permission.Granted}
	if len(g.results) > 0 {
		res, g.results = g.results[0], g.results[1:]
	}
	g.mu.Unlock()

	select {
	case g.started <- struct{}{}:
	default:
	}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return permission.Denied, ctx.Err()
		}
	}
	return res.res, res.err
}

func (g *fakeGate) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakePower struct {
	mu     sync.Mutex
	active bool
	err    error
	calls  int
}

func (p *fakePower) IsPowerSaveActive(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.active, p.err
}

func (p *fakePower) set(active bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active, p.err = active, err
}

func (p *fakePower) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fitCall struct {
	points   []geo.Point
	margin   viewport.Margin
	animated bool
}

type fakeViewport struct {
	mu    sync.Mutex
	calls []fitCall
}

func (v *fakeViewport) FitToPoints(_ context.Context, points []geo.Point, m viewport.Margin, animated bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, fitCall{points: points, margin: m, animated: animated})
	return nil
}

func (v *fakeViewport) Calls() []fitCall {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]fitCall, len(v.calls))
	copy(out, v.calls)
	return out
}

type fakeNotifier struct {
	mu     sync.Mutex
	alerts []alert.Alert
}

func (n *fakeNotifier) Notify(_ context.Context, a alert.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, a)
}

func (n *fakeNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

type eventLog struct {
	mu     sync.Mutex
	events []model.Event
}

func (e *eventLog) AddEvent(ev *model.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, *ev)
}

func (e *eventLog) Titles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.events {
		out = append(out, ev.Title)
	}
	return out
}

// harness bundles a controller with its fakes.
type harness struct {
	ctrl     *Controller
	cfg      *config.Config
	source   *fakeSource
	gate     *fakeGate
	power    *fakePower
	viewport *fakeViewport
	alerts   *fakeNotifier
	events   *eventLog
	bus      *lifecycle.Bus
	stats    *tracker.Tracker
}

// newHarness builds a controller whose loops never tick unless mutate
// shortens the intervals.
func newHarness(t *testing.T, mutate func(cfg *config.Config), gateResults ...permission.Result) *harness {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Tracking.SampleInterval = config.Duration(time.Hour)
	cfg.Tracking.RefitInterval = config.Duration(time.Hour)
	cfg.Tracking.SampleTimeout = config.Duration(time.Second)
	if mutate != nil {
		mutate(cfg)
	}

	h := &harness{
		cfg:      cfg,
		source:   newFakeSource(),
		gate:     newFakeGate(gateResults...),
		power:    &fakePower{},
		viewport: &fakeViewport{},
		alerts:   &fakeNotifier{},
		events:   &eventLog{},
		bus:      lifecycle.NewBus(),
		stats:    tracker.New(),
	}

	ctrl, err := NewController(config.NewProvider(cfg, nil), Deps{
		Source:   h.source,
		Gate:     h.gate,
		Power:    h.power,
		Viewport: h.viewport,
		Bus:      h.bus,
		Alerts:   h.alerts,
		Events:   h.events,
		Stats:    h.stats,
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	t.Cleanup(ctrl.Close)
	return h
}

var errBoom = errors.New("boom")
