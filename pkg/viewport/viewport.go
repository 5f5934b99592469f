// Package viewport fits a map camera to a set of points.
package viewport

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"geotrail/pkg/geo"
)

// Margin is the screen-space padding, in pixels, kept around fitted points.
type Margin struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Uniform returns a margin of px on every edge.
func Uniform(px int) Margin {
	return Margin{Top: px, Right: px, Bottom: px, Left: px}
}

// Viewport is a map surface that can be fitted to points.
type Viewport interface {
	FitToPoints(ctx context.Context, points []geo.Point, margin Margin, animated bool) error
}

// Region is the geographic area a camera shows.
type Region struct {
	Bounds geo.Bounds `json:"bounds"`
	Center geo.Point  `json:"center"`
	Zoom   float64    `json:"zoom"`
}

// Frame is one camera move.
type Frame struct {
	Region    Region    `json:"region"`
	Margin    Margin    `json:"margin"`
	Points    int       `json:"points"`
	Animated  bool      `json:"animated"`
	Timestamp time.Time `json:"timestamp"`
}

// FrameSink receives camera moves, e.g. to push them to a map UI.
type FrameSink interface {
	PublishFrame(f Frame)
}

// ErrNoRoom is returned when the margin leaves no content area.
var ErrNoRoom = errors.New("margin leaves no room in viewport")

// tileSize is the web-map tile edge used to express scale as a zoom level.
const tileSize = 256

// Camera computes the region for a screen of fixed pixel size and publishes
// it to an optional sink.
type Camera struct {
	width   int
	height  int
	minSpan float64
	sink    FrameSink

	mu   sync.RWMutex
	last *Frame
	fits int
}

// NewCamera creates a camera for a width x height pixel surface. minSpan is the
// smallest extent in degrees shown around a single point.
func NewCamera(width, height int, minSpan float64, sink FrameSink) *Camera {
	return &Camera{width: width, height: height, minSpan: minSpan, sink: sink}
}

// FitToPoints implements Viewport. Empty input is a no-op.
func (c *Camera) FitToPoints(ctx context.Context, points []geo.Point, margin Margin, animated bool) error {
	if len(points) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	region, err := c.Fit(points, margin)
	if err != nil {
		return err
	}

	f := Frame{
		Region:    region,
		Margin:    margin,
		Points:    len(points),
		Animated:  animated,
		Timestamp: time.Now(),
	}

	c.mu.Lock()
	c.last = &f
	c.fits++
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.PublishFrame(f)
	}
	return nil
}

// Fit computes the region that shows all points inside the margin at a
// uniform scale.
func (c *Camera) Fit(points []geo.Point, margin Margin) (Region, error) {
	b, ok := geo.BoundsOf(points)
	if !ok {
		return Region{}, fmt.Errorf("no points to fit")
	}

	contentW := c.width - margin.Left - margin.Right
	contentH := c.height - margin.Top - margin.Bottom
	if contentW <= 0 || contentH <= 0 {
		return Region{}, fmt.Errorf("%dx%d with margin %+v: %w", c.width, c.height, margin, ErrNoRoom)
	}

	lonSpan := math.Max(b.LonSpan(), c.minSpan)
	latSpan := math.Max(b.LatSpan(), c.minSpan)
	center := b.Center()

	// degrees per pixel
	scale := math.Max(lonSpan/float64(contentW), latSpan/float64(contentH))

	bounds := geo.Bounds{
		West:  center.Lon - (float64(contentW)/2+float64(margin.Left))*scale,
		East:  center.Lon + (float64(contentW)/2+float64(margin.Right))*scale,
		South: math.Max(-90, center.Lat-(float64(contentH)/2+float64(margin.Bottom))*scale),
		North: math.Min(90, center.Lat+(float64(contentH)/2+float64(margin.Top))*scale),
	}

	return Region{
		Bounds: bounds,
		Center: bounds.Center(),
		Zoom:   math.Log2(360 / (tileSize * scale)),
	}, nil
}

// Last returns the most recent frame, or nil before the first fit.
func (c *Camera) Last() *Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return nil
	}
	f := *c.last
	return &f
}

// Fits returns how many frames were produced.
func (c *Camera) Fits() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fits
}
