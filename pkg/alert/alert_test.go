package alert

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geotrail/pkg/model"
)

type eventSink struct {
	events []model.Event
}

func (s *eventSink) AddEvent(e *model.Event) { s.events = append(s.events, *e) }

func TestLocationUnavailable(t *testing.T) {
	a := LocationUnavailable()
	assert.Equal(t, KindLocationUnavailable, a.Kind)
	assert.Equal(t, "Location is not available. Please turn on the location.", a.Message)
	assert.False(t, a.Timestamp.IsZero())
}

func TestLogNotifier_RecordsEvent(t *testing.T) {
	sink := &eventSink{}
	n := NewLogNotifier(sink)

	n.Notify(context.Background(), LocationUnavailable())

	require.Len(t, sink.events, 1)
	assert.Equal(t, model.EventAlert, sink.events[0].Type)
	assert.Equal(t, "Location unavailable", sink.events[0].Title)

	// nil recorder only logs
	NewLogNotifier(nil).Notify(context.Background(), LocationUnavailable())
}

type namedNotifier struct {
	name  string
	calls *[]string
}

func (n namedNotifier) Notify(context.Context, Alert) { *n.calls = append(*n.calls, n.name) }

func TestMulti(t *testing.T) {
	var calls []string
	m := Multi{
		namedNotifier{"a", &calls},
		nil,
		namedNotifier{"b", &calls},
	}
	m.Notify(context.Background(), LocationUnavailable())
	assert.Equal(t, []string{"a", "b"}, calls)
}

type capturePlayer struct {
	samples [][2]float64
	err     error
}

func (p *capturePlayer) Play(s beep.Streamer) error {
	if p.err != nil {
		return p.err
	}
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		p.samples = append(p.samples, buf[:n]...)
		if !ok {
			return nil
		}
	}
}

func TestChime_Tone(t *testing.T) {
	player := &capturePlayer{}
	c := NewChime(880, 100*time.Millisecond, player)

	c.Notify(context.Background(), LocationUnavailable())

	require.Len(t, player.samples, SampleRate.N(100*time.Millisecond))

	var peak float64
	for _, s := range player.samples[:1000] {
		peak = math.Max(peak, math.Abs(s[0]))
	}
	assert.Greater(t, peak, 0.5, "tone is audible at the start")

	last := player.samples[len(player.samples)-1]
	assert.Less(t, math.Abs(last[0]), 0.01, "tone fades out")
}

func TestChime_PlayerErrorIsSwallowed(t *testing.T) {
	c := NewChime(880, 10*time.Millisecond, &capturePlayer{err: errors.New("no audio device")})
	assert.NotPanics(t, func() { c.Notify(context.Background(), LocationUnavailable()) })
}

func TestChime_InvalidFrequency(t *testing.T) {
	c := NewChime(float64(SampleRate), time.Millisecond, &capturePlayer{})
	_, err := c.Tone()
	assert.Error(t, err, "frequency above Nyquist is rejected")
}
