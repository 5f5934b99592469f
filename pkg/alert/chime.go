package alert

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/generators"
	"github.com/gopxl/beep/v2/speaker"
)

// SampleRate of the generated chime.
const SampleRate = beep.SampleRate(48000)

// Player plays a finite streamer.
type Player interface {
	Play(s beep.Streamer) error
}

// Chime plays a short sine tone for every alert.
type Chime struct {
	frequency float64
	duration  time.Duration
	player    Player
}

// NewChime creates a chime. A nil player uses the system speaker.
func NewChime(frequency float64, duration time.Duration, player Player) *Chime {
	if player == nil {
		player = &SpeakerPlayer{}
	}
	return &Chime{frequency: frequency, duration: duration, player: player}
}

// Notify implements Notifier.
func (c *Chime) Notify(_ context.Context, a Alert) {
	tone, err := c.Tone()
	if err != nil {
		slog.Warn("Chime: failed to build tone", "error", err)
		return
	}
	if err := c.player.Play(tone); err != nil {
		slog.Warn("Chime: playback failed", "kind", a.Kind, "error", err)
	}
}

// Tone returns the chime as a finite streamer with a linear fade-out.
func (c *Chime) Tone() (beep.Streamer, error) {
	sine, err := generators.SineTone(SampleRate, c.frequency)
	if err != nil {
		return nil, fmt.Errorf("sine tone: %w", err)
	}
	n := SampleRate.N(c.duration)
	return &fadeOut{Streamer: beep.Take(n, sine), total: n}, nil
}

// fadeOut ramps the gain linearly from 1 to 0 over total samples.
type fadeOut struct {
	beep.Streamer
	total int
	pos   int
}

func (f *fadeOut) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.Streamer.Stream(samples)
	for i := 0; i < n; i++ {
		gain := 1 - float64(f.pos)/float64(f.total)
		if gain < 0 {
			gain = 0
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
		f.pos++
	}
	return n, ok
}

// SpeakerPlayer plays through gopxl/beep/speaker, initialising it on first use.
type SpeakerPlayer struct {
	once    sync.Once
	initErr error
}

// Play implements Player.
func (p *SpeakerPlayer) Play(s beep.Streamer) error {
	p.once.Do(func() {
		p.initErr = speaker.Init(SampleRate, SampleRate.N(time.Second/10))
	})
	if p.initErr != nil {
		return fmt.Errorf("speaker init: %w", p.initErr)
	}
	speaker.Play(s)
	return nil
}
