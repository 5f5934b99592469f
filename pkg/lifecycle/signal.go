package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
)

// SignalSource publishes lifecycle transitions derived from OS signals.
type SignalSource struct {
	bus     *Bus
	signals []os.Signal
}

// NewSignalSource creates a source that feeds bus.
func NewSignalSource(bus *Bus) *SignalSource {
	return &SignalSource{bus: bus, signals: lifecycleSignals()}
}

// Run forwards signals until ctx ends.
func (s *SignalSource) Run(ctx context.Context) {
	if len(s.signals) == 0 {
		slog.Debug("No lifecycle signals on this platform")
		<-ctx.Done()
		return
	}

	ch := make(chan os.Signal, 4)
	signal.Notify(ch, s.signals...)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			states := statesFor(sig)
			slog.Info("Lifecycle signal received", "signal", sig.String(), "states", states)
			for _, st := range states {
				s.bus.Publish(st)
			}
		}
	}
}
