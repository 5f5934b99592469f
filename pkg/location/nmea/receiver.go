// Package nmea implements a position source backed by a serial NMEA 0183
// GPS receiver.
package nmea

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	gonmea "github.com/adrianmo/go-nmea"
	"go.bug.st/serial"

	"geotrail/pkg/geo"
	"geotrail/pkg/location"
	"geotrail/pkg/logging"
)

// MaxHDOP is the worst horizontal dilution accepted for high-accuracy requests.
const MaxHDOP = 5.0

// Opener opens a serial port at path with the given mode.
type Opener func(path string, mode *serial.Mode) (io.ReadCloser, error)

// OpenSerial opens a real serial port.
func OpenSerial(path string, mode *serial.Mode) (io.ReadCloser, error) {
	return serial.Open(path, mode)
}

// Receiver implements location.Source. Each request opens the port, reads
// sentences until a usable fix arrives or the context ends, then closes it.
type Receiver struct {
	port string
	opts PortOptions
	open Opener

	mu       sync.Mutex
	sentence string
}

// NewReceiver creates a receiver for the given port. A nil opener uses OpenSerial.
func NewReceiver(port string, opts PortOptions, open Opener) *Receiver {
	if open == nil {
		open = OpenSerial
	}
	return &Receiver{port: port, opts: opts, open: open}
}

// CurrentPosition reads the next valid fix from the receiver.
func (r *Receiver) CurrentPosition(ctx context.Context, opts location.Options) (geo.Point, error) {
	if r.port == "" {
		return geo.Point{}, fmt.Errorf("nmea: no serial port configured: %w", location.ErrUnavailable)
	}

	mode, err := r.opts.SerialMode()
	if err != nil {
		return geo.Point{}, fmt.Errorf("nmea: %w", err)
	}

	port, err := r.open(r.port, mode)
	if err != nil {
		return geo.Point{}, fmt.Errorf("nmea: open %s: %v: %w", r.port, err, location.ErrUnavailable)
	}
	// Closing the port unblocks the reader goroutine
	defer port.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scan := bufio.NewScanner(port)
		for scan.Scan() {
			select {
			case lines <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErr <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return geo.Point{}, fmt.Errorf("nmea: no fix before deadline: %w", location.ErrTimeout)

		case err := <-scanErr:
			return geo.Point{}, fmt.Errorf("nmea: read %s: %w", r.port, err)

		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return geo.Point{}, fmt.Errorf("nmea: read %s: %w", r.port, err)
				default:
				}
				return geo.Point{}, fmt.Errorf("nmea: %s closed without a fix: %w", r.port, location.ErrUnavailable)
			}
			p, ok := parseFix(line, opts.HighAccuracy)
			if !ok {
				continue
			}
			r.mu.Lock()
			r.sentence = line
			r.mu.Unlock()
			return p, nil
		}
	}
}

// LastSentence returns the raw sentence of the most recent fix.
func (r *Receiver) LastSentence() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sentence
}

// parseFix extracts a position from an RMC or GGA sentence. Void RMC, GGA
// without a fix and unrelated sentence types are rejected.
func parseFix(line string, highAccuracy bool) (geo.Point, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return geo.Point{}, false
	}

	s, err := gonmea.Parse(line)
	if err != nil {
		logging.TraceDefault("nmea: skipping sentence", "line", line, "error", err)
		return geo.Point{}, false
	}

	switch m := s.(type) {
	case gonmea.RMC:
		if m.Validity != gonmea.ValidRMC {
			return geo.Point{}, false
		}
		return geo.Point{Lat: m.Latitude, Lon: m.Longitude}, true

	case gonmea.GGA:
		if m.FixQuality == gonmea.Invalid || m.FixQuality == "" {
			return geo.Point{}, false
		}
		if highAccuracy && m.HDOP > MaxHDOP {
			slog.Debug("nmea: fix below requested accuracy", "hdop", m.HDOP)
			return geo.Point{}, false
		}
		return geo.Point{Lat: m.Latitude, Lon: m.Longitude}, true
	}
	return geo.Point{}, false
}
