// Package location defines the one-shot position source used by the tracker
// and the error taxonomy its failures are classified into.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geotrail/pkg/geo"
)

var (
	// ErrUnavailable means the location service is off or has no provider.
	ErrUnavailable = errors.New("location unavailable")
	// ErrTimeout means no fix arrived within the requested timeout.
	ErrTimeout = errors.New("location request timed out")
)

// Options tune a single position request.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
}

// Source returns the device's current position on demand.
type Source interface {
	CurrentPosition(ctx context.Context, opts Options) (geo.Point, error)
}

// Kind classifies a position request failure.
type Kind int

const (
	KindNone Kind = iota
	KindUnavailable
	KindTimeout
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// Classify maps an error returned by a Source to its Kind.
// An expired context deadline counts as a timeout.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindOther
	}
}

// Fetch asks src for a position under a deadline of opts.Timeout.
// A non-positive timeout leaves ctx untouched. A fix with coordinates outside
// WGS84 ranges is rejected.
func Fetch(ctx context.Context, src Source, opts Options) (geo.Point, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	p, err := src.CurrentPosition(ctx, opts)
	if err != nil {
		if Classify(err) == KindOther && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return geo.Point{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return geo.Point{}, err
	}
	if !p.Valid() {
		return geo.Point{}, fmt.Errorf("invalid fix %s", p)
	}
	return p, nil
}
