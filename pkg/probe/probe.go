// Package probe runs startup checks against the tracker's collaborators.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a check that sets no Timeout of its own.
const DefaultTimeout = 5 * time.Second

// CheckFunc returns nil when the collaborator is usable.
type CheckFunc func(ctx context.Context) error

// Probe is a single startup check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool          // a failure aborts startup
	Timeout  time.Duration // 0 = DefaultTimeout
}

func (p Probe) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

// Result is the outcome of one probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Status is PASS, WARN (non-critical failure) or FAIL.
func (r Result) Status() string {
	switch {
	case r.Error == nil:
		return "PASS"
	case r.Probe.Critical:
		return "FAIL"
	default:
		return "WARN"
	}
}

// Report holds results in probe order.
type Report []Result

// Run executes probes sequentially, each under its own deadline.
func Run(ctx context.Context, probes []Probe) Report {
	report := make(Report, 0, len(probes))
	for _, p := range probes {
		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, p.timeout())
		err := p.Check(checkCtx)
		cancel()
		report = append(report, Result{Probe: p, Error: err, Duration: time.Since(start)})
	}
	return report
}

// Err joins the errors of failed critical probes.
func (r Report) Err() error {
	var errs []error
	for _, res := range r {
		if res.Error != nil && res.Probe.Critical {
			errs = append(errs, fmt.Errorf("%s: %w", res.Probe.Name, res.Error))
		}
	}
	return errors.Join(errs...)
}

// Log writes one line per result to logger.
func (r Report) Log(logger *slog.Logger) {
	logger.Info("Startup Checks Summary", "checks", len(r))
	for _, res := range r {
		msg := fmt.Sprintf("[%s] %-20s (%v)", res.Status(), res.Probe.Name, res.Duration.Round(time.Millisecond))
		switch res.Status() {
		case "PASS":
			logger.Info(msg)
		case "FAIL":
			logger.Error(msg, "error", res.Error)
		default:
			logger.Warn(msg, "error", res.Error)
		}
	}
}
