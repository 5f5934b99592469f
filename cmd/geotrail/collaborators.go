package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"geotrail/pkg/alert"
	"geotrail/pkg/config"
	"geotrail/pkg/location"
	"geotrail/pkg/location/mock"
	"geotrail/pkg/location/nmea"
	"geotrail/pkg/permission"
	"geotrail/pkg/power"
	"geotrail/pkg/session"
)

func initLocationSource(cfg *config.Config) (location.Source, error) {
	switch cfg.Location.Provider {
	case "", "mock":
		m := cfg.Location.Mock
		slog.Info("Location Source: Mock", "start_lat", m.StartLat, "start_lon", m.StartLon)
		w := mock.NewWalker(mock.Config{
			StartLat:  m.StartLat,
			StartLon:  m.StartLon,
			Heading:   m.Heading,
			Step:      m.Step.Meters(),
			TurnEvery: m.TurnEvery,
		})
		w.SetUnavailable(m.Unavailable)
		return w, nil
	case "nmea":
		n := cfg.Location.NMEA
		opts := nmea.PortOptions{BaudRate: n.BaudRate, DataBits: n.DataBits, StopBits: n.StopBits, Parity: n.Parity}
		opts, err := opts.Normalize()
		if err != nil {
			return nil, err
		}
		if n.Port == "" {
			slog.Warn("Location Source: NMEA without a serial port, every fix will be unavailable")
		} else {
			slog.Info("Location Source: NMEA", "port", n.Port, "baud", opts.BaudRate)
		}
		return nmea.NewReceiver(n.Port, opts, nmea.OpenSerial), nil
	default:
		return nil, fmt.Errorf("unknown location provider %q", cfg.Location.Provider)
	}
}

// initGate returns the gate and, for the policy gate, the policy itself so the
// API can revoke and restore it.
func initGate(ctx context.Context, cfg *config.Config, prov config.Provider) (permission.Gate, *permission.Policy, error) {
	switch cfg.Permission.Provider {
	case "", "policy":
		p := permission.NewPolicy(func() string { return prov.PermissionPolicy(ctx) })
		slog.Info("Permission Gate: Policy", "policy", prov.PermissionPolicy(ctx))
		return p, p, nil
	case "console":
		slog.Info("Permission Gate: Console")
		return permission.NewConsole(os.Stdin, os.Stdout), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown permission provider %q", cfg.Permission.Provider)
	}
}

func initPower(ctx context.Context, cfg *config.Config, prov config.Provider) (power.Probe, error) {
	switch cfg.Power.Provider {
	case "", "sysfs":
		slog.Info("Power Probe: sysfs", "path", cfg.Power.ProfilePath)
		return power.NewSysfsProbe(cfg.Power.ProfilePath), nil
	case "static":
		slog.Info("Power Probe: Static", "power_save", prov.PowerSaveStatic(ctx))
		return power.Resolver(func() bool { return prov.PowerSaveStatic(ctx) }), nil
	default:
		return nil, fmt.Errorf("unknown power provider %q", cfg.Power.Provider)
	}
}

func initAlerts(cfg *config.Config, sess *session.Manager, extra ...alert.Notifier) alert.Notifier {
	notifiers := alert.Multi{alert.NewLogNotifier(sess)}
	notifiers = append(notifiers, extra...)
	if cfg.Alert.Chime {
		slog.Info("Alert chime enabled", "frequency", cfg.Alert.ChimeFrequency)
		notifiers = append(notifiers, alert.NewChime(cfg.Alert.ChimeFrequency, cfg.Alert.ChimeDuration.Std(), nil))
	}
	return notifiers
}
