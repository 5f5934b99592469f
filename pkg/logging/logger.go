package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"geotrail/pkg/config"
)

// RequestLogger is the logger instance for HTTP requests.
var RequestLogger = slog.New(slog.DiscardHandler)

// Init installs the server logger as slog's default, opens the request log and
// points the event journal at its file. Existing files are kept as .old.
// The returned cleanup closes every file.
func Init(cfg *config.LogConfig) (func(), error) {
	for _, p := range []string{cfg.Server.Path, cfg.Requests.Path, cfg.Events.Path} {
		rotate(p)
	}

	serverFile, err := openLog(cfg.Server.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to setup server logger: %w", err)
	}
	requestFile, err := openLog(cfg.Requests.Path)
	if err != nil {
		serverFile.Close()
		return nil, fmt.Errorf("failed to setup requests logger: %w", err)
	}

	level := ParseLevel(cfg.Server.Level)
	slog.SetDefault(slog.New(NewFanout(
		slog.NewTextHandler(serverFile, &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}),
		// console and /api/log/latest stay at INFO and up
		slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: max(level, slog.LevelInfo)}),
		slog.NewTextHandler(GlobalLogCapture, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)))
	RequestLogger = slog.New(slog.NewTextHandler(requestFile, &slog.HandlerOptions{Level: ParseLevel(cfg.Requests.Level)}))

	SetEventLogPath(cfg.Events.Path)

	return func() {
		SetEventLogPath("")
		if err := errors.Join(requestFile.Close(), serverFile.Close()); err != nil {
			fmt.Fprintf(os.Stderr, "closing logs: %v\n", err)
		}
	}, nil
}

// ParseLevel maps a config level name to a slog level. Unknown names are INFO.
// TRACE logs at DEBUG and switches on Trace output.
func ParseLevel(name string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		SetTrace(true)
		return slog.LevelDebug
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// rotate moves path to path.old, replacing the previous one.
func rotate(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = os.Remove(path + ".old")
	_ = os.Rename(path, path+".old")
}
