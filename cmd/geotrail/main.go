package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geotrail/internal/api"
	"geotrail/pkg/config"
	"geotrail/pkg/db"
	"geotrail/pkg/lifecycle"
	"geotrail/pkg/logging"
	"geotrail/pkg/probe"
	"geotrail/pkg/session"
	"geotrail/pkg/store"
	"geotrail/pkg/tracker"
	"geotrail/pkg/tracking"
	"geotrail/pkg/version"
	"geotrail/pkg/viewport"
)

const defaultConfigPath = "configs/geotrail.yaml"

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", defaultConfigPath, "Path to the config file")
)

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := config.LoadEnv(".env", ".env.local"); err != nil {
		return err
	}

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("GeoTrail Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	prov := config.NewProvider(appCfg, st)
	sessionMgr := session.NewManager()
	tr := tracker.New()
	hub := api.NewHub()

	src, err := initLocationSource(appCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize location source: %w", err)
	}
	gate, policy, err := initGate(ctx, appCfg, prov)
	if err != nil {
		return fmt.Errorf("failed to initialize permission gate: %w", err)
	}
	powerProbe, err := initPower(ctx, appCfg, prov)
	if err != nil {
		return fmt.Errorf("failed to initialize power probe: %w", err)
	}

	bus := lifecycle.NewBus()
	ctrl, err := tracking.NewController(prov, tracking.Deps{
		Source:   src,
		Gate:     gate,
		Power:    powerProbe,
		Viewport: viewport.NewCamera(appCfg.Viewport.Width, appCfg.Viewport.Height, appCfg.Viewport.MinSpan, hub),
		Bus:      bus,
		Alerts:   initAlerts(appCfg, sessionMgr, hub),
		Events:   sessionMgr,
		Stats:    tr,
	})
	if err != nil {
		return fmt.Errorf("failed to create tracking controller: %w", err)
	}
	defer ctrl.Close()
	unsubscribe := ctrl.Subscribe(hub.PublishState)
	defer unsubscribe()

	// Startup Probes
	probes := []probe.Probe{
		probe.Store(st),
		probe.Power(powerProbe),
	}
	if appCfg.Location.Provider == "nmea" {
		probes = append(probes, probe.Location(src, probe.DefaultTimeout))
	}
	report := probe.Run(ctx, probes)
	report.Log(slog.Default())
	if err := report.Err(); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	go lifecycle.NewSignalSource(bus).Run(ctx)

	// Start blocks on the first permission answer; keep the server responsive meanwhile.
	go func() {
		if err := ctrl.Start(ctx); err != nil {
			slog.Error("Failed to start tracking", "error", err)
		}
	}()

	return runServer(ctx, appCfg, api.Handlers{
		Track:      api.NewTrackHandler(ctrl, sessionMgr),
		Settings:   api.NewSettingsHandler(st, prov),
		Stats:      api.NewStatsHandler(ctrl, tr, hub),
		Permission: api.NewPermissionHandler(ctrl, policy),
		Lifecycle:  api.NewLifecycleHandler(bus),
		Events:     api.NewEventsHandler(sessionMgr),
		Stream:     hub,
	})
}

func initDB(appCfg *config.Config) (*db.DB, store.Store, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func runServer(ctx context.Context, cfg *config.Config, handlers api.Handlers) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address, handlers, shutdownFunc)
	srv.Handler = loggingMiddleware(srv.Handler)

	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
