package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Background policies for the tracking loops.
const (
	BackgroundContinue = "continue"
	BackgroundSuspend  = "suspend"
)

// Permission policies for the policy gate.
const (
	PolicyGrant = "grant"
	PolicyDeny  = "deny"
)

// Config holds the application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	DB         DBConfig         `yaml:"db"`
	Server     ServerConfig     `yaml:"server"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	Permission PermissionConfig `yaml:"permission"`
	Location   LocationConfig   `yaml:"location"`
	Power      PowerConfig      `yaml:"power"`
	Viewport   ViewportConfig   `yaml:"viewport"`
	Alert      AlertConfig      `yaml:"alert"`
}

// TrackingConfig holds the sampling and refit cadence.
type TrackingConfig struct {
	SampleInterval   Duration `yaml:"sample_interval"`
	SampleTimeout    Duration `yaml:"sample_timeout"`
	HighAccuracy     bool     `yaml:"high_accuracy"`
	RefitInterval    Duration `yaml:"refit_interval"`
	BackgroundPolicy string   `yaml:"background_policy"` // "continue", "suspend"
}

// PermissionConfig holds the permission gate and its rationale text.
type PermissionConfig struct {
	Provider     string `yaml:"provider"` // "policy", "console"
	Policy       string `yaml:"policy"`   // "grant", "deny" (policy provider only)
	Title        string `yaml:"title"`
	Message      string `yaml:"message"`
	ConfirmLabel string `yaml:"confirm_label"`
}

// LocationConfig selects and configures the position source.
type LocationConfig struct {
	Provider string             `yaml:"provider"` // "mock", "nmea"
	Mock     MockLocationConfig `yaml:"mock"`
	NMEA     NMEAConfig         `yaml:"nmea"`
}

// MockLocationConfig holds settings for the simulated walker.
type MockLocationConfig struct {
	StartLat    float64  `yaml:"start_lat"`
	StartLon    float64  `yaml:"start_lon"`
	Heading     float64  `yaml:"heading"`
	Step        Distance `yaml:"step"`
	TurnEvery   int      `yaml:"turn_every"` // samples between 90° turns, 0 = straight line
	Unavailable bool     `yaml:"unavailable"`
}

// NMEAConfig holds settings for a serial GPS receiver.
type NMEAConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"`
}

// PowerConfig selects the power-save probe.
type PowerConfig struct {
	Provider    string `yaml:"provider"` // "sysfs", "static"
	ProfilePath string `yaml:"profile_path"`
	Static      bool   `yaml:"static"`
}

// ViewportConfig describes the map surface the camera fits into.
type ViewportConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	EdgeMargin int     `yaml:"edge_margin"`
	MinSpan    float64 `yaml:"min_span_deg"`
	Animated   bool    `yaml:"animated"`
}

// AlertConfig holds settings for user-facing alerts.
type AlertConfig struct {
	Chime          bool     `yaml:"chime"`
	ChimeFrequency float64  `yaml:"chime_frequency"`
	ChimeDuration  Duration `yaml:"chime_duration"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Events   LogSettings `yaml:"events"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server:   LogSettings{Path: "./logs/server.log", Level: "INFO"},
			Requests: LogSettings{Path: "./logs/requests.log", Level: "INFO"},
			Events:   LogSettings{Path: "./logs/events.log", Level: "INFO"},
		},
		DB: DBConfig{
			Path: "./data/geotrail.db",
		},
		Server: ServerConfig{
			Address: "localhost:1921",
		},
		Tracking: TrackingConfig{
			SampleInterval:   Duration(60 * time.Second),
			SampleTimeout:    Duration(60 * time.Second),
			HighAccuracy:     true,
			RefitInterval:    Duration(10 * time.Second),
			BackgroundPolicy: BackgroundContinue,
		},
		Permission: PermissionConfig{
			Provider:     "policy",
			Policy:       PolicyGrant,
			Title:        "Location Permission",
			Message:      "This app needs access to your location to show your current location on the map.",
			ConfirmLabel: "OK",
		},
		Location: LocationConfig{
			Provider: "mock",
			Mock: MockLocationConfig{
				StartLat:  51.6845,
				StartLon:  14.4234,
				Heading:   45,
				Step:      Distance(25),
				TurnEvery: 20,
			},
			NMEA: NMEAConfig{
				BaudRate: 9600,
				DataBits: 8,
				StopBits: 1,
				Parity:   "N",
			},
		},
		Power: PowerConfig{
			Provider:    "sysfs",
			ProfilePath: "/sys/firmware/acpi/platform_profile",
		},
		Viewport: ViewportConfig{
			Width:      1080,
			Height:     1920,
			EdgeMargin: 50,
			MinSpan:    0.005,
			Animated:   true,
		},
		Alert: AlertConfig{
			Chime:          false,
			ChimeFrequency: 880,
			ChimeDuration:  Duration(300 * time.Millisecond),
		},
	}
}

// LoadEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are skipped; existing variables win.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills empty fields from GEOTRAIL_* variables. It never writes back to disk.
func applyEnv(cfg *Config) {
	if cfg.Location.NMEA.Port == "" {
		if port := os.Getenv("GEOTRAIL_SERIAL_PORT"); port != "" {
			cfg.Location.NMEA.Port = port
		}
	}
	if addr := os.Getenv("GEOTRAIL_SERVER_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
}

// Validate checks values that would otherwise surface as runtime misbehaviour.
func (c *Config) Validate() error {
	var errs []error
	if c.Tracking.SampleInterval <= 0 {
		errs = append(errs, fmt.Errorf("tracking.sample_interval must be positive"))
	}
	if c.Tracking.SampleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("tracking.sample_timeout must be positive"))
	}
	if c.Tracking.RefitInterval <= 0 {
		errs = append(errs, fmt.Errorf("tracking.refit_interval must be positive"))
	}
	if !IsValidBackgroundPolicy(c.Tracking.BackgroundPolicy) {
		errs = append(errs, fmt.Errorf("invalid tracking.background_policy '%s': must be '%s' or '%s'",
			c.Tracking.BackgroundPolicy, BackgroundContinue, BackgroundSuspend))
	}
	if c.Permission.Provider == "policy" && !IsValidPermissionPolicy(c.Permission.Policy) {
		errs = append(errs, fmt.Errorf("invalid permission.policy '%s': must be '%s' or '%s'",
			c.Permission.Policy, PolicyGrant, PolicyDeny))
	}
	if c.Viewport.EdgeMargin < 0 {
		errs = append(errs, fmt.Errorf("viewport.edge_margin must not be negative"))
	}
	if c.Viewport.Width <= 2*c.Viewport.EdgeMargin || c.Viewport.Height <= 2*c.Viewport.EdgeMargin {
		errs = append(errs, fmt.Errorf("viewport %dx%d leaves no room inside a %dpx margin",
			c.Viewport.Width, c.Viewport.Height, c.Viewport.EdgeMargin))
	}
	return errors.Join(errs...)
}

// IsValidBackgroundPolicy reports whether s names a known background policy.
func IsValidBackgroundPolicy(s string) bool {
	return s == BackgroundContinue || s == BackgroundSuspend
}

// IsValidPermissionPolicy reports whether s names a known permission policy.
func IsValidPermissionPolicy(s string) bool {
	return s == PolicyGrant || s == PolicyDeny
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# GeoTrail Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), nm (nautical miles), ft (feet)

`)
	data = append(header, data...)

	// Inject comments for enum fields.
	reBackground := regexp.MustCompile(`(?m)^(\s+)background_policy:`)
	data = reBackground.ReplaceAll(data, []byte("${1}# Options: continue, suspend\n${1}background_policy:"))

	reProvider := regexp.MustCompile(`(?m)^(\s+)policy:`)
	data = reProvider.ReplaceAll(data, []byte("${1}# Options: grant, deny\n${1}policy:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
