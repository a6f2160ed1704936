package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"bermudago/internal/model"
)

// Config is the application's configuration model.
// It captures the transit catalogue, display, storage and serving options.
type Config struct {
	Transit TransitConfig `yaml:"transit"`
	Display DisplayConfig `yaml:"display"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

type TransitConfig struct {
	// IANA zone the schedules are written in
	Timezone string        `yaml:"timezone"`
	Bus      []model.Route `yaml:"bus"`
	Ferry    []model.Route `yaml:"ferry"`
	// Operator pages with the full timetable, keyed by mode
	FullScheduleURLs map[model.Mode]string `yaml:"fullScheduleURLs"`
}

type DisplayConfig struct {
	// How often the watch command re-renders the board
	RefreshInterval time.Duration `yaml:"refreshInterval"`
}

type StorageConfig struct {
	// Lookup history; empty disables recording
	DBPath string `yaml:"dbPath"`
}

type ServerConfig struct {
	Addr              string  `yaml:"addr"`
	MetricsAddr       string  `yaml:"metricsAddr"`
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Burst             int     `yaml:"burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Default returns the built-in Bermuda bus and ferry timetable.
func Default() Config {
	return Config{
		Transit: TransitConfig{
			Timezone: "Atlantic/Bermuda",
			Bus: []model.Route{
				{ID: "route-1", Mode: model.ModeBus, Name: "Route 1", Destination: "Hamilton - Dockyard", BaseTime: "6:00 AM", FrequencyMinutes: 15, Status: "On Time"},
				{ID: "route-2", Mode: model.ModeBus, Name: "Route 2", Destination: "Hamilton - St. George", BaseTime: "6:15 AM", FrequencyMinutes: 20, Status: "On Time"},
				{ID: "route-3", Mode: model.ModeBus, Name: "Route 3", Destination: "Hamilton - South Shore", BaseTime: "6:30 AM", FrequencyMinutes: 25, Status: "Delayed 5 min"},
			},
			Ferry: []model.Route{
				{ID: "hamilton-dockyard", Mode: model.ModeFerry, Name: "Hamilton - Dockyard", BaseTime: "6:45 AM", FrequencyMinutes: 20, Status: "On Time"},
				{ID: "hamilton-st-george", Mode: model.ModeFerry, Name: "Hamilton - St. George", BaseTime: "7:00 AM", FrequencyMinutes: 60, Status: "On Time"},
				{ID: "dockyard-st-george", Mode: model.ModeFerry, Name: "Dockyard - St. George", BaseTime: "8:00 AM", FrequencyMinutes: 90, Status: "On Time"},
			},
			FullScheduleURLs: map[model.Mode]string{
				model.ModeBus:   "https://www.gov.bm/department/public-transportation",
				model.ModeFerry: "https://www.seaexpress.bm/schedules",
			},
		},
		Display: DisplayConfig{RefreshInterval: time.Minute},
		Storage: StorageConfig{DBPath: "./bermudago.db"},
		Server:  ServerConfig{Addr: ":8080", RequestsPerSecond: 5, Burst: 20},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Routes returns bus routes followed by ferry routes.
func (c Config) Routes() []model.Route {
	out := make([]model.Route, 0, len(c.Transit.Bus)+len(c.Transit.Ferry))
	for _, r := range c.Transit.Bus {
		if r.Mode == "" {
			r.Mode = model.ModeBus
		}
		out = append(out, r)
	}
	for _, r := range c.Transit.Ferry {
		if r.Mode == "" {
			r.Mode = model.ModeFerry
		}
		out = append(out, r)
	}
	return out
}

// Location loads the configured timezone, UTC when unset.
func (c Config) Location() (*time.Location, error) {
	if c.Transit.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Transit.Timezone)
}

// Validate checks every route can be evaluated so that departure lookups
// never fail on configured data.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Transit.Timezone, err))
	}
	seen := make(map[string]bool)
	for _, r := range c.Routes() {
		if r.ID == "" {
			errs = append(errs, fmt.Errorf("route %q: missing id", r.Name))
			continue
		}
		if seen[r.ID] {
			errs = append(errs, fmt.Errorf("route %s: duplicate id", r.ID))
		}
		seen[r.ID] = true
		if !r.Mode.Valid() {
			errs = append(errs, fmt.Errorf("route %s: unknown mode %q", r.ID, r.Mode))
		}
		if err := r.Definition().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("route %s: %w", r.ID, err))
		}
	}
	if c.Display.RefreshInterval < 0 {
		errs = append(errs, errors.New("display.refreshInterval must not be negative"))
	}
	return errors.Join(errs...)
}

// ResolveEnv fills in config fields from environment variables if set.
func (c *Config) ResolveEnv() {
	if v := os.Getenv("BERMUDAGO_TZ"); v != "" {
		c.Transit.Timezone = v
	}
	if v := os.Getenv("BERMUDAGO_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("BERMUDAGO_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		c.Server.MetricsAddr = v
	}
	if v := os.Getenv("BERMUDAGO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BERMUDAGO_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Server.RequestsPerSecond = f
		}
	}
}

// Load reads YAML config from path on top of the defaults and validates it.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.ResolveEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
