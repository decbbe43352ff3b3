// Package config loads margin's configuration from a TOML file, applies
// defaults and lets MARGIN_* environment variables override individual
// settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "margin.toml"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" envPrefix:"SERVER_"`
	HMR      HMRConfig      `toml:"hmr" envPrefix:"HMR_"`
	Build    BuildConfig    `toml:"build" envPrefix:"BUILD_"`
	Vite     ViteConfig     `toml:"vite" envPrefix:"VITE_"`
	Storage  StorageConfig  `toml:"storage" envPrefix:"STORAGE_"`
	Schedule ScheduleConfig `toml:"schedule" envPrefix:"SCHEDULE_"`
	Market   MarketConfig   `toml:"market" envPrefix:"MARKET_"`
	Logging  LoggingConfig  `toml:"logging" envPrefix:"LOG_"`
}

// ServerConfig controls where the HTTP server listens.
type ServerConfig struct {
	Host string `toml:"host" env:"HOST"`
	Port int    `toml:"port" env:"PORT"`

	// StrictPort makes startup fail when Port is taken instead of moving on
	// to the next free port.
	StrictPort      bool   `toml:"strict_port" env:"STRICT_PORT"`
	MaxPortAttempts int    `toml:"max_port_attempts" env:"MAX_PORT_ATTEMPTS"`
	ShutdownTimeout string `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// ShutdownTimeoutDuration parses ShutdownTimeout.
func (c ServerConfig) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HMRConfig describes how the hot-reload client reaches the dev server.
type HMRConfig struct {
	Host string `toml:"host" env:"HOST"`
	Path string `toml:"path" env:"PATH"`
}

// BuildConfig controls the frontend build output.
type BuildConfig struct {
	SourceDir   string `toml:"source_dir" env:"SOURCE_DIR"`
	PublicDir   string `toml:"public_dir" env:"PUBLIC_DIR"`
	OutDir      string `toml:"out_dir" env:"OUT_DIR"`
	EmptyOutDir bool   `toml:"empty_out_dir" env:"EMPTY_OUT_DIR"`
	Entry       string `toml:"entry" env:"ENTRY"`
}

// ViteConfig points the dev shell at an external Vite dev server. Empty URL
// means the Go dev server serves the source tree itself.
type ViteConfig struct {
	URL string `toml:"url" env:"URL"`
}

// StorageConfig locates the database.
type StorageConfig struct {
	DataDir string `toml:"data_dir" env:"DATA_DIR"`
}

// DatabasePath returns the SQLite file inside DataDir.
func (c StorageConfig) DatabasePath() string {
	return filepath.Join(c.DataDir, "margin.db")
}

// ScheduleConfig holds cron specs for background jobs. An empty spec
// disables the job.
type ScheduleConfig struct {
	Snapshot string `toml:"snapshot" env:"SNAPSHOT"`
	Quotes   string `toml:"quotes" env:"QUOTES"`
}

// MarketConfig configures the quote and fund lookups.
type MarketConfig struct {
	FundURL  string `toml:"fund_url" env:"FUND_URL"`
	QuoteURL string `toml:"quote_url" env:"QUOTE_URL"`
	Timeout  string `toml:"timeout" env:"TIMEOUT"`
}

// TimeoutDuration parses Timeout.
func (c MarketConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `toml:"level" env:"LEVEL"`
}

// SlogLevel maps Level onto slog.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the built-in configuration: the dev server listens on all
// interfaces on a high port and falls back to the next free one, and the
// build output directory is emptied before each build.
func Default() *Config {
	dataDir := ".marginofsafety"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".marginofsafety")
	}

	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            34115,
			StrictPort:      false,
			MaxPortAttempts: 20,
			ShutdownTimeout: "10s",
		},
		HMR: HMRConfig{
			Host: "localhost",
			Path: "/__hmr",
		},
		Build: BuildConfig{
			SourceDir:   filepath.Join("frontend", "src"),
			PublicDir:   filepath.Join("frontend", "public"),
			OutDir:      filepath.Join("frontend", "dist"),
			EmptyOutDir: true,
			Entry:       "main.js",
		},
		Storage: StorageConfig{
			DataDir: dataDir,
		},
		Schedule: ScheduleConfig{
			Snapshot: "@daily",
			Quotes:   "@every 5m",
		},
		Market: MarketConfig{
			FundURL:  "https://fund.eastmoney.com",
			QuoteURL: "https://push2.eastmoney.com/api/qt/stock/get",
			Timeout:  "10s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error when path is the default file name.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultFile:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "MARGIN_"}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the program cannot run with.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host must not be empty")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxPortAttempts < 1 {
		return fmt.Errorf("server.max_port_attempts must be at least 1, got %d", c.Server.MaxPortAttempts)
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid server.shutdown_timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Market.Timeout); err != nil {
		return fmt.Errorf("invalid market.timeout: %w", err)
	}
	if c.HMR.Host == "" {
		return errors.New("hmr.host must not be empty")
	}
	if !strings.HasPrefix(c.HMR.Path, "/") {
		return fmt.Errorf("hmr.path %q must start with /", c.HMR.Path)
	}
	if c.Build.OutDir == "" {
		return errors.New("build.out_dir must not be empty")
	}
	if c.Build.Entry == "" {
		return errors.New("build.entry must not be empty")
	}
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir must not be empty")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{
		"schedule.snapshot": c.Schedule.Snapshot,
		"schedule.quotes":   c.Schedule.Quotes,
	} {
		if spec == "" {
			continue
		}
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
