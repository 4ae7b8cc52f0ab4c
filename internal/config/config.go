package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Destination.
	LogDir    string // base directory for <target>.sql files
	LogFile   string // explicit destination; overrides LogDir/target resolution
	PerTarget bool   // one destination per target instead of first-write-wins

	// Records.
	SyncWrites bool           // fsync each record before releasing the lock
	Location   *time.Location // zone for record timestamps; nil means process local time

	// DryRun validates and logs statements without writing any file.
	DryRun bool

	// Logging.
	LogLevel slog.Level

	// Observability.
	OTelEnabled bool
}

// Overrides holds CLI flag values that override the file and environment.
// Pointer fields distinguish "not set" from zero values.
type Overrides struct {
	ConfigFile  *string
	LogDir      *string
	LogFile     *string
	PerTarget   *bool
	SyncWrites  *bool
	Timezone    *string
	LogLevel    *string
	DryRun      bool
	OTelEnabled bool
}

// fileConfig is the YAML layout of the optional config file.
type fileConfig struct {
	LogDir      string `yaml:"log_dir"`
	LogFile     string `yaml:"log_file"`
	PerTarget   *bool  `yaml:"per_target"`
	SyncWrites  *bool  `yaml:"sync_writes"`
	Timezone    string `yaml:"timezone"`
	LogLevel    string `yaml:"log_level"`
	OTelEnabled *bool  `yaml:"otel_enabled"`
}

// Load builds a Config from defaults, then the optional YAML file, then
// environment variables, then CLI overrides, and validates the result.
func Load(overrides Overrides) (*Config, error) {
	cfg := defaults()

	path := os.Getenv("CONFIG_FILE")
	if overrides.ConfigFile != nil {
		path = *overrides.ConfigFile
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := loadEnvVars(cfg); err != nil {
		return nil, err
	}
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config populated with default values.
func defaults() *Config {
	return &Config{
		LogDir:   "logs",
		LogLevel: slog.LevelInfo,
	}
}

// loadFile reads the YAML config file at path into cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	cfg.LogFile = fc.LogFile
	if fc.PerTarget != nil {
		cfg.PerTarget = *fc.PerTarget
	}
	if fc.SyncWrites != nil {
		cfg.SyncWrites = *fc.SyncWrites
	}
	if fc.Timezone != "" {
		loc, err := parseTimezone(fc.Timezone)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.Location = loc
	}
	if fc.LogLevel != "" {
		level, err := parseLogLevel(fc.LogLevel)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.LogLevel = level
	}
	if fc.OTelEnabled != nil {
		cfg.OTelEnabled = *fc.OTelEnabled
	}
	return nil
}

// loadEnvVars reads all supported environment variables into cfg.
func loadEnvVars(cfg *Config) error {
	if v := os.Getenv("QUERYLOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v := os.Getenv("QUERYLOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	if v := os.Getenv("QUERYLOG_PER_TARGET"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid QUERYLOG_PER_TARGET value %q: %w", v, err)
		}
		cfg.PerTarget = b
	}

	if v := os.Getenv("SYNC_WRITES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SYNC_WRITES value %q: %w", v, err)
		}
		cfg.SyncWrites = b
	}

	if v := os.Getenv("LOG_TIMEZONE"); v != "" {
		loc, err := parseTimezone(v)
		if err != nil {
			return err
		}
		cfg.Location = loc
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED value %q: %w", v, err)
		}
		cfg.OTelEnabled = b
	}

	return nil
}

// applyOverrides applies CLI flag values on top of the env-loaded config.
func applyOverrides(cfg *Config, o Overrides) error {
	if o.LogDir != nil {
		cfg.LogDir = *o.LogDir
	}
	if o.LogFile != nil {
		cfg.LogFile = *o.LogFile
	}
	if o.PerTarget != nil {
		cfg.PerTarget = *o.PerTarget
	}
	if o.SyncWrites != nil {
		cfg.SyncWrites = *o.SyncWrites
	}
	if o.Timezone != nil {
		loc, err := parseTimezone(*o.Timezone)
		if err != nil {
			return err
		}
		cfg.Location = loc
	}
	if o.LogLevel != nil {
		level, err := parseLogLevel(*o.LogLevel)
		if err != nil {
			return err
		}
		cfg.LogLevel = level
	}
	cfg.DryRun = o.DryRun
	cfg.OTelEnabled = cfg.OTelEnabled || o.OTelEnabled

	return nil
}

// validate checks cross-field constraints on the final config.
func validate(cfg *Config) error {
	if cfg.LogFile == "" && strings.TrimSpace(cfg.LogDir) == "" {
		return fmt.Errorf("QUERYLOG_DIR must not be empty unless QUERYLOG_FILE is set")
	}
	if cfg.LogFile != "" && cfg.PerTarget {
		return fmt.Errorf("QUERYLOG_FILE and QUERYLOG_PER_TARGET are mutually exclusive")
	}
	return nil
}

func parseTimezone(s string) (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_TIMEZONE value %q: %w", s, err)
	}
	return loc, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL value %q: must be debug, info, warn, or error", s)
	}
}
