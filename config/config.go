package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"hbbank/storage"
)

const (
	defaultAddr          = ":8080"
	defaultStorageDriver = storage.DriverFile
	defaultStorageDSN    = "data"
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
	defaultTraceExporter = TraceExporterNone
)

// Trace exporters
const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
)

type Config struct {
	Addr    string  `yaml:"addr"`
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	Trace   Trace   `yaml:"trace"`
}

type Storage struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Prefix string `yaml:"prefix"`
}

type Trace struct {
	Exporter string `yaml:"exporter"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load starts from the defaults, applies the YAML file at path when one is
// given, then lets HBBANK_* environment variables override single fields.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr: defaultAddr,
		Storage: Storage{
			Driver: defaultStorageDriver,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Trace: Trace{
			Exporter: defaultTraceExporter,
		},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	override(&cfg.Addr, "HBBANK_ADDR")
	override(&cfg.Storage.Driver, "HBBANK_STORAGE_DRIVER")
	override(&cfg.Storage.DSN, "HBBANK_STORAGE_DSN")
	override(&cfg.Storage.Prefix, "HBBANK_STORAGE_PREFIX")
	override(&cfg.Log.Level, "HBBANK_LOG_LEVEL")
	override(&cfg.Log.Format, "HBBANK_LOG_FORMAT")
	override(&cfg.Trace.Exporter, "HBBANK_TRACE_EXPORTER")

	// only the local drivers get a default location; sql drivers need a real dsn
	if strings.TrimSpace(cfg.Storage.DSN) == "" && (cfg.Storage.Driver == storage.DriverFile || cfg.Storage.Driver == storage.DriverBadger) {
		cfg.Storage.DSN = defaultStorageDSN
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func override(field *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*field = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr cannot be empty"))
	}
	if !slices.Contains(storage.Drivers, c.Storage.Driver) {
		errs = append(errs, fmt.Errorf("storage.driver must be one of %s, got %q", strings.Join(storage.Drivers, ", "), c.Storage.Driver))
	}
	if c.Storage.Driver != storage.DriverMemory && c.Storage.Driver != storage.DriverBadger && strings.TrimSpace(c.Storage.DSN) == "" {
		errs = append(errs, fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Trace.Exporter != TraceExporterNone && c.Trace.Exporter != TraceExporterStdout {
		errs = append(errs, fmt.Errorf("trace.exporter must be none or stdout, got %q", c.Trace.Exporter))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger described by the config
func (l Log) NewLogger() *slog.Logger {
	level, err := l.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
