// Package config resolves taskfilter settings from defaults, an optional
// JSONC file, TASKFILTER_* environment variables and command-line flags,
// in that order of increasing precedence.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/tailscale/hujson"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "TASKFILTER_"

var errConfigInvalid = errors.New("invalid config")

// Config holds all configuration options.
type Config struct {
	DBPath     string `json:"db_path,omitempty" env:"DB"`
	LogLevel   string `json:"log_level,omitempty" env:"LOG_LEVEL"`
	Format     string `json:"format,omitempty" env:"FORMAT"`
	WeekStart  string `json:"week_start,omitempty" env:"WEEK_START"`
	Dialect    string `json:"dialect,omitempty" env:"DIALECT"`
	MaxTriples int    `json:"max_triples,omitempty" env:"MAX_TRIPLES"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DBPath:     "taskboard.db",
		LogLevel:   "warn",
		Format:     "text",
		WeekStart:  "monday",
		Dialect:    "sqlite",
		MaxTriples: 100,
	}
}

// LoadInput selects the layers Load merges.
type LoadInput struct {
	// Path is an explicit config file. Empty falls back to TASKFILTER_CONFIG;
	// if that is unset too, no file is read.
	Path string

	// Env replaces the process environment when non-nil.
	Env map[string]string

	// Overrides are flag values; non-zero fields win over every other layer.
	Overrides Config
}

// Load resolves the effective configuration.
func Load(input LoadInput) (Config, error) {
	cfg := Default()

	path := input.Path
	if path == "" {
		path = lookupEnv(input.Env, EnvPrefix+"CONFIG")
	}
	if path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, fileCfg)
	}

	var envCfg Config
	if err := env.ParseWithOptions(&envCfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: input.Env,
	}); err != nil {
		return Config{}, fmt.Errorf("%w: environment: %w", errConfigInvalid, err)
	}
	cfg = merge(cfg, envCfg)
	cfg = merge(cfg, input.Overrides)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func lookupEnv(m map[string]string, key string) string {
	if m != nil {
		return m[key]
	}
	return os.Getenv(key)
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", errConfigInvalid, path, err)
	}
	return cfg, nil
}

// Parse decodes a JSONC config document. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.DBPath != "" {
		base.DBPath = overlay.DBPath
	}
	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}
	if overlay.Format != "" {
		base.Format = overlay.Format
	}
	if overlay.WeekStart != "" {
		base.WeekStart = overlay.WeekStart
	}
	if overlay.Dialect != "" {
		base.Dialect = overlay.Dialect
	}
	if overlay.MaxTriples != 0 {
		base.MaxTriples = overlay.MaxTriples
	}
	return base
}

var (
	logLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	formats  = []string{"text", "json"}
	dialects = []string{"sqlite", "postgres"}
)

// Validate checks every field.
func (c Config) Validate() error {
	var problems []string
	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		problems = append(problems, fmt.Sprintf("log_level %q (want debug, info, warn or error)", c.LogLevel))
	}
	if !slices.Contains(formats, c.Format) {
		problems = append(problems, fmt.Sprintf("format %q (want text or json)", c.Format))
	}
	if _, err := ParseWeekday(c.WeekStart); err != nil {
		problems = append(problems, err.Error())
	}
	if !slices.Contains(dialects, c.Dialect) {
		problems = append(problems, fmt.Sprintf("dialect %q (want sqlite or postgres)", c.Dialect))
	}
	if c.MaxTriples < 1 {
		problems = append(problems, fmt.Sprintf("max_triples %d (want at least 1)", c.MaxTriples))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", errConfigInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c Config) SlogLevel() slog.Level {
	return logLevels[strings.ToLower(c.LogLevel)]
}

// Weekday returns the configured first day of the week.
func (c Config) Weekday() time.Weekday {
	day, _ := ParseWeekday(c.WeekStart)
	return day
}

// ParseWeekday parses a full English weekday name, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(s, day.String()) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("week_start %q (want a weekday name)", s)
}

// IsInvalid reports whether err came from a malformed config.
func IsInvalid(err error) bool {
	return errors.Is(err, errConfigInvalid)
}

// JSON returns the config as formatted JSON.
func (c Config) JSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}
	return string(data), nil
}
