// Package config holds the settings an Engine and the CLI are built from.
//
// Values come from Default, optionally overlaid by a YAML file (Load) and by
// PHONODIST_* environment variables (ApplyEnv). The engine never reads this
// package on its own; callers pass a Config through phonodist.WithConfig.
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

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/phonodist/feature"
)

// ErrInvalid is returned for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// FieldError reports one invalid setting.
type FieldError struct {
	Field string
	Value any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid configuration: %s = %v", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return ErrInvalid }

// Storage selects where tables and matrices are read from and written to.
type Storage struct {
	// Backend is one of "local", "memory", "s3" or "minio". Empty means local.
	Backend  string `yaml:"backend,omitempty"`
	Root     string `yaml:"root,omitempty"`
	Bucket   string `yaml:"bucket,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Region   string `yaml:"region,omitempty"`
	UseSSL   bool   `yaml:"use_ssl,omitempty"`
}

// Config is the full set of tunables.
type Config struct {
	DefaultMethod  string  `yaml:"default_distance_method"`
	Normalize      bool    `yaml:"default_normalize"`
	Precision      int     `yaml:"default_precision"`
	CacheSize      int     `yaml:"cache_size"`
	KMeansClusters int     `yaml:"kmeans_clusters"`
	KMeansSeed     int64   `yaml:"kmeans_seed"`
	OnError        string  `yaml:"on_error"`
	GapPenalty     float64 `yaml:"gap_penalty"`
	Workers        int     `yaml:"workers"`
	LogLevel       string  `yaml:"logging_level"`
	Storage        Storage `yaml:"storage,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DefaultMethod:  "hamming",
		Normalize:      true,
		Precision:      4,
		CacheSize:      1024,
		KMeansClusters: 12,
		KMeansSeed:     42,
		OnError:        "warn",
		GapPenalty:     1.0,
		LogLevel:       "INFO",
	}
}

// Load reads a YAML file over Default. Keys missing from the file keep
// their default; unknown keys are an error.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes YAML from r over Default.
func Read(r io.Reader) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Save writes cfg as YAML.
func Save(path string, cfg Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PHONODIST_"

// FromEnv returns Default overlaid with the process environment.
func FromEnv() (Config, error) {
	cfg := Default()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from PHONODIST_* variables, e.g.
// PHONODIST_CACHE_SIZE or PHONODIST_STORAGE_BUCKET.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &FieldError{Field: strings.ToLower(key), Value: v}
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return &FieldError{Field: strings.ToLower(key), Value: v}
		}
		*dst = b
		return nil
	}

	str("DEFAULT_METHOD", &c.DefaultMethod)
	str("ON_ERROR", &c.OnError)
	str("LOG_LEVEL", &c.LogLevel)
	str("STORAGE_BACKEND", &c.Storage.Backend)
	str("STORAGE_ROOT", &c.Storage.Root)
	str("STORAGE_BUCKET", &c.Storage.Bucket)
	str("STORAGE_PREFIX", &c.Storage.Prefix)
	str("STORAGE_ENDPOINT", &c.Storage.Endpoint)
	str("STORAGE_REGION", &c.Storage.Region)

	if v, ok := lookup(EnvPrefix + "KMEANS_SEED"); ok {
		seed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return &FieldError{Field: "kmeans_seed", Value: v}
		}
		c.KMeansSeed = seed
	}
	if v, ok := lookup(EnvPrefix + "GAP_PENALTY"); ok {
		p, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return &FieldError{Field: "gap_penalty", Value: v}
		}
		c.GapPenalty = p
	}

	return errors.Join(
		num("PRECISION", &c.Precision),
		num("CACHE_SIZE", &c.CacheSize),
		num("KMEANS_CLUSTERS", &c.KMeansClusters),
		num("WORKERS", &c.Workers),
		flag("NORMALIZE", &c.Normalize),
		flag("STORAGE_USE_SSL", &c.Storage.UseSSL),
	)
}

// Validate checks every field and joins the failures.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DefaultMethod) == "" {
		errs = append(errs, &FieldError{Field: "default_distance_method", Value: c.DefaultMethod})
	}
	if c.CacheSize <= 0 {
		errs = append(errs, &FieldError{Field: "cache_size", Value: c.CacheSize})
	}
	if c.KMeansClusters <= 0 {
		errs = append(errs, &FieldError{Field: "kmeans_clusters", Value: c.KMeansClusters})
	}
	if c.Precision < 0 || c.Precision > 17 {
		errs = append(errs, &FieldError{Field: "default_precision", Value: c.Precision})
	}
	if c.GapPenalty < 0 {
		errs = append(errs, &FieldError{Field: "gap_penalty", Value: c.GapPenalty})
	}
	if c.Workers < 0 {
		errs = append(errs, &FieldError{Field: "workers", Value: c.Workers})
	}
	if _, err := feature.ParseOnError(c.OnError); err != nil {
		errs = append(errs, &FieldError{Field: "on_error", Value: c.OnError})
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, &FieldError{Field: "logging_level", Value: c.LogLevel})
	}
	switch c.Storage.Backend {
	case "", "local", "memory", "s3", "minio":
	default:
		errs = append(errs, &FieldError{Field: "storage.backend", Value: c.Storage.Backend})
	}
	return errors.Join(errs...)
}

// ErrorPolicy returns the parsed OnError setting.
func (c Config) ErrorPolicy() (feature.OnError, error) {
	return feature.ParseOnError(c.OnError)
}

// SlogLevel parses LogLevel. Besides the slog names it accepts WARNING and
// CRITICAL.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	switch strings.ToUpper(strings.TrimSpace(c.LogLevel)) {
	case "":
		return slog.LevelInfo, nil
	case "WARNING":
		return slog.LevelWarn, nil
	case "CRITICAL":
		return slog.LevelError, nil
	}
	err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel)))
	return l, err
}
