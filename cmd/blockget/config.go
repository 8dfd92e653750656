package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Backend selects the object store implementation.
type Backend string

const (
	// BackendS3 reads containers from AWS S3.
	BackendS3 Backend = "s3"
	// BackendMinIO reads containers from an S3-compatible MinIO endpoint.
	BackendMinIO Backend = "minio"
	// BackendLocal reads containers from <local_root>/<region>/<bucket>/<key>.
	BackendLocal Backend = "local"
)

// Config is the blockget configuration.
type Config struct {
	// Table is the DynamoDB table holding block locations.
	Table string `yaml:"table"`

	// IndexRegion is the region of the index table.
	IndexRegion string `yaml:"index_region"`

	// IndexEndpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
	IndexEndpoint string `yaml:"index_endpoint"`

	// Backend is one of s3, minio or local.
	// Default: s3
	Backend Backend `yaml:"backend"`

	// Regions lists the regions containers may live in. One store is built
	// per region.
	Regions []string `yaml:"regions"`

	// PreferredRegion is chosen first when a block has replicas.
	PreferredRegion string `yaml:"preferred_region"`

	// Endpoint overrides the object store endpoint.
	Endpoint string `yaml:"endpoint"`

	// PathStyle enables path-style addressing for S3.
	PathStyle bool `yaml:"path_style"`

	// Secure enables TLS for the MinIO backend.
	Secure bool `yaml:"secure"`

	// LocalRoot is the root directory of the local backend.
	LocalRoot string `yaml:"local_root"`

	// BatchWindow delays each drain cycle to collect more requests.
	BatchWindow time.Duration `yaml:"batch_window"`

	// MaxAttempts bounds attempts per ranged read; 0 retries forever.
	// Default: 5
	MaxAttempts int `yaml:"max_attempts"`

	// GroupConcurrency is the number of containers read in parallel.
	// Default: 4
	GroupConcurrency int `yaml:"group_concurrency"`

	// MaxConcurrentReads caps ranged reads in flight; 0 is unlimited.
	MaxConcurrentReads int64 `yaml:"max_concurrent_reads"`

	// IOLimitBytesPerSec caps body throughput; 0 is unlimited.
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `yaml:"log_level"`

	// LogFormat is text or json.
	// Default: text
	LogFormat string `yaml:"log_format"`

	// MetricsAddr serves Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Table:            "blocks-cars-position",
		IndexRegion:      "us-west-2",
		Backend:          BackendS3,
		Regions:          []string{"us-west-2"},
		MaxAttempts:      5,
		GroupConcurrency: 4,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load loads configuration from the file named by BLOCKGATE_CONFIG. Without
// it the defaults are returned.
func Load() (*Config, error) {
	path := os.Getenv("BLOCKGATE_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// AddFlags registers flags overriding the file configuration.
func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.String("table", "", "DynamoDB table with block locations")
	flagSet.String("index-region", "", "region of the index table")
	flagSet.String("index-endpoint", "", "DynamoDB endpoint override")
	flagSet.String("backend", "", "object store backend: s3, minio or local")
	flagSet.StringSlice("regions", nil, "regions containers may live in")
	flagSet.String("preferred-region", "", "region chosen first among replicas")
	flagSet.String("endpoint", "", "object store endpoint override")
	flagSet.Bool("path-style", false, "use path-style S3 addressing")
	flagSet.String("local-root", "", "root directory of the local backend")
	flagSet.Duration("batch-window", 0, "delay before each drain cycle")
	flagSet.Int("max-attempts", 0, "attempts per ranged read (0 retries forever)")
	flagSet.String("log-level", "", "log level: debug, info, warn, error")
	flagSet.String("log-format", "", "log format: text or json")
	flagSet.String("metrics-addr", "", "serve Prometheus metrics on this address")
}

// ApplyFlags overrides c with every flag that was set explicitly.
func (c *Config) ApplyFlags(flagSet *pflag.FlagSet) {
	if flagSet.Changed("table") {
		c.Table, _ = flagSet.GetString("table")
	}
	if flagSet.Changed("index-region") {
		c.IndexRegion, _ = flagSet.GetString("index-region")
	}
	if flagSet.Changed("index-endpoint") {
		c.IndexEndpoint, _ = flagSet.GetString("index-endpoint")
	}
	if flagSet.Changed("backend") {
		backend, _ := flagSet.GetString("backend")
		c.Backend = Backend(backend)
	}
	if flagSet.Changed("regions") {
		c.Regions, _ = flagSet.GetStringSlice("regions")
	}
	if flagSet.Changed("preferred-region") {
		c.PreferredRegion, _ = flagSet.GetString("preferred-region")
	}
	if flagSet.Changed("endpoint") {
		c.Endpoint, _ = flagSet.GetString("endpoint")
	}
	if flagSet.Changed("path-style") {
		c.PathStyle, _ = flagSet.GetBool("path-style")
	}
	if flagSet.Changed("local-root") {
		c.LocalRoot, _ = flagSet.GetString("local-root")
	}
	if flagSet.Changed("batch-window") {
		c.BatchWindow, _ = flagSet.GetDuration("batch-window")
	}
	if flagSet.Changed("max-attempts") {
		c.MaxAttempts, _ = flagSet.GetInt("max-attempts")
	}
	if flagSet.Changed("log-level") {
		c.LogLevel, _ = flagSet.GetString("log-level")
	}
	if flagSet.Changed("log-format") {
		c.LogFormat, _ = flagSet.GetString("log-format")
	}
	if flagSet.Changed("metrics-addr") {
		c.MetricsAddr, _ = flagSet.GetString("metrics-addr")
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Table == "" {
		errs = append(errs, errors.New("table is required"))
	}
	if c.IndexRegion == "" {
		errs = append(errs, errors.New("index_region is required"))
	}
	if len(c.Regions) == 0 {
		errs = append(errs, errors.New("at least one region is required"))
	}

	switch c.Backend {
	case BackendS3:
	case BackendMinIO:
		if c.Endpoint == "" {
			errs = append(errs, errors.New("endpoint is required for the minio backend"))
		}
	case BackendLocal:
		if c.LocalRoot == "" {
			errs = append(errs, errors.New("local_root is required for the local backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid backend: %s", c.Backend))
	}

	if c.BatchWindow < 0 {
		errs = append(errs, fmt.Errorf("batch_window must not be negative: %s", c.BatchWindow))
	}
	if c.GroupConcurrency < 1 {
		errs = append(errs, fmt.Errorf("group_concurrency must be at least 1: %d", c.GroupConcurrency))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log_format: %s", c.LogFormat))
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return level, nil
}
