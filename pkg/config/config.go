// Package config loads the TOML pipeline configuration.
//
// A config file names the rewrite passes to run and how results are saved,
// cached, and logged:
//
//	passes = ["lower-gemm", "remove-unused-constants"]
//
//	[output]
//	external_data = true
//	size_threshold = 1024
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	redis_addr = "localhost:6379"
//	connect_attempts = 3
//
//	[log]
//	level = "debug"
//
//	[server]
//	addr = ":8080"
//	max_body_bytes = 67108864
//
// Every key is optional; [Default] supplies the values for omitted ones.
// Unknown keys are rejected so that typos do not pass silently.
package config

import (
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"go.uber.org/multierr"

	"github.com/matzehuels/modelir/pkg/cache"
	"github.com/matzehuels/modelir/pkg/errors"
	"github.com/matzehuels/modelir/pkg/io"
	"github.com/matzehuels/modelir/pkg/ir/rewrite"
)

// Config is the decoded configuration file.
type Config struct {
	Passes []string     `toml:"passes"`
	Output OutputConfig `toml:"output"`
	Cache  CacheConfig  `toml:"cache"`
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
}

// OutputConfig controls how optimized models are written.
type OutputConfig struct {
	ExternalData  bool `toml:"external_data"`
	SizeThreshold int  `toml:"size_threshold"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Backend         string        `toml:"backend"`
	Dir             string        `toml:"dir"`
	TTL             time.Duration `toml:"ttl"`
	RedisAddr       string        `toml:"redis_addr"`
	RedisDB         int           `toml:"redis_db"`
	Prefix          string        `toml:"prefix"`
	ConnectAttempts int           `toml:"connect_attempts"`
}

// LogConfig sets the log level: debug, info, warn, or error.
type LogConfig struct {
	Level string `toml:"level"`
}

// ServerConfig configures `modelir serve`.
type ServerConfig struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	MaxBodyBytes int64         `toml:"max_body_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Passes: rewrite.DefaultPassNames(),
		Output: OutputConfig{SizeThreshold: io.DefaultSizeThreshold},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			TTL:     cache.ResultTTL,
		},
		Log: LogConfig{Level: "info"},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			MaxBodyBytes: 64 << 20,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
// The returned error is a multierr; use multierr.Errors to list them.
func (c *Config) Validate() error {
	var err error

	for _, name := range c.Passes {
		if verr := errors.ValidatePassName(name); verr != nil {
			err = multierr.Append(err, verr)
			continue
		}
		if _, ok := rewrite.Lookup(name); !ok {
			err = multierr.Append(err, errors.New(errors.ErrCodeInvalidPass, "unknown pass %q", name))
		}
	}

	if c.Output.SizeThreshold < 0 {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig,
			"output.size_threshold must not be negative, got %d", c.Output.SizeThreshold))
	}

	backends := []string{cache.BackendFile, cache.BackendRedis, cache.BackendNone}
	if !slices.Contains(backends, c.Cache.Backend) {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig,
			"cache.backend must be one of %s, got %q", strings.Join(backends, ", "), c.Cache.Backend))
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisAddr == "" {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig,
			"cache.redis_addr is required for the redis backend"))
	}
	if c.Cache.TTL < 0 {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig,
			"cache.ttl must not be negative, got %s", c.Cache.TTL))
	}

	if _, lerr := log.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig,
			"log.level: %v", lerr))
	}

	if c.Server.MaxBodyBytes < 0 {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig,
			"server.max_body_bytes must not be negative, got %d", c.Server.MaxBodyBytes))
	}

	return err
}

// CacheOptions converts the cache section for [cache.Open].
func (c *Config) CacheOptions() cache.OpenOptions {
	return cache.OpenOptions{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:            c.Cache.RedisAddr,
			DB:              c.Cache.RedisDB,
			Prefix:          c.Cache.Prefix,
			ConnectAttempts: c.Cache.ConnectAttempts,
		},
	}
}

// LogLevel returns the parsed log level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
