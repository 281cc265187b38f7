// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Division 176 Contributors

// Package config loads runtime configuration for the div176 server.
//
// Precedence, lowest to highest: built-in defaults, YAML config file,
// DIV176_* environment variables, command-line flags.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Defaults applied before any source is loaded.
const (
	DefaultServerAddr        = "127.0.0.1:3000"
	DefaultObservabilityAddr = "127.0.0.1:9100"
	DefaultMaxConns          = 50
	DefaultAcquireTimeout    = 3 * time.Second
	DefaultLogFormat         = "json"
)

// envPrefix namespaces environment overrides, e.g. DIV176_DATABASE_URL.
const envPrefix = "DIV176_"

// Config holds all runtime settings.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Database      DatabaseConfig      `koanf:"database"`
	Log           LogConfig           `koanf:"log"`
}

// ServerConfig configures the web server.
type ServerConfig struct {
	// Addr is the listen address in "host:port" form.
	Addr string `koanf:"addr"`

	// SecureCookies sets the Secure attribute on the session cookie.
	// Off by default so local development over plain HTTP keeps working.
	SecureCookies bool `koanf:"secure_cookies"`
}

// ObservabilityConfig configures the metrics/health listener.
type ObservabilityConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the connection pool.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	MaxConns       int32         `koanf:"max_conns"`
	AcquireTimeout time.Duration `koanf:"acquire_timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Format is "json" or "text".
	Format string `koanf:"format"`
}

// Load assembles configuration from the given file (optional, may be
// empty), the environment and the given flag set (optional, may be nil).
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("file", configFile).
				Wrap(err)
		}
	}

	// Only the first underscore separates section from key, so
	// DIV176_DATABASE_MAX_CONNS -> database.max_conns.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		section, key, found := strings.Cut(s, "_")
		if !found {
			return s
		}
		return section + "." + key
	}), nil)
	if err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "env").Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "unmarshal").Wrap(err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Observability.Addr == "" {
		cfg.Observability.Addr = DefaultObservabilityAddr
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = DefaultMaxConns
	}
	if cfg.Database.AcquireTimeout <= 0 {
		cfg.Database.AcquireTimeout = DefaultAcquireTimeout
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Validate checks settings that have no usable zero value.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database.url is required (set it in the config file or DIV176_DATABASE_URL)")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}
	return nil
}
