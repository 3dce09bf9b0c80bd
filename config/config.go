// Package config reads weave settings from WEAVE_* environment variables,
// optionally seeded from a dotenv file.
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	logging "github.com/ipfs/go-log/v2"
	"github.com/joho/godotenv"

	"xdao.co/weave/errs"
	"xdao.co/weave/storage/grpcstore"
	"xdao.co/weave/storage/localfs"
	"xdao.co/weave/storage/registry"
)

// Config holds process settings. Flags given on the command line override it.
type Config struct {
	Keyfile     string        `env:"WEAVE_KEYFILE"`
	Backend     string        `env:"WEAVE_BACKEND" envDefault:"localfs"`
	LocalDir    string        `env:"WEAVE_LOCALFS_DIR"`
	GRPCTarget  string        `env:"WEAVE_GRPC_TARGET"`
	GRPCTimeout time.Duration `env:"WEAVE_GRPC_TIMEOUT" envDefault:"10s"`
	Listen      string        `env:"WEAVE_LISTEN" envDefault:"127.0.0.1:7777"`
	LogLevel    string        `env:"WEAVE_LOG_LEVEL" envDefault:"warn"`
}

// Load parses the environment. If dotenvPath is set the file is read first;
// variables already present in the environment win over the file.
func Load(dotenvPath string) (Config, error) {
	var cfg Config
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil {
			return cfg, errs.Wrap(errs.KindConfiguration, errs.CodeConfig, "load dotenv "+dotenvPath, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, errs.Wrap(errs.KindConfiguration, errs.CodeConfig, "parse env", err)
	}
	return cfg, nil
}

// Validate checks the backend selection for a program of the given usage and
// the log level. Keyfile is not required here; key-bound commands check it.
func (c Config) Validate(usage registry.Usage) error {
	if !slices.Contains(registry.Names(usage), c.Backend) {
		return errs.New(errs.KindConfiguration, errs.CodeConfig,
			fmt.Sprintf("unknown backend %q (available: %v)", c.Backend, registry.Names(usage)))
	}
	switch c.Backend {
	case "localfs":
		if c.LocalDir == "" {
			return errs.New(errs.KindConfiguration, errs.CodeConfig, "WEAVE_LOCALFS_DIR is required for the localfs backend")
		}
	case "grpc":
		if c.GRPCTarget == "" {
			return errs.New(errs.KindConfiguration, errs.CodeConfig, "WEAVE_GRPC_TARGET is required for the grpc backend")
		}
	}
	if c.GRPCTimeout < 0 {
		return errs.New(errs.KindConfiguration, errs.CodeConfig, "WEAVE_GRPC_TIMEOUT must not be negative")
	}
	if _, err := logging.LevelFromString(c.LogLevel); err != nil {
		return errs.Wrap(errs.KindConfiguration, errs.CodeConfig, "invalid WEAVE_LOG_LEVEL", err)
	}
	return nil
}

// StoreOptions renders the backend settings as registry options.
func (c Config) StoreOptions() registry.Options {
	return registry.Options{
		localfs.OptionDir:       c.LocalDir,
		grpcstore.OptionTarget:  c.GRPCTarget,
		grpcstore.OptionTimeout: c.GRPCTimeout.String(),
	}
}

// ApplyLogLevel sets every weave logger to LogLevel.
func (c Config) ApplyLogLevel() error {
	lvl, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return errs.Wrap(errs.KindConfiguration, errs.CodeConfig, "invalid log level", err)
	}
	logging.SetAllLoggers(lvl)
	return nil
}
