// Package config loads the command line configuration: connection, schema,
// reflection and output settings plus the logger. Values come from flags,
// SRSCHEMA_* environment variables and an optional srschema.toml or
// srschema.yaml file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"srschema/internal/core"
	"srschema/internal/introspect/starrocks"
)

const (
	EnvPrefix = "SRSCHEMA"
	FileName  = "srschema"
)

// Config is the resolved configuration of one command run.
type Config struct {
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
	// RunMode overrides run mode detection; empty means detect.
	RunMode     string       `mapstructure:"run_mode"`
	Concurrency int          `mapstructure:"concurrency"`
	Log         LogConfig    `mapstructure:"log"`
	Output      OutputConfig `mapstructure:"output"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("dsn", "")
	v.SetDefault("schema", "")
	v.SetDefault("run_mode", "")
	v.SetDefault("concurrency", starrocks.DefaultConcurrency)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("output.format", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds the flags whose names match configuration keys. Dots in
// keys become dashes in flag names (log.level is --log-level).
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range v.AllKeys() {
		name := strings.ReplaceAll(strings.ReplaceAll(key, ".", "-"), "_", "-")
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}
	return nil
}

// Load reads the configuration file and decodes the result. An empty path
// looks for srschema.{toml,yaml,yml,json} in the working directory and
// tolerates its absence; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error
	switch core.RunMode(c.RunMode) {
	case "", core.RunModeSharedNothing, core.RunModeSharedData:
	default:
		errs = multierr.Append(errs, fmt.Errorf("run_mode: unsupported value %q; use %s or %s",
			c.RunMode, core.RunModeSharedNothing, core.RunModeSharedData))
	}
	if c.Concurrency <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("concurrency: must be positive, got %d", c.Concurrency))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = multierr.Append(errs, fmt.Errorf("log.format: unsupported value %q; use console or json", c.Log.Format))
	}
	if errs != nil {
		return fmt.Errorf("invalid config: %w", errs)
	}
	return nil
}

// RunModeOverride returns the configured run mode, empty when it should be
// detected from the cluster.
func (c *Config) RunModeOverride() core.RunMode {
	return core.RunMode(c.RunMode)
}

// NewLogger builds the zap logger described by c. The json format uses the
// production encoder, console the development one; both write to stderr.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var zc zap.Config
	switch c.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "", "console":
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unsupported log format %q", c.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
