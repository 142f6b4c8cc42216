// Package config reads the server configuration from DCQL_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "DCQL_"

type Config struct {
	Address        string   `mapstructure:"ADDRESS"`
	LogLevel       string   `mapstructure:"LOG_LEVEL"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
}

func Default() Config {
	return Config{
		Address:        ":8080",
		LogLevel:       "info",
		AllowedOrigins: []string{"*"},
	}
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return FromEnviron(os.Environ())
}

// FromEnviron decodes KEY=VALUE pairs over the defaults. Lists are comma
// separated.
func FromEnviron(environ []string) (Config, error) {
	values := map[string]interface{}{}
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		values[strings.TrimPrefix(key, envPrefix)] = value
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Result:           &cfg,
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(values); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func trimAll(ss []string) []string {
	out := ss[:0]
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return level, fmt.Errorf("invalid DCQL_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Logger builds a production logger, or a development logger at debug level.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	if level == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
