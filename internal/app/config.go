package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home     string `mapstructure:"home"`      // config directory, e.g. $HOME/.otkeys
	RelayURL string `mapstructure:"relay"`     // directory base URL, e.g. http://127.0.0.1:8080
	Username string `mapstructure:"username"`  // name keys are published under
	Capacity int    `mapstructure:"capacity"`  // one-time key pool size; 0 keeps the default
	KDF      string `mapstructure:"kdf"`       // scrypt or argon2id
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error
	Listen   string `mapstructure:"listen"`    // directory listen address

	Pushgateway string `mapstructure:"pushgateway"` // Prometheus Pushgateway URL; empty disables pushing

	HTTP *http.Client `mapstructure:"-"` // optional; defaults to http.DefaultClient
}

// LoadConfig resolves configuration from defaults, an optional config.yaml in
// the home directory, OTKEYS_* environment variables and flags, in increasing
// order of precedence. Only flags that were set override the other sources.
func LoadConfig(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix("OTKEYS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	home := v.GetString("home")
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return Config{}, err
		}
		home = filepath.Join(dir, ".otkeys")
		v.Set("home", home)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(home)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("home", "")
	v.SetDefault("relay", "")
	v.SetDefault("username", "")
	v.SetDefault("capacity", 0)
	v.SetDefault("kdf", "scrypt")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen", ":8080")
	v.SetDefault("pushgateway", "")
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
