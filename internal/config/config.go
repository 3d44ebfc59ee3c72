// Package config loads outline settings from defaults, an optional config
// file, OUTLINE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/steveyegge/outline/internal/store"
)

// Keys
const (
	KeyDir           = "dir"
	KeyRoot          = "root"
	KeyThrottle      = "throttle"
	KeyWatchThrottle = "watch_throttle"
	KeyLogFile       = "log_file"
	KeyLogMaxSizeMB  = "log_max_size_mb"
	KeyVerbose       = "verbose"
)

// ThrottleNever is the throttle value that disables automatic saves.
const ThrottleNever = "never"

// ErrInvalidThrottle is returned for a throttle that is neither a duration
// nor "never".
var ErrInvalidThrottle = errors.New("invalid throttle")

// Config is the effective configuration.
type Config struct {
	Dir           string `toml:"dir" mapstructure:"dir"`
	Root          string `toml:"root" mapstructure:"root"`
	Throttle      string `toml:"throttle" mapstructure:"throttle"`
	WatchThrottle string `toml:"watch_throttle" mapstructure:"watch_throttle"`
	LogFile       string `toml:"log_file" mapstructure:"log_file"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb" mapstructure:"log_max_size_mb"`
	Verbose       bool   `toml:"verbose" mapstructure:"verbose"`
}

// New returns a viper instance carrying the defaults and the OUTLINE_*
// environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDir, ".")
	v.SetDefault(KeyRoot, "outline.yaml")
	v.SetDefault(KeyThrottle, ThrottleNever)
	v.SetDefault(KeyWatchThrottle, "500ms")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyVerbose, false)

	v.SetEnvPrefix("OUTLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds command-line flags to their keys. Flags are named after
// the keys with dashes instead of underscores.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{KeyDir, KeyRoot, KeyThrottle, KeyWatchThrottle, KeyLogFile, KeyVerbose} {
		f := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
		}
	}
	return nil
}

// FileName is the base name of the optional config file, .outline.toml or
// .outline.yaml, looked up in the outline directory.
const FileName = ".outline"

// Load reads the optional config file from the configured directory and
// returns the effective configuration.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName(FileName)
	v.AddConfigPath(v.GetString(KeyDir))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := ParseThrottle(cfg.Throttle); err != nil {
		return nil, err
	}
	if _, err := ParseThrottle(cfg.WatchThrottle); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseThrottle converts a throttle setting to a store throttle. "never"
// and the empty string disable automatic saves.
func ParseThrottle(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, ThrottleNever) {
		return store.Never, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidThrottle, s)
	}
	return d, nil
}

// StoreThrottle returns the throttle for one-shot commands.
func (c *Config) StoreThrottle() time.Duration {
	d, _ := ParseThrottle(c.Throttle)
	return d
}

// WatchStoreThrottle returns the throttle used while watching.
func (c *Config) WatchStoreThrottle() time.Duration {
	d, _ := ParseThrottle(c.WatchThrottle)
	return d
}

// RootPath returns the root file joined to the outline directory, for
// display.
func (c *Config) RootPath() string {
	return filepath.Join(c.Dir, c.Root)
}

// WriteTOML writes the configuration as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
