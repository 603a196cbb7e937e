// Package config loads toman settings from the config file, TOMAN_*
// environment variables and command line flags, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tgienger/toman/internal/logging"
)

// DefaultBackendURL is used when no backend is configured
const DefaultBackendURL = "http://localhost:5000"

// EnvPrefix for environment overrides, e.g. TOMAN_BACKEND_URL
const EnvPrefix = "TOMAN"

// Config is the resolved configuration
type Config struct {
	BackendURL string         `mapstructure:"backend_url"`
	Token      string         `mapstructure:"token"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	Fanout     int            `mapstructure:"fanout"`
	Breaker    Breaker        `mapstructure:"breaker"`
	Log        logging.Config `mapstructure:"log"`
	DataDir    string         `mapstructure:"data_dir"`

	// UsedFallback is set when BackendURL fell back to DefaultBackendURL
	UsedFallback bool `mapstructure:"-"`
	// File is the config file that was read, if any
	File string `mapstructure:"-"`
}

// Breaker configures the HTTP circuit breaker
type Breaker struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

// SetDefaults registers every key so environment overrides apply
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend_url", "")
	v.SetDefault("token", "")
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("fanout", 8)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.cooldown", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file", "")
	v.SetDefault("data_dir", "")
}

// Load reads configuration into a Config. An empty path means the default
// location, which may be absent; an explicit path must exist.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		file = DefaultPath()
		if _, err := os.Stat(file); err != nil {
			file = ""
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				return nil, fmt.Errorf("config file %s not found", file)
			}
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = file
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	if c.BackendURL == "" {
		c.BackendURL = DefaultBackendURL
		c.UsedFallback = true
	}
	if c.Fanout <= 0 {
		return fmt.Errorf("fanout must be positive, got %d", c.Fanout)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, "toman.log")
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/toman/config.yaml
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "toman", "config.yaml")
}

// DefaultDataDir is $XDG_DATA_HOME/toman
func DefaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "toman")
}
