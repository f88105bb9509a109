// Package config loads coursealloc settings from config.yaml and the
// environment with viper, and writes the default file with yaml.v3.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/coursealloc/internal/logging"
	"github.com/mesh-intelligence/coursealloc/internal/paths"
	"github.com/mesh-intelligence/coursealloc/pkg/types"
)

// EnvPrefix prefixes environment overrides, e.g. COURSEALLOC_LISTEN_ADDR.
const EnvPrefix = "COURSEALLOC"

// Config keys.
const (
	KeyListenAddr   = "listen_addr"
	KeyBackend      = "backend"
	KeyDataDir      = "data_dir"
	KeySyncStrategy = "sync_strategy"
	KeyRandomSeed   = "random_seed"
	KeyPacing       = "pacing"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
)

// Config is the full application configuration.
type Config struct {
	ListenAddr   string `mapstructure:"listen_addr" yaml:"listen_addr"`
	Backend      string `mapstructure:"backend" yaml:"backend"`
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	SyncStrategy string `mapstructure:"sync_strategy" yaml:"sync_strategy"`
	RandomSeed   uint64 `mapstructure:"random_seed" yaml:"random_seed"`
	Pacing       bool   `mapstructure:"pacing" yaml:"pacing"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
}

// ErrListenAddrEmpty is returned by Validate when listen_addr is blank.
var ErrListenAddrEmpty = errors.New("listen_addr must not be empty")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:   ":8080",
		Backend:      types.BackendMemory,
		SyncStrategy: types.SyncImmediate,
		Pacing:       true,
		LogLevel:     "info",
		LogFormat:    logging.FormatJSON,
	}
}

// Load reads config.yaml from configDir, applies COURSEALLOC_* environment
// overrides and fills the rest from Default. A missing file is not an
// error. data_dir is not read from the environment here; paths.ResolveDataDir
// applies COURSEALLOC_DATA_DIR after the file value.
func Load(configDir string) (Config, error) {
	v := viper.New()
	def := Default()
	defaults := map[string]any{
		KeyListenAddr:   def.ListenAddr,
		KeyBackend:      def.Backend,
		KeySyncStrategy: def.SyncStrategy,
		KeyRandomSeed:   def.RandomSeed,
		KeyPacing:       def.Pacing,
		KeyLogLevel:     def.LogLevel,
		KeyLogFormat:    def.LogFormat,
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key)); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks every field. Store errors are the sentinels of pkg/types.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return ErrListenAddrEmpty
	}
	if err := c.Store().Validate(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("%w: %q", logging.ErrFormatUnknown, c.LogFormat)
	}
	return nil
}

// Store returns the store settings.
func (c Config) Store() types.Config {
	return types.Config{
		Backend:      c.Backend,
		DataDir:      c.DataDir,
		SyncStrategy: c.SyncStrategy,
	}
}

// WriteDefault writes cfg to configDir/config.yaml unless the file already
// exists. It reports whether a file was written.
func WriteDefault(configDir string, cfg Config) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
