// Package config loads litesync configuration.
//
// Values come from built-in defaults, a config.yaml file, a .env file in the
// working directory and LITESYNC_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gauthierbraillon/litesync/internal/checkpoint"
)

const envPrefix = "LITESYNC"

// Config holds all application configuration.
type Config struct {
	Feed      FeedConfig      `mapstructure:"feed" yaml:"feed"`
	Publisher PublisherConfig `mapstructure:"publisher" yaml:"publisher"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// FeedConfig holds feed source configuration.
type FeedConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// PublisherConfig holds ledger gateway configuration.
type PublisherConfig struct {
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	Token       string        `mapstructure:"token" yaml:"token"` // #nosec G117 - config field, not an exposed secret
	Character   string        `mapstructure:"character" yaml:"character"`
	ExplorerURL string        `mapstructure:"explorer_url" yaml:"explorer_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	DryRun      bool          `mapstructure:"dry_run" yaml:"dry_run"`
}

// StoreConfig selects where the checkpoint lives.
type StoreConfig struct {
	Backend checkpoint.Backend `mapstructure:"backend" yaml:"backend"`
	Path    string             `mapstructure:"path" yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// Dir returns the configuration directory.
func Dir() string {
	if dir := os.Getenv(envPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "litesync")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", "")
	v.SetDefault("feed.timeout", 30*time.Second)
	v.SetDefault("publisher.endpoint", "")
	v.SetDefault("publisher.token", "")
	v.SetDefault("publisher.character", "")
	v.SetDefault("publisher.explorer_url", "")
	v.SetDefault("publisher.timeout", 60*time.Second)
	v.SetDefault("publisher.dry_run", false)
	v.SetDefault("store.backend", string(checkpoint.BackendFile))
	v.SetDefault("store.path", "")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}

// Load reads configuration. configFile, when set, must exist; otherwise
// config.yaml is looked up in Dir() and the working directory and may be
// absent. The result is not validated; call Validate before use.
func Load(configFile string) (*Config, error) {
	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath(cfg.Store.Backend)
	}
	return cfg, nil
}

func defaultStorePath(backend checkpoint.Backend) string {
	if backend == checkpoint.BackendBolt {
		return filepath.Join(Dir(), "litesync.db")
	}
	return filepath.Join(Dir(), "status.json")
}

// Validate reports the first invalid setting, naming its key.
func (c *Config) Validate() error {
	if err := validateURL("feed.url", c.Feed.URL); err != nil {
		return err
	}
	switch c.Store.Backend {
	case checkpoint.BackendFile, checkpoint.BackendBolt:
	default:
		return fmt.Errorf("store.backend: unknown backend %q (valid: file, bolt)", c.Store.Backend)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q (valid: text, json)", c.Logging.Format)
	}

	if c.Publisher.DryRun {
		return nil
	}
	if err := validateURL("publisher.endpoint", c.Publisher.Endpoint); err != nil {
		return err
	}
	if c.Publisher.Token == "" {
		return errors.New("publisher.token is required (or set LITESYNC_PUBLISHER_TOKEN)")
	}
	if c.Publisher.Character == "" {
		return errors.New("publisher.character is required")
	}
	return nil
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: invalid url: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: url scheme must be http or https, got %q", key, u.Scheme)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Publisher.Token != "" {
		c.Publisher.Token = "********"
	}
	return c
}
