package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads the configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".iptvctl"))
		}

		// Check /etc
		v.AddConfigPath("/etc/iptvctl/")
	}

	// Allow credentials to come from IPTVCTL_XTREAM_* environment variables.
	// The credential keys are bound explicitly so Unmarshal sees them even
	// when the config file omits them entirely.
	v.SetEnvPrefix("iptvctl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"xtream.base_url", "xtream.username", "xtream.password"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Cache TTL classes
	v.SetDefault("cache.epg_ttl", 5*time.Minute)
	v.SetDefault("cache.guide_ttl", 30*time.Minute)
	v.SetDefault("cache.movie_ttl", 30*time.Minute)
	v.SetDefault("cache.streams_ttl", 10*time.Minute)
	v.SetDefault("cache.sweep_interval", 5*time.Minute)

	// Session defaults
	v.SetDefault("session.heartbeat_interval", 30*time.Second)
	v.SetDefault("session.reconnect_delay", 30*time.Second)
	v.SetDefault("session.init_retries", 3)
	v.SetDefault("session.token_validity", 12*time.Hour)

	// Store defaults
	if home, err := os.UserHomeDir(); err == nil {
		v.SetDefault("store.path", filepath.Join(home, ".iptvctl", "state.json"))
	} else {
		v.SetDefault("store.path", "state.json")
	}

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Xtream.BaseURL == "" {
		return fmt.Errorf("xtream.base_url is required")
	}

	if cfg.Xtream.Username == "" {
		return fmt.Errorf("xtream.username is required")
	}

	if cfg.Xtream.Password == "" {
		return fmt.Errorf("xtream.password is required")
	}

	if cfg.Session.InitRetries < 1 {
		return fmt.Errorf("session.init_retries must be at least 1")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
