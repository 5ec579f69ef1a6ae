package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Xtream  XtreamConfig  `mapstructure:"xtream"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Session SessionConfig `mapstructure:"session"`
	Store   StoreConfig   `mapstructure:"store"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// XtreamConfig holds the Xtream provider connection details
type XtreamConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig contains the per-resource TTL classes and the sweep interval
type CacheConfig struct {
	EPGTTL        time.Duration `mapstructure:"epg_ttl"`
	GuideTTL      time.Duration `mapstructure:"guide_ttl"`
	MovieTTL      time.Duration `mapstructure:"movie_ttl"`
	StreamsTTL    time.Duration `mapstructure:"streams_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// SessionConfig contains session lifecycle settings
type SessionConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
	InitRetries       int           `mapstructure:"init_retries"`
	TokenValidity     time.Duration `mapstructure:"token_validity"`
}

// StoreConfig holds the persistence settings for favorites and watch progress
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
