// Package config provides configuration loading and validation utilities.
package config

import "time"

// Config holds runtime configuration for the deals bot.
type Config struct {
	AppEnv    string          `mapstructure:"-"`
	Bot       BotConfig       `mapstructure:"bot" validate:"required"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Locale    LocaleConfig    `mapstructure:"locale"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Relay     RelayConfig     `mapstructure:"relay"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token        string        `mapstructure:"token" validate:"required"`
	Mode         string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout      time.Duration `mapstructure:"timeout"`
	AdminGroupID int64         `mapstructure:"admin_group_id"`
}

// ServerConfig configures the sidecar HTTP server for health and metrics.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// DatabaseConfig configures the optional Postgres profile store.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required_if=Enabled true"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" sslmode=" + c.SSLMode
}

// LocaleConfig configures the locale pack directory.
type LocaleConfig struct {
	Dir         string `mapstructure:"dir"`
	DefaultLang string `mapstructure:"default_lang"`
	HotReload   bool   `mapstructure:"hot_reload"`
}

// CatalogConfig configures the deal feed.
type CatalogConfig struct {
	FeedURL     string        `mapstructure:"feed_url"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
	RefreshCron string        `mapstructure:"refresh_cron"`
}

// RelayConfig configures relay session lifetimes.
type RelayConfig struct {
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RateLimitRule is one limit/window pair.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig configures per-user throttling.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Search    RateLimitRule `mapstructure:"search"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// JobsConfig configures the background task scheduler.
type JobsConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	Concurrency int  `mapstructure:"concurrency"`
}
