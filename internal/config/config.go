// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sadat41/Empire-Enhanced-sub001/internal/dedup"
	"github.com/Sadat41/Empire-Enhanced-sub001/internal/rules"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Feed     FeedConfig     `yaml:"feed"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Notify   NotifyConfig   `yaml:"notify"`
	Matching MatchingConfig `yaml:"matching"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// FeedConfig defines the marketplace WebSocket feed settings.
type FeedConfig struct {
	URL               string        `yaml:"url"`
	APIKey            string        `yaml:"api_key"`
	HandshakeTimeout  time.Duration `yaml:"handshake_timeout"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	ReconnectDelay    time.Duration `yaml:"reconnect_delay"`
}

// PricingConfig defines the reference price source settings.
type PricingConfig struct {
	SourceURL       string          `yaml:"source_url"`
	RefreshInterval time.Duration   `yaml:"refresh_interval"`
	RequestTimeout  time.Duration   `yaml:"request_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines reference source rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// NotifyConfig defines notification targets.
type NotifyConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool          `yaml:"enabled"`
	WebhookURL string        `yaml:"webhook_url"`
	Username   string        `yaml:"username"`
	Timeout    time.Duration `yaml:"timeout"`
}

// MatchingConfig defines matching engine defaults. The band and threshold
// only seed the settings row on first boot; runtime values live in the
// database and are managed through the API.
type MatchingConfig struct {
	LedgerCapacity           int     `yaml:"ledger_capacity"`
	DefaultBandMin           float64 `yaml:"default_band_min"`
	DefaultBandMax           float64 `yaml:"default_band_max"`
	DefaultKeychainThreshold float64 `yaml:"default_keychain_threshold"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyFeedDefaults(&cfg.Feed)
	applyPricingDefaults(&cfg.Pricing)
	applyNotifyDefaults(&cfg.Notify)
	applyMatchingDefaults(&cfg.Matching)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyFeedDefaults(f *FeedConfig) {
	if f.URL == "" {
		f.URL = "wss://trade.csgoempire.com/trade"
	}
	if f.HandshakeTimeout == 0 {
		f.HandshakeTimeout = 15 * time.Second
	}
	if f.HeartbeatInterval == 0 {
		f.HeartbeatInterval = 20 * time.Second
	}
	if f.ReconnectDelay == 0 {
		f.ReconnectDelay = 5 * time.Second
	}
}

func applyPricingDefaults(p *PricingConfig) {
	if p.SourceURL == "" {
		p.SourceURL = "https://prices.csgotrader.app/latest/prices_v6.json"
	}
	if p.RefreshInterval == 0 {
		p.RefreshInterval = time.Hour
	}
	if p.RequestTimeout == 0 {
		p.RequestTimeout = 30 * time.Second
	}
	applyRateLimitDefaults(&p.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 1.0
	}
	if r.Burst == 0 {
		r.Burst = 2
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 48
	}
}

func applyNotifyDefaults(n *NotifyConfig) {
	if n.Discord.Username == "" {
		n.Discord.Username = "Empire Monitor"
	}
	if n.Discord.Timeout == 0 {
		n.Discord.Timeout = 10 * time.Second
	}
}

func applyMatchingDefaults(m *MatchingConfig) {
	if m.LedgerCapacity == 0 {
		m.LedgerCapacity = dedup.DefaultCapacity
	}
	if m.DefaultBandMin == 0 && m.DefaultBandMax == 0 {
		m.DefaultBandMin = rules.DefaultBandMin
		m.DefaultBandMax = rules.DefaultBandMax
	}
	if m.DefaultKeychainThreshold == 0 {
		m.DefaultKeychainThreshold = rules.DefaultKeychainThreshold
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, fmt.Errorf("database.name is required"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, fmt.Errorf("database.user is required"))
	}

	if cfg.Feed.APIKey == "" {
		errs = append(errs, fmt.Errorf("feed.api_key is required"))
	}

	if cfg.Notify.Discord.Enabled && cfg.Notify.Discord.WebhookURL == "" {
		errs = append(
			errs,
			fmt.Errorf("notify.discord.webhook_url is required when discord is enabled"),
		)
	}

	if cfg.Matching.LedgerCapacity < 0 {
		errs = append(errs, fmt.Errorf("matching.ledger_capacity must not be negative"))
	}
	if cfg.Matching.DefaultBandMin > cfg.Matching.DefaultBandMax {
		errs = append(
			errs,
			fmt.Errorf("matching.default_band_min must not exceed default_band_max"),
		)
	}
	if cfg.Matching.DefaultKeychainThreshold < 0 {
		errs = append(
			errs,
			fmt.Errorf("matching.default_keychain_threshold must not be negative"),
		)
	}

	return errors.Join(errs...)
}
