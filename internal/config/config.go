// Package config loads and validates engine configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vagahub/engine/internal/jobs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Logging LoggingConfig  `mapstructure:"logging"`
	Fetch   FetchConfig    `mapstructure:"fetch"`
	Ingest  IngestConfig   `mapstructure:"ingest"`
	Storage StorageConfig  `mapstructure:"storage"`
	Search  SearchConfig   `mapstructure:"search"`
	Sources []SourceConfig `mapstructure:"sources"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// FetchConfig configures the polite HTTP client.
type FetchConfig struct {
	UserAgent         string `mapstructure:"user_agent"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	MaxRetries        int    `mapstructure:"max_retries"`
	BackoffInitialMs  int    `mapstructure:"backoff_initial_ms"`
	MinHostIntervalMs int    `mapstructure:"min_host_interval_ms"`
}

// IngestConfig governs run budgets and the staleness sweep.
type IngestConfig struct {
	MaxItemsPerRun  int `mapstructure:"max_items_per_run"`
	MaxDetailFetch  int `mapstructure:"max_detail_fetch"`
	ExpireAfterDays int `mapstructure:"expire_after_days"`
	IntervalMinutes int `mapstructure:"interval_minutes"`
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	// Driver is postgres or memory.
	Driver          string `mapstructure:"driver"`
	DSN             string `mapstructure:"dsn"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// SearchConfig selects and configures the search index backend.
type SearchConfig struct {
	// Provider is bleve, meili or none.
	Provider string `mapstructure:"provider"`
	// Path is the bleve index directory; empty means in-memory.
	Path    string `mapstructure:"path"`
	Host    string `mapstructure:"host"`
	APIKey  string `mapstructure:"api_key"`
	IndexID string `mapstructure:"index_id"`
}

// SourceConfig declares one external source to ingest from. The budget
// fields override the ingest.* defaults for this source when non-zero.
type SourceConfig struct {
	Name           string `mapstructure:"name"`
	Vendor         string `mapstructure:"vendor"`
	BaseURL        string `mapstructure:"base_url"`
	Enabled        bool   `mapstructure:"enabled"`
	FixtureDir     string `mapstructure:"fixture_dir"`
	MaxItemsPerRun int    `mapstructure:"max_items_per_run"`
	MaxDetailFetch int    `mapstructure:"max_detail_fetch"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VAGAHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("fetch.user_agent", "vagahub-engine/0.1")
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_initial_ms", 500)
	v.SetDefault("fetch.min_host_interval_ms", 1000)
	v.SetDefault("ingest.max_items_per_run", 20)
	v.SetDefault("ingest.max_detail_fetch", 20)
	v.SetDefault("ingest.expire_after_days", 14)
	v.SetDefault("ingest.interval_minutes", 60)
	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.max_conns", 8)
	v.SetDefault("storage.min_conns", 1)
	v.SetDefault("storage.conn_lifetime_minutes", 30)
	v.SetDefault("search.provider", "bleve")
	v.SetDefault("search.index_id", "postings")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Ingest.ExpireAfterDays <= 0 {
		return fmt.Errorf("ingest.expire_after_days must be > 0")
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must be set when driver is postgres")
		}
	default:
		return fmt.Errorf("storage.driver must be postgres or memory, got %q", c.Storage.Driver)
	}
	switch c.Search.Provider {
	case "bleve", "none":
	case "meili":
		if c.Search.Host == "" {
			return fmt.Errorf("search.host must be set when provider is meili")
		}
	default:
		return fmt.Errorf("search.provider must be bleve, meili or none, got %q", c.Search.Provider)
	}
	for i, src := range c.Sources {
		if src.Name == "" {
			return fmt.Errorf("sources[%d].name must be set", i)
		}
		if src.Vendor == "" {
			return fmt.Errorf("sources[%d].vendor must be set", i)
		}
		if jobs.VendorType(src.Vendor) != jobs.VendorFixture && src.BaseURL == "" {
			return fmt.Errorf("sources[%d].base_url must be set", i)
		}
		if src.MaxItemsPerRun < 0 || src.MaxDetailFetch < 0 {
			return fmt.Errorf("sources[%d] budgets must be >= 0", i)
		}
	}
	return nil
}

// Timeout is the per-request fetch timeout as a duration.
func (c FetchConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InitialBackoff is the first retry delay as a duration.
func (c FetchConfig) InitialBackoff() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// MinHostInterval is the per-host request spacing as a duration.
func (c FetchConfig) MinHostInterval() time.Duration {
	return time.Duration(c.MinHostIntervalMs) * time.Millisecond
}

// ExpireAfter is the staleness window as a duration.
func (c IngestConfig) ExpireAfter() time.Duration {
	return time.Duration(c.ExpireAfterDays) * 24 * time.Hour
}

// Interval is the scheduler period as a duration.
func (c IngestConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}
