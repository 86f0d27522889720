package config

import (
	"fmt"
	"time"
)

// Cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds runtime settings for the statsync CLI.
type Config struct {
	ServerEndpointAddr string `envconfig:"SERVER_ENDPOINT_ADDR"`
	DataRoot           string `envconfig:"DATA_ROOT"`
	CachePrefix        string `envconfig:"CACHE_PREFIX"`
	CacheBackend       string `envconfig:"CACHE_BACKEND"`

	AccessToken string `envconfig:"ACCESS_TOKEN"`
	// UserID is used when AccessToken is empty. Negative means unset.
	UserID int `envconfig:"USER_ID"`

	SyncInterval    time.Duration `envconfig:"SYNC_INTERVAL"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT"`
	RetryMaxElapsed time.Duration `envconfig:"RETRY_MAX_ELAPSED"`

	QueueShards int `envconfig:"QUEUE_SHARDS"`
	QueueSize   int `envconfig:"QUEUE_SIZE"`

	LogLevel  string `envconfig:"LOG_LEVEL"`
	LogFormat string `envconfig:"LOG_FORMAT"`
	// LogFile switches logging to a rotated file. Empty logs to stderr.
	LogFile string `envconfig:"LOG_FILE"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DataRoot = "statsync-data"
	c.CachePrefix = "statsync"
	c.CacheBackend = BackendFile
	c.UserID = -1
	c.SyncInterval = 30 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.RetryMaxElapsed = 2 * time.Minute
	c.QueueShards = 4
	c.QueueSize = 64
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.ServerEndpointAddr == "" {
		return fmt.Errorf("server endpoint address is empty")
	}
	if c.DataRoot == "" {
		return fmt.Errorf("data root is empty")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", c.SyncInterval)
	}
	return nil
}

// LoadConfig applies defaults, then the JSON file named by -c/-config, then
// STATSYNC_* environment variables, then command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
