package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/dmitrijs2005/statsync/internal/logging"
)

// Config groups all tunables. LoadConfig reads them from environment
// variables with the prefix "STATSYNC_QUEUE", e.g. STATSYNC_QUEUE_SHARDS=8.
type Config struct {
	Shards         int           `envconfig:"SHARDS"          default:"4"`
	QueueSize      int           `envconfig:"SIZE"            default:"64"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	MaxAttempts int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF" default:"200ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL" default:"10s"`

	// Retryable decides whether a failed job runs again. Nil retries every
	// error not marked Permanent.
	Retryable func(error) bool `envconfig:"-"`

	// ErrorHandler is called after a job fails for good. Leave nil to ignore.
	ErrorHandler func(error) `envconfig:"-"`

	Logger logging.Logger `envconfig:"-"`
}

// LoadConfig populates Config from the environment.
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("STATSYNC_QUEUE", &c)
}

func (c Config) withDefaults() Config {
	if c.Shards <= 0 {
		c.Shards = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.EnqueueTimeout <= 0 {
		c.EnqueueTimeout = 100 * time.Millisecond
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 200 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = logging.Nop()
	}
	return c
}
