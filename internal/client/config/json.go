package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/statsync/internal/flagx"
	"github.com/dmitrijs2005/statsync/internal/timex"
)

// jsonConfig is the file form of Config. Pointer fields tell "absent" from
// a zero value so a partial file only overrides what it names.
type jsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	DataRoot           *string         `json:"data_root"`
	CachePrefix        *string         `json:"cache_prefix"`
	CacheBackend       *string         `json:"cache_backend"`
	AccessToken        *string         `json:"access_token"`
	UserID             *int            `json:"user_id"`
	SyncInterval       *timex.Duration `json:"sync_interval"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	RetryMaxElapsed    *timex.Duration `json:"retry_max_elapsed"`
	QueueShards        *int            `json:"queue_shards"`
	QueueSize          *int            `json:"queue_size"`
	LogLevel           *string         `json:"log_level"`
	LogFormat          *string         `json:"log_format"`
	LogFile            *string         `json:"log_file"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJSON overlays cfg with the JSON file named by -c or -config in args.
// Without the flag nothing is loaded.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	set(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	set(&cfg.DataRoot, jc.DataRoot)
	set(&cfg.CachePrefix, jc.CachePrefix)
	set(&cfg.CacheBackend, jc.CacheBackend)
	set(&cfg.AccessToken, jc.AccessToken)
	set(&cfg.UserID, jc.UserID)
	set(&cfg.QueueShards, jc.QueueShards)
	set(&cfg.QueueSize, jc.QueueSize)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.LogFormat, jc.LogFormat)
	set(&cfg.LogFile, jc.LogFile)

	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RetryMaxElapsed != nil {
		cfg.RetryMaxElapsed = jc.RetryMaxElapsed.Duration
	}
	return nil
}
