// Package config loads runtime configuration for the statsync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. STATSYNC_* environment variables.
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds. Keys that are absent keep their earlier value:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "data_root": "/var/lib/statsync",
//	  "cache_backend": "sqlite",
//	  "sync_interval": "30s",
//	  "user_id": 7
//	}
package config
