package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix namespaces the environment variables read by LoadConfig,
// e.g. STATSYNC_SERVER_ENDPOINT_ADDR.
const EnvPrefix = "STATSYNC"

// parseEnv overlays cfg with the variables that are set. Unset variables
// leave the current value in place.
func parseEnv(cfg *Config) error {
	return envconfig.Process(EnvPrefix, cfg)
}
