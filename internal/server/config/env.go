package config

import "github.com/caarlos0/env/v11"

// EnvPrefix is prepended to every variable name in the env tags of Config.
const EnvPrefix = "IDENTITY_"

// parseEnv overlays values from IDENTITY_* environment variables. Unset
// variables leave the current value alone; a malformed value panics.
func parseEnv(config *Config) {
	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(err)
	}
}
