// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "ESTIMATE_SPACE_"

// ParseEnv loads configuration from ESTIMATE_SPACE_* environment variables.
func ParseEnv(target any) error {
	return parse(target, env.Options{Prefix: EnvPrefix})
}

// ParseEnvFrom loads configuration from environment instead of the process
// environment. Keys carry the prefix.
func ParseEnvFrom(target any, environment map[string]string) error {
	return parse(target, env.Options{Prefix: EnvPrefix, Environment: environment})
}

func parse(target any, opts env.Options) error {
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
