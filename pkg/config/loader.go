package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from environment variables according to its env struct
// tags. cfg must be a pointer to a struct; envDefault tags supply values for
// unset variables.
//
//	type Config struct {
//	    HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`
//	    LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
