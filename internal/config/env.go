package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds process-level defaults that CLI flags may override.
type Env struct {
	ConfigDir     string `env:"UNLEVEL_CONFIG_DIR"`
	Database      string `env:"UNLEVEL_DB"`
	OutputName    string `env:"UNLEVEL_OUTPUT_NAME" envDefault:"Unlevel.esp"`
	ProgressEvery int    `env:"UNLEVEL_PROGRESS_EVERY" envDefault:"100"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv parses Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}
