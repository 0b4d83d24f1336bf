package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that everything the server cannot run without is set.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"JWT_SECRET", "must be set"}.Error())
	}
	if cfg.DBPassword == "" {
		errs = append(errs, ValidationError{"DB_PASSWORD", "must be set"}.Error())
	}
	if cfg.MaxImageBytes <= 0 {
		errs = append(errs, ValidationError{"MAX_IMAGE_BYTES", "must be positive"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
