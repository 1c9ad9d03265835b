package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg against the `validate` struct tags declared across
// the Config tree (oneof log levels/formats, port ranges, required
// fields) using go-playground/validator.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Bucket.Type == "s3" {
		if cfg.Bucket.Bucket == "" {
			return fmt.Errorf("bucket.bucket is required when bucket.type is s3")
		}
		if cfg.Bucket.Region == "" {
			return fmt.Errorf("bucket.region is required when bucket.type is s3")
		}
	}

	return nil
}
