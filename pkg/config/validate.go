package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks cfg against its struct tags and a handful of cross-field
// rules that validator tags can't express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if strings.HasPrefix(cfg.Archive.Path, "s3://") && cfg.S3.Bucket == "" {
		rest := strings.TrimPrefix(cfg.Archive.Path, "s3://")
		if rest == "" {
			return fmt.Errorf("archive.path %q: s3:// URL is missing a bucket name", cfg.Archive.Path)
		}
	}

	return nil
}
