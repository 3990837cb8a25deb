package config

import (
	"runtime"
	"strings"

	"github.com/yonasBSD/conserve/internal/bytesize"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyBackupDefaults(&cfg.Backup)
	applyS3Defaults(&cfg.S3)

	// Note: no default for Archive.Path. A location must be configured
	// explicitly or passed via --archive on the command line.
}

// applyLoggingDefaults sets logging defaults and normalizes the level.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyBackupDefaults sets backup pipeline policy defaults.
func applyBackupDefaults(cfg *BackupConfig) {
	if cfg.TargetBlockSize == 0 {
		cfg.TargetBlockSize = bytesize.ByteSize(1 << 20) // 1 MiB
	}
	if cfg.Threads == 0 {
		cfg.Threads = runtime.NumCPU()
	}
	// MaxEntriesPerHunk of 0 defers to index.EntryLimit.
}

// applyS3Defaults sets S3 transport defaults.
func applyS3Defaults(cfg *S3Config) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
// Useful for generating sample configuration files and as the fallback when
// no config file is found.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Archive: ArchiveConfig{
			Path: "/var/lib/conserve/archive",
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
