// Package config loads and validates Conserve's configuration: the archive
// location, transport credentials, and backup/restore policy defaults that
// the CLI layer feeds into pkg/archive, pkg/backup, and pkg/restore.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yonasBSD/conserve/internal/bytesize"
)

// Config is Conserve's top-level configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority, applied by the caller after Load)
//  2. Environment variables (CONSERVE_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Archive identifies the archive this invocation operates against.
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`

	// Backup controls the default backup pipeline policy. CLI flags may
	// override any of these per invocation.
	Backup BackupConfig `mapstructure:"backup" yaml:"backup"`

	// Restore controls the default restore pipeline policy.
	Restore RestoreConfig `mapstructure:"restore" yaml:"restore"`

	// S3 configures the S3-like object store transport. Only consulted
	// when Archive.Path uses the s3:// scheme.
	S3 S3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ArchiveConfig identifies the archive location.
type ArchiveConfig struct {
	// Path is the archive root: a local directory path, or an s3://bucket/prefix URL.
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// BackupConfig holds default backup pipeline policy, mirroring
// pkg/backup.Policy so config files and CLI flags can populate it directly.
type BackupConfig struct {
	// Exclude lists doublestar glob patterns, relative to the source root,
	// of paths to skip during backup.
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`

	// MaxEntriesPerHunk overrides the index writer's hunk size. Zero uses
	// index.EntryLimit.
	MaxEntriesPerHunk int `mapstructure:"max_entries_per_hunk" validate:"omitempty,min=1" yaml:"max_entries_per_hunk,omitempty"`

	// TargetBlockSize is the chunk size files are split into before hashing.
	// Supports human-readable sizes: "1MiB", "512KB".
	TargetBlockSize bytesize.ByteSize `mapstructure:"target_block_size" yaml:"target_block_size,omitempty"`

	// Threads bounds the hash+compress worker pool. Zero uses runtime.NumCPU().
	Threads int `mapstructure:"threads" validate:"omitempty,min=1" yaml:"threads,omitempty"`

	// StrictSourceErrors, when true, aborts the backup on the first
	// unreadable source file instead of skipping it.
	StrictSourceErrors bool `mapstructure:"strict_source_errors" yaml:"strict_source_errors,omitempty"`
}

// RestoreConfig holds default restore pipeline policy.
type RestoreConfig struct {
	// RestoreOwnership, when true, applies the archived uid/gid to restored
	// files via chown. Requires privilege on most systems.
	RestoreOwnership bool `mapstructure:"restore_ownership" yaml:"restore_ownership,omitempty"`
}

// S3Config configures the S3-like object store transport.
type S3Config struct {
	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket" yaml:"bucket,omitempty"`

	// Region is the AWS region. Empty defers to the SDK's default chain.
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint URL, for S3-compatible stores
	// (MinIO, Ceph RGW, etc).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// AccessKeyID and SecretAccessKey, when both set, are used as static
	// credentials instead of the SDK's default credential chain.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`

	// Prefix is the key prefix under which the archive is stored.
	Prefix string `mapstructure:"prefix" yaml:"prefix,omitempty"`

	// ForcePathStyle requests path-style S3 addressing, required by most
	// S3-compatible stores that don't support virtual-hosted buckets.
	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`

	// MaxRetries bounds the SDK's request retry count.
	MaxRetries int `mapstructure:"max_retries" validate:"omitempty,min=0" yaml:"max_retries,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (CONSERVE_*)
//  2. Configuration file
//  3. Default values
//
// Environment variables override only keys that the configuration file
// sets. When no configuration file is found, Load returns GetDefaultConfig()
// and does not consult the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages if the file is
// missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  conserve init\n\n"+
				"Or specify a custom config file:\n"+
				"  conserve <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  conserve init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML format.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Restricted permissions: config may carry S3 static credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variable and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CONSERVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. The returned
// bool reports whether a file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks returns a combined decode hook for ByteSize and
// time.Duration custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook converts strings and numbers to bytesize.ByteSize,
// enabling config files to use human-readable sizes like "1Gi" or "100MB".
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook converts strings to time.Duration, enabling config
// files to use human-readable durations like "30s" or "5m".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path, using
// XDG_CONFIG_HOME if set, otherwise ~/.config, falling back to "." if the
// home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "conserve")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "conserve")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for the
// init command).
func GetConfigDir() string {
	return getConfigDir()
}
