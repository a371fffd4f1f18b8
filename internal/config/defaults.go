package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Request budget per one-second window
	DefaultLimit = 10

	// Listing page size sent to the API
	DefaultPageSize = 100

	// Fan-out width for book and document chunks
	DefaultChunkSize = 8

	// Output defaults
	DefaultOutputDir = "."

	// Retry defaults; retries stay off until max_retries is raised
	DefaultMaxRetries  = 0
	DefaultInitialWait = 1 * time.Second
	DefaultMaxWait     = 30 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".yuqueback"
	}
	return filepath.Join(home, ".yuqueback")
}

// CacheDir returns the resource cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// Default returns the default configuration. Host, token and target
// login still have to come from the user.
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			Type: "groups",
		},
		Limit:     DefaultLimit,
		PageSize:  DefaultPageSize,
		ChunkSize: DefaultChunkSize,
		Output: OutputConfig{
			Dir: DefaultOutputDir,
		},
		Assets: AssetsConfig{
			Enabled:  true,
			Cache:    true,
			CacheDir: CacheDir(),
		},
		Retry: RetryConfig{
			MaxRetries:  DefaultMaxRetries,
			InitialWait: DefaultInitialWait,
			MaxWait:     DefaultMaxWait,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
