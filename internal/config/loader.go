package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file, environment, and defaults.
// Uses the global viper instance to access CLI flag bindings.
func Load() (*Config, error) {
	return loadFrom(viper.GetViper())
}

// LoadWithViper loads configuration through a private viper instance,
// bypassing global flag bindings. Intended for plans and tests.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	return loadFrom(v)
}

func loadFrom(v *viper.Viper) (*Config, error) {
	// Set defaults
	setDefaults(v)

	// Config file settings; both config.yaml and config.json are
	// picked up since no type is pinned
	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath(ConfigDir())

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Environment variables (YUQUEBACK_*)
	v.SetEnvPrefix("YUQUEBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate before anything touches the network or disk
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	// Empty defaults keep env-only keys visible to Unmarshal
	v.SetDefault("host", "")
	v.SetDefault("token", "")
	v.SetDefault("target.login", "")

	v.SetDefault("limit", DefaultLimit)
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("chunk_size", DefaultChunkSize)

	// Target defaults
	v.SetDefault("target.type", "groups")

	// Output defaults
	v.SetDefault("output.dir", DefaultOutputDir)

	// Assets defaults
	v.SetDefault("assets.enabled", true)
	v.SetDefault("assets.cache", true)
	v.SetDefault("assets.cache_dir", CacheDir())

	// Retry defaults
	v.SetDefault("retry.max_retries", DefaultMaxRetries)
	v.SetDefault("retry.initial_wait", DefaultInitialWait)
	v.SetDefault("retry.max_wait", DefaultMaxWait)

	// Logging defaults
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0755)
}

// EnsureCacheDir creates the cache directory if it doesn't exist
func EnsureCacheDir() error {
	return os.MkdirAll(CacheDir(), 0755)
}
