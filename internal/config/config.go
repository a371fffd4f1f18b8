package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Token is the API credential. It redacts itself when formatted so
// config dumps never leak the secret.
type Token string

func (Token) String() string { return "*****" }

// MarshalJSON keeps the token out of serialized config.
func (Token) MarshalJSON() ([]byte, error) { return []byte(`"*****"`), nil }

// Config represents the application configuration
type Config struct {
	Host      string        `mapstructure:"host" yaml:"host" validate:"required,url"`
	Token     Token         `mapstructure:"token" yaml:"token" validate:"required"`
	Target    TargetConfig  `mapstructure:"target" yaml:"target"`
	Limit     int           `mapstructure:"limit" yaml:"limit" validate:"min=0"`
	PageSize  int           `mapstructure:"page_size" yaml:"page_size" validate:"min=1"`
	ChunkSize int           `mapstructure:"chunk_size" yaml:"chunk_size" validate:"min=1"`
	Output    OutputConfig  `mapstructure:"output" yaml:"output"`
	Filter    FilterConfig  `mapstructure:"filter" yaml:"filter"`
	Assets    AssetsConfig  `mapstructure:"assets" yaml:"assets"`
	Retry     RetryConfig   `mapstructure:"retry" yaml:"retry"`
	Logging   LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// TargetConfig identifies whose books are backed up. Login may stay
// empty when every target comes from a plan file.
type TargetConfig struct {
	Type  string `mapstructure:"type" yaml:"type" validate:"required,oneof=groups users"`
	Login string `mapstructure:"login" yaml:"login"`
}

// OutputConfig contains backup destination settings
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" validate:"required"`
}

// FilterConfig selects books by slug glob patterns
type FilterConfig struct {
	Include []string `mapstructure:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

// AssetsConfig controls mirroring of embedded resources
type AssetsConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Cache    bool   `mapstructure:"cache" yaml:"cache"`
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// RetryConfig controls optional request retries. Zero max_retries
// disables retrying entirely.
type RetryConfig struct {
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0"`
	InitialWait time.Duration `mapstructure:"initial_wait" yaml:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate checks the configuration before any network activity.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
