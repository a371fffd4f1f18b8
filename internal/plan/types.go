package plan

import "fmt"

// Config represents the complete plan configuration
type Config struct {
	Targets []Target `yaml:"targets" json:"targets"`
	Options Options  `yaml:"options" json:"options"`
}

// Target represents one backup target. Empty fields fall back to the
// main configuration; Limit is a pointer because zero is a meaningful
// rate ceiling.
type Target struct {
	Type    string   `yaml:"type,omitempty" json:"type,omitempty"`
	Login   string   `yaml:"login" json:"login"`
	Host    string   `yaml:"host,omitempty" json:"host,omitempty"`
	Token   string   `yaml:"token,omitempty" json:"token,omitempty"`
	Dir     string   `yaml:"dir,omitempty" json:"dir,omitempty"`
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Limit   *int     `yaml:"limit,omitempty" json:"limit,omitempty"`
}

// Options represents global plan options
type Options struct {
	ContinueOnError bool `yaml:"continue_on_error" json:"continue_on_error"`
	Concurrency     int  `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
}

// Validate validates the plan configuration
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	for i, target := range c.Targets {
		if target.Login == "" {
			return fmt.Errorf("target %d: %w", i, ErrEmptyLogin)
		}
		switch target.Type {
		case "", "groups", "users":
		default:
			return fmt.Errorf("target %d: %w: %q", i, ErrBadType, target.Type)
		}
	}
	return nil
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() Options {
	return Options{
		ContinueOnError: false,
		Concurrency:     1,
	}
}

// normalize fills option defaults after decoding.
func (c *Config) normalize() {
	if c.Options.Concurrency <= 0 {
		c.Options.Concurrency = DefaultOptions().Concurrency
	}
}
