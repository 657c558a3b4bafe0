// Package config builds and validates the immutable run configuration
// consumed by the fetcher and the dispatcher. The CLI collects inputs
// (flags, SNYK_TOKEN) and hands over a fully validated value; the core
// never reads the environment or interactive input itself.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/snyk-batch-client/pkg/filter"
	"github.com/Sternrassler/snyk-batch-client/pkg/ratelimit"
	"github.com/Sternrassler/snyk-batch-client/pkg/snyk"
)

// Config is the complete configuration for one run. It is immutable
// once validated.
type Config struct {
	// OrgID is the Snyk organization whose projects are updated.
	OrgID string `validate:"required"`

	// Token is the Snyk API token.
	Token string `validate:"required"`

	// Frequency is the target test frequency.
	Frequency snyk.Frequency `validate:"required,frequency"`

	// Types restricts the listing to these project types. Must already
	// be allow-listed; the CLI drops and reports anything else before
	// building the config.
	Types []string `validate:"dive,projecttype"`

	// APIHost is the API base host including scheme.
	APIHost string `validate:"required,url"`

	// APIVersion is the mandatory API version query parameter.
	APIVersion string `validate:"required"`

	// PageLimit is the listing page size.
	PageLimit int `validate:"gte=1,lte=100"`

	// RequestDelay is the fixed pause between consecutive requests.
	RequestDelay time.Duration `validate:"gt=0"`

	// BackoffDelay is the fixed pause after a 429.
	BackoffDelay time.Duration `validate:"gt=0"`

	// MaxRateLimitRetries caps 429 retries per project; 0 = unlimited.
	MaxRateLimitRetries int `validate:"gte=0"`
}

// Default returns a configuration with all fixed constants populated.
// OrgID, Token, and Frequency must still be supplied by the caller.
func Default() Config {
	return Config{
		APIHost:      snyk.DefaultAPIHost,
		APIVersion:   snyk.DefaultAPIVersion,
		PageLimit:    snyk.DefaultPageLimit,
		RequestDelay: ratelimit.DefaultRequestDelay,
		BackoffDelay: ratelimit.DefaultBackoffDelay,
	}
}

// Validate checks the configuration. A failed validation is fatal and
// must abort the run before any network call.
func (c Config) Validate() error {
	validate := validator.New()

	_ = validate.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return snyk.Frequency(fl.Field().String()).Valid()
	})

	_ = validate.RegisterValidation("projecttype", func(fl validator.FieldLevel) bool {
		return filter.IsAllowed(fl.Field().String())
	})

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Overrides is the optional YAML overrides file. Zero values leave the
// corresponding Config field untouched. Durations use Go syntax
// ("50ms", "10s").
type Overrides struct {
	APIHost             string `yaml:"api_host"`
	APIVersion          string `yaml:"api_version"`
	PageLimit           int    `yaml:"page_limit"`
	RequestDelay        string `yaml:"request_delay"`
	BackoffDelay        string `yaml:"backoff_delay"`
	MaxRateLimitRetries int    `yaml:"max_rate_limit_retries"`
}

// LoadOverrides reads and parses an overrides file.
func LoadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file: %w", err)
	}

	var o Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse overrides file: %w", err)
	}
	return &o, nil
}

// Apply merges non-zero override values into the configuration.
func (c *Config) Apply(o *Overrides) error {
	if o == nil {
		return nil
	}

	if o.APIHost != "" {
		c.APIHost = o.APIHost
	}
	if o.APIVersion != "" {
		c.APIVersion = o.APIVersion
	}
	if o.PageLimit != 0 {
		c.PageLimit = o.PageLimit
	}
	if o.RequestDelay != "" {
		d, err := time.ParseDuration(o.RequestDelay)
		if err != nil {
			return fmt.Errorf("parse request_delay: %w", err)
		}
		c.RequestDelay = d
	}
	if o.BackoffDelay != "" {
		d, err := time.ParseDuration(o.BackoffDelay)
		if err != nil {
			return fmt.Errorf("parse backoff_delay: %w", err)
		}
		c.BackoffDelay = d
	}
	if o.MaxRateLimitRetries != 0 {
		c.MaxRateLimitRetries = o.MaxRateLimitRetries
	}
	return nil
}
