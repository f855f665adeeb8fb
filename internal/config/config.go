// Package config provides configuration management for the puller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoQuery                  = errors.New("query.keywords or at least one query filter is required")
	ErrInvalidKeywordFormat     = errors.New(`query.keyword_format must be "AND" or "OR"`)
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidInterval          = errors.New("rate_limit.interval_sec must be non-negative")
	ErrMissingOutputDir         = errors.New("output.dir is required")
	ErrInvalidTranslationTarget = errors.New("translation.target must be a 2-5 character language code")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete puller configuration.
type Config struct {
	Query       QueryConfig       `yaml:"query"`
	Time        TimeConfig        `yaml:"time"`
	Translation TranslationConfig `yaml:"translation"`
	Output      OutputConfig      `yaml:"output"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Retry       RetryPolicy       `yaml:"retry"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// QueryConfig describes the document search sent to the remote API.
type QueryConfig struct {
	Keywords      []string `yaml:"keywords"`
	KeywordFormat string   `yaml:"keyword_format"`
	Language      string   `yaml:"language"`
	Country       string   `yaml:"country"`
	Domain        string   `yaml:"domain"`
	Theme         string   `yaml:"theme"`
	Custom        string   `yaml:"custom"`
}

// TimeConfig bounds the article search. Values are timestamps in
// YYYYMMDDHHMMSS form; separators (-, /, ., :, space) are tolerated.
// A blank end means "now minus a small buffer".
type TimeConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// TranslationConfig selects the optional headline translation target.
// A blank target disables translation.
type TranslationConfig struct {
	Target string `yaml:"target"`
}

// OutputConfig defines where result files land.
type OutputConfig struct {
	Dir     string `yaml:"dir"`
	Archive string `yaml:"archive"`
}

// RateLimitConfig throttles requests against the remote API.
// The API enforces a cooldown between requests, so disabling this
// risks getting rate limited.
type RateLimitConfig struct {
	Disabled    bool `yaml:"disabled"`
	IntervalSec int  `yaml:"interval_sec"`
}

// Interval returns the configured delay between requests.
func (r *RateLimitConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSec) * time.Second
}

// RetryPolicy defines retry behavior for network failures.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultStart is used when no start bound is configured.
const DefaultStart = "20170101000000"

// LoadConfig loads configuration from a YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to a YAML file, so a later run can
// reuse the same parameters.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills in zero values with usable defaults.
func (c *Config) ApplyDefaults() {
	if c.Time.Start == "" {
		c.Time.Start = DefaultStart
	}

	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}

	if c.Output.Archive == "" {
		c.Output.Archive = "output.zip"
	}

	if c.RateLimit.IntervalSec == 0 {
		c.RateLimit.IntervalSec = 5
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}

	if c.Retry.InitialDelayMs == 0 {
		c.Retry.InitialDelayMs = 500
	}

	if c.Retry.MaxDelayMs == 0 {
		c.Retry.MaxDelayMs = 30000
	}

	if c.Retry.BackoffMultiplier == 0 {
		c.Retry.BackoffMultiplier = 2.0
	}

	if c.Retry.TimeoutSec == 0 {
		c.Retry.TimeoutSec = 30
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// The remote API rejects completely unconstrained queries.
	if !c.Query.HasTerms() {
		return ErrNoQuery
	}

	if len(c.Query.Keywords) > 1 {
		if c.Query.KeywordFormat != "AND" && c.Query.KeywordFormat != "OR" {
			return fmt.Errorf("%w: got %q", ErrInvalidKeywordFormat, c.Query.KeywordFormat)
		}
	}

	// Validate retry policy
	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.RateLimit.IntervalSec < 0 {
		return ErrInvalidInterval
	}

	if c.Output.Dir == "" {
		return ErrMissingOutputDir
	}

	if t := c.Translation.Target; t != "" {
		if len(t) < 2 || len(t) > 5 {
			return fmt.Errorf("%w: got %q", ErrInvalidTranslationTarget, t)
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// HasTerms reports whether the query constrains the search at all.
func (q *QueryConfig) HasTerms() bool {
	for _, kw := range q.Keywords {
		if kw != "" {
			return true
		}
	}

	return q.Language != "" || q.Country != "" || q.Domain != "" || q.Theme != "" || q.Custom != ""
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Keywords: %d, Start: %s, Output: %s}",
		len(c.Query.Keywords),
		c.Time.Start,
		c.Output.Dir,
	)
}
