// Package config loads and validates loom configuration from YAML or JSON5
// files, with $include resolution and environment variable expansion.
package config

import "fmt"

// Config is the root configuration for the loom binary.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Slack   SlackConfig   `yaml:"slack"`
	Metrics MetricsConfig `yaml:"metrics"`
	Decoder DecoderConfig `yaml:"decoder"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is json or text.
	Format string `yaml:"format"`
}

// SlackConfig configures the Slack deliverer.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	AppToken string `yaml:"app_token"`
	Channel  string `yaml:"channel"`
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address the /metrics endpoint binds to; empty disables it.
	Listen string `yaml:"listen"`
}

// DecoderConfig configures stream decoding.
type DecoderConfig struct {
	// Strict reports malformed stream lines instead of dropping them.
	Strict bool `yaml:"strict"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// ValidateSlack checks the fields the serve command requires.
func (c *Config) ValidateSlack() error {
	if c.Slack.BotToken == "" {
		return fmt.Errorf("config: slack.bot_token is required")
	}
	if c.Slack.AppToken == "" {
		return fmt.Errorf("config: slack.app_token is required")
	}
	if c.Slack.Channel == "" {
		return fmt.Errorf("config: slack.channel is required")
	}
	return nil
}

// Load reads, merges, and decodes the config file at path.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeStrict(raw)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
