// Package config loads engine configuration from a YAML file with
// environment-variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Claude       ClaudeConfig       `yaml:"claude"`
	Worker       WorkerConfig       `yaml:"worker"`
	Retry        RetryConfig        `yaml:"retry"`
	Breaker      BreakerConfig      `yaml:"breaker"`
	Search       SearchConfig       `yaml:"search"`
	Distribution DistributionConfig `yaml:"distribution"`
	Logging      LoggingConfig      `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type ClaudeConfig struct {
	APIKey    string  `yaml:"api_key"`
	Model     string  `yaml:"model"`
	MaxTokens int     `yaml:"max_tokens"`
	Timeout   string  `yaml:"timeout"`
	RatePerS  float64 `yaml:"rate_per_second"`
}

type WorkerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

type RetryConfig struct {
	MaxRetries        int           `yaml:"max_retries"`
	InitialDelay      time.Duration `yaml:"initial_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
	JitterPct         float64       `yaml:"jitter_pct"`
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
}

type SearchConfig struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Index     string   `yaml:"index"`
}

type DistributionConfig struct {
	DefaultChannels []string `yaml:"default_channels"`
	WebhookURL      string   `yaml:"webhook_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads the YAML file (if path is non-empty) and applies env overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = env("HTTP_ADDR", c.Server.Addr)
	c.Database.URL = env("PG_ADDR", c.Database.URL)
	c.Claude.APIKey = env("ANTHROPIC_API_KEY", c.Claude.APIKey)
	c.Search.Username = env("ES_USERNAME", c.Search.Username)
	c.Search.Password = env("ES_PASSWORD", c.Search.Password)
	c.Logging.Level = env("LOG_LEVEL", c.Logging.Level)
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Worker.PollInterval <= 0 {
		c.Worker.PollInterval = 5 * time.Second
	}
	if c.Retry.MaxRetries <= 0 {
		c.Retry.MaxRetries = 3
	}
	if c.Retry.InitialDelay <= 0 {
		c.Retry.InitialDelay = time.Second
	}
	if c.Retry.MaxDelay <= 0 {
		c.Retry.MaxDelay = 10 * time.Second
	}
	if c.Retry.BackoffMultiplier <= 0 {
		c.Retry.BackoffMultiplier = 2
	}
	if c.Retry.JitterPct <= 0 {
		c.Retry.JitterPct = 0.2
	}
	if c.Breaker.FailureThreshold <= 0 {
		c.Breaker.FailureThreshold = 5
	}
	if c.Breaker.SuccessThreshold <= 0 {
		c.Breaker.SuccessThreshold = 2
	}
	if c.Breaker.ResetTimeout <= 0 {
		c.Breaker.ResetTimeout = 30 * time.Second
	}
	if len(c.Distribution.DefaultChannels) == 0 {
		c.Distribution.DefaultChannels = []string{"search"}
	}
}

func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database url required (database.url or PG_ADDR)")
	}
	if c.Retry.JitterPct < 0 || c.Retry.JitterPct > 1 {
		return fmt.Errorf("retry.jitter_pct must be within [0, 1]")
	}
	for _, ch := range c.Distribution.DefaultChannels {
		if ch == "" {
			return fmt.Errorf("distribution.default_channels must not contain empty names")
		}
	}
	return nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
