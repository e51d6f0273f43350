// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonathan/resume-optimizer/internal/cache"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/server/ratelimit"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// Config is the runtime configuration. Values come from an optional config file, then
// environment variables; CLI flags override both.
type Config struct {
	// Model access
	APIKey    string `mapstructure:"gemini_api_key"`
	ModelMode string `mapstructure:"model_mode"`

	// Per-tier model overrides; empty keeps the built-in default
	ModelSimple  string `mapstructure:"model_simple"`
	ModelMedium  string `mapstructure:"model_medium"`
	ModelComplex string `mapstructure:"model_complex"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Persistence and cache, both optional
	DatabaseURL   string        `mapstructure:"database_url"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`

	// Server
	ServerAddr     string        `mapstructure:"server_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Per-client limits on the analyze endpoints
	RateLimitEnabled       bool   `mapstructure:"rate_limit_enabled"`
	RateLimitDefault       int    `mapstructure:"rate_limit_default_per_minute"`
	RateLimitAnalyzeHourly int    `mapstructure:"rate_limit_analyze_per_hour"`
	RateLimitBurst         int    `mapstructure:"rate_limit_burst"`
	RateLimitWhitelist     string `mapstructure:"rate_limit_whitelist"`

	// Eval harness
	EvalConcurrency int `mapstructure:"eval_concurrency"`
}

var keys = []string{
	"gemini_api_key", "model_mode",
	"model_simple", "model_medium", "model_complex",
	"log_level", "log_format",
	"database_url", "redis_addr", "redis_password", "redis_db", "cache_ttl",
	"server_addr", "request_timeout",
	"rate_limit_enabled", "rate_limit_default_per_minute", "rate_limit_analyze_per_hour",
	"rate_limit_burst", "rate_limit_whitelist",
	"eval_concurrency",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_mode", string(llm.ModeMock))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", cache.DefaultTTL)
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("request_timeout", 5*time.Minute)
	v.SetDefault("rate_limit_enabled", true)
	v.SetDefault("rate_limit_default_per_minute", 120)
	v.SetDefault("rate_limit_analyze_per_hour", 30)
	v.SetDefault("rate_limit_burst", 5)
	v.SetDefault("eval_concurrency", 4)
}

// LoadEnvFile loads .env from the working directory or the nearest directory above it
// holding a go.mod. A missing file is not an error; existing environment variables win.
func LoadEnvFile() (string, error) {
	candidates := []string{".env"}
	if root := findProjectRoot(); root != "" {
		candidates = append(candidates, filepath.Join(root, ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("failed to load %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads configuration from path (YAML or JSON, optional) and the environment.
// Environment variables use the upper-cased key names, e.g. GEMINI_API_KEY or CACHE_TTL.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about when unmarshalling
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Mode parses ModelMode.
func (c *Config) Mode() (llm.ModelMode, error) {
	return llm.ParseModelMode(c.ModelMode)
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	mode, err := c.Mode()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if mode == llm.ModeReal && strings.TrimSpace(c.APIKey) == "" {
		return errors.New("config error: GEMINI_API_KEY is required when MODEL_MODE=real")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "console", "":
	default:
		return fmt.Errorf("config error: log_format must be json or console, got %q", c.LogFormat)
	}
	if c.CacheTTL < 0 {
		return errors.New("config error: cache_ttl must be non-negative")
	}
	if c.RequestTimeout < 0 {
		return errors.New("config error: request_timeout must be non-negative")
	}
	if c.RateLimitEnabled && (c.RateLimitAnalyzeHourly < 1 || c.RateLimitBurst < 1) {
		return errors.New("config error: rate_limit_analyze_per_hour and rate_limit_burst must be positive")
	}
	if c.EvalConcurrency < 1 {
		return errors.New("config error: eval_concurrency must be at least 1")
	}
	return nil
}

// ModelConfig returns the tier configuration with any model overrides applied.
func (c *Config) ModelConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	overrides := map[types.Tier]string{
		types.TierSimple:  c.ModelSimple,
		types.TierMedium:  c.ModelMedium,
		types.TierComplex: c.ModelComplex,
	}
	for tier, model := range overrides {
		if model != "" {
			cfg = cfg.WithModel(tier, model)
		}
	}
	return cfg
}

// RateLimit builds the server's limiter configuration.
func (c *Config) RateLimit() ratelimit.Config {
	return ratelimit.Config{
		Enabled:         c.RateLimitEnabled,
		DefaultLimit:    c.RateLimitDefault,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTimeout:     2 * time.Hour,
		Whitelist:       ratelimit.ParseIPList(c.RateLimitWhitelist),
		EndpointConfigs: ratelimit.AnalyzeEndpoints(c.RateLimitAnalyzeHourly, c.RateLimitBurst),
	}
}
