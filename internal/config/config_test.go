package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-optimizer/internal/cache"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		name := strings.ToUpper(key)
		t.Setenv(name, "")
		os.Unsetenv(name) //nolint:errcheck // restored by t.Setenv
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mock", cfg.ModelMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, cache.DefaultTTL, cfg.CacheTTL)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 4, cfg.EvalConcurrency)
	assert.True(t, cfg.RateLimitEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_RateLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_ANALYZE_PER_HOUR", "10")
	t.Setenv("RATE_LIMIT_WHITELIST", "127.0.0.1, 10.0.0.1")

	cfg, err := Load("")
	require.NoError(t, err)

	limits := cfg.RateLimit()
	assert.True(t, limits.Enabled)
	assert.True(t, limits.Whitelist["127.0.0.1"])
	assert.True(t, limits.Whitelist["10.0.0.1"])
	require.NotEmpty(t, limits.EndpointConfigs)
	for _, ep := range limits.EndpointConfigs {
		assert.Equal(t, 10, ep.Limit)
		assert.Equal(t, 5, ep.Burst)
	}
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("MODEL_MODE", "real")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("MODEL_COMPLEX", "gemini-exp")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	mode, err := cfg.Mode()
	require.NoError(t, err)
	assert.Equal(t, llm.ModeReal, mode)
	assert.NoError(t, cfg.Validate())

	models := cfg.ModelConfig()
	assert.Equal(t, "gemini-exp", models.For(types.TierComplex).Model)
	assert.Equal(t, llm.DefaultConfig().For(types.TierSimple).Model, models.For(types.TierSimple).Model)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	content := "log_level: debug\nlog_format: json\neval_concurrency: 2\nmodel_simple: gemini-small\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 2, cfg.EvalConcurrency)
	assert.Equal(t, "gemini-small", cfg.ModelConfig().For(types.TierSimple).Model)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"log_level": "warn"}`), 0o644))
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{ModelMode: "mock", LogFormat: "json", EvalConcurrency: 1, RateLimitAnalyzeHourly: 1, RateLimitBurst: 1}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid mock", mutate: func(*Config) {}},
		{name: "real with key", mutate: func(c *Config) { c.ModelMode = "real"; c.APIKey = "k" }},
		{name: "real without key", mutate: func(c *Config) { c.ModelMode = "real" }, wantErr: "GEMINI_API_KEY"},
		{name: "unknown mode", mutate: func(c *Config) { c.ModelMode = "fake" }, wantErr: "unknown model mode"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log_format"},
		{name: "negative ttl", mutate: func(c *Config) { c.CacheTTL = -time.Second }, wantErr: "cache_ttl"},
		{name: "zero burst", mutate: func(c *Config) { c.RateLimitEnabled = true; c.RateLimitBurst = 0 }, wantErr: "rate_limit_burst"},
		{name: "zero concurrency", mutate: func(c *Config) { c.EvalConcurrency = 0 }, wantErr: "eval_concurrency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RESUME_OPTIMIZER_TEST_VALUE=from-dotenv\n"), 0o644))
	t.Chdir(dir)
	t.Setenv("RESUME_OPTIMIZER_TEST_VALUE", "")
	os.Unsetenv("RESUME_OPTIMIZER_TEST_VALUE") //nolint:errcheck // restored by t.Setenv

	path, err := LoadEnvFile()
	require.NoError(t, err)
	assert.Equal(t, ".env", path)
	assert.Equal(t, "from-dotenv", os.Getenv("RESUME_OPTIMIZER_TEST_VALUE"))
}
