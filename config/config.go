// Package config loads the service configuration from defaults, an
// optional YAML file, and environment variable overrides, in that
// order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	Cache     CacheConfig     `yaml:"cache" env:"CACHE"`
	Crew      CrewConfig      `yaml:"crew" env:"CREW"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	RateLimit RateLimitConfig `yaml:"rate_limit" env:"RATE_LIMIT"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" env:"MAX_HEADER_BYTES"`
}

// LLMConfig holds the model provider settings.
type LLMConfig struct {
	APIKey      string        `yaml:"api_key" env:"API_KEY"`
	BaseURL     string        `yaml:"base_url" env:"BASE_URL"`
	Model       string        `yaml:"model" env:"MODEL"`
	Temperature float64       `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens   int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// CacheConfig holds the result cache settings. RedisAddr is optional;
// empty means local-only caching.
type CacheConfig struct {
	MaxEntries    int           `yaml:"max_entries" env:"MAX_ENTRIES"`
	DefaultTTL    time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
	Namespace     string        `yaml:"namespace" env:"NAMESPACE"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
}

// CrewConfig holds the team settings.
type CrewConfig struct {
	Name    string `yaml:"name" env:"NAME"`
	Process string `yaml:"process" env:"PROCESS"`
}

// LogConfig holds the zap logger settings.
type LogConfig struct {
	Level        string `yaml:"level" env:"LEVEL"`
	Format       string `yaml:"format" env:"FORMAT"`
	EnableCaller bool   `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// RateLimitConfig holds the per-client request throttle settings.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"ENABLED"`
	RPS     float64 `yaml:"rps" env:"RPS"`
	Burst   int     `yaml:"burst" env:"BURST"`
}

// DefaultConfig returns the baseline configuration every load starts
// from.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1 << 20,
		},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "openai/gpt-4o-mini",
			Temperature: 0.1,
			MaxTokens:   4000,
			Timeout:     30 * time.Second,
		},
		Cache: CacheConfig{
			MaxEntries:    10000,
			DefaultTTL:    5 * time.Minute,
			SweepInterval: time.Minute,
			Namespace:     "opscrew",
		},
		Crew: CrewConfig{
			Name:    "operations",
			Process: "hierarchical",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     10,
			Burst:   20,
		},
	}
}

// Validate checks invariants the rest of the system assumes.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, "llm.api_key is required (or set OPENROUTER_API_KEY / OPENAI_API_KEY)")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "llm.temperature must be between 0 and 2")
	}
	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, "cache.max_entries must be positive")
	}
	switch c.Crew.Process {
	case "flat", "hierarchical":
	default:
		errs = append(errs, fmt.Sprintf("crew.process must be flat or hierarchical, got %q", c.Crew.Process))
	}
	if c.RateLimit.Enabled && c.RateLimit.RPS <= 0 {
		errs = append(errs, "rate_limit.rps must be positive when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
