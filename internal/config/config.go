package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Providers    ProvidersConfig    `yaml:"providers"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Storage      StorageConfig      `yaml:"storage"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ProvidersConfig catalogues upstream provider credentials. A provider whose
// API key is absent (in YAML and environment) is simply not constructed; its
// models resolve as unavailable rather than crashing.
type ProvidersConfig struct {
	OpenAI     ProviderConfig `yaml:"openai"`
	Anthropic  ProviderConfig `yaml:"anthropic"`
	OpenRouter ProviderConfig `yaml:"openrouter"`
	Gemini     ProviderConfig `yaml:"gemini"`
}

// ProviderConfig captures authentication and endpoint info for one provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Configured reports whether the provider has a usable credential.
func (p ProviderConfig) Configured() bool {
	return strings.TrimSpace(p.APIKey) != ""
}

// OrchestratorConfig exposes the generation tuning constants as named,
// overridable settings.
type OrchestratorConfig struct {
	ChunkSize       int `yaml:"chunk_size"`
	MaxRetries      int `yaml:"max_retries"`
	BackoffBaseMS   int `yaml:"backoff_base_ms"`
	BackoffCapMS    int `yaml:"backoff_cap_ms"`
	ChunkCooldownMS int `yaml:"chunk_cooldown_ms"`
	DeadlineSeconds int `yaml:"deadline_seconds"`
}

// StorageConfig locates the key-value store used by the bin CRUD endpoints.
type StorageConfig struct {
	Dir string `yaml:"dir"`
}

// BackoffBase returns the initial inter-retry delay.
func (o OrchestratorConfig) BackoffBase() time.Duration {
	return time.Duration(o.BackoffBaseMS) * time.Millisecond
}

// BackoffCap returns the maximum inter-retry delay.
func (o OrchestratorConfig) BackoffCap() time.Duration {
	return time.Duration(o.BackoffCapMS) * time.Millisecond
}

// ChunkCooldown returns the pause between consecutive task chunks.
func (o OrchestratorConfig) ChunkCooldown() time.Duration {
	return time.Duration(o.ChunkCooldownMS) * time.Millisecond
}

// Deadline returns the wall-clock budget for one generation request.
func (o OrchestratorConfig) Deadline() time.Duration {
	return time.Duration(o.DeadlineSeconds) * time.Second
}

// DefaultOrchestrator returns the designed tuning defaults.
func DefaultOrchestrator() OrchestratorConfig {
	return OrchestratorConfig{
		ChunkSize:       6,
		MaxRetries:      3,
		BackoffBaseMS:   1000,
		BackoffCapMS:    5000,
		ChunkCooldownMS: 100,
		DeadlineSeconds: 95,
	}
}

const (
	defaultOpenAIBaseURL     = "https://api.openai.com/v1"
	defaultAnthropicBaseURL  = "https://api.anthropic.com"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api"
	defaultGeminiBaseURL     = "https://generativelanguage.googleapis.com"
	defaultStorageDir        = "data"
)

// Load reads YAML configuration from disk, applies defaults and environment
// credential fallbacks, and validates the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	applyProviderDefaults(&c.Providers.OpenAI, "OPENAI_API_KEY", defaultOpenAIBaseURL)
	applyProviderDefaults(&c.Providers.Anthropic, "ANTHROPIC_API_KEY", defaultAnthropicBaseURL)
	applyProviderDefaults(&c.Providers.OpenRouter, "OPENROUTER_API_KEY", defaultOpenRouterBaseURL)
	applyProviderDefaults(&c.Providers.Gemini, "GEMINI_API_KEY", defaultGeminiBaseURL)

	defaults := DefaultOrchestrator()
	if c.Orchestrator.ChunkSize <= 0 {
		c.Orchestrator.ChunkSize = defaults.ChunkSize
	}
	if c.Orchestrator.MaxRetries <= 0 {
		c.Orchestrator.MaxRetries = defaults.MaxRetries
	}
	if c.Orchestrator.BackoffBaseMS <= 0 {
		c.Orchestrator.BackoffBaseMS = defaults.BackoffBaseMS
	}
	if c.Orchestrator.BackoffCapMS <= 0 {
		c.Orchestrator.BackoffCapMS = defaults.BackoffCapMS
	}
	if c.Orchestrator.ChunkCooldownMS <= 0 {
		c.Orchestrator.ChunkCooldownMS = defaults.ChunkCooldownMS
	}
	if c.Orchestrator.DeadlineSeconds <= 0 {
		c.Orchestrator.DeadlineSeconds = defaults.DeadlineSeconds
	}

	if strings.TrimSpace(c.Storage.Dir) == "" {
		c.Storage.Dir = defaultStorageDir
	}
}

func applyProviderDefaults(p *ProviderConfig, envKey, baseURL string) {
	if strings.TrimSpace(p.APIKey) == "" {
		p.APIKey = os.Getenv(envKey)
	}
	if strings.TrimSpace(p.BaseURL) == "" {
		p.BaseURL = baseURL
	}
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}

	if c.Orchestrator.BackoffCapMS < c.Orchestrator.BackoffBaseMS {
		return fmt.Errorf("orchestrator.backoff_cap_ms %d must not be below backoff_base_ms %d",
			c.Orchestrator.BackoffCapMS, c.Orchestrator.BackoffBaseMS)
	}

	providers := map[string]ProviderConfig{
		"openai":     c.Providers.OpenAI,
		"anthropic":  c.Providers.Anthropic,
		"openrouter": c.Providers.OpenRouter,
		"gemini":     c.Providers.Gemini,
	}
	for name, provider := range providers {
		if strings.TrimSpace(provider.BaseURL) == "" {
			return fmt.Errorf("provider %s: base_url must be provided", name)
		}
	}

	return nil
}
