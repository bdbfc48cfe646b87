package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// ComfyUI backend
	ComfyUIURL         string
	ComfyUITimeout     time.Duration
	ComfyUIPollTimeout time.Duration

	// AI (prompt enhancement)
	LiteLLMURL       string
	ModelID          string
	OpenRouterAPIKey string

	// Neo4j (optional run history)
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Sampler tuning
	StepCeiling           int     // upper bound on derived step counts
	CFGCeiling            float64 // upper bound on derived guidance scale
	BiasCap               float64 // hard ceiling on preference bias
	BiasConfidenceFloor   int     // selections required before bias applies
	OverrideThreshold     float64 // bias level that unlocks sampler override
	OverrideMinSelections int     // selections required before sampler override
	CacheTTL              time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8190"),
		Env:                getEnv("ENV", "development"),
		ComfyUIURL:         getEnv("COMFYUI_URL", "http://localhost:8188"),
		ComfyUITimeout:     time.Duration(getEnvInt("COMFYUI_TIMEOUT_SECONDS", 30)) * time.Second,
		ComfyUIPollTimeout: time.Duration(getEnvInt("COMFYUI_POLL_TIMEOUT_SECONDS", 300)) * time.Second,
		LiteLLMURL:         getEnv("LITELLM_URL", "http://localhost:4000"),
		ModelID:            getEnv("MODEL_ID", "openrouter/anthropic/claude-3.5-sonnet"),
		OpenRouterAPIKey:   getEnv("OPENROUTER_API_KEY", ""),
		Neo4jURI:           getEnv("NEO4J_URI", ""),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", ""),

		StepCeiling:           getEnvInt("STEP_CEILING", 150),
		CFGCeiling:            getEnvFloat("CFG_CEILING", 20.0),
		BiasCap:               getEnvFloat("BIAS_CAP", 0.3),
		BiasConfidenceFloor:   getEnvInt("BIAS_CONFIDENCE_FLOOR", 2),
		OverrideThreshold:     getEnvFloat("PREFERENCE_OVERRIDE_THRESHOLD", 0.2),
		OverrideMinSelections: getEnvInt("PREFERENCE_OVERRIDE_MIN", 3),
		CacheTTL:              time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.StepCeiling < 1 {
		return fmt.Errorf("STEP_CEILING must be at least 1")
	}
	if c.CFGCeiling <= 0 {
		return fmt.Errorf("CFG_CEILING must be positive")
	}
	if c.BiasCap < 0 {
		return fmt.Errorf("BIAS_CAP must not be negative")
	}
	if c.BiasConfidenceFloor < 1 {
		return fmt.Errorf("BIAS_CONFIDENCE_FLOOR must be at least 1")
	}
	if c.OverrideMinSelections < 1 {
		return fmt.Errorf("PREFERENCE_OVERRIDE_MIN must be at least 1")
	}
	// ComfyUI and Neo4j are optional: the sampler falls back to its mock
	// transform and the history recorder stays disabled when unset.
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HistoryEnabled reports whether the optional Neo4j run history is configured
func (c *Config) HistoryEnabled() bool {
	return c.Neo4jURI != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
