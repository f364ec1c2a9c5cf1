package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	LLM      LLMConfig      `json:"llm"`
	Vision   VisionConfig   `json:"vision"`
	Analysis AnalysisConfig `json:"analysis"`
}

// LLMConfig holds configuration for the text-generation provider
type LLMConfig struct {
	// Provider selects the backend: "none", "ollama", "openrouter",
	// "openai" or "llamacpp".
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	APIKey         string `json:"api_key"`
	BaseURL        string `json:"base_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// VisionConfig holds configuration for scene extraction via a vision model
type VisionConfig struct {
	Enabled        bool   `json:"enabled"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	SendFormat     string `json:"send_format"`
	SendMaxDim     int    `json:"send_max_dim"`
	SendQuality    int    `json:"send_quality"`
}

// AnalysisConfig holds limits for the interpretation chain
type AnalysisConfig struct {
	SynthesisTimeoutSeconds int `json:"synthesis_timeout_seconds"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "none",
			Model:          "llama3.1",
			TimeoutSeconds: 60,
		},
		Vision: VisionConfig{
			Enabled:        false,
			Model:          "llava",
			TimeoutSeconds: 120,
			SendFormat:     "jpg",
			SendMaxDim:     1024,
			SendQuality:    85,
		},
		Analysis: AnalysisConfig{
			SynthesisTimeoutSeconds: 180,
		},
	}
}

// LoadFromFile loads configuration from a JSON file
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays environment variables onto the configuration. Unset
// variables leave the current values in place.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("VISION_ENABLED"); v != "" {
		c.Vision.Enabled = v == "1" || v == "true"
	}
	if v := os.Getenv("VISION_MODEL"); v != "" {
		c.Vision.Model = v
	}
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLM.TimeoutSeconds = n
		}
	}
}

// Validate checks if the configuration is valid. The provider name is not
// validated here: an unrecognized provider degrades to stub analyses at
// wiring time instead of failing the run.
func (c *Config) Validate() error {
	if c.LLM.TimeoutSeconds < 1 {
		return fmt.Errorf("llm.timeout_seconds must be positive")
	}

	if c.Vision.SendQuality < 1 || c.Vision.SendQuality > 100 {
		return fmt.Errorf("vision.send_quality must be between 1 and 100")
	}

	if c.Vision.SendMaxDim < 64 {
		return fmt.Errorf("vision.send_max_dim must be at least 64")
	}

	switch c.Vision.SendFormat {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("vision.send_format must be one of jpg, jpeg, png, webp")
	}

	if c.Analysis.SynthesisTimeoutSeconds < 1 {
		return fmt.Errorf("analysis.synthesis_timeout_seconds must be positive")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "art-analyzer", "config.json")
}
