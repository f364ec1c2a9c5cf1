package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateDefaults(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestValidateAcceptsUnknownProvider(t *testing.T) {
	// Unknown providers degrade to stub analyses at wiring time, so the
	// config layer must let them through.
	c := Default()
	c.LLM.Provider = "some-future-backend"
	if err := c.Validate(); err != nil {
		t.Errorf("Unknown provider should validate, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.LLM.TimeoutSeconds = 0 }},
		{"quality too high", func(c *Config) { c.Vision.SendQuality = 101 }},
		{"quality too low", func(c *Config) { c.Vision.SendQuality = 0 }},
		{"tiny send dim", func(c *Config) { c.Vision.SendMaxDim = 32 }},
		{"bad send format", func(c *Config) { c.Vision.SendFormat = "bmp" }},
		{"zero synthesis timeout", func(c *Config) { c.Analysis.SynthesisTimeoutSeconds = 0 }},
	}

	for _, tc := range cases {
		c := Default()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadFromFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"llm": {"provider": "ollama", "model": "qwen2.5"}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	c, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.LLM.Provider != "ollama" || c.LLM.Model != "qwen2.5" {
		t.Errorf("file values not applied: %+v", c.LLM)
	}
	if c.Vision.Model == "" || c.LLM.TimeoutSeconds == 0 {
		t.Errorf("defaults not preserved under overlay: %+v", c)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("LLM_TIMEOUT_SECONDS", "90")

	c := Default()
	c.ApplyEnv()

	if c.LLM.Provider != "openrouter" {
		t.Errorf("provider = %q", c.LLM.Provider)
	}
	if c.LLM.Model != "env-model" {
		t.Errorf("model = %q", c.LLM.Model)
	}
	if c.LLM.TimeoutSeconds != 90 {
		t.Errorf("timeout = %d", c.LLM.TimeoutSeconds)
	}
}
