package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Alignment  AlignmentConfig  `yaml:"alignment"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Paths      PathsConfig      `yaml:"paths"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type GeminiConfig struct {
	Model string `yaml:"model"`
}

type OpenRouterConfig struct {
	Model        string   `yaml:"model"`
	BaseURL      string   `yaml:"base_url"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

type AlignmentConfig struct {
	Backend          string `yaml:"backend"`
	TranscriptBudget int    `yaml:"transcript_budget"`
}

type AnalysisConfig struct {
	BatchSize int `yaml:"batch_size"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads a YAML config file and applies defaults. A missing file is not
// an error: every field has a workable default and API keys come from the
// environment anyway.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.OpenRouter.Model == "" {
		c.OpenRouter.Model = "anthropic/claude-3.5-sonnet"
	}
	if c.Alignment.Backend == "" {
		c.Alignment.Backend = "gemini"
	}
	if c.Alignment.Backend != "gemini" && c.Alignment.Backend != "openrouter" {
		return fmt.Errorf("alignment.backend must be gemini or openrouter, got %q", c.Alignment.Backend)
	}
	if c.Alignment.TranscriptBudget < 0 {
		return fmt.Errorf("alignment.transcript_budget must be >= 0")
	}
	if c.Analysis.BatchSize < 0 {
		return fmt.Errorf("analysis.batch_size must be >= 0")
	}
	if c.Analysis.BatchSize == 0 {
		c.Analysis.BatchSize = 3
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "out"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return nil
}
