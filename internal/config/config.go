package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type PlannerConfig struct {
	Provider    string   `toml:"provider"` // "gemini" or "command"
	Model       string   `toml:"model"`
	APIKeyEnv   string   `toml:"api_key_env"`
	Command     string   `toml:"command"`
	CommandArgs []string `toml:"command_args"`
}

type DriverConfig struct {
	BaseURL string `toml:"base_url"`
}

type ExecutorConfig struct {
	MaxIterations        int `toml:"max_iterations"`
	MaxConsecutiveErrors int `toml:"max_consecutive_errors"`
}

type OrchestratorConfig struct {
	MaxSteps       int  `toml:"max_steps"`
	PlanScreenshot bool `toml:"plan_screenshot"`
}

type GridConfig struct {
	Size   int  `toml:"size"`
	Verify bool `toml:"verify"`
}

type ConfirmConfig struct {
	// TimeoutSeconds auto-rejects unanswered confirmations after the
	// deadline; 0 waits forever.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// RiskPatterns replaces the built-in pattern list when non-empty.
	RiskPatterns []string `toml:"risk_patterns"`
}

type Config struct {
	Planner      PlannerConfig      `toml:"planner"`
	Driver       DriverConfig       `toml:"driver"`
	Executor     ExecutorConfig     `toml:"executor"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	Grid         GridConfig         `toml:"grid"`
	Confirm      ConfirmConfig      `toml:"confirm"`
}

func defaults() Config {
	return Config{
		Planner: PlannerConfig{
			Provider:  "gemini",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Driver: DriverConfig{
			BaseURL: "http://127.0.0.1:8765",
		},
		Executor: ExecutorConfig{
			MaxIterations:        10,
			MaxConsecutiveErrors: 2,
		},
		Orchestrator: OrchestratorConfig{
			MaxSteps: 20,
		},
		Grid: GridConfig{
			Size:   6,
			Verify: true,
		},
		Confirm: ConfirmConfig{
			TimeoutSeconds: 0,
		},
	}
}

// Load reads .pilot/config under dir, falling back to defaults when the file
// does not exist.
func Load(dir string) (*Config, error) {
	cfg := defaults()
	path := filepath.Join(dir, ".pilot", "config")

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads an explicit config path, defaults applied underneath.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
