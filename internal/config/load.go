package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Loaded captures the resolved settings path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Settings Settings
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, and validates settings. Missing files fall back to
// defaults; the environment always wins over the file.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	cfg := Default()
	exists := true
	var warnings []Warning

	content, err := os.ReadFile(resolvedPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(content, &cfg); err != nil {
			return Loaded{}, fmt.Errorf("parse settings %q: %w", resolvedPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		exists = false
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("settings file %q not found; using defaults", resolvedPath),
		})
	default:
		return Loaded{}, fmt.Errorf("read settings %q: %w", resolvedPath, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Loaded{}, fmt.Errorf("apply environment overrides: %w", err)
	}

	warnings = append(warnings, Validate(cfg)...)

	return Loaded{
		Path:     resolvedPath,
		Settings: cfg,
		Warnings: warnings,
		Exists:   exists,
	}, nil
}

// applyEnv layers .env file values and process environment over the settings.
func applyEnv(cfg *Settings) error {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	return env.Parse(cfg)
}
