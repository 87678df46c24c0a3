package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
)

// apiKeyEnv names the environment variable holding the Gemini API key.
const apiKeyEnv = "GEMINI_API_KEY"

// loadSettings reads the optional config file and fills the rest from defaults.
// Global flags override file values.
func loadSettings() (config.Config, error) {
	cfg := config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = *loaded
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.Verbose = true
	}

	merged := cfg.MergeWithDefaults(config.Defaults())
	if err := merged.Validate(); err != nil {
		return config.Config{}, err
	}
	return merged, nil
}

// newLogger builds the stderr logger for cfg. Verbose mode forces debug output.
func newLogger(cfg config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return logging.New(os.Stderr, level)
}

// readDocument loads a document JSON file, validating it against the document schema.
// An empty path yields the example document.
func readDocument(path string) (types.Resume, error) {
	if path == "" {
		return types.ExampleResume(), nil
	}

	if err := schemas.ValidateDocumentFile(path); err != nil {
		return types.Resume{}, fmt.Errorf("invalid document %s: %w", path, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return types.Resume{}, fmt.Errorf("failed to read document file: %w", err)
	}

	doc := types.Resume{ThemeColor: types.DefaultThemeColor}
	if err := json.Unmarshal(content, &doc); err != nil {
		return types.Resume{}, fmt.Errorf("failed to unmarshal document JSON: %w", err)
	}
	if doc.ThemeColor == "" {
		doc.ThemeColor = types.DefaultThemeColor
	}
	return doc, nil
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty.
func writeJSON(path string, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonBytes = append(jsonBytes, '\n')

	if path == "" {
		_, err = os.Stdout.Write(jsonBytes)
		return err
	}
	if err := os.WriteFile(path, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
