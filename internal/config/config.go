// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/server"
	"github.com/jonathan/resume-builder/internal/session"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Server
	Host string `json:"host,omitempty" yaml:"host,omitempty"` // Interface to bind
	Port int    `json:"port,omitempty" yaml:"port,omitempty"` // Port to listen on

	// Rendering
	Template   string `json:"template,omitempty" yaml:"template,omitempty"`       // Path to a LaTeX template
	EnablePDF  bool   `json:"enable_pdf,omitempty" yaml:"enable_pdf,omitempty"`   // Serve PDF exports through headless Chrome
	PDFTimeout string `json:"pdf_timeout,omitempty" yaml:"pdf_timeout,omitempty"` // Duration, e.g. "30s"

	// Text generation
	Provider       string `json:"provider,omitempty" yaml:"provider,omitempty"`               // "gemini-rest" or "gemini"
	Model          string `json:"model,omitempty" yaml:"model,omitempty"`                     // Model for every tier
	Endpoint       string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`               // Base URL of the REST API
	RequestTimeout string `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"` // HTTP client timeout
	AssistTimeout  string `json:"assist_timeout,omitempty" yaml:"assist_timeout,omitempty"`   // Deadline per assist action

	// Sessions
	SessionTTL  string `json:"session_ttl,omitempty" yaml:"session_ttl,omitempty"`   // Idle time before a session expires
	MaxSessions int    `json:"max_sessions,omitempty" yaml:"max_sessions,omitempty"` // Live session cap

	// Behavior
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty"` // debug, info, warn or error
	Verbose  bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`     // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	llmDefaults := llm.DefaultConfig()
	sessionDefaults := session.DefaultConfig()
	return Config{
		Host:           "localhost",
		Port:           8080,
		PDFTimeout:     "30s",
		Provider:       string(llmDefaults.Provider),
		Endpoint:       llmDefaults.Endpoint,
		RequestTimeout: llmDefaults.RequestTimeout.String(),
		AssistTimeout:  sessionDefaults.AssistTimeout.String(),
		SessionTTL:     sessionDefaults.IdleTTL.String(),
		MaxSessions:    sessionDefaults.MaxSessions,
		LogLevel:       "info",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("config error: 'max_sessions' must be non-negative")
	}

	switch llm.Provider(c.Provider) {
	case "", llm.ProviderGeminiREST, llm.ProviderGemini:
	default:
		return fmt.Errorf("config error: unsupported provider %q", c.Provider)
	}

	durations := map[string]string{
		"pdf_timeout":     c.PDFTimeout,
		"request_timeout": c.RequestTimeout,
		"assist_timeout":  c.AssistTimeout,
		"session_ttl":     c.SessionTTL,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config error: '%s' is not a duration: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", name)
		}
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Validate file paths exist (if specified)
	if c.Template != "" {
		if _, err := os.Stat(c.Template); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Template)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.Host, defaults.Host)
	mergeString(&result.Template, defaults.Template)
	mergeString(&result.PDFTimeout, defaults.PDFTimeout)
	mergeString(&result.Provider, defaults.Provider)
	mergeString(&result.Model, defaults.Model)
	mergeString(&result.Endpoint, defaults.Endpoint)
	mergeString(&result.RequestTimeout, defaults.RequestTimeout)
	mergeString(&result.AssistTimeout, defaults.AssistTimeout)
	mergeString(&result.SessionTTL, defaults.SessionTTL)
	mergeString(&result.LogLevel, defaults.LogLevel)

	// Int fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxSessions == 0 {
		result.MaxSessions = defaults.MaxSessions
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// LLMConfig converts the text-generation settings into an llm.Config.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	if c.Provider != "" {
		cfg.Provider = llm.Provider(c.Provider)
	}
	if c.Endpoint != "" {
		cfg = cfg.WithEndpoint(c.Endpoint)
	}
	if c.Model != "" {
		for _, tier := range []llm.ModelTier{llm.TierLite, llm.TierStandard, llm.TierAdvanced} {
			cfg = cfg.WithModel(tier, c.Model)
		}
	}
	cfg.RequestTimeout = durationOr(c.RequestTimeout, cfg.RequestTimeout)
	return cfg
}

// SessionConfig converts the session settings into a session.Config.
func (c *Config) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.IdleTTL = durationOr(c.SessionTTL, cfg.IdleTTL)
	cfg.AssistTimeout = durationOr(c.AssistTimeout, cfg.AssistTimeout)
	if c.MaxSessions > 0 {
		cfg.MaxSessions = c.MaxSessions
	}
	return cfg
}

// ServerConfig converts the configuration into a server.Config.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Host:          c.Host,
		Port:          c.Port,
		LaTeXTemplate: c.Template,
		EnablePDF:     c.EnablePDF,
		PDFTimeout:    durationOr(c.PDFTimeout, 0),
		LLM:           c.LLMConfig(),
		Session:       c.SessionConfig(),
	}
}

// durationOr parses value, returning def when it is empty or invalid.
func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}
