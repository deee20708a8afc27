// Package config loads the operator configuration from
// .qrprompt/config.yaml with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qrprompt/internal/browser"
	"qrprompt/internal/fiche"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for the configuration.
const DefaultPath = ".qrprompt/config.yaml"

// Config holds all qrprompt configuration.
type Config struct {
	// Language of user-facing messages (fr, en)
	Language string `yaml:"language"`

	Targets TargetsConfig `yaml:"targets"`

	Compile CompileConfig `yaml:"compile"`

	Server ServerConfig `yaml:"server"`

	Bundle BundleConfig `yaml:"bundle"`

	Browser browser.Config `yaml:"browser"`

	Logging LoggingConfig `yaml:"logging"`
}

// CompileConfig controls optional prompt sections.
type CompileConfig struct {
	// IncludeEntries appends the "Données saisies" block to the prompt
	IncludeEntries bool `yaml:"include_entries"`
}

// Options converts the section to compiler options.
func (c CompileConfig) Options() fiche.CompileOptions {
	return fiche.CompileOptions{IncludeEntries: c.IncludeEntries}
}

// BundleConfig configures zip export.
type BundleConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// ValidLanguages lists supported message languages.
var ValidLanguages = []string{"fr", "en"}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Language: "fr",

		Targets: TargetsConfig{
			MinScore: 2,
		},

		Server: ServerConfig{
			Addr:           "127.0.0.1:8787",
			AllowedOrigins: []string{"*"},
			MaxUploadMB:    10,
			MaxConnections: 64,
			ReadTimeout:    "15s",
			WriteTimeout:   "30s",
		},

		Bundle: BundleConfig{
			OutputDir: ".",
		},

		Browser: browser.DefaultConfig(),

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if lang := os.Getenv("QRPROMPT_LANG"); lang != "" {
		c.Language = lang
	}
	if addr := os.Getenv("QRPROMPT_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("QRPROMPT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if dir := os.Getenv("QRPROMPT_BUNDLE_DIR"); dir != "" {
		c.Bundle.OutputDir = dir
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	valid := false
	for _, l := range ValidLanguages {
		if strings.EqualFold(c.Language, l) {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid language: %s (valid: %v)", c.Language, ValidLanguages)
	}

	if err := c.Targets.validate(); err != nil {
		return err
	}
	if err := c.Server.validate(); err != nil {
		return err
	}
	switch strings.ToLower(c.Browser.Mode) {
	case "", "system", "chrome":
	default:
		return fmt.Errorf("invalid browser.mode: %s (valid: system, chrome)", c.Browser.Mode)
	}
	return c.Logging.validate()
}
