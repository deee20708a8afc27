package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"QRPROMPT_LANG", "QRPROMPT_ADDR", "QRPROMPT_LOG_LEVEL", "QRPROMPT_BUNDLE_DIR"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "fr", cfg.Language)
	assert.Equal(t, 2, cfg.Targets.MinScore)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
	assert.False(t, cfg.Compile.IncludeEntries)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".qrprompt", "config.yaml")

	cfg := DefaultConfig()
	cfg.Language = "en"
	cfg.Targets.MinScore = 3
	cfg.Targets.Catalog = map[string]string{"interne": "https://llm.local/?q=%q%"}
	cfg.Compile.IncludeEntries = true
	cfg.Logging.Categories = map[string]bool{"server": false}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("language: en\ntargets:\n  min_score: 3\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 3, cfg.Targets.MinScore)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("language: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("QRPROMPT_LANG", "en")
	t.Setenv("QRPROMPT_ADDR", ":9000")
	t.Setenv("QRPROMPT_LOG_LEVEL", "debug")
	t.Setenv("QRPROMPT_BUNDLE_DIR", "/tmp/bundles")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/bundles", cfg.Bundle.OutputDir)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"english", func(c *Config) { c.Language = "EN" }, false},
		{"unknown language", func(c *Config) { c.Language = "de" }, true},
		{"catalog without token", func(c *Config) { c.Targets.Catalog = map[string]string{"x": "https://x/"} }, true},
		{"default url without token", func(c *Config) { c.Targets.DefaultURL = "https://x/" }, true},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"negative upload", func(c *Config) { c.Server.MaxUploadMB = -1 }, true},
		{"negative connections", func(c *Config) { c.Server.MaxConnections = -1 }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"chrome browser", func(c *Config) { c.Browser.Mode = "chrome" }, false},
		{"bad browser", func(c *Config) { c.Browser.Mode = "lynx" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTargetsConfig(t *testing.T) {
	assert.Equal(t, 2, TargetsConfig{MinScore: 0}.EffectiveMinScore())
	assert.Equal(t, 3, TargetsConfig{MinScore: 3}.EffectiveMinScore())

	c := TargetsConfig{Catalog: map[string]string{"Interne": "https://llm.local/?q=%q%"}}
	tmpl, ok := c.BuildCatalog().Lookup("interne")
	require.True(t, ok)
	assert.Equal(t, "https://llm.local/?q=%q%", tmpl)
}

func TestServerConfig_Durations(t *testing.T) {
	c := ServerConfig{ReadTimeout: "5s", WriteTimeout: "bogus"}
	assert.Equal(t, 5*time.Second, c.GetReadTimeout())
	assert.Equal(t, 30*time.Second, c.GetWriteTimeout())
	assert.Equal(t, int64(10<<20), c.MaxUploadBytes())
	assert.Equal(t, int64(2<<20), ServerConfig{MaxUploadMB: 2}.MaxUploadBytes())
}

func TestLoggingConfig(t *testing.T) {
	c := LoggingConfig{Categories: map[string]bool{"server": false}}
	assert.False(t, c.IsCategoryEnabled("server"))
	assert.True(t, c.IsCategoryEnabled("scan"))

	c.Disabled = true
	assert.False(t, c.IsCategoryEnabled("scan"))

	opts := LoggingConfig{Level: "debug", Format: "json", File: "x.log"}.Options()
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, "json", opts.Format)
	assert.Equal(t, "x.log", opts.File)
}
