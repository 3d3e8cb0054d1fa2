package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Schema Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "ws://localhost:5225", cfg.Client.URL)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout())
	assert.Equal(t, 4096, cfg.Client.EventQueueSize)
	assert.Equal(t, "!", cfg.Bot.Prefix)
	assert.Equal(t, 5*time.Second, cfg.Bot.MaxBacklog())
	assert.Equal(t, "🚀", cfg.Bot.Reaction)
	assert.Empty(t, cfg.Metrics.Addr)
	assert.Nil(t, cfg.Bot.Network)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_CamelCaseJSON(t *testing.T) {
	jsonStr := `{
		"client": {"url": "ws://10.0.0.2:5225", "timeoutMs": 2500},
		"bot": {"maxBacklogSecs": 1.5, "network": {"socks": "on", "socksMode": "onion"}},
		"logging": {"addSource": true}
	}`

	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &cfg))
	assert.Equal(t, "ws://10.0.0.2:5225", cfg.Client.URL)
	assert.Equal(t, 2500*time.Millisecond, cfg.Client.Timeout())
	assert.Equal(t, 1500*time.Millisecond, cfg.Bot.MaxBacklog())
	require.NotNil(t, cfg.Bot.Network)
	assert.Equal(t, "onion", cfg.Bot.Network.SocksMode)
	assert.True(t, cfg.Logging.AddSource)
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]func(*Config){
		"empty url":      func(c *Config) { c.Client.URL = "" },
		"http url":       func(c *Config) { c.Client.URL = "http://localhost:5225" },
		"zero timeout":   func(c *Config) { c.Client.TimeoutMs = 0 },
		"zero queue":     func(c *Config) { c.Client.EventQueueSize = 0 },
		"empty prefix":   func(c *Config) { c.Bot.Prefix = "" },
		"spaced prefix":  func(c *Config) { c.Bot.Prefix = "! " },
		"negative delay": func(c *Config) { c.Bot.MaxBacklogSecs = -1 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// --- Loader Tests ---

func TestLoad_FileNotExist(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"client": {"url": "ws://chat:5225"}, "bot": {"prefix": "/", "commandsFile": "commands.yaml"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://chat:5225", cfg.Client.URL)
	assert.Equal(t, "/", cfg.Bot.Prefix)
	assert.Equal(t, "commands.yaml", cfg.Bot.CommandsFile)
	// Defaults should be preserved for unset fields
	assert.Equal(t, 10000, cfg.Client.TimeoutMs)
	assert.Equal(t, "🚀", cfg.Bot.Reaction)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
client:
  timeoutMs: 3000
bot:
  network:
    socks: "on"
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Client.Timeout())
	require.NotNil(t, cfg.Bot.Network)
	assert.Equal(t, "on", cfg.Bot.Network.Socks)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{invalid json}"), 0644))

	cfg, err := Load(path)
	assert.Error(t, err)
	// Should return defaults on error
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client": {"timeoutMs": -1}}`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SIMPLEXBOT_CLIENT_URL", "ws://env-host:5225")
	t.Setenv("SIMPLEXBOT_BOT_PREFIX", "?")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "ws://env-host:5225", cfg.Client.URL)
	assert.Equal(t, "?", cfg.Bot.Prefix)
}

func TestLoader_FlagOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client": {"url": "ws://file:5225"}, "logging": {"level": "warn"}}`), 0644))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("url", "", "")
	fs.String("log-level", "", "")
	require.NoError(t, fs.Parse([]string{"--url", "ws://flag:5225"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("client.url", fs.Lookup("url")))
	require.NoError(t, l.BindFlag("logging.level", fs.Lookup("log-level")))
	assert.Error(t, l.BindFlag("metrics.addr", fs.Lookup("missing")))

	cfg, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://flag:5225", cfg.Client.URL)
	assert.Equal(t, "warn", cfg.Logging.Level, "unset flag does not override the file")
}

func TestSave_And_Load_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.json")

	cfg := DefaultConfig()
	cfg.Bot.ShowcaseImage = "/srv/showcase.png"
	cfg.Metrics.Addr = ":9464"

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSave_CreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "config.json")

	require.NoError(t, Save(DefaultConfig(), path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
