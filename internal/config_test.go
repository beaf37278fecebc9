package internal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/iksnae/rag-chat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.True(t, cfg.SaveHistory)
	assert.Equal(t, "auto", cfg.Theme)
	assert.Zero(t, cfg.Timeout)
	assert.Equal(t, "history.db", filepath.Base(cfg.HistoryPath))
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFile(t, dir, "config.yaml", `
base_url: http://rag.internal:9000
timeout: 45s
save_history: false
theme: dracula
watch_extensions: [".pdf"]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://rag.internal:9000", cfg.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.False(t, cfg.SaveHistory)
	assert.Equal(t, "dracula", cfg.Theme)
	assert.Equal(t, []string{".pdf"}, cfg.WatchExtensions)
	// Keys the file leaves out keep their defaults
	assert.Equal(t, DefaultConfig().HistoryPath, cfg.HistoryPath)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFile(t, dir, "config.yaml", "base_url: [unterminated")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	path := testutil.WriteFile(t, dir, "config.yaml", "base_url: http://from-file:8000\ntheme: light\n")

	t.Setenv("RAGCHAT_BASE_URL", "http://from-env:8000")
	t.Setenv("RAGCHAT_TIMEOUT", "2m")
	t.Setenv("RAGCHAT_WATCH_EXTENSIONS", ".txt,.md")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:8000", cfg.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, []string{".txt", ".md"}, cfg.WatchExtensions)
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RAGCHAT_TIMEOUT", "soon")

	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "failed to parse environment")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "https", mutate: func(c *Config) { c.BaseURL = "https://rag.example.com" }},
		{name: "no scheme", mutate: func(c *Config) { c.BaseURL = "localhost:8000" }, wantErr: "invalid base URL"},
		{name: "ftp", mutate: func(c *Config) { c.BaseURL = "ftp://host" }, wantErr: "invalid base URL"},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: "invalid timeout"},
		{name: "unknown theme", mutate: func(c *Config) { c.Theme = "neon" }, wantErr: "unsupported theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConfig_NewClient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://rag.local:1234/"
	cfg.Timeout = 3 * time.Second

	c := cfg.NewClient()

	assert.Equal(t, "http://rag.local:1234", c.BaseURL())
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
}
