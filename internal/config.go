package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds client settings. Precedence: defaults, YAML file, environment, flags.
type Config struct {
	BaseURL         string        `yaml:"base_url" env:"RAGCHAT_BASE_URL"`
	Timeout         time.Duration `yaml:"timeout" env:"RAGCHAT_TIMEOUT"`
	HistoryPath     string        `yaml:"history_path" env:"RAGCHAT_HISTORY"`
	SaveHistory     bool          `yaml:"save_history" env:"RAGCHAT_SAVE_HISTORY"`
	Theme           string        `yaml:"theme" env:"RAGCHAT_THEME"`
	LogFile         string        `yaml:"log_file" env:"RAGCHAT_LOG_FILE"`
	WatchExtensions []string      `yaml:"watch_extensions" env:"RAGCHAT_WATCH_EXTENSIONS" envSeparator:","`
}

// ConfigDir returns ~/.rag-chat
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rag-chat"
	}
	return filepath.Join(home, ".rag-chat")
}

// DefaultConfigPath returns the config file used when --config is not given
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	dir := ConfigDir()
	return &Config{
		BaseURL:         DefaultBaseURL,
		HistoryPath:     filepath.Join(dir, "history.db"),
		SaveHistory:     true,
		Theme:           "auto",
		LogFile:         filepath.Join(dir, "rag-chat.log"),
		WatchExtensions: []string{".pdf", ".txt", ".md", ".docx"},
	}
}

// LoadConfig reads defaults, then the YAML file at path, then the environment.
// An empty path means the default location, which may be absent.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		LogDebug("Loaded config from %s", path)
	case errors.Is(err, os.ErrNotExist) && !explicit:
		LogDebug("No config file at %s, using defaults", path)
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings that would otherwise fail late
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base URL %q: must be http(s)://host[:port]", c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s: must not be negative", c.Timeout)
	}
	switch c.Theme {
	case "auto", "dark", "light", "notty", "ascii", "dracula", "pink", "tokyo-night":
	default:
		return fmt.Errorf("unsupported theme %q", c.Theme)
	}
	return nil
}

// NewClient builds the HTTP client described by the config
func (c *Config) NewClient() *Client {
	return NewClient(c.BaseURL, WithTimeout(c.Timeout))
}
