// ABOUTME: Configuration loading and parsing for the shopfront client
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete shopfront client configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	State   StateConfig   `yaml:"state"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the backend endpoint configuration
type ServerConfig struct {
	// BaseURL is the storefront backend root, e.g. http://localhost:8080
	BaseURL string `yaml:"base_url"`

	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// StateConfig holds local state configuration
type StateConfig struct {
	// Dir is the directory holding the client database and feed file
	Dir string `yaml:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultTimeout is used when server.timeout is not configured.
const DefaultTimeout = 15 * time.Second

// Default returns the configuration used when no config file exists,
// honoring the SHOPFRONT_SERVER and SHOPFRONT_STATE_DIR environment
// variables.
func Default() *Config {
	cfg := &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
			Timeout: DefaultTimeout,
		},
		State: StateConfig{
			Dir: defaultStateDir(),
		},
		Logging: LoggingConfig{Level: "info"},
	}
	if v := os.Getenv("SHOPFRONT_SERVER"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("SHOPFRONT_STATE_DIR"); v != "" {
		cfg.State.Dir = v
	}
	return cfg
}

// defaultStateDir places state under the user config dir, falling back to
// a dot directory in $HOME.
func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "shopfront")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".shopfront")
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("server.base_url must start with http:// or https://")
	}
	if c.State.Dir == "" {
		return fmt.Errorf("state.dir is required")
	}
	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Server.TimeoutRaw != "" {
		timeout, err := time.ParseDuration(cfg.Server.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing server.timeout %q: %w", cfg.Server.TimeoutRaw, err)
		}
		cfg.Server.Timeout = timeout
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = DefaultTimeout
	}
	return nil
}

// DatabasePath returns the client database path inside the state directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.State.Dir, "client.db")
}
