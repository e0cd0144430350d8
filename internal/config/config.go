package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the jgrants-mcp server configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds settings of the streamable HTTP transport.
type HTTPConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	ShutdownSec     int    `yaml:"shutdown_timeout_sec"`
	MaxSessions     int    `yaml:"max_sessions"`
	SessionTTLMin   int    `yaml:"session_ttl_min"`
}

// Addr returns host:port.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// UpstreamConfig holds jGrants API client settings.
type UpstreamConfig struct {
	BaseURL           string `yaml:"base_url"`
	UserAgent         string `yaml:"user_agent"`
	ConnectTimeoutSec int    `yaml:"connect_timeout_sec"`
	WriteTimeoutSec   int    `yaml:"write_timeout_sec"`
	ReadTimeoutSec    int    `yaml:"read_timeout_sec"`
	PoolTimeoutSec    int    `yaml:"pool_timeout_sec"`
	MaxConnections    int    `yaml:"max_connections"`
	MaxKeepalive      int    `yaml:"max_keepalive_connections"`
}

// StorageConfig holds attachment storage settings.
type StorageConfig struct {
	FilesDir     string `yaml:"files_dir"`
	DebugFiles   Flag   `yaml:"debug_files"`
	DebugLogPath string `yaml:"debug_log_path"`
}

// Flag is a boolean that also accepts the env-style spellings "1", "0",
// "true", "False" and the empty string.
type Flag bool

// UnmarshalYAML decodes a Flag from any scalar.
func (f *Flag) UnmarshalYAML(value *yaml.Node) error {
	v, err := ParseFlag(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*f = v
	return nil
}

// ParseFlag parses an env-style boolean. Unset means off.
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "off":
		return false, nil
	case "1", "true", "yes", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}

// Load reads configuration from a YAML file by environment name (local, prod).
// A missing file yields the defaults.
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	var cfg Config
	data, err := os.ReadFile(filepath.Clean(configPath))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	default:
		// Substitute env variables of the form ${VAR}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Host == "" {
		c.HTTP.Host = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxSessions <= 0 {
		c.HTTP.MaxSessions = 1024
	}
	if c.HTTP.SessionTTLMin <= 0 {
		c.HTTP.SessionTTLMin = 60
	}

	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://api.jgrants-portal.go.jp/exp/v1/public"
	}
	if c.Upstream.UserAgent == "" {
		c.Upstream.UserAgent = "jgrants-mcp-server/1.0"
	}
	if c.Upstream.ConnectTimeoutSec <= 0 {
		c.Upstream.ConnectTimeoutSec = 10
	}
	if c.Upstream.WriteTimeoutSec <= 0 {
		c.Upstream.WriteTimeoutSec = 10
	}
	if c.Upstream.ReadTimeoutSec <= 0 {
		c.Upstream.ReadTimeoutSec = 30
	}
	if c.Upstream.PoolTimeoutSec <= 0 {
		c.Upstream.PoolTimeoutSec = 5
	}
	if c.Upstream.MaxConnections <= 0 {
		c.Upstream.MaxConnections = 20
	}
	if c.Upstream.MaxKeepalive <= 0 {
		c.Upstream.MaxKeepalive = 10
	}

	if c.Storage.FilesDir == "" {
		c.Storage.FilesDir = "tmp"
	}
	if c.Storage.DebugLogPath == "" {
		c.Storage.DebugLogPath = "/tmp/jgrants_debug.log"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if !strings.HasPrefix(c.Upstream.BaseURL, "http://") && !strings.HasPrefix(c.Upstream.BaseURL, "https://") {
		return fmt.Errorf("upstream.base_url must be an http(s) URL, got %q", c.Upstream.BaseURL)
	}
	if c.Upstream.MaxKeepalive > c.Upstream.MaxConnections {
		return fmt.Errorf(
			"upstream.max_keepalive_connections (%d) must not exceed upstream.max_connections (%d)",
			c.Upstream.MaxKeepalive, c.Upstream.MaxConnections,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
