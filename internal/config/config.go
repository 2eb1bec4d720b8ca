package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codefionn/directguard/internal/logger"
	"github.com/codefionn/directguard/internal/pathguard"
)

// ViewSanitized and ViewFull are the recognized audit view modes.
const (
	ViewSanitized = "sanitized"
	ViewFull      = "full"
)

// PIIPattern is a user-supplied redaction rule appended after the built-ins.
type PIIPattern struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// AuditConfig controls audit trail behavior
type AuditConfig struct {
	// LogFullCommands stores the unredacted command text in the audit log.
	// When false the cmd field holds the sanitized text as well.
	LogFullCommands bool         `yaml:"log_full_commands"`
	DefaultView     string       `yaml:"default_view"`
	PIIPatterns     []PIIPattern `yaml:"pii_patterns"`
}

// Config represents application configuration
type Config struct {
	Audit          AuditConfig `yaml:"audit"`
	AllowedEnvVars []string    `yaml:"allowed_env_vars"`
	BlockedPaths   []string    `yaml:"blocked_paths"`
	LogLevel       string      `yaml:"log_level"`
	LogPath        string      `yaml:"log_path"`
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "linux":
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, "directguard")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", "directguard")
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, "directguard")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", "directguard")
	default:
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "directguard")
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Audit: AuditConfig{
			LogFullCommands: true,
			DefaultView:     ViewSanitized,
		},
		AllowedEnvVars: []string{
			"PATH", "HOME", "LANG", "LC_ALL", "TERM", "TMPDIR", "TZ", "USER",
		},
		BlockedPaths: append([]string(nil), pathguard.DefaultBlocklist...),
		LogLevel:     "info",
		LogPath:      filepath.Join(defaultStateDir(), "directguard.log"),
	}
}

// Load loads configuration from file. A missing file is not an error: the
// built-in defaults are returned. A malformed file returns the defaults
// together with the parse error so callers can degrade instead of aborting.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return DefaultConfig(), fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Audit.DefaultView != ViewFull {
		cfg.Audit.DefaultView = ViewSanitized
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// LoadOrDefault loads configuration, falling back to built-in defaults on any
// failure. The failure is logged, never propagated.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		logger.Warn("config: %v, using built-in defaults", err)
	}
	return cfg
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the workspace-local config path.
func GetConfigPath(workspace string) string {
	return filepath.Join(workspace, ".direct", "config.yaml")
}
