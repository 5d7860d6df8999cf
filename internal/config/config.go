package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"decoyfs/internal/artifacts"
)

// getConfigDir returns the config directory path.
// Uses DECOYFS_CONFIG_DIR env var if set, otherwise defaults to ~/.decoyfs.
// Computed dynamically to support test isolation.
func getConfigDir() string {
	if dir := os.Getenv("DECOYFS_CONFIG_DIR"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".decoyfs")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() string {
	return getConfigDir()
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(getConfigDir(), "settings.yaml")
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	return os.MkdirAll(getConfigDir(), 0o700)
}

// InitConfigDir initializes the config directory with default files.
func InitConfigDir() error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	settingsPath := SettingsPath()
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		if err := os.WriteFile(settingsPath, artifacts.GlobalSettings, 0o600); err != nil {
			return fmt.Errorf("failed to create default settings: %w", err)
		}
	}
	return nil
}

// ProtocolConfig describes one protocol jail to seed at startup.
type ProtocolConfig struct {
	Name      string   `yaml:"name"`
	SourceDir string   `yaml:"source_dir"`
	Ignores   []string `yaml:"ignores"` // gitignore syntax, applied while mirroring
}

// Settings is the process-wide configuration.
type Settings struct {
	LogLevel     string           `yaml:"log_level"`     // trace, debug, info, warn, off
	CaptureDir   string           `yaml:"capture_dir"`   // default: <config_dir>/captures
	CaptureIndex string           `yaml:"capture_index"` // default: <config_dir>/uploads.db
	Protocols    []ProtocolConfig `yaml:"protocols"`
}

// ApplyDefaults fills zero-value fields with their defaults.
func (s *Settings) ApplyDefaults() {
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	if s.CaptureDir == "" {
		s.CaptureDir = filepath.Join(getConfigDir(), "captures")
	}
	if s.CaptureIndex == "" {
		s.CaptureIndex = filepath.Join(getConfigDir(), "uploads.db")
	}
}

// LoggingEnabled returns whether logging is enabled.
func (s *Settings) LoggingEnabled() bool {
	level := strings.ToLower(s.LogLevel)
	return level != "" && level != "off" && level != "none"
}

// Protocol returns the configuration for a named protocol, or nil.
func (s *Settings) Protocol(name string) *ProtocolConfig {
	for i := range s.Protocols {
		if s.Protocols[i].Name == name {
			return &s.Protocols[i]
		}
	}
	return nil
}

// loadDefaultSettings parses defaults from the embedded artifact.
func loadDefaultSettings() Settings {
	var s Settings
	if err := yaml.Unmarshal(artifacts.GlobalSettings, &s); err != nil {
		panic("failed to parse embedded settings: " + err.Error())
	}
	s.ApplyDefaults()
	return s
}

// LoadSettings loads settings from <config_dir>/settings.yaml, falling back
// to the embedded defaults if the file doesn't exist.
func LoadSettings() (*Settings, error) {
	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		if os.IsNotExist(err) {
			s := loadDefaultSettings()
			return &s, nil
		}
		return nil, err
	}
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.ApplyDefaults()
	return &s, nil
}
