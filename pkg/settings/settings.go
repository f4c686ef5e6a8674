// Package settings manages persistent user settings for the confmode CLI.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Settings holds persistent user preferences. Command-line flags override
// every field.
type Settings struct {
	// ConfigFile is the proposed configuration used when -c is not given
	ConfigFile string `json:"config_file,omitempty"`

	// EffectiveFile is the effective configuration used when -e is not given
	EffectiveFile string `json:"effective_file,omitempty"`

	// RedisAddr selects the Redis configuration store instead of files
	RedisAddr string `json:"redis_addr,omitempty"`

	// RedisDB is the Redis database number
	RedisDB int `json:"redis_db,omitempty"`

	// AuditLog is the path of the JSON-lines audit log
	AuditLog string `json:"audit_log,omitempty"`

	// FRRHost runs vtysh on a remote router over SSH
	FRRHost string `json:"frr_host,omitempty"`

	// FRRUser is the SSH user for FRRHost
	FRRUser string `json:"frr_user,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "confmode_settings.json"
	}
	return filepath.Join(home, ".confmode", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetAuditLog returns the audit log path (with fallback)
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return "/var/log/confmode/audit.log"
}

// fields maps the names accepted by Set to their fields.
func (s *Settings) fields() map[string]*string {
	return map[string]*string{
		"config_file":    &s.ConfigFile,
		"effective_file": &s.EffectiveFile,
		"redis_addr":     &s.RedisAddr,
		"audit_log":      &s.AuditLog,
		"frr_host":       &s.FRRHost,
		"frr_user":       &s.FRRUser,
	}
}

// Keys lists the setting names accepted by Set.
func Keys() []string {
	s := &Settings{}
	keys := []string{"redis_db"}
	for k := range s.fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a setting by its JSON name.
func (s *Settings) Set(key, value string) error {
	if key == "redis_db" {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("redis_db must be a non-negative number, got %q", value)
		}
		s.RedisDB = n
		return nil
	}
	f, ok := s.fields()[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	*f = value
	return nil
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
