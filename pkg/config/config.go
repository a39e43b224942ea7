// pkg/config/config.go - configuration settings for the Melody tools.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/windows/registry"
	"gopkg.in/yaml.v3"
)

const ConfigPath = `C:\ProgramData\MelodyRecovery\Config.yaml`

// Registry path for enterprise policy configuration, used when no YAML
// configuration file exists on the machine.
const PolicyRegistryPath = `SOFTWARE\MelodyRecovery\Config`

// Configuration holds the options for a single backup or restore run.
// It is resolved once at startup and passed to every component; nothing
// mutates it afterwards.
type Configuration struct {
	BackupRoot       string   `yaml:"BackupRoot"`
	MachineName      string   `yaml:"MachineName"`
	SharedBackupPath string   `yaml:"SharedBackupPath"`
	LogLevel         string   `yaml:"LogLevel"`
	Debug            bool     `yaml:"Debug"`
	Verbose          bool     `yaml:"Verbose"`
	ExcludeFeatures  []string `yaml:"ExcludeFeatures"`
	RetainedBackups  int      `yaml:"RetainedBackups"`

	// Package manager inventory settings
	SkipPackageManagers          bool `yaml:"SkipPackageManagers"`
	PackageManagerTimeoutSeconds int  `yaml:"PackageManagerTimeoutSeconds"`

	// Extra Steam library directories to scan for game manifests, in
	// addition to the ones discovered from libraryfolders.vdf.
	SteamLibraryPaths []string `yaml:"SteamLibraryPaths"`
}

// LoadConfig loads the configuration from the default YAML path. If the
// YAML file doesn't exist, it falls back to policy registry settings.
func LoadConfig() (*Configuration, error) {
	return LoadConfigFrom(ConfigPath)
}

// LoadConfigFrom loads the configuration from an explicit YAML path.
func LoadConfigFrom(path string) (*Configuration, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		config, polErr := loadConfigFromPolicy()
		if polErr == nil {
			return config, nil
		}
		// Neither file nor policy settings: run on defaults.
		config = DefaultConfig()
		if err := config.finalize(); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the configuration to the default YAML path.
func SaveConfig(config *Configuration) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(ConfigPath), 0755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	return os.WriteFile(ConfigPath, data, 0644)
}

// DefaultConfig provides default configuration values.
func DefaultConfig() *Configuration {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown-machine"
	}
	return &Configuration{
		BackupRoot:                   `C:\ProgramData\MelodyRecovery\backups`,
		MachineName:                  hostname,
		SharedBackupPath:             "",
		LogLevel:                     "INFO",
		Debug:                        false,
		Verbose:                      false,
		RetainedBackups:              10,
		SkipPackageManagers:          false,
		PackageManagerTimeoutSeconds: 120,
	}
}

// finalize fills empty fields with defaults and creates required directories.
func (c *Configuration) finalize() error {
	defaults := DefaultConfig()
	if c.BackupRoot == "" {
		c.BackupRoot = defaults.BackupRoot
	}
	if c.MachineName == "" {
		c.MachineName = defaults.MachineName
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
	if c.RetainedBackups <= 0 {
		c.RetainedBackups = defaults.RetainedBackups
	}
	if c.PackageManagerTimeoutSeconds <= 0 {
		c.PackageManagerTimeoutSeconds = defaults.PackageManagerTimeoutSeconds
	}

	if err := os.MkdirAll(c.BackupRoot, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", c.BackupRoot, err)
	}
	return nil
}

// MachineBackupDir returns the per-machine directory that timestamped
// backups are written beneath.
func (c *Configuration) MachineBackupDir() string {
	return filepath.Join(c.BackupRoot, c.MachineName)
}

// FeatureExcluded reports whether a feature was excluded by configuration.
func (c *Configuration) FeatureExcluded(name string) bool {
	for _, excluded := range c.ExcludeFeatures {
		if strings.EqualFold(strings.TrimSpace(excluded), name) {
			return true
		}
	}
	return false
}

// loadConfigFromPolicy loads configuration from machine policy registry
// settings. It serves as a fallback when Config.yaml doesn't exist.
func loadConfigFromPolicy() (*Configuration, error) {
	config := DefaultConfig()

	key, err := registry.OpenKey(registry.LOCAL_MACHINE, PolicyRegistryPath, registry.READ)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy registry key %s: %w", PolicyRegistryPath, err)
	}
	defer key.Close()

	loadStringFromRegistry(key, "BackupRoot", &config.BackupRoot)
	loadStringFromRegistry(key, "MachineName", &config.MachineName)
	loadStringFromRegistry(key, "SharedBackupPath", &config.SharedBackupPath)
	loadStringFromRegistry(key, "LogLevel", &config.LogLevel)

	loadIntFromRegistry(key, "RetainedBackups", &config.RetainedBackups)
	loadIntFromRegistry(key, "PackageManagerTimeoutSeconds", &config.PackageManagerTimeoutSeconds)

	loadBoolFromRegistry(key, "Debug", &config.Debug)
	loadBoolFromRegistry(key, "Verbose", &config.Verbose)
	loadBoolFromRegistry(key, "SkipPackageManagers", &config.SkipPackageManagers)

	loadStringArrayFromRegistry(key, "ExcludeFeatures", &config.ExcludeFeatures)
	loadStringArrayFromRegistry(key, "SteamLibraryPaths", &config.SteamLibraryPaths)

	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// loadStringFromRegistry loads a string value from registry if it exists.
func loadStringFromRegistry(key registry.Key, valueName string, target *string) {
	if val, _, err := key.GetStringValue(valueName); err == nil && val != "" {
		*target = val
	}
}

// loadBoolFromRegistry loads a boolean value from registry if it exists.
// Accepts "true"/"false", "1"/"0", or DWORD 1/0.
func loadBoolFromRegistry(key registry.Key, valueName string, target *bool) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.ParseBool(val); parseErr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = val != 0
	}
}

// loadIntFromRegistry loads an integer value from registry if it exists.
func loadIntFromRegistry(key registry.Key, valueName string, target *int) {
	if val, _, err := key.GetStringValue(valueName); err == nil {
		if parsed, parseErr := strconv.Atoi(val); parseErr == nil {
			*target = parsed
			return
		}
	}
	if val, _, err := key.GetIntegerValue(valueName); err == nil {
		*target = int(val)
	}
}

// loadStringArrayFromRegistry loads a string array stored either as a
// multi-string (REG_MULTI_SZ) or a comma-separated string value.
func loadStringArrayFromRegistry(key registry.Key, valueName string, target *[]string) {
	if vals, _, err := key.GetStringsValue(valueName); err == nil && len(vals) > 0 {
		if filtered := trimNonEmpty(vals); len(filtered) > 0 {
			*target = filtered
			return
		}
	}
	if val, _, err := key.GetStringValue(valueName); err == nil && val != "" {
		if filtered := trimNonEmpty(strings.Split(val, ",")); len(filtered) > 0 {
			*target = filtered
		}
	}
}

func trimNonEmpty(vals []string) []string {
	filtered := make([]string, 0, len(vals))
	for _, val := range vals {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			filtered = append(filtered, trimmed)
		}
	}
	return filtered
}
