// Package config handles the global pm configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/pm/config.yml.
type GlobalConfig struct {
	S2APIKey        string             `yaml:"s2_api_key,omitempty"`
	UserAgent       string             `yaml:"user_agent,omitempty"`
	Providers       []string           `yaml:"providers,omitempty"`
	SearchProviders []string           `yaml:"search_providers,omitempty"`
	ProviderTimeout string             `yaml:"provider_timeout,omitempty"`
	ShelfBaseURL    string             `yaml:"shelf_base_url,omitempty"`
	LogLevel        string             `yaml:"log_level,omitempty"`
	LogFormat       string             `yaml:"log_format,omitempty"`
	PapersFile      string             `yaml:"papers_file,omitempty"`
	RateLimits      map[string]float64 `yaml:"rate_limits,omitempty"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "pm"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

var (
	cacheMu           sync.Mutex
	globalConfigCache *GlobalConfig
)

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pm/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg, err := ReadGlobalConfig(GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	globalConfigCache = cfg
	return cfg, nil
}

// ReadGlobalConfig parses the config file at path without touching the cache.
// A missing file or an empty path yields an empty config.
func ReadGlobalConfig(path string) (*GlobalConfig, error) {
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	if cfg.PapersFile != "" {
		cfg.PapersFile = ExpandTilde(cfg.PapersFile)
	}
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	globalConfigCache = nil
}

// GetConfigValue returns the environment variable envKey when set, otherwise
// configValue.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// GetS2APIKey returns the Semantic Scholar API key. S2_API_KEY wins over the
// config file.
func GetS2APIKey() string {
	cfg, err := LoadGlobalConfig()
	if err != nil {
		return os.Getenv("S2_API_KEY")
	}
	return GetConfigValue("S2_API_KEY", cfg.S2APIKey)
}

// GetPapersFile returns the JSONL papers file. PM_PAPERS_FILE wins over the
// config file; DefaultPapersFile is used when neither is set.
func GetPapersFile() string {
	var configured string
	if cfg, err := LoadGlobalConfig(); err == nil {
		configured = cfg.PapersFile
	}
	path := GetConfigValue("PM_PAPERS_FILE", configured)
	if path == "" {
		return DefaultPapersFile
	}
	return ExpandTilde(path)
}
