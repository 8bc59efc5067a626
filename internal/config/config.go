package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPapersFile is where `pm fetch --save` writes when nothing else is
// configured.
const DefaultPapersFile = "papers.jsonl"

// ValidLogFormats lists the supported log_format values.
var ValidLogFormats = []string{"console", "json"}

// ExpandTilde replaces a leading "~" with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Timeout parses provider_timeout. An unset value means no per-provider
// bound.
func (c *GlobalConfig) Timeout() (time.Duration, error) {
	if c.ProviderTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.ProviderTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid provider_timeout %q: %w", c.ProviderTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid provider_timeout %q: must not be negative", c.ProviderTimeout)
	}
	return d, nil
}

// RateLimit returns the configured requests per second for a provider key,
// or zero for unlimited.
func (c *GlobalConfig) RateLimit(key string) float64 {
	return c.RateLimits[key]
}

// Validate checks the values that can be checked without knowing the
// provider registry.
func (c *GlobalConfig) Validate() error {
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.LogFormat != "" && !contains(ValidLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log_format %q: must be one of %s",
			c.LogFormat, strings.Join(ValidLogFormats, ", "))
	}
	for key, rps := range c.RateLimits {
		if rps < 0 {
			return fmt.Errorf("invalid rate_limits.%s: %v is negative", key, rps)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
