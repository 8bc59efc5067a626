package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papermerge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration: the values read from the config file
with environment overrides (S2_API_KEY, PM_PAPERS_FILE) applied.

The config file lives at $XDG_CONFIG_HOME/pm/config.yml. Example:

  s2_api_key: <key>
  providers: [paperShelf, arxiv, semanticScholar, crossRef]
  search_providers: [arxiv, semanticScholar]
  provider_timeout: 30s
  papers_file: ~/papers/papers.jsonl
  log_level: warn
  rate_limits:
    semanticScholar: 1`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// ConfigResponse is the JSON output of the config command.
type ConfigResponse struct {
	Path            string             `json:"path"`
	S2APIKey        string             `json:"s2_api_key,omitempty"`
	UserAgent       string             `json:"user_agent,omitempty"`
	Providers       []string           `json:"providers,omitempty"`
	SearchProviders []string           `json:"search_providers,omitempty"`
	ProviderTimeout string             `json:"provider_timeout,omitempty"`
	ShelfBaseURL    string             `json:"shelf_base_url,omitempty"`
	LogLevel        string             `json:"log_level,omitempty"`
	LogFormat       string             `json:"log_format,omitempty"`
	PapersFile      string             `json:"papers_file"`
	RateLimits      map[string]float64 `json:"rate_limits,omitempty"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "%s: %v", config.GlobalConfigPath(), err)
	}

	resp := ConfigResponse{
		Path:            config.GlobalConfigPath(),
		S2APIKey:        redact(config.GetS2APIKey()),
		UserAgent:       cfg.UserAgent,
		Providers:       cfg.Providers,
		SearchProviders: cfg.SearchProviders,
		ProviderTimeout: cfg.ProviderTimeout,
		ShelfBaseURL:    cfg.ShelfBaseURL,
		LogLevel:        cfg.LogLevel,
		LogFormat:       cfg.LogFormat,
		PapersFile:      config.GetPapersFile(),
		RateLimits:      cfg.RateLimits,
	}
	if !humanOutput {
		return outputJSON(resp)
	}

	fmt.Printf("config file:       %s\n", resp.Path)
	fmt.Printf("s2_api_key:        %s\n", orUnset(resp.S2APIKey))
	fmt.Printf("providers:         %s\n", orUnset(strings.Join(resp.Providers, ", ")))
	fmt.Printf("search_providers:  %s\n", orUnset(strings.Join(resp.SearchProviders, ", ")))
	fmt.Printf("provider_timeout:  %s\n", orUnset(resp.ProviderTimeout))
	fmt.Printf("papers_file:       %s\n", resp.PapersFile)
	return nil
}

// redact keeps the last four characters of a secret.
func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
