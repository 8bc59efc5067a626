package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermerge/internal/config"
	"github.com/matsen/papermerge/internal/providers"
	"github.com/matsen/papermerge/internal/source"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the registered providers",
	Long: `List the registered providers in merge priority order, with what each
one can do. Providers marked required are always asked, whatever
--providers says.`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

// ProviderInfo is the JSON output for one registry entry.
type ProviderInfo struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	CanFetch  bool    `json:"canFetch"`
	CanSearch bool    `json:"canSearch"`
	Required  bool    `json:"required"`
	Graph     bool    `json:"graph"`
	RateLimit float64 `json:"rateLimit,omitempty"`
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	registry, err := providers.NewRegistry(providers.FromConfig(cfg))
	if err != nil {
		exitWithError(ExitError, "building provider registry: %v", err)
	}

	infos := providerInfos(registry, cfg)
	if !humanOutput {
		return outputJSON(infos)
	}

	rows := make([][]string, len(infos))
	for i, p := range infos {
		rows[i] = []string{p.Key, p.Name, yesNo(p.CanFetch), yesNo(p.CanSearch), yesNo(p.Required), yesNo(p.Graph), p.URL}
	}
	fmt.Println(renderTable([]string{"Key", "Name", "Fetch", "Search", "Required", "Graph", "URL"}, rows))
	return nil
}

func providerInfos(registry *source.Registry, cfg *config.GlobalConfig) []ProviderInfo {
	entries := registry.Entries()
	infos := make([]ProviderInfo, len(entries))
	for i, e := range entries {
		_, graph := e.Provider.(source.GraphProvider)
		infos[i] = ProviderInfo{
			Key:       string(e.Key),
			Name:      e.Name,
			URL:       e.URL,
			CanFetch:  e.CanFetch,
			CanSearch: e.CanSearch,
			Required:  !e.Deselectable,
			Graph:     graph,
			RateLimit: cfg.RateLimit(string(e.Key)),
		}
	}
	return infos
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
