package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/providers"
)

var (
	searchProviders []string
	searchLimit     int
	searchPage      int
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the searchable providers concurrently",
	Long: `Search every selected provider at once. Each hit is reported as its own
paper carrying that one provider's record; nothing is merged across
providers. Results are listed in provider order.

Search text can be keywords, a title, an arXiv URL, or "arxiv:<id>".

Examples:
  pm search deep residual learning
  pm search https://arxiv.org/abs/1512.03385 --limit 1
  pm search transformers --providers semanticScholar --page 2 --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringSliceVarP(&searchProviders, "providers", "p", nil, "Providers to search (default: search_providers from config, else all)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultSearchLimit, "Results per provider")
	searchCmd.Flags().IntVar(&searchPage, "page", 0, "Page index; results start at page*limit")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchLimit <= 0 {
		exitWithError(ExitError, "--limit must be positive")
	}
	if searchPage < 0 {
		exitWithError(ExitError, "--page must not be negative")
	}
	text := strings.Join(args, " ")

	a := mustSetup()
	requested := searchProviders
	if len(requested) == 0 {
		requested = a.cfg.SearchProviders
	}
	keys, err := providers.Select(a.registry, requested, a.registry.Searchable())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	results := a.orchestrator.SearchPaper(cmd.Context(), text, keys,
		func(batch []paper.Paper, key paper.Key) {
			progressf("%s: %d results", key, len(batch))
		}, searchPage, searchLimit)

	if humanOutput {
		if len(results) == 0 {
			fmt.Println("No results.")
			return nil
		}
		fmt.Println(papersTable(results))
		return nil
	}
	return outputJSON(results)
}
