package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/providers"
	"github.com/matsen/papermerge/internal/storage"
)

var (
	fetchQuery     queryFlags
	fetchProviders []string
	fetchSave      bool
	fetchOutput    string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [title | url | id]",
	Short: "Fetch a paper from every provider and merge the results",
	Long: `Fetch a paper from each selected provider in turn and merge what they
return into one record. Identifiers found by earlier providers are passed on
to later ones, so a title lookup on arXiv lets Semantic Scholar and CrossRef
resolve the paper by id.

A provider that fails is recorded under "sources" with its error; the other
providers still run.

Examples:
  pm fetch 1512.03385
  pm fetch https://arxiv.org/abs/1512.03385 --human
  pm fetch --title "Deep Residual Learning for Image Recognition" -a "Kaiming He"
  pm fetch --doi 10.1109/CVPR.2016.90 --providers crossRef
  pm fetch --pdf ~/Downloads/resnet.pdf --save`,
	Args: cobra.ArbitraryArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchQuery.register(fetchCmd)
	fetchCmd.Flags().StringSliceVarP(&fetchProviders, "providers", "p", nil, "Providers to ask (default: providers from config, else all)")
	fetchCmd.Flags().BoolVar(&fetchSave, "save", false, "Store the merged paper in the papers file")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "Papers file for --save (default: papers_file from config)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	q, err := fetchQuery.build(args)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	a := mustSetup()
	requested := fetchProviders
	if len(requested) == 0 {
		requested = a.cfg.Providers
	}
	keys, err := providers.Select(a.registry, requested, a.registry.Fetchable())
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	p := a.orchestrator.FetchPaper(cmd.Context(), q, keys, func(_ paper.Paper, msg string) {
		progressf("%s", msg)
	})

	if fetchSave {
		path := papersPath(fetchOutput)
		action, err := storage.Upsert(path, p)
		if err != nil {
			exitWithError(ExitError, "saving paper: %v", err)
		}
		progressf("Saved to %s (%s)", path, action)
	}

	if humanOutput {
		fmt.Print(formatPaperDetail(p))
	} else if err := outputJSON(p); err != nil {
		return err
	}

	if !anySucceeded(p) {
		os.Exit(ExitNotFound)
	}
	return nil
}

// anySucceeded reports whether at least one provider returned a record.
func anySucceeded(p paper.Paper) bool {
	for _, e := range p.Sources {
		if !e.Failed() {
			return true
		}
	}
	return false
}
