package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
)

var (
	refsQuery  queryFlags
	citesQuery queryFlags
)

var refsCmd = &cobra.Command{
	Use:   "refs [url | id]",
	Short: "List the papers a paper cites",
	Long: `List the papers a paper cites, as reported by the citation graph
provider (Semantic Scholar). The paper must be identified by an arXiv or
Semantic Scholar id.

Examples:
  pm refs 1512.03385
  pm refs --s2 2c03df8b48bf3fa39054345bafabfeff15bfd11d --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraph(cmd.Context(), &refsQuery, args, "references")
	},
}

var citesCmd = &cobra.Command{
	Use:   "cites [url | id]",
	Short: "List the papers citing a paper",
	Long: `List the papers that cite a paper, as reported by the citation graph
provider (Semantic Scholar).

Examples:
  pm cites 1512.03385
  pm cites https://arxiv.org/abs/1706.03762 --human`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraph(cmd.Context(), &citesQuery, args, "citations")
	},
}

func init() {
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(citesCmd)
	refsQuery.register(refsCmd)
	citesQuery.register(citesCmd)
}

// GraphResult is the JSON output of refs and cites.
type GraphResult struct {
	Query  paper.Query   `json:"query"`
	Papers []paper.Paper `json:"papers"`
	Total  int           `json:"total"`
}

func runGraph(ctx context.Context, flags *queryFlags, args []string, edge string) error {
	q, err := flags.build(args)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	a := mustSetup()
	seed := paper.FromQuery(q)

	var papers []paper.Paper
	if edge == "references" {
		papers, err = a.orchestrator.References(ctx, seed)
	} else {
		papers, err = a.orchestrator.Citations(ctx, seed)
	}
	if err != nil {
		switch {
		case source.IsInvalidQuery(err):
			exitWithError(ExitDataError, "%v", err)
		case source.IsNotFound(err):
			exitWithError(ExitNotFound, "%v", err)
		}
		exitWithError(ExitError, "fetching %s: %v", edge, err)
	}

	if humanOutput {
		if len(papers) == 0 {
			fmt.Printf("No %s found.\n", edge)
			return nil
		}
		fmt.Println(papersTable(papers))
		return nil
	}
	return outputJSON(GraphResult{Query: q, Papers: papers, Total: len(papers)})
}
