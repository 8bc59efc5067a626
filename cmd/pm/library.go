package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papermerge/internal/config"
	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/storage"
)

var (
	libraryFile string
	listTag     string
	tagAdd      []string
	tagRemove   []string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the papers saved with fetch --save",
	Long: `List the papers stored in the papers file, in file order.

Examples:
  pm list --human
  pm list --tag to-read`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var tagCmd = &cobra.Command{
	Use:   "tag <url | id>",
	Short: "Add or remove user tags on a saved paper",
	Long: `Add or remove user tags on a paper in the papers file. The paper is
matched by any identifier it shares with the argument. Tags are normalized
(lowercase, spaces become dashes). Namespaced tags such as "auto:arxiv" are
derived from the providers and cannot be edited.

Examples:
  pm tag 1512.03385 --add to-read
  pm tag 10.1109/CVPR.2016.90 --add vision --remove to-read`,
	Args: cobra.ExactArgs(1),
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tagCmd)
	for _, cmd := range []*cobra.Command{listCmd, tagCmd} {
		cmd.Flags().StringVarP(&libraryFile, "file", "f", "", "Papers file (default: papers_file from config)")
	}
	listCmd.Flags().StringVar(&listTag, "tag", "", "Only list papers carrying this tag")
	tagCmd.Flags().StringSliceVar(&tagAdd, "add", nil, "Tag to add (repeatable)")
	tagCmd.Flags().StringSliceVar(&tagRemove, "remove", nil, "Tag to remove (repeatable)")
}

// papersPath resolves the papers file from a flag value or the config.
func papersPath(override string) string {
	if override == "" {
		override = config.GetPapersFile()
	}
	return config.ExpandTilde(override)
}

// filterByTag returns the papers carrying tag, or all papers when tag is empty.
func filterByTag(papers []paper.Paper, tag string) []paper.Paper {
	if tag == "" {
		return papers
	}
	out := []paper.Paper{}
	for _, p := range papers {
		if storage.HasTag(p, tag) {
			out = append(out, p)
		}
	}
	return out
}

func runList(cmd *cobra.Command, args []string) error {
	papers, err := storage.ReadAll(papersPath(libraryFile))
	if err != nil {
		exitWithError(ExitDataError, "reading papers: %v", err)
	}
	papers = filterByTag(papers, listTag)

	if humanOutput {
		if len(papers) == 0 {
			fmt.Println("No papers.")
			return nil
		}
		fmt.Println(papersTable(papers))
		return nil
	}
	if papers == nil {
		papers = []paper.Paper{}
	}
	return outputJSON(papers)
}

func runTag(cmd *cobra.Command, args []string) error {
	if len(tagAdd) == 0 && len(tagRemove) == 0 {
		exitWithError(ExitError, "nothing to do: pass --add or --remove")
	}
	q := queryFromArg(args[0])
	if q.IsEmpty() {
		exitWithError(ExitDataError, "%v", errEmptyQuery)
	}

	path := papersPath(libraryFile)
	p, err := storage.Tag(path, paper.FromQuery(q), trimAll(tagAdd), trimAll(tagRemove))
	if err != nil {
		if errors.Is(err, storage.ErrNoMatch) {
			exitWithError(ExitNotFound, "%s: %v", path, err)
		}
		exitWithError(ExitDataError, "tagging paper: %v", err)
	}

	if humanOutput {
		fmt.Printf("%s: %s\n", primaryID(p), strings.Join(paper.UserTags(p.AutoTags), ", "))
		return nil
	}
	return outputJSON(p)
}
