package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/matsen/papermerge/internal/paper"
)

// Constants for output formatting.
const (
	DefaultSearchLimit = 10 // Default page size for search

	TableTitleMaxLen  = 60 // Title column in tables
	TableAuthorMaxLen = 3  // Authors shown before "et al."

	DetailTextWrapWidth = 68 // Wrap width for abstracts in detail views
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressf writes a status line to stderr when it is a terminal.
func progressf(format string, args ...any) {
	if quiet || !isTerminal(os.Stderr) {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range headers {
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// papersTable renders one row per paper.
func papersTable(papers []paper.Paper) string {
	rows := make([][]string, len(papers))
	for i, p := range papers {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			sourceLabel(p),
			truncateString(p.Title, TableTitleMaxLen),
			formatAuthorsShort(p.AuthorNames(), TableAuthorMaxLen),
			p.Year,
			primaryID(p),
		}
	}
	return renderTable([]string{"#", "Source", "Title", "Authors", "Year", "ID"}, rows)
}

// formatPaperDetail renders a merged paper for reading.
func formatPaperDetail(p paper.Paper) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Title)
	if len(p.Authors) > 0 {
		fmt.Fprintf(&b, "  %s\n", strings.Join(p.AuthorNames(), ", "))
	}
	line := strings.Join(nonEmpty(p.Venue, p.Year), ", ")
	if line != "" {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	b.WriteString("\n")

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "  %-14s %s\n", label+":", value)
		}
	}
	field("arXiv", p.IDs.Arxiv)
	field("DOI", p.IDs.DOI)
	field("S2", p.IDs.SemanticScholar)
	field("OpenReview", p.IDs.OpenReview)
	field("PaperShelf", p.IDs.PaperShelf)
	field("PDF", p.PDFURL)
	if p.NumCitations > 0 || p.NumReferences > 0 {
		field("Citations", fmt.Sprintf("%d (references: %d)", p.NumCitations, p.NumReferences))
	}
	field("Affiliations", strings.Join(p.Affiliations, "; "))
	field("Tags", strings.Join(p.AutoTags, ", "))

	if p.TLDR != "" {
		fmt.Fprintf(&b, "\n  TL;DR: %s\n", wrapText(p.TLDR, DetailTextWrapWidth, "  "))
	}
	if p.Abstract != "" {
		fmt.Fprintf(&b, "\n  %s\n", wrapText(p.Abstract, DetailTextWrapWidth, "  "))
	}

	b.WriteString("\n  Sources:\n")
	for _, key := range p.SourceKeys() {
		entry := p.Sources[key]
		status := "ok"
		if entry.Failed() {
			status = "error: " + entry.Err
		}
		fmt.Fprintf(&b, "    %-16s %s\n", key, status)
	}
	return b.String()
}

// sourceLabel names the providers a paper was built from.
func sourceLabel(p paper.Paper) string {
	keys := p.SourceKeys()
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = string(k)
	}
	return strings.Join(labels, ",")
}

// primaryID returns the most useful identifier to show for p.
func primaryID(p paper.Paper) string {
	switch {
	case p.IDs.Arxiv != "":
		return "arxiv:" + p.IDs.Arxiv
	case p.IDs.DOI != "":
		return "doi:" + p.IDs.DOI
	case p.IDs.SemanticScholar != "":
		return "s2:" + p.IDs.SemanticScholar
	case p.IDs.OpenReview != "":
		return "openreview:" + p.IDs.OpenReview
	case p.IDs.PaperShelf != "":
		return "shelf:" + p.IDs.PaperShelf
	}
	return ""
}

// formatAuthorsShort lists up to n names, then "et al.".
func formatAuthorsShort(names []string, n int) string {
	if len(names) <= n {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:n], ", ") + " et al."
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// wrapText wraps s to width, indenting continuation lines.
func wrapText(s string, width int, indent string) string {
	if len(s) <= width {
		return s
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(s) {
		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= width:
			current.WriteString(" ")
			current.WriteString(word)
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
		}
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return strings.Join(lines, "\n"+indent)
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
