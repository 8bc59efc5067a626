package main

import (
	"errors"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/pdf"
	"github.com/matsen/papermerge/internal/source/s2"
)

// errEmptyQuery is returned when neither arguments nor flags identify a paper.
var errEmptyQuery = errors.New("nothing to look up: pass a title, URL, identifier or --pdf")

// bareArxivID matches new-style arXiv ids such as 1512.03385 or 2010.11929v2.
var bareArxivID = regexp.MustCompile(`^(\d{4}\.\d{4,5})(?:v\d+)?$`)

// queryFlags are the paper-identifying flags shared by fetch, refs and cites.
type queryFlags struct {
	title        string
	authors      []string
	url          string
	arxivID      string
	s2ID         string
	doi          string
	openReviewID string
	shelfID      string
	pdfPath      string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "Paper title")
	fl.StringSliceVarP(&f.authors, "author", "a", nil, "Author name (repeatable)")
	fl.StringVar(&f.url, "url", "", "Paper URL (arXiv abs/pdf links are recognized)")
	fl.StringVar(&f.arxivID, "arxiv", "", "arXiv id")
	fl.StringVar(&f.s2ID, "s2", "", "Semantic Scholar paper id")
	fl.StringVar(&f.doi, "doi", "", "DOI")
	fl.StringVar(&f.openReviewID, "openreview", "", "OpenReview note id")
	fl.StringVar(&f.shelfID, "shelf", "", "PaperShelf paper id")
	fl.StringVar(&f.pdfPath, "pdf", "", "Local PDF to read a DOI, arXiv id and title from")
}

// build combines the PDF, the positional argument and the flags into one
// query, in increasing order of precedence.
func (f *queryFlags) build(args []string) (paper.Query, error) {
	var q paper.Query
	if f.pdfPath != "" {
		fromPDF, err := pdf.QueryFromPDF(f.pdfPath)
		if err != nil {
			return paper.Query{}, err
		}
		q = fromPDF
	}
	if len(args) > 0 {
		q = q.Merge(queryFromArg(strings.Join(args, " ")))
	}

	q = q.Merge(paper.Query{
		Title:             strings.TrimSpace(f.title),
		Authors:           trimAll(f.authors),
		URL:               strings.TrimSpace(f.url),
		ArxivID:           strings.TrimSpace(f.arxivID),
		SemanticScholarID: strings.TrimSpace(f.s2ID),
		DOI:               normalizeDOIFlag(f.doi),
		OpenReviewID:      strings.TrimSpace(f.openReviewID),
		PaperShelfID:      strings.TrimSpace(f.shelfID),
	})
	if q.ArxivID == "" && q.URL != "" {
		q.ArxivID = paper.ArxivIDFromURL(q.URL)
	}
	if q.IsEmpty() {
		return paper.Query{}, errEmptyQuery
	}
	return q, nil
}

// queryFromArg guesses what a free-form argument is: a URL, a DOI, an arXiv
// or Semantic Scholar id, or else a title.
func queryFromArg(arg string) paper.Query {
	arg = strings.TrimSpace(arg)
	lower := strings.ToLower(arg)
	switch {
	case arg == "":
		return paper.Query{}
	case strings.HasPrefix(lower, "https://doi.org/"), strings.HasPrefix(lower, "http://doi.org/"),
		strings.HasPrefix(lower, "doi:"), strings.HasPrefix(arg, "10."):
		return paper.Query{DOI: s2.NormalizeDOI(arg)}
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return paper.Query{URL: arg, ArxivID: paper.ArxivIDFromURL(arg)}
	case strings.HasPrefix(lower, "arxiv:"):
		if m := bareArxivID.FindStringSubmatch(strings.TrimSpace(arg[len("arxiv:"):])); m != nil {
			return paper.Query{ArxivID: m[1]}
		}
	case bareArxivID.MatchString(arg):
		return paper.Query{ArxivID: bareArxivID.FindStringSubmatch(arg)[1]}
	case s2.IsPaperID(arg):
		return paper.Query{SemanticScholarID: strings.ToLower(arg)}
	}
	return paper.Query{Title: paper.NormalizeTitle(arg)}
}

func normalizeDOIFlag(doi string) string {
	if strings.TrimSpace(doi) == "" {
		return ""
	}
	return s2.NormalizeDOI(doi)
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
