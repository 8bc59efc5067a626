// Package pdf reads identifying metadata out of local PDF files so they can
// seed a provider lookup.
package pdf

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/matsen/papermerge/internal/paper"
)

// scanPages is how many leading pages are searched for identifiers.
const scanPages = 3

// DOI pattern: 10.XXXX/... where XXXX is 4 to 9 digits.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// arXiv stamps new-style ids as "arXiv:1512.03385v1 [cs.CV] 10 Dec 2015".
var arxivPattern = regexp.MustCompile(`(?i)arxiv:\s*(\d{4}\.\d{4,5})(?:v\d+)?`)

// QueryFromPDF opens a PDF and builds a query from the DOI, arXiv id and
// title it finds on the first pages. A PDF with none of them yields an empty
// query, not an error.
func QueryFromPDF(filePath string) (paper.Query, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return paper.Query{}, fmt.Errorf("opening PDF %s: %w", filePath, err)
	}
	defer f.Close()

	return QueryFromText(pagesText(r, scanPages)), nil
}

// QueryFromReader is QueryFromPDF for an in-memory document.
func QueryFromReader(ra io.ReaderAt, size int64) (paper.Query, error) {
	r, err := pdf.NewReader(ra, size)
	if err != nil {
		return paper.Query{}, fmt.Errorf("reading PDF: %w", err)
	}
	return QueryFromText(pagesText(r, scanPages)), nil
}

// QueryFromText builds a query from text extracted from a PDF.
func QueryFromText(text string) paper.Query {
	return paper.Query{
		DOI:     findDOI(text),
		ArxivID: findArxivID(text),
		Title:   findTitle(text),
	}
}

// pagesText concatenates the plain text of the first maxPages pages,
// skipping pages that cannot be decoded.
func pagesText(r *pdf.Reader, maxPages int) string {
	if maxPages <= 0 || maxPages > r.NumPage() {
		maxPages = r.NumPage()
	}

	var builder strings.Builder
	for i := 1; i <= maxPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}
	return builder.String()
}

// findDOI returns the first plausible DOI in text, lowercased.
func findDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return strings.ToLower(match)
		}
	}
	return ""
}

func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slashIdx := strings.Index(doi, "/")
	return slashIdx != -1 && slashIdx < len(doi)-1
}

func findArxivID(text string) string {
	if m := arxivPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// findTitle takes the first substantial line that is not running-header
// boilerplate. Best effort.
func findTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(paper.NormalizeTitle(line))
		if len(line) > 20 && !isHeaderLine(line) {
			return line
		}
	}
	return ""
}

// isHeaderLine checks if a line is likely a header/footer.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "journal"),
		strings.Contains(lower, "copyright"),
		strings.Contains(lower, "arxiv:"),
		strings.Contains(lower, "doi"),
		strings.Contains(lower, "volume") && strings.Contains(lower, "issue"),
		strings.Contains(lower, "article") && strings.Contains(lower, "published"):
		return true
	}
	return false
}
