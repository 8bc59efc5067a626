package s2

import (
	"regexp"
	"strings"

	"github.com/matsen/papermerge/internal/paper"
)

// PaperIdentifier is an id in the form the Graph API accepts in a path.
type PaperIdentifier struct {
	Type  string // ARXIV, DOI, S2
	Value string
}

// String returns the S2 API format for the identifier.
func (p PaperIdentifier) String() string {
	switch p.Type {
	case "S2":
		return p.Value
	case "ARXIV":
		return "arxiv:" + p.Value
	default:
		return p.Type + ":" + p.Value
	}
}

// s2IDPattern matches a 40-character hex string (raw S2 paper ID).
var s2IDPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// IsPaperID reports whether id looks like a raw S2 paper id.
func IsPaperID(id string) bool {
	return s2IDPattern.MatchString(strings.TrimSpace(id))
}

// NormalizeDOI strips URL and scheme prefixes from a DOI and lowercases it.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi.org/")
	if len(doi) >= 4 && strings.EqualFold(doi[:4], "doi:") {
		doi = doi[4:]
	}
	return strings.ToLower(doi)
}

// identify picks the most specific identifier in q. Only arXiv and S2 ids
// identify a paper for graph traversal; DOIs are used by Fetch alone.
func identify(q paper.Query, allowDOI bool) (PaperIdentifier, bool) {
	switch {
	case q.ArxivID != "":
		return PaperIdentifier{Type: "ARXIV", Value: q.ArxivID}, true
	case q.SemanticScholarID != "":
		return PaperIdentifier{Type: "S2", Value: q.SemanticScholarID}, true
	case allowDOI && q.DOI != "":
		return PaperIdentifier{Type: "DOI", Value: NormalizeDOI(q.DOI)}, true
	}
	return PaperIdentifier{}, false
}
