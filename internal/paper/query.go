package paper

import (
	"regexp"
	"slices"
	"strings"
)

// Query is a partial identifier/text bundle describing a paper to look up.
// Adapters receive a copy and must not modify the caller's slices.
type Query struct {
	Title             string   `json:"title,omitempty"`
	Authors           []string `json:"authors,omitempty"`
	URL               string   `json:"url,omitempty"`
	ArxivID           string   `json:"arxivId,omitempty"`
	SemanticScholarID string   `json:"semanticScholarId,omitempty"`
	PaperShelfID      string   `json:"paperShelfId,omitempty"`
	DOI               string   `json:"doi,omitempty"`
	OpenReviewID      string   `json:"openReviewId,omitempty"`
}

// Clone returns a copy of q that shares no memory with it.
func (q Query) Clone() Query {
	q.Authors = slices.Clone(q.Authors)
	return q
}

// IsEmpty reports whether q carries no usable field.
func (q Query) IsEmpty() bool {
	return q.Title == "" && len(q.Authors) == 0 && q.URL == "" &&
		q.ArxivID == "" && q.SemanticScholarID == "" && q.PaperShelfID == "" &&
		q.DOI == "" && q.OpenReviewID == ""
}

// Merge returns a new query in which every non-empty field of other replaces
// the corresponding field of q.
func (q Query) Merge(other Query) Query {
	out := q.Clone()
	pick := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	pick(&out.Title, other.Title)
	pick(&out.URL, other.URL)
	pick(&out.ArxivID, other.ArxivID)
	pick(&out.SemanticScholarID, other.SemanticScholarID)
	pick(&out.PaperShelfID, other.PaperShelfID)
	pick(&out.DOI, other.DOI)
	pick(&out.OpenReviewID, other.OpenReviewID)
	if len(other.Authors) > 0 {
		out.Authors = slices.Clone(other.Authors)
	}
	return out
}

// QueryFromPaper builds a query from everything already known about p.
func QueryFromPaper(p Paper) Query {
	arxivID := p.IDs.Arxiv
	if arxivID == "" && p.PDFURL != "" {
		arxivID = ArxivIDFromURL(p.PDFURL)
	}
	var authors []string
	if len(p.Authors) > 0 {
		authors = p.AuthorNames()
	}
	return Query{
		Title:             p.Title,
		Authors:           authors,
		ArxivID:           arxivID,
		SemanticScholarID: p.IDs.SemanticScholar,
		PaperShelfID:      p.IDs.PaperShelf,
		DOI:               p.IDs.DOI,
		OpenReviewID:      p.IDs.OpenReview,
	}
}

// FromQuery seeds a Paper with the fields already present in q.
func FromQuery(q Query) Paper {
	p := New()
	p.Title = q.Title
	for _, name := range q.Authors {
		p.Authors = append(p.Authors, Author{FullName: name})
	}
	p.IDs = IDs{
		Arxiv:           q.ArxivID,
		SemanticScholar: q.SemanticScholarID,
		PaperShelf:      q.PaperShelfID,
		DOI:             q.DOI,
		OpenReview:      q.OpenReviewID,
	}
	return p
}

var arxivURLPattern = regexp.MustCompile(
	`^https?://arxiv\.org/(?:abs/([0-9]+\.[0-9]+)(?:v[0-9]+)?|pdf/([0-9]+\.[0-9]+)(?:v[0-9]+)?(?:\.pdf)?)$`)

// ArxivIDFromURL extracts the version-less arXiv id from an abs or pdf URL.
// It returns "" when url is not an arXiv paper URL.
func ArxivIDFromURL(url string) string {
	m := arxivURLPattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}
