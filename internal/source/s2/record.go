package s2

import (
	"strconv"
	"strings"

	"github.com/matsen/papermerge/internal/paper"
)

// Record represents a paper from the Semantic Scholar Graph API.
type Record struct {
	PaperID                  string         `json:"paperId"`
	ExternalIDs              ExternalIDs    `json:"externalIds"`
	URL                      string         `json:"url,omitempty"`
	Title                    string         `json:"title"`
	Abstract                 string         `json:"abstract,omitempty"`
	Venue                    string         `json:"venue,omitempty"`
	Year                     int            `json:"year,omitempty"`
	ReferenceCount           int            `json:"referenceCount,omitempty"`
	CitationCount            int            `json:"citationCount,omitempty"`
	InfluentialCitationCount int            `json:"influentialCitationCount,omitempty"`
	IsOpenAccess             bool           `json:"isOpenAccess,omitempty"`
	OpenAccessPDF            *OpenAccessPDF `json:"openAccessPdf,omitempty"`
	FieldsOfStudy            []string       `json:"fieldsOfStudy,omitempty"`
	S2FieldsOfStudy          []FieldOfStudy `json:"s2FieldsOfStudy,omitempty"`
	Authors                  []Author       `json:"authors"`
	TLDR                     *TLDR          `json:"tldr,omitempty"`
}

// ExternalIDs contains the identifiers other catalogs use for the paper.
type ExternalIDs struct {
	MAG      string `json:"MAG,omitempty"`
	DOI      string `json:"DOI,omitempty"`
	ArXiv    string `json:"ArXiv,omitempty"`
	DBLP     string `json:"DBLP,omitempty"`
	PubMed   string `json:"PubMed,omitempty"`
	CorpusID int    `json:"CorpusId,omitempty"`
}

// Author is a paper author with their listed affiliations.
type Author struct {
	AuthorID     string   `json:"authorId,omitempty"`
	Name         string   `json:"name"`
	Affiliations []string `json:"affiliations,omitempty"`
}

// OpenAccessPDF points at a freely available PDF.
type OpenAccessPDF struct {
	URL    string `json:"url"`
	Status string `json:"status,omitempty"`
}

// FieldOfStudy is one entry of s2FieldsOfStudy.
type FieldOfStudy struct {
	Category string `json:"category"`
	Source   string `json:"source,omitempty"`
}

// TLDR is the machine-generated one sentence summary.
type TLDR struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text"`
}

// Summary implements paper.Record.
func (r *Record) Summary() paper.Summary {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		names = append(names, a.Name)
	}
	return paper.Summary{
		Title:          r.Title,
		AuthorNames:    names,
		ReferenceCount: r.ReferenceCount,
		CitationCount:  r.CitationCount,
	}
}

// Contribution implements paper.Record. Records without a paper id carry
// nothing the merge can trust.
func (r *Record) Contribution() (paper.Contribution, bool) {
	if r.PaperID == "" {
		return paper.Contribution{}, false
	}

	c := paper.Contribution{
		IDs: paper.IDs{
			SemanticScholar: r.PaperID,
			Arxiv:           r.ExternalIDs.ArXiv,
			DOI:             r.ExternalIDs.DOI,
			MAG:             r.ExternalIDs.MAG,
			DBLP:            r.ExternalIDs.DBLP,
		},
		Title:         r.Title,
		Abstract:      r.Abstract,
		Venue:         r.Venue,
		NumCitations:  r.CitationCount,
		NumReferences: r.ReferenceCount,
	}
	if r.Year > 0 {
		c.Year = strconv.Itoa(r.Year)
	}
	if r.TLDR != nil {
		c.TLDR = r.TLDR.Text
	}
	if r.OpenAccessPDF != nil {
		c.PDFURL = r.OpenAccessPDF.URL
	}
	if r.URL != "" {
		c.URLs = []paper.URL{{Type: paper.URLWeb, URL: r.URL, Desc: "Semantic Scholar"}}
	}

	seen := make(map[string]bool)
	for _, a := range r.Authors {
		c.Authors = append(c.Authors, paper.Author{FullName: a.Name})
		for _, aff := range a.Affiliations {
			aff = strings.TrimSpace(aff)
			if aff == "" || seen[aff] {
				continue
			}
			seen[aff] = true
			c.Affiliations = append(c.Affiliations, aff)
			c.Tags = append(c.Tags, "affiliated:"+aff)
		}
	}
	for _, f := range r.S2FieldsOfStudy {
		c.Tags = append(c.Tags, "ss:"+f.Category)
	}
	for _, f := range r.FieldsOfStudy {
		c.Tags = append(c.Tags, "ss:"+f)
	}
	if strings.ToLower(r.Venue) == "arxiv" {
		c.Tags = append(c.Tags, "auto:preprint")
	}
	return c, true
}
