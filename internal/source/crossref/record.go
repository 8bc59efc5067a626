package crossref

import (
	"strconv"
	"strings"

	"github.com/matsen/papermerge/internal/paper"
)

// Record is a CrossRef work, flattened from the API's kebab-case message.
type Record struct {
	DOI            string   `json:"doi"`
	Title          string   `json:"title"`
	ContainerTitle []string `json:"containerTitle,omitempty"`
	Publisher      string   `json:"publisher,omitempty"`
	Member         string   `json:"member,omitempty"`
	ReferenceCount int      `json:"referenceCount"`
	CitationCount  int      `json:"citationCount"`
	Type           string   `json:"type,omitempty"`
	Event          *Event   `json:"event,omitempty"`
	Authors        []Author `json:"authors"`
	Issued         []int    `json:"issued,omitempty"`
	Created        string   `json:"created,omitempty"`
	Deposited      string   `json:"deposited,omitempty"`
	Indexed        string   `json:"indexed,omitempty"`
	Links          []string `json:"link,omitempty"`
	URL            string   `json:"url,omitempty"`
	Language       string   `json:"language,omitempty"`
	Subjects       []string `json:"subjects,omitempty"`
}

// Event is the conference a proceedings paper was presented at.
type Event struct {
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	Start    []int  `json:"start,omitempty"`
	End      []int  `json:"end,omitempty"`
}

// Author is one contributor of a work.
type Author struct {
	Given       string   `json:"given,omitempty"`
	Family      string   `json:"family,omitempty"`
	Sequence    string   `json:"sequence,omitempty"`
	Affiliation []string `json:"affiliation,omitempty"`
}

// FullName joins the given and family names.
func (a Author) FullName() string {
	return strings.TrimSpace(a.Given + " " + a.Family)
}

// Summary implements paper.Record.
func (r *Record) Summary() paper.Summary {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		names = append(names, a.FullName())
	}
	return paper.Summary{
		Title:          r.Title,
		AuthorNames:    names,
		ReferenceCount: r.ReferenceCount,
		CitationCount:  r.CitationCount,
	}
}

// Contribution implements paper.Record. CrossRef supplies bibliographic
// details only; titles and authors come from the other providers.
func (r *Record) Contribution() (paper.Contribution, bool) {
	c := paper.Contribution{
		IDs:           paper.IDs{DOI: r.DOI},
		Venue:         r.venue(),
		NumCitations:  r.CitationCount,
		NumReferences: r.ReferenceCount,
	}
	if len(r.Issued) > 0 && r.Issued[0] > 0 {
		c.Year = strconv.Itoa(r.Issued[0])
	}
	if r.URL != "" {
		c.URLs = []paper.URL{{Type: paper.URLOther, URL: r.URL, Desc: "CrossRef"}}
	}
	return c, true
}

func (r *Record) venue() string {
	if r.Event != nil && r.Event.Name != "" {
		return r.Event.Name
	}
	if len(r.ContainerTitle) > 0 {
		return r.ContainerTitle[0]
	}
	return ""
}
