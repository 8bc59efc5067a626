package arxiv

import (
	"strconv"
	"time"

	"github.com/matsen/papermerge/internal/paper"
)

// Record is one arXiv entry.
type Record struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	PDFURL     string    `json:"pdfUrl"`
	HTMLURL    string    `json:"htmlUrl"`
	JournalRef string    `json:"journalRef,omitempty"`
	DOI        string    `json:"doi,omitempty"`
	Updated    time.Time `json:"updated"`
	Published  time.Time `json:"published"`
	Title      string    `json:"title"`
	Abstract   string    `json:"abstract"`
	Authors    []string  `json:"authors"`
	Categories []string  `json:"categories"`
	Comment    string    `json:"comment,omitempty"`
}

// Summary implements paper.Record.
func (r *Record) Summary() paper.Summary {
	return paper.Summary{Title: r.Title, AuthorNames: r.Authors}
}

// Contribution implements paper.Record.
func (r *Record) Contribution() (paper.Contribution, bool) {
	c := paper.Contribution{
		IDs:      paper.IDs{Arxiv: r.ID, DOI: r.DOI},
		Title:    paper.NormalizeTitle(r.Title),
		Abstract: r.Abstract,
		PDFURL:   r.PDFURL,
		HTMLURL:  r.HTMLURL,
		URLs: []paper.URL{
			{Type: paper.URLPDF, URL: r.PDFURL, Desc: "ArXiv"},
			{Type: paper.URLHTML, URL: r.HTMLURL, Desc: "Ar5iv"},
		},
	}
	if !r.Updated.IsZero() {
		c.Year = strconv.Itoa(r.Updated.Year())
	}
	for _, name := range r.Authors {
		c.Authors = append(c.Authors, paper.Author{FullName: name})
	}
	for _, cat := range r.Categories {
		c.Tags = append(c.Tags, "arXiv:"+cat)
	}
	return c, true
}
