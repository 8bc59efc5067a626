// Package shelf adapts the PaperShelf public library API to the provider
// contract. Papers can only be looked up by their PaperShelf id.
package shelf

import (
	"context"
	"net/url"
	"strings"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
)

const (
	// Name is the provider's display name.
	Name = "PaperShelf"

	// BaseURL is the PaperShelf API base URL.
	BaseURL = "https://papershelf-node.azurewebsites.net/api"
)

func init() {
	paper.RegisterRecord(paper.PaperShelf, func() paper.Record { return &Record{} })
}

// Record is a paper as stored in a PaperShelf library.
type Record struct {
	ID            string         `json:"id"`
	Alias         string         `json:"alias,omitempty"`
	Title         string         `json:"title"`
	Authors       []paper.Author `json:"authors"`
	Year          string         `json:"year,omitempty"`
	Venue         string         `json:"venue,omitempty"`
	TLDR          string         `json:"tldr,omitempty"`
	Abstract      string         `json:"abstract,omitempty"`
	NumCitations  int            `json:"numCitations,omitempty"`
	NumReferences int            `json:"numReferences,omitempty"`
	AutoTags      []string       `json:"autoTags,omitempty"`
}

// Summary implements paper.Record.
func (r *Record) Summary() paper.Summary {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		names = append(names, a.FullName)
	}
	return paper.Summary{
		Title:          r.Title,
		AuthorNames:    names,
		ReferenceCount: r.NumReferences,
		CitationCount:  r.NumCitations,
	}
}

// Contribution implements paper.Record.
func (r *Record) Contribution() (paper.Contribution, bool) {
	return paper.Contribution{
		IDs:           paper.IDs{PaperShelf: r.ID},
		Title:         r.Title,
		Alias:         r.Alias,
		Year:          r.Year,
		Venue:         r.Venue,
		TLDR:          r.TLDR,
		Abstract:      r.Abstract,
		NumCitations:  r.NumCitations,
		NumReferences: r.NumReferences,
		Authors:       r.Authors,
		Tags:          r.AutoTags,
	}, true
}

// Adapter talks to the PaperShelf API.
type Adapter struct {
	client  *source.Client
	baseURL string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		a.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithClient sets the HTTP transport.
func WithClient(c *source.Client) Option {
	return func(a *Adapter) {
		a.client = c
	}
}

// New creates a PaperShelf adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{baseURL: BaseURL}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = source.NewClient(Name)
	}
	return a
}

// Search returns no results: PaperShelf libraries are not searchable.
func (a *Adapter) Search(ctx context.Context, text string, offset, limit int) ([]paper.Record, error) {
	return []paper.Record{}, nil
}

// Fetch looks a paper up by its PaperShelf id.
func (a *Adapter) Fetch(ctx context.Context, q paper.Query) (paper.Record, error) {
	if q.PaperShelfID == "" {
		return nil, source.InvalidQueryf("PaperShelf needs a PaperShelf id")
	}

	var rec Record
	endpoint := a.baseURL + "/GetPublicPaper?" + url.Values{"id": {q.PaperShelfID}}.Encode()
	if err := a.client.GetJSON(ctx, endpoint, &rec); err != nil {
		if source.IsNotFound(err) {
			return nil, source.NotFoundf("PaperShelf paper %s", q.PaperShelfID)
		}
		return nil, err
	}
	rec.ID = q.PaperShelfID
	return &rec, nil
}
