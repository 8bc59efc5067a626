// Package openreview adapts the OpenReview notes API to the provider
// contract. OpenReview is a fetch-only provider.
package openreview

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
)

const (
	// Name is the provider's display name.
	Name = "OpenReview"

	// BaseURL is the OpenReview API base URL.
	BaseURL = "https://api.openreview.net"

	// fetchCandidates is how many notes are compared when fetching by title.
	fetchCandidates = 5
)

func init() {
	paper.RegisterRecord(paper.OpenReview, func() paper.Record { return &Record{} })
}

// Adapter talks to the OpenReview API.
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

// New creates an OpenReview adapter.
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

type notesResponse struct {
	Notes []*Record `json:"notes"`
	Count int       `json:"count,omitempty"`
}

// getNotes fetches a notes listing and lifts each note's content title.
func (a *Adapter) getNotes(ctx context.Context, endpoint string) ([]*Record, error) {
	var resp notesResponse
	if err := a.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(resp.Notes))
	for _, n := range resp.Notes {
		if n == nil {
			continue
		}
		if n.Content != nil {
			n.Title = string(n.Content.Title)
		}
		out = append(out, n)
	}
	return out, nil
}

// Search returns no results: OpenReview is not offered as a search provider.
func (a *Adapter) Search(ctx context.Context, text string, offset, limit int) ([]paper.Record, error) {
	return []paper.Record{}, nil
}

func (a *Adapter) searchNotes(ctx context.Context, text string, offset, limit int) ([]*Record, error) {
	params := url.Values{}
	params.Set("query", source.SearchText(text))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	return a.getNotes(ctx, a.baseURL+"/notes/search?"+params.Encode())
}

// Fetch resolves a paper by OpenReview note id, or by title and authors.
func (a *Adapter) Fetch(ctx context.Context, q paper.Query) (paper.Record, error) {
	if q.OpenReviewID != "" {
		notes, err := a.getNotes(ctx, a.baseURL+"/notes?"+url.Values{"id": {q.OpenReviewID}}.Encode())
		if err != nil {
			if source.IsNotFound(err) {
				return nil, source.NotFoundf("OpenReview note %s", q.OpenReviewID)
			}
			return nil, err
		}
		if len(notes) == 0 {
			return nil, source.NotFoundf("OpenReview note %s", q.OpenReviewID)
		}
		return notes[0], nil
	}

	if q.Title != "" && len(q.Authors) > 0 {
		notes, err := a.searchNotes(ctx, q.Title, 0, fetchCandidates)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			if source.CompareWithQuery(n.Summary(), q) {
				return n, nil
			}
		}
		return nil, source.NotFoundf("no OpenReview note titled %q", q.Title)
	}

	return nil, source.InvalidQueryf("OpenReview needs a note id, or a title with authors")
}
