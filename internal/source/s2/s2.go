// Package s2 adapts the Semantic Scholar Academic Graph API to the provider
// contract. It is the only provider that walks the citation graph.
package s2

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
)

const (
	// Name is the provider's display name.
	Name = "Semantic Scholar"

	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// FetchFields are requested when looking up a single paper.
	FetchFields = "paperId,externalIds,url,title,abstract,venue,year,referenceCount,citationCount," +
		"influentialCitationCount,isOpenAccess,fieldsOfStudy,s2FieldsOfStudy,openAccessPdf," +
		"authors.name,authors.affiliations,tldr"

	// SearchFields are requested for search hits. The search endpoint does
	// not serve tldr.
	SearchFields = "paperId,externalIds,url,title,abstract,venue,year,referenceCount,citationCount," +
		"influentialCitationCount,isOpenAccess,fieldsOfStudy,s2FieldsOfStudy,openAccessPdf,authors"

	// DefaultSearchLimit is used when the caller passes no limit.
	DefaultSearchLimit = 10
)

// graphFields is the reduced field set for references and citations.
var graphFields = []string{"title", "authors", "venue", "year", "externalIds", "citationCount"}

func init() {
	paper.RegisterRecord(paper.SemanticScholar, func() paper.Record { return &Record{} })
}

// Adapter talks to the Semantic Scholar Graph API.
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

// WithClient sets the HTTP transport. Pass source.WithHeader("x-api-key", key)
// to the client for authenticated requests.
func WithClient(c *source.Client) Option {
	return func(a *Adapter) {
		a.client = c
	}
}

// New creates a Semantic Scholar adapter.
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

type searchResponse struct {
	Total  int       `json:"total"`
	Offset int       `json:"offset"`
	Next   int       `json:"next,omitempty"`
	Data   []*Record `json:"data"`
}

type graphResponse struct {
	PaperID    string    `json:"paperId"`
	References []*Record `json:"references"`
	Citations  []*Record `json:"citations"`
}

// Search runs a keyword search starting at result offset.
func (a *Adapter) Search(ctx context.Context, text string, offset, limit int) ([]paper.Record, error) {
	recs, err := a.search(ctx, text, offset, limit)
	if err != nil {
		return nil, err
	}
	return toRecords(recs), nil
}

func (a *Adapter) search(ctx context.Context, text string, offset, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	params := url.Values{}
	params.Set("query", source.SearchText(text))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", SearchFields)

	var resp searchResponse
	if err := a.client.GetJSON(ctx, a.baseURL+"/paper/search?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Fetch resolves a paper by arXiv id, then S2 id, then DOI, then by searching
// for its title and picking the best match.
func (a *Adapter) Fetch(ctx context.Context, q paper.Query) (paper.Record, error) {
	if id, ok := identify(q, true); ok {
		var rec Record
		endpoint := a.baseURL + "/paper/" + source.EscapePath(id.String()) + "?fields=" + FetchFields
		if err := a.client.GetJSON(ctx, endpoint, &rec); err != nil {
			if source.IsNotFound(err) {
				return nil, source.NotFoundf("Semantic Scholar paper %s: %v", id, err)
			}
			return nil, err
		}
		return &rec, nil
	}

	if q.Title == "" || len(q.Authors) == 0 {
		return nil, source.InvalidQueryf("Semantic Scholar needs an arXiv id, a paper id, a DOI, or a title with authors")
	}

	recs, err := a.search(ctx, q.Title, 0, DefaultSearchLimit)
	if err != nil {
		return nil, err
	}
	candidates := make([]paper.Summary, len(recs))
	for i, r := range recs {
		candidates[i] = r.Summary()
	}
	if i := source.BestMatch(candidates, q); i >= 0 {
		return recs[i], nil
	}
	return nil, source.NotFoundf("no Semantic Scholar paper titled %q", q.Title)
}

// References returns the papers q cites.
func (a *Adapter) References(ctx context.Context, q paper.Query) ([]paper.Record, error) {
	resp, err := a.graph(ctx, q, "references")
	if err != nil {
		return nil, err
	}
	return usableEdges(resp.References), nil
}

// Citations returns the papers citing q.
func (a *Adapter) Citations(ctx context.Context, q paper.Query) ([]paper.Record, error) {
	resp, err := a.graph(ctx, q, "citations")
	if err != nil {
		return nil, err
	}
	return usableEdges(resp.Citations), nil
}

func (a *Adapter) graph(ctx context.Context, q paper.Query, edge string) (*graphResponse, error) {
	id, ok := identify(q, false)
	if !ok {
		return nil, source.InvalidQueryf("paper cannot be identified")
	}

	fields := make([]string, len(graphFields))
	for i, f := range graphFields {
		fields[i] = edge + "." + f
	}
	endpoint := fmt.Sprintf("%s/paper/%s?fields=%s", a.baseURL, source.EscapePath(id.String()), strings.Join(fields, ","))

	var resp graphResponse
	if err := a.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// usableEdges drops graph entries that lack a title or any author.
func usableEdges(edges []*Record) []paper.Record {
	out := make([]paper.Record, 0, len(edges))
	for _, e := range edges {
		if e == nil || e.Title == "" || len(e.Authors) == 0 {
			continue
		}
		out = append(out, e)
	}
	return out
}

func toRecords(recs []*Record) []paper.Record {
	out := make([]paper.Record, 0, len(recs))
	for _, r := range recs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
