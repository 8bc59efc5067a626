// Package crossref adapts the CrossRef REST API to the provider contract.
// CrossRef is a fetch-only provider.
package crossref

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
	Name = "CrossRef"

	// BaseURL is the CrossRef REST API base URL.
	BaseURL = "https://api.crossref.org"

	// fetchCandidates is how many works are compared when fetching by title.
	fetchCandidates = 5

	statusOK = "ok"
)

func init() {
	paper.RegisterRecord(paper.CrossRef, func() paper.Record { return &Record{} })
}

// Adapter talks to the CrossRef REST API.
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

// New creates a CrossRef adapter.
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

type dateParts struct {
	DateParts [][]int `json:"date-parts"`
}

func (d *dateParts) first() []int {
	if d == nil || len(d.DateParts) == 0 {
		return nil
	}
	return d.DateParts[0]
}

type dateTime struct {
	DateTime string `json:"date-time"`
}

type work struct {
	DOI                 string   `json:"DOI"`
	Title               []string `json:"title"`
	ContainerTitle      []string `json:"container-title"`
	Publisher           string   `json:"publisher"`
	Member              string   `json:"member"`
	ReferenceCount      int      `json:"reference-count"`
	IsReferencedByCount int      `json:"is-referenced-by-count"`
	Type                string   `json:"type"`
	Event               *struct {
		Name     string     `json:"name"`
		Location string     `json:"location"`
		Start    *dateParts `json:"start"`
		End      *dateParts `json:"end"`
	} `json:"event"`
	Author []struct {
		Given       string `json:"given"`
		Family      string `json:"family"`
		Sequence    string `json:"sequence"`
		Affiliation []struct {
			Name string `json:"name"`
		} `json:"affiliation"`
	} `json:"author"`
	Issued    *dateParts `json:"issued"`
	Created   dateTime   `json:"created"`
	Deposited dateTime   `json:"deposited"`
	Indexed   dateTime   `json:"indexed"`
	Resource  struct {
		Primary struct {
			URL string `json:"URL"`
		} `json:"primary"`
	} `json:"resource"`
	Link []struct {
		URL string `json:"URL"`
	} `json:"link"`
	URL      string   `json:"URL"`
	Language string   `json:"language"`
	Subject  []string `json:"subject"`
}

type workResponse struct {
	Status  string `json:"status"`
	Message work   `json:"message"`
}

type worksResponse struct {
	Status  string `json:"status"`
	Message struct {
		TotalResults int    `json:"total-results"`
		Items        []work `json:"items"`
	} `json:"message"`
}

func recordFromWork(w work) *Record {
	r := &Record{
		DOI:            strings.ToLower(w.DOI),
		ContainerTitle: w.ContainerTitle,
		Publisher:      w.Publisher,
		Member:         w.Member,
		ReferenceCount: w.ReferenceCount,
		CitationCount:  w.IsReferencedByCount,
		Type:           w.Type,
		Issued:         w.Issued.first(),
		Created:        w.Created.DateTime,
		Deposited:      w.Deposited.DateTime,
		Indexed:        w.Indexed.DateTime,
		URL:            w.URL,
		Language:       w.Language,
		Subjects:       w.Subject,
	}
	if len(w.Title) > 0 {
		r.Title = w.Title[0]
	}
	if w.Event != nil {
		r.Event = &Event{
			Name:     w.Event.Name,
			Location: w.Event.Location,
			Start:    w.Event.Start.first(),
			End:      w.Event.End.first(),
		}
	}
	for _, a := range w.Author {
		author := Author{Given: a.Given, Family: a.Family, Sequence: a.Sequence}
		for _, aff := range a.Affiliation {
			author.Affiliation = append(author.Affiliation, aff.Name)
		}
		r.Authors = append(r.Authors, author)
	}
	for _, l := range w.Link {
		r.Links = append(r.Links, l.URL)
	}
	if w.Resource.Primary.URL != "" {
		r.Links = append(r.Links, w.Resource.Primary.URL)
	}
	return r
}

// Search returns no results: CrossRef is not offered as a search provider.
func (a *Adapter) Search(ctx context.Context, text string, offset, limit int) ([]paper.Record, error) {
	return []paper.Record{}, nil
}

func (a *Adapter) searchWorks(ctx context.Context, text string, offset, rows int) ([]*Record, error) {
	params := url.Values{}
	params.Set("query", text)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("rows", strconv.Itoa(rows))

	var resp worksResponse
	if err := a.client.GetJSON(ctx, a.baseURL+"/works?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != statusOK {
		return nil, &source.APIError{Provider: Name, StatusCode: 200, Message: "status " + resp.Status}
	}
	out := make([]*Record, 0, len(resp.Message.Items))
	for _, w := range resp.Message.Items {
		out = append(out, recordFromWork(w))
	}
	return out, nil
}

// Fetch resolves a paper by DOI, or by title and authors.
func (a *Adapter) Fetch(ctx context.Context, q paper.Query) (paper.Record, error) {
	if q.DOI != "" {
		var resp workResponse
		if err := a.client.GetJSON(ctx, a.baseURL+"/works/"+source.EscapePath(q.DOI), &resp); err != nil {
			if source.IsNotFound(err) {
				return nil, source.NotFoundf("CrossRef DOI %s", q.DOI)
			}
			return nil, err
		}
		if resp.Status != statusOK {
			return nil, source.NotFoundf("CrossRef DOI %s: status %s", q.DOI, resp.Status)
		}
		return recordFromWork(resp.Message), nil
	}

	if q.Title != "" && len(q.Authors) > 0 {
		recs, err := a.searchWorks(ctx, q.Title, 0, fetchCandidates)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if source.CompareWithQuery(r.Summary(), q) {
				return r, nil
			}
		}
		return nil, source.NotFoundf("no CrossRef work titled %q", q.Title)
	}

	return nil, source.InvalidQueryf("CrossRef needs a DOI, or a title with authors")
}
