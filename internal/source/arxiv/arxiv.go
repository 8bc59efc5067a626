// Package arxiv adapts the arXiv export API (an Atom feed) to the provider
// contract.
//
// arXiv asks clients to make no more than one request every three seconds;
// pace the client with source.WithRateLimit when issuing many requests.
package arxiv

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
)

const (
	// Name is the provider's display name.
	Name = "arXiv"

	// BaseURL is the arXiv query endpoint.
	BaseURL = "https://export.arxiv.org/api/query"

	// idPrefix marks search text that is an arXiv id rather than keywords.
	idPrefix = "arxiv:"

	// fetchCandidates is how many search hits are compared when fetching by title.
	fetchCandidates = 10
)

func init() {
	paper.RegisterRecord(paper.Arxiv, func() paper.Record { return &Record{} })
}

// Adapter talks to the arXiv API.
type Adapter struct {
	client  *source.Client
	baseURL string
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURL sets a custom endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(a *Adapter) {
		a.baseURL = u
	}
}

// WithClient sets the HTTP transport.
func WithClient(c *source.Client) Option {
	return func(a *Adapter) {
		a.client = c
	}
}

// New creates an arXiv adapter.
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

// PDFURL returns the canonical PDF link for an arXiv id.
func PDFURL(id string) string {
	return "https://arxiv.org/pdf/" + id + ".pdf"
}

// idFromSearchText returns the arXiv id addressed by text, if any.
func idFromSearchText(text string) string {
	text = strings.TrimSpace(text)
	if id := paper.ArxivIDFromURL(text); id != "" {
		return id
	}
	if strings.HasPrefix(strings.ToLower(text), idPrefix) {
		return strings.TrimSpace(text[len(idPrefix):])
	}
	return ""
}

// Search queries arXiv by keywords, or by id when text is an arXiv URL or an
// "arxiv:<id>" string. An id lookup yields at most one record.
func (a *Adapter) Search(ctx context.Context, text string, offset, limit int) ([]paper.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	id := idFromSearchText(text)
	if id != "" {
		params.Set("id_list", id)
	} else {
		params.Set("search_query", source.SearchText(text))
	}
	params.Set("start", strconv.Itoa(offset))
	params.Set("max_results", strconv.Itoa(limit))
	params.Set("sortBy", "relevance")

	body, err := a.client.GetBody(ctx, a.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	records, err := parseFeed(body)
	if err != nil {
		return nil, err
	}
	if id != "" && len(records) > 1 {
		records = records[:1]
	}

	out := make([]paper.Record, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out, nil
}

// Fetch resolves a paper by URL, then arXiv id, then title.
func (a *Adapter) Fetch(ctx context.Context, q paper.Query) (paper.Record, error) {
	if id := paper.ArxivIDFromURL(q.URL); id != "" {
		return a.fetchByID(ctx, id)
	}
	if q.ArxivID != "" {
		return a.fetchByID(ctx, q.ArxivID)
	}
	if q.Title != "" {
		recs, err := a.Search(ctx, q.Title, 0, fetchCandidates)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			if source.CompareTitles(q.Title, r.Summary().Title) {
				return r, nil
			}
		}
		return nil, source.NotFoundf("no arXiv paper titled %q", q.Title)
	}
	return nil, source.InvalidQueryf("arXiv needs an arXiv URL, an arXiv id or a title")
}

func (a *Adapter) fetchByID(ctx context.Context, id string) (paper.Record, error) {
	recs, err := a.Search(ctx, idPrefix+id, 0, fetchCandidates)
	if err != nil {
		return nil, err
	}
	if len(recs) != 1 {
		return nil, source.NotFoundf("arXiv id %s", id)
	}
	return recs[0], nil
}

var versionSuffix = regexp.MustCompile(`v[0-9]+$`)

// entryID extracts the version-less id from an entry's abs URL. Error
// entries, whose ids are not abs URLs, yield "".
func entryID(absURL string) string {
	if id := paper.ArxivIDFromURL(absURL); id != "" {
		return id
	}
	_, rest, ok := strings.Cut(absURL, "/abs/")
	if !ok || rest == "" {
		return ""
	}
	return versionSuffix.ReplaceAllString(rest, "")
}

func parseFeed(body []byte) ([]*Record, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parsing feed: %v", source.ErrUnavailable, Name, err)
	}

	records := make([]*Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := entryID(item.GUID)
		if id == "" {
			continue
		}
		records = append(records, recordFromItem(id, item))
	}
	return records, nil
}

func recordFromItem(id string, item *gofeed.Item) *Record {
	r := &Record{
		ID:         id,
		URL:        item.GUID,
		PDFURL:     strings.Replace(item.GUID, "/abs/", "/pdf/", 1) + ".pdf",
		HTMLURL:    strings.Replace(item.GUID, "arxiv.org", "ar5iv.org", 1),
		Title:      paper.NormalizeTitle(strings.TrimSpace(item.Title)),
		Abstract:   strings.Join(strings.Split(strings.TrimSpace(item.Description), "\n"), " "),
		Comment:    extensionValue(item, "comment"),
		JournalRef: extensionValue(item, "journal_ref"),
		DOI:        extensionValue(item, "doi"),
		Categories: item.Categories,
	}
	if item.UpdatedParsed != nil {
		r.Updated = *item.UpdatedParsed
	}
	if item.PublishedParsed != nil {
		r.Published = *item.PublishedParsed
	}
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			r.Authors = append(r.Authors, author.Name)
		}
	}
	return r
}

// extensionValue reads an arxiv-namespaced element such as <arxiv:comment>.
func extensionValue(item *gofeed.Item, name string) string {
	ns, ok := item.Extensions["arxiv"]
	if !ok {
		return ""
	}
	values := ns[name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}
