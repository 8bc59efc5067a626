package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
	"github.com/matsen/papermerge/internal/source/arxiv"
	"github.com/matsen/papermerge/internal/source/crossref"
	"github.com/matsen/papermerge/internal/source/s2"
)

type record struct {
	c paper.Contribution
}

func (r record) Summary() paper.Summary                   { return paper.Summary{Title: r.c.Title} }
func (r record) Contribution() (paper.Contribution, bool) { return r.c, true }

type stub struct {
	fetch  func(ctx context.Context, q paper.Query) (paper.Record, error)
	search func(ctx context.Context, text string, offset, limit int) ([]paper.Record, error)
}

func (s stub) Fetch(ctx context.Context, q paper.Query) (paper.Record, error) {
	if s.fetch == nil {
		return nil, source.ErrNotFound
	}
	return s.fetch(ctx, q)
}

func (s stub) Search(ctx context.Context, text string, offset, limit int) ([]paper.Record, error) {
	if s.search == nil {
		return []paper.Record{}, nil
	}
	return s.search(ctx, text, offset, limit)
}

type graphStub struct {
	stub
	refs []paper.Record
	seen *paper.Query
}

func (g graphStub) References(_ context.Context, q paper.Query) ([]paper.Record, error) {
	*g.seen = q
	return g.refs, nil
}

func (g graphStub) Citations(context.Context, paper.Query) ([]paper.Record, error) {
	return nil, errors.New("citations unavailable")
}

func returns(c paper.Contribution) func(context.Context, paper.Query) (paper.Record, error) {
	return func(context.Context, paper.Query) (paper.Record, error) { return record{c: c}, nil }
}

func mustRegistry(t *testing.T, entries ...source.Entry) *source.Registry {
	t.Helper()
	r, err := source.NewRegistry(entries...)
	require.NoError(t, err)
	return r
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

func TestOrder(t *testing.T) {
	keys := []paper.Key{paper.PaperShelf, paper.Arxiv, paper.SemanticScholar, paper.CrossRef}

	assert.Equal(t, keys, Order(paper.Query{Title: "x"}, keys))
	assert.Equal(t,
		[]paper.Key{paper.Arxiv, paper.PaperShelf, paper.SemanticScholar, paper.CrossRef},
		Order(paper.Query{ArxivID: "1512.03385"}, keys))
	assert.Equal(t,
		[]paper.Key{paper.SemanticScholar, paper.Arxiv, paper.PaperShelf, paper.CrossRef},
		Order(paper.Query{ArxivID: "1512.03385", SemanticScholarID: "abc"}, keys))
	assert.Equal(t, paper.PaperShelf, keys[0], "input is not reordered in place")
}

func TestFetchPaperIsolatesFailures(t *testing.T) {
	reg := mustRegistry(t,
		source.Entry{Key: paper.PaperShelf, Name: "PaperShelf", CanFetch: true, Provider: stub{}},
		source.Entry{Key: paper.Arxiv, Name: "arXiv", CanFetch: true, Provider: stub{
			fetch: func(context.Context, paper.Query) (paper.Record, error) {
				return nil, &source.APIError{Provider: "arXiv", StatusCode: 503, Message: "busy"}
			},
		}},
		source.Entry{Key: paper.SemanticScholar, Name: "Semantic Scholar", CanFetch: true, Provider: stub{
			fetch: returns(paper.Contribution{Title: "Found", Year: "2020"}),
		}},
		source.Entry{Key: paper.CrossRef, Name: "CrossRef", CanFetch: true, Provider: stub{
			fetch: func(context.Context, paper.Query) (paper.Record, error) { panic("boom") },
		}},
	)

	var messages []string
	p := New(reg, WithClock(fixedNow)).FetchPaper(context.Background(),
		paper.Query{Title: "Found"},
		[]paper.Key{paper.PaperShelf, paper.Arxiv, paper.SemanticScholar, paper.CrossRef},
		func(_ paper.Paper, msg string) { messages = append(messages, msg) })

	assert.Equal(t, []string{
		"Loading from PaperShelf...",
		"Loading from arXiv...",
		"Loading from Semantic Scholar...",
		"Loading from CrossRef...",
	}, messages)
	assert.Equal(t, "2020", p.Year)
	assert.True(t, p.Sources[paper.PaperShelf].Failed())
	assert.Equal(t, "arXiv API error (status 503): busy", p.Sources[paper.Arxiv].Err)
	assert.False(t, p.Sources[paper.SemanticScholar].Failed())
	assert.Contains(t, p.Sources[paper.CrossRef].Err, "panicked")
	assert.Len(t, p.DateFetched, 4)
}

func TestFetchPaperPassesDiscoveredIdentifiers(t *testing.T) {
	var seen paper.Query
	reg := mustRegistry(t,
		source.Entry{Key: paper.Arxiv, Name: "arXiv", Provider: stub{
			fetch: returns(paper.Contribution{IDs: paper.IDs{Arxiv: "1512.03385", DOI: "10.1/x"}, Title: "Resolved"}),
		}},
		source.Entry{Key: paper.CrossRef, Name: "CrossRef", Provider: stub{
			fetch: func(_ context.Context, q paper.Query) (paper.Record, error) {
				seen = q
				return nil, source.ErrNotFound
			},
		}},
	)

	orig := paper.Query{URL: "https://arxiv.org/abs/1512.03385", Title: "typed by user"}
	New(reg).FetchPaper(context.Background(), orig, []paper.Key{paper.Arxiv, paper.CrossRef}, nil)

	assert.Equal(t, "10.1/x", seen.DOI)
	assert.Equal(t, "1512.03385", seen.ArxivID)
	assert.Equal(t, "https://arxiv.org/abs/1512.03385", seen.URL, "original fields are kept")
	assert.Equal(t, "typed by user", seen.Title, "the seeded title is fill-once")
	assert.Equal(t, "typed by user", orig.Title)
}

func TestFetchPaperSkipsUnknownKeys(t *testing.T) {
	reg := mustRegistry(t, source.Entry{Key: paper.Arxiv, Name: "arXiv", Provider: stub{
		fetch: returns(paper.Contribution{Title: "T"}),
	}})

	p := New(reg).FetchPaper(context.Background(), paper.Query{}, []paper.Key{"googleScholar", paper.Arxiv}, nil)
	assert.Equal(t, []paper.Key{paper.Arxiv}, p.SourceKeys())
}

func TestFetchPaperProviderTimeout(t *testing.T) {
	reg := mustRegistry(t,
		source.Entry{Key: paper.Arxiv, Name: "arXiv", Provider: stub{
			fetch: func(ctx context.Context, _ paper.Query) (paper.Record, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}},
		source.Entry{Key: paper.SemanticScholar, Name: "Semantic Scholar", Provider: stub{
			fetch: returns(paper.Contribution{Title: "Still fetched"}),
		}},
	)

	p := New(reg, WithProviderTimeout(20*time.Millisecond)).FetchPaper(context.Background(),
		paper.Query{}, []paper.Key{paper.Arxiv, paper.SemanticScholar}, nil)

	assert.Contains(t, p.Sources[paper.Arxiv].Err, "deadline exceeded")
	assert.Equal(t, "Still fetched", p.Title)
}

func TestSearchPaperCollectsInRegistryOrder(t *testing.T) {
	release := make(chan struct{})
	var offsets sync.Map
	reg := mustRegistry(t,
		source.Entry{Key: paper.Arxiv, Name: "arXiv", CanSearch: true, Provider: stub{
			search: func(_ context.Context, _ string, offset, _ int) ([]paper.Record, error) {
				offsets.Store(paper.Arxiv, offset)
				<-release
				return []paper.Record{record{c: paper.Contribution{Title: "slow-1"}}, record{c: paper.Contribution{Title: "slow-2"}}}, nil
			},
		}},
		source.Entry{Key: paper.SemanticScholar, Name: "Semantic Scholar", CanSearch: true, Provider: stub{
			search: func(context.Context, string, int, int) ([]paper.Record, error) {
				return []paper.Record{record{c: paper.Contribution{Title: "fast"}}}, nil
			},
		}},
		source.Entry{Key: paper.CrossRef, Name: "CrossRef", Provider: stub{
			search: func(context.Context, string, int, int) ([]paper.Record, error) {
				return nil, errors.New("down")
			},
		}},
		source.Entry{Key: paper.OpenReview, Name: "OpenReview", Provider: stub{
			search: func(context.Context, string, int, int) ([]paper.Record, error) {
				t.Error("unselected provider was searched")
				return nil, nil
			},
		}},
	)

	var order []paper.Key
	sizes := map[paper.Key]int{}
	onEach := func(batch []paper.Paper, key paper.Key) {
		order = append(order, key)
		sizes[key] = len(batch)
		if key == paper.SemanticScholar {
			close(release)
		}
	}

	// CrossRef may report before or after Semantic Scholar, but arXiv is
	// held back until Semantic Scholar has reported.
	results := New(reg).SearchPaper(context.Background(), "query",
		[]paper.Key{paper.Arxiv, paper.SemanticScholar, paper.CrossRef}, onEach, 2, 10)

	require.Len(t, order, 3)
	assert.Equal(t, paper.Arxiv, order[2])
	assert.Equal(t, 0, sizes[paper.CrossRef], "a failed provider reports an empty batch")

	titles := make([]string, len(results))
	for i, p := range results {
		titles[i] = p.Title
		assert.Len(t, p.Sources, 1, "search results are single-source")
	}
	assert.Equal(t, []string{"slow-1", "slow-2", "fast"}, titles)

	offset, _ := offsets.Load(paper.Arxiv)
	assert.Equal(t, 20, offset, "offset is a page index")
}

func TestSearchPaperWithNothingSelected(t *testing.T) {
	reg := mustRegistry(t, source.Entry{Key: paper.Arxiv, Name: "arXiv", Provider: stub{}})
	results := New(reg).SearchPaper(context.Background(), "q", nil, nil, 0, 10)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestReferencesAndCitations(t *testing.T) {
	var seen paper.Query
	reg := mustRegistry(t,
		source.Entry{Key: paper.Arxiv, Name: "arXiv", Provider: stub{}},
		source.Entry{Key: paper.SemanticScholar, Name: "Semantic Scholar", Provider: graphStub{
			refs: []paper.Record{record{c: paper.Contribution{Title: "Cited work"}}},
			seen: &seen,
		}},
	)
	o := New(reg)

	p := paper.New()
	p.IDs.Arxiv = "1512.03385"
	refs, err := o.References(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "Cited work", refs[0].Title)
	assert.Equal(t, []paper.Key{paper.SemanticScholar}, refs[0].SourceKeys())
	assert.Equal(t, "1512.03385", seen.ArxivID)

	_, err = o.Citations(context.Background(), p)
	assert.EqualError(t, err, "citations unavailable")

	none, err := New(mustRegistry(t)).References(context.Background(), p)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

// TestFetchPaperAcrossProviders drives the real arXiv, Semantic Scholar and
// CrossRef adapters against recorded responses.
func TestFetchPaperAcrossProviders(t *testing.T) {
	serve := func(path string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			_, _ = w.Write(data)
		}
	}
	arxivSrv := httptest.NewServer(serve("../source/arxiv/testdata/resnet.xml"))
	defer arxivSrv.Close()
	s2Srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/paper/arxiv:1512.03385" {
			http.NotFound(w, r)
			return
		}
		serve("../source/s2/testdata/resnet.json")(w, r)
	}))
	defer s2Srv.Close()
	crossrefSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.EqualFold(r.URL.Path, "/works/10.1109/cvpr.2016.90") {
			http.NotFound(w, r)
			return
		}
		serve("../source/crossref/testdata/work.json")(w, r)
	}))
	defer crossrefSrv.Close()

	reg := mustRegistry(t,
		source.Entry{Key: paper.Arxiv, Name: arxiv.Name, CanFetch: true, CanSearch: true, Provider: arxiv.New(arxiv.WithBaseURL(arxivSrv.URL))},
		source.Entry{Key: paper.SemanticScholar, Name: s2.Name, CanFetch: true, CanSearch: true, Provider: s2.New(s2.WithBaseURL(s2Srv.URL))},
		source.Entry{Key: paper.CrossRef, Name: crossref.Name, CanFetch: true, Provider: crossref.New(crossref.WithBaseURL(crossrefSrv.URL))},
	)

	p := New(reg, WithClock(fixedNow)).FetchPaper(context.Background(),
		paper.Query{URL: "https://arxiv.org/abs/1512.03385"},
		[]paper.Key{paper.Arxiv, paper.SemanticScholar, paper.CrossRef}, nil)

	for key, entry := range p.Sources {
		assert.False(t, entry.Failed(), "%s failed: %s", key, entry.Err)
	}
	assert.Len(t, p.Sources, 3)
	assert.Equal(t, "Deep Residual Learning for Image Recognition", p.Title)
	assert.Len(t, p.Authors, 4)
	assert.Equal(t, "2015", p.Year)
	assert.Equal(t, "https://arxiv.org/pdf/1512.03385v1.pdf", p.PDFURL)
	assert.Equal(t, "Computer Vision and Pattern Recognition", p.Venue)
	assert.Equal(t, "10.1109/cvpr.2016.90", p.IDs.DOI)
	assert.Equal(t, "2c03df8b48bf3fa39054345bafabfeff15bfd11d", p.IDs.SemanticScholar)
	assert.Equal(t, []string{"Microsoft Research", "Megvii"}, p.Affiliations)
	assert.Subset(t, p.AutoTags, []string{"auto:arxiv", "auto:semanticscholar", "auto:crossref", "arxiv:cs-cv", "ss:computer-science"})
	assert.Equal(t, fixedNow().UnixMilli(), p.DateFetched[paper.CrossRef])
}
