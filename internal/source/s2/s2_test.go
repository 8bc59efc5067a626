package s2

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
)

const resnetID = "2c03df8b48bf3fa39054345bafabfeff15bfd11d"

func serveFixture(t *testing.T, w http.ResponseWriter, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func newTestAdapter(t *testing.T) (*Adapter, *[]*http.Request) {
	t.Helper()
	var requests []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r)
		fields := r.URL.Query().Get("fields")
		switch r.URL.Path {
		case "/paper/search":
			serveFixture(t, w, "search.json")
		case "/paper/arxiv:1512.03385", "/paper/" + resnetID, "/paper/DOI:10.1109/cvpr.2016.90":
			switch {
			case strings.HasPrefix(fields, "references."):
				serveFixture(t, w, "references.json")
			case strings.HasPrefix(fields, "citations."):
				serveFixture(t, w, "citations.json")
			default:
				serveFixture(t, w, "resnet.json")
			}
		default:
			http.Error(w, `{"error":"Paper not found"}`, http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	client := source.NewClient(Name, source.WithHeader("x-api-key", "test-key"))
	return New(WithBaseURL(srv.URL), WithClient(client)), &requests
}

func TestFetchByIdentifier(t *testing.T) {
	a, requests := newTestAdapter(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query paper.Query
	}{
		{"arxiv id", paper.Query{ArxivID: "1512.03385"}},
		{"s2 id", paper.Query{SemanticScholarID: resnetID}},
		{"doi", paper.Query{DOI: "https://doi.org/10.1109/CVPR.2016.90"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := a.Fetch(ctx, tt.query)
			require.NoError(t, err)
			r := rec.(*Record)
			assert.Equal(t, "Deep Residual Learning for Image Recognition", r.Title)
			assert.Len(t, r.Authors, 4)
			require.NotNil(t, r.TLDR)
		})
	}

	last := (*requests)[len(*requests)-1]
	assert.Equal(t, "test-key", last.Header.Get("x-api-key"))
	assert.Contains(t, last.URL.Query().Get("fields"), "tldr")
}

func TestFetchPrefersArxivID(t *testing.T) {
	a, requests := newTestAdapter(t)

	_, err := a.Fetch(context.Background(), paper.Query{ArxivID: "1512.03385", SemanticScholarID: "ffff", DOI: "10.1/x"})
	require.NoError(t, err)
	require.Len(t, *requests, 1)
	assert.Equal(t, "/paper/arxiv:1512.03385", (*requests)[0].URL.Path)
}

func TestFetchEscapesDOI(t *testing.T) {
	a, requests := newTestAdapter(t)

	_, err := a.Fetch(context.Background(), paper.Query{DOI: "10.1000/a#b?c"})
	assert.True(t, source.IsNotFound(err))
	require.Len(t, *requests, 1)
	assert.Equal(t, "/paper/DOI:10.1000/a#b?c", (*requests)[0].URL.Path)
	assert.Contains(t, (*requests)[0].URL.Query().Get("fields"), "tldr")
}

func TestFetchByTitleUsesAuthorCountAsTieBreaker(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()
	title := "Human-level control through deep reinforcement learning"

	rec, err := a.Fetch(ctx, paper.Query{Title: title, Authors: []string{"Volodymyr Mnih", "K. Kavukcuoglu", "David Silver"}})
	require.NoError(t, err)
	assert.Equal(t, "340f48901f72278f6bf78a04ee5b01df208cc508", rec.(*Record).PaperID)

	rec, err = a.Fetch(ctx, paper.Query{Title: title, Authors: []string{"a", "b", "c", "d", "e"}})
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", rec.(*Record).PaperID, "first title match wins without a count match")

	_, err = a.Fetch(ctx, paper.Query{Title: "Playing Atari", Authors: []string{"x"}})
	assert.True(t, source.IsNotFound(err))
}

func TestFetchErrors(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	_, err := a.Fetch(ctx, paper.Query{Title: "Only a title"})
	assert.True(t, source.IsInvalidQuery(err))

	_, err = a.Fetch(ctx, paper.Query{})
	assert.True(t, source.IsInvalidQuery(err))

	_, err = a.Fetch(ctx, paper.Query{ArxivID: "0000.00000"})
	assert.True(t, source.IsNotFound(err))
}

func TestSearch(t *testing.T) {
	a, requests := newTestAdapter(t)

	recs, err := a.Search(context.Background(), "Deep RL: Atari", 20, 10)
	require.NoError(t, err)
	assert.Len(t, recs, 3)

	q := (*requests)[0].URL.Query()
	assert.Equal(t, "deep rl  atari", q.Get("query"))
	assert.Equal(t, "20", q.Get("offset"))
	assert.Equal(t, "10", q.Get("limit"))
}

func TestGraph(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()
	q := paper.Query{ArxivID: "1512.03385"}

	refs, err := a.References(ctx, q)
	require.NoError(t, err)
	require.Len(t, refs, 1, "entries without a title or authors are dropped")
	assert.Equal(t, "Very Deep Convolutional Networks for Large-Scale Image Recognition", refs[0].Summary().Title)

	cites, err := a.Citations(ctx, paper.Query{SemanticScholarID: resnetID})
	require.NoError(t, err)
	require.Len(t, cites, 1)
	assert.Equal(t, 30000, cites[0].Summary().CitationCount)

	_, err = a.References(ctx, paper.Query{DOI: "10.1109/cvpr.2016.90"})
	assert.True(t, source.IsInvalidQuery(err), "a DOI alone cannot identify a paper for graph traversal")
}

func TestContribution(t *testing.T) {
	a, _ := newTestAdapter(t)
	rec, err := a.Fetch(context.Background(), paper.Query{ArxivID: "1512.03385"})
	require.NoError(t, err)

	c, ok := rec.Contribution()
	require.True(t, ok)
	assert.Equal(t, paper.IDs{
		SemanticScholar: resnetID,
		Arxiv:           "1512.03385",
		DOI:             "10.1109/cvpr.2016.90",
		MAG:             "2949650786",
		DBLP:            "conf/cvpr/HeZRS16",
	}, c.IDs)
	assert.Equal(t, "2015", c.Year)
	assert.Equal(t, "Residual networks are easier to optimize.", c.TLDR)
	assert.Equal(t, "http://arxiv.org/pdf/1512.03385", c.PDFURL)
	assert.Equal(t, []string{"Microsoft Research", "Megvii"}, c.Affiliations)
	assert.Equal(t, []string{
		"affiliated:Microsoft Research",
		"affiliated:Megvii",
		"ss:Computer Science",
		"ss:Computer Science",
		"ss:Computer Science",
	}, c.Tags)
	require.Len(t, c.URLs, 1)
	assert.Equal(t, "Semantic Scholar", c.URLs[0].Desc)
	assert.Equal(t, 150000, c.NumCitations)
}

func TestContributionRequiresPaperID(t *testing.T) {
	_, ok := (&Record{Title: "stub"}).Contribution()
	assert.False(t, ok)
}

func TestPreprintVenueTag(t *testing.T) {
	c, ok := (&Record{PaperID: "x", Venue: "ArXiv"}).Contribution()
	require.True(t, ok)
	assert.Contains(t, c.Tags, "auto:preprint")
}

func TestNormalizeDOI(t *testing.T) {
	assert.Equal(t, "10.1038/nature12373", NormalizeDOI("https://doi.org/10.1038/Nature12373"))
	assert.Equal(t, "10.1038/nature12373", NormalizeDOI("doi:10.1038/nature12373"))
	assert.True(t, IsPaperID(resnetID))
	assert.False(t, IsPaperID("1512.03385"))
}

func TestPaperIdentifierString(t *testing.T) {
	assert.Equal(t, "arxiv:1512.03385", PaperIdentifier{Type: "ARXIV", Value: "1512.03385"}.String())
	assert.Equal(t, resnetID, PaperIdentifier{Type: "S2", Value: resnetID}.String())
	assert.Equal(t, "DOI:10.1/x", PaperIdentifier{Type: "DOI", Value: "10.1/x"}.String())
}
