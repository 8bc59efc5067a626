package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
)

func serveFixture(t *testing.T, w http.ResponseWriter, name string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/atom+xml")
	_, _ = w.Write(data)
}

// newTestAdapter serves the arXiv fixtures the way the real API answers.
func newTestAdapter(t *testing.T) (*Adapter, *[]string) {
	t.Helper()
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		requests = append(requests, r.URL.RawQuery)
		switch {
		case q.Get("id_list") == "1512.03385" && q.Get("start") == "0":
			serveFixture(t, w, "resnet.xml")
		case q.Get("id_list") == "bogus":
			serveFixture(t, w, "error.xml")
		case q.Get("id_list") != "":
			serveFixture(t, w, "empty.xml")
		case q.Get("search_query") == "imagenet":
			serveFixture(t, w, "imagenet.xml")
		case q.Get("search_query") == "deep residual learning for image recognition":
			serveFixture(t, w, "resnet.xml")
		default:
			serveFixture(t, w, "empty.xml")
		}
	}))
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL)), &requests
}

func TestSearchByURLReturnsSingleRecord(t *testing.T) {
	a, requests := newTestAdapter(t)

	recs, err := a.Search(context.Background(), "https://arxiv.org/abs/1512.03385", 0, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0].(*Record)
	assert.Equal(t, "1512.03385", r.ID)
	assert.Equal(t, "Deep Residual Learning for Image Recognition", r.Title)
	assert.Equal(t, []string{"Kaiming He", "Xiangyu Zhang", "Shaoqing Ren", "Jian Sun"}, r.Authors)
	assert.Equal(t, []string{"cs.CV"}, r.Categories)
	assert.Equal(t, "http://arxiv.org/pdf/1512.03385v1.pdf", r.PDFURL)
	assert.Equal(t, "http://ar5iv.org/abs/1512.03385v1", r.HTMLURL)
	assert.Equal(t, 2015, r.Updated.Year())
	assert.NotContains(t, r.Abstract, "\n")

	require.Len(t, *requests, 1)
	assert.Contains(t, (*requests)[0], "id_list=1512.03385")
	assert.Contains(t, (*requests)[0], "max_results=1")
}

func TestSearchByURLPastFirstPageIsEmpty(t *testing.T) {
	a, _ := newTestAdapter(t)

	recs, err := a.Search(context.Background(), "https://arxiv.org/abs/1512.03385", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSearchByKeywords(t *testing.T) {
	a, _ := newTestAdapter(t)

	recs, err := a.Search(context.Background(), "ImageNet", 0, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	first := recs[0].(*Record)
	assert.Equal(t, "1409.0575", first.ID)
	assert.Equal(t, "ImageNet Large Scale Visual Recognition Challenge", first.Title)
	assert.Equal(t, "IJCV 2015", first.JournalRef)
	assert.Equal(t, "10.1007/s11263-015-0816-y", first.DOI)
	assert.Equal(t, []string{"cs.CV", "I.4.8"}, first.Categories)

	assert.Equal(t, "hep-th/9901001", recs[1].(*Record).ID)
}

func TestSearchSkipsErrorEntries(t *testing.T) {
	a, _ := newTestAdapter(t)

	recs, err := a.Search(context.Background(), "arxiv:bogus", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFetch(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query paper.Query
	}{
		{"by url", paper.Query{URL: "https://arxiv.org/pdf/1512.03385v1.pdf"}},
		{"by id", paper.Query{ArxivID: "1512.03385"}},
		{"non-arxiv url falls through to id", paper.Query{URL: "https://example.com/x", ArxivID: "1512.03385"}},
		{"by title", paper.Query{Title: "Deep residual learning for image recognition"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := a.Fetch(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, "1512.03385", rec.(*Record).ID)
		})
	}
}

func TestFetchErrors(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	_, err := a.Fetch(ctx, paper.Query{ArxivID: "9999.99999"})
	assert.True(t, source.IsNotFound(err))

	_, err = a.Fetch(ctx, paper.Query{Title: "A title nobody wrote"})
	assert.True(t, source.IsNotFound(err))

	_, err = a.Fetch(ctx, paper.Query{DOI: "10.1/x"})
	assert.True(t, source.IsInvalidQuery(err))
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).Search(context.Background(), "anything", 0, 10)
	assert.True(t, source.IsUnavailable(err))
}

func TestContribution(t *testing.T) {
	a, _ := newTestAdapter(t)
	rec, err := a.Fetch(context.Background(), paper.Query{ArxivID: "1512.03385"})
	require.NoError(t, err)

	c, ok := rec.Contribution()
	require.True(t, ok)
	assert.Equal(t, "1512.03385", c.IDs.Arxiv)
	assert.Equal(t, "2015", c.Year)
	assert.Len(t, c.Authors, 4)
	assert.Equal(t, []string{"arXiv:cs.CV"}, c.Tags)
	require.Len(t, c.URLs, 2)
	assert.Equal(t, paper.URLPDF, c.URLs[0].Type)
	assert.Equal(t, "Ar5iv", c.URLs[1].Desc)
}

func TestPDFURL(t *testing.T) {
	assert.Equal(t, "https://arxiv.org/pdf/1905.11946.pdf", PDFURL("1905.11946"))
}
