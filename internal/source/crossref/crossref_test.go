package crossref

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

func newTestAdapter(t *testing.T) (*Adapter, *[]string) {
	t.Helper()
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		var name string
		switch r.URL.Path {
		case "/works/10.1109/CVPR.2016.90":
			name = "work.json"
		case "/works/10.1000/pending":
			name = "pending.json"
		case "/works":
			name = "works.json"
		default:
			http.Error(w, "Resource not found.", http.StatusNotFound)
			return
		}
		data, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL)), &queries
}

func TestFetchByDOI(t *testing.T) {
	a, _ := newTestAdapter(t)

	rec, err := a.Fetch(context.Background(), paper.Query{DOI: "10.1109/CVPR.2016.90", Title: "ignored"})
	require.NoError(t, err)
	r := rec.(*Record)

	assert.Equal(t, "10.1109/cvpr.2016.90", r.DOI)
	assert.Equal(t, "Deep Residual Learning for Image Recognition", r.Title)
	assert.Equal(t, 120000, r.CitationCount)
	require.NotNil(t, r.Event)
	assert.Equal(t, []int{2016, 6, 27}, r.Event.Start)
	assert.Equal(t, []int{2016, 6}, r.Issued)
	assert.Equal(t, "Kaiming He", r.Authors[0].FullName())
	assert.Equal(t, []string{"Microsoft Research"}, r.Authors[0].Affiliation)
	assert.Len(t, r.Links, 2)
	assert.Equal(t, "2017-06-22T17:40:03Z", r.Deposited)
}

func TestFetchByDOIFailures(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	_, err := a.Fetch(ctx, paper.Query{DOI: "10.1000/missing"})
	assert.True(t, source.IsNotFound(err))

	_, err = a.Fetch(ctx, paper.Query{DOI: "10.1000/pending"})
	assert.True(t, source.IsNotFound(err))
}

func TestFetchByDOIEscapesReservedCharacters(t *testing.T) {
	const doi = "10.1002/(sici)1097-4636(199907)46:1<1::aid-jbm1>3.0.co;2-#"
	var path, rawPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, rawPath = r.URL.Path, r.URL.EscapedPath()
		if r.URL.Path != "/works/"+doi {
			http.Error(w, "Resource not found.", http.StatusNotFound)
			return
		}
		data, err := os.ReadFile(filepath.Join("testdata", "work.json"))
		require.NoError(t, err)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	rec, err := New(WithBaseURL(srv.URL)).Fetch(context.Background(), paper.Query{DOI: doi})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "/works/"+doi, path)
	assert.Contains(t, rawPath, "co%3B2-%23")

	_, err = New(WithBaseURL(srv.URL)).Fetch(context.Background(), paper.Query{DOI: "10.1000/a#b"})
	assert.True(t, source.IsNotFound(err), "a truncated DOI must not resolve")
}

func TestFetchByTitle(t *testing.T) {
	a, queries := newTestAdapter(t)
	ctx := context.Background()

	rec, err := a.Fetch(ctx, paper.Query{
		Title:   "Human-level control through deep reinforcement learning.",
		Authors: []string{"V. Mnih", "K. Kavukcuoglu"},
	})
	require.NoError(t, err)
	assert.Equal(t, "10.1038/nature14236", rec.(*Record).DOI)
	assert.Contains(t, (*queries)[0], "rows=5")

	_, err = a.Fetch(ctx, paper.Query{Title: "Not indexed anywhere", Authors: []string{"x"}})
	assert.True(t, source.IsNotFound(err))
}

func TestFetchNeedsDOIOrTitleWithAuthors(t *testing.T) {
	a, queries := newTestAdapter(t)

	_, err := a.Fetch(context.Background(), paper.Query{Title: "Only a title"})
	assert.True(t, source.IsInvalidQuery(err))
	assert.Empty(t, *queries)
}

func TestSearchIsEmpty(t *testing.T) {
	a, queries := newTestAdapter(t)

	recs, err := a.Search(context.Background(), "residual", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Empty(t, *queries)
}

func TestContribution(t *testing.T) {
	a, _ := newTestAdapter(t)
	rec, err := a.Fetch(context.Background(), paper.Query{DOI: "10.1109/CVPR.2016.90"})
	require.NoError(t, err)

	c, ok := rec.Contribution()
	require.True(t, ok)
	assert.Equal(t, "10.1109/cvpr.2016.90", c.IDs.DOI)
	assert.Equal(t, "2016 IEEE Conference on Computer Vision and Pattern Recognition (CVPR)", c.Venue)
	assert.Equal(t, "2016", c.Year)
	assert.Equal(t, 41, c.NumReferences)
	assert.Empty(t, c.Title, "CrossRef never supplies titles")
	assert.Empty(t, c.Authors)
	require.Len(t, c.URLs, 1)
	assert.Equal(t, paper.URL{Type: paper.URLOther, URL: "http://dx.doi.org/10.1109/cvpr.2016.90", Desc: "CrossRef"}, c.URLs[0])
}

func TestVenueFallsBackToContainerTitle(t *testing.T) {
	r := &Record{ContainerTitle: []string{"Nature", "Nat."}, Issued: []int{0}}
	c, ok := r.Contribution()
	require.True(t, ok)
	assert.Equal(t, "Nature", c.Venue)
	assert.Empty(t, c.Year)
}
