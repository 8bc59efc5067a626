// Package paper defines the canonical, source-independent paper record and
// the query bundle used to look papers up at external providers.
package paper

import (
	"maps"
	"regexp"
	"slices"
)

// Key identifies a metadata provider.
type Key string

// Known provider keys.
const (
	PaperShelf      Key = "paperShelf"
	Arxiv           Key = "arxiv"
	SemanticScholar Key = "semanticScholar"
	CrossRef        Key = "crossRef"
	OpenReview      Key = "openReview"
)

// Priority is the order in which provider records are folded into a Paper
// during a merge pass. It matches the default registry order.
var Priority = []Key{PaperShelf, Arxiv, SemanticScholar, CrossRef, OpenReview}

// Author is a paper author as displayed.
type Author struct {
	FullName string `json:"fullName"`
}

// URLType classifies an entry in Paper.URLs.
type URLType string

const (
	URLPDF    URLType = "pdf"
	URLHTML   URLType = "html"
	URLCode   URLType = "code"
	URLSlides URLType = "slides"
	URLWeb    URLType = "web"
	URLVideo  URLType = "video"
	URLOther  URLType = "other"
)

// URL is a typed link to some rendition of the paper.
type URL struct {
	Type URLType `json:"type"`
	URL  string  `json:"url"`
	Desc string  `json:"desc"`
}

// IDs holds the identifiers known for a paper. Empty fields are unknown.
type IDs struct {
	SemanticScholar string `json:"semanticScholar,omitempty"`
	PaperShelf      string `json:"paperShelf,omitempty"`
	DOI             string `json:"doi,omitempty"`
	Arxiv           string `json:"arxiv,omitempty"`
	OpenReview      string `json:"openReview,omitempty"`
	DBLP            string `json:"dblp,omitempty"`
	MAG             string `json:"mag,omitempty"`
}

// Paper is the merged cross-provider record.
//
// A Paper is treated as a value: functions that derive a new state return a
// new Paper and leave their argument untouched. Use Clone before mutating a
// Paper obtained from elsewhere.
type Paper struct {
	IDs           IDs    `json:"ids"`
	Title         string `json:"title,omitempty"`
	Alias         string `json:"alias,omitempty"`
	Year          string `json:"year,omitempty"`
	Venue         string `json:"venue,omitempty"`
	NumCitations  int    `json:"numCitations,omitempty"`
	NumReferences int    `json:"numReferences,omitempty"`
	PDFURL        string `json:"pdfUrl,omitempty"`
	HTMLURL       string `json:"htmlUrl,omitempty"`
	Abstract      string `json:"abstract,omitempty"`
	TLDR          string `json:"tldr,omitempty"`

	Authors      []Author `json:"authors"`
	Affiliations []string `json:"affiliations"`
	AutoTags     []string `json:"autoTags"`

	// Sources records what each provider returned, or the error it failed with.
	Sources     map[Key]Entry `json:"sources"`
	DateFetched map[Key]int64 `json:"dateFetched"` // Unix milliseconds

	URLs []URL `json:"urls"`
}

// New returns an empty Paper with all collections initialized.
func New() Paper {
	return Paper{
		Authors:      []Author{},
		Affiliations: []string{},
		AutoTags:     []string{},
		Sources:      map[Key]Entry{},
		DateFetched:  map[Key]int64{},
		URLs:         []URL{},
	}
}

// Clone returns a deep copy of p. Source records are shared, they are never
// modified after being attached.
func (p Paper) Clone() Paper {
	c := p
	c.Authors = cloneOrEmpty(p.Authors)
	c.Affiliations = cloneOrEmpty(p.Affiliations)
	c.AutoTags = cloneOrEmpty(p.AutoTags)
	c.URLs = cloneOrEmpty(p.URLs)
	c.Sources = make(map[Key]Entry, len(p.Sources))
	maps.Copy(c.Sources, p.Sources)
	c.DateFetched = make(map[Key]int64, len(p.DateFetched))
	maps.Copy(c.DateFetched, p.DateFetched)
	return c
}

func cloneOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}

// AuthorNames returns the authors' full names in order.
func (p Paper) AuthorNames() []string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		names[i] = a.FullName
	}
	return names
}

// SourceKeys returns the keys present in Sources in priority order, followed
// by any unknown keys in lexical order.
func (p Paper) SourceKeys() []Key {
	keys := make([]Key, 0, len(p.Sources))
	for _, k := range Priority {
		if _, ok := p.Sources[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []Key
	for k := range p.Sources {
		if !slices.Contains(Priority, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

// MergeIDs overlays the identifiers set in b on a. Identifiers only b
// lacks are kept.
func MergeIDs(a, b IDs) IDs {
	overlay(&a.SemanticScholar, b.SemanticScholar)
	overlay(&a.PaperShelf, b.PaperShelf)
	overlay(&a.DOI, b.DOI)
	overlay(&a.Arxiv, b.Arxiv)
	overlay(&a.OpenReview, b.OpenReview)
	overlay(&a.DBLP, b.DBLP)
	overlay(&a.MAG, b.MAG)
	return a
}

func overlay(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// MergePapers overlays b on a: scalar fields and identifiers of b win when
// set, a's user tags survive, and the source maps are unioned with b's
// entries taking precedence.
func MergePapers(a, b Paper) Paper {
	out := a.Clone()
	out.IDs = MergeIDs(a.IDs, b.IDs)
	overlay(&out.Title, b.Title)
	overlay(&out.Alias, b.Alias)
	overlay(&out.Year, b.Year)
	overlay(&out.Venue, b.Venue)
	overlay(&out.PDFURL, b.PDFURL)
	overlay(&out.HTMLURL, b.HTMLURL)
	overlay(&out.Abstract, b.Abstract)
	overlay(&out.TLDR, b.TLDR)
	if b.NumCitations != 0 {
		out.NumCitations = b.NumCitations
	}
	if b.NumReferences != 0 {
		out.NumReferences = b.NumReferences
	}
	if len(b.Authors) > 0 {
		out.Authors = slices.Clone(b.Authors)
	}
	if len(b.Affiliations) > 0 {
		out.Affiliations = slices.Clone(b.Affiliations)
	}
	if len(b.AutoTags) > 0 {
		out.AutoTags = AppendTags(UserTags(a.AutoTags), b.AutoTags...)
	}
	if len(b.URLs) > 0 {
		out.URLs = slices.Clone(b.URLs)
	}
	maps.Copy(out.Sources, b.Sources)
	maps.Copy(out.DateFetched, b.DateFetched)
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeTitle replaces every run of whitespace with a single space.
func NormalizeTitle(title string) string {
	return whitespaceRun.ReplaceAllString(title, " ")
}
