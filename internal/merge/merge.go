// Package merge folds per-provider records into one canonical paper.
//
// Every function here is pure: it returns a new paper.Paper and never
// modifies its argument. The merged fields are a projection of
// Paper.Sources, so running Populate again over the same sources yields the
// same paper.
package merge

import (
	"strings"
	"time"

	"github.com/matsen/papermerge/internal/paper"
)

// Merge attaches entry as the record of provider key and re-derives the
// merged fields. An error entry is stored without repopulating.
func Merge(p paper.Paper, key paper.Key, entry paper.Entry, at time.Time) paper.Paper {
	out := p.Clone()
	out.Sources[key] = entry
	out.DateFetched[key] = at.UnixMilli()
	if entry.Failed() {
		return out
	}
	return populate(out)
}

// Populate re-derives the merged fields of p from its sources.
func Populate(p paper.Paper) paper.Paper {
	return populate(p.Clone())
}

// Single wraps one search result into a paper holding only that source.
func Single(key paper.Key, rec paper.Record, at time.Time) paper.Paper {
	return Merge(paper.New(), key, paper.RecordEntry(rec), at)
}

// populate works on a private copy.
func populate(p paper.Paper) paper.Paper {
	p.AutoTags = paper.UserTags(p.AutoTags)
	p.URLs = []paper.URL{}
	for _, f := range recomputed() {
		accessors[f].clear(&p)
	}

	for _, key := range p.SourceKeys() {
		entry := p.Sources[key]
		if entry.Failed() {
			continue
		}
		c, ok := entry.Record.Contribution()
		if !ok {
			continue
		}
		apply(&p, key, &c)
		p.AutoTags = paper.AppendTags(p.AutoTags, c.Tags...)
		p.AutoTags = paper.AppendTags(p.AutoTags, "auto:"+string(key))
		p.URLs = append(p.URLs, c.URLs...)
	}

	return refresh(p)
}

// refresh upgrades insecure PDF links and drops empty or repeated URLs,
// keeping the first occurrence.
func refresh(p paper.Paper) paper.Paper {
	p.PDFURL = secure(p.PDFURL)

	urls := make([]paper.URL, 0, len(p.URLs))
	seen := make(map[string]bool, len(p.URLs))
	for _, u := range p.URLs {
		if u.Type == paper.URLPDF {
			u.URL = secure(u.URL)
		}
		if u.URL == "" || seen[u.URL] {
			continue
		}
		seen[u.URL] = true
		urls = append(urls, u)
	}
	p.URLs = urls
	return p
}

func secure(link string) string {
	if rest, ok := strings.CutPrefix(link, "http:"); ok {
		return "https:" + rest
	}
	return link
}
