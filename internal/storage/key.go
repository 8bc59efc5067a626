package storage

import (
	"strings"

	"github.com/matsen/papermerge/internal/paper"
)

type scheme struct {
	name string
	get  func(paper.IDs) string
}

// schemes lists identifier schemes in the order they are tried as keys.
var schemes = []scheme{
	{"paperShelf", func(ids paper.IDs) string { return ids.PaperShelf }},
	{"arxiv", func(ids paper.IDs) string { return ids.Arxiv }},
	{"semanticScholar", func(ids paper.IDs) string { return ids.SemanticScholar }},
	{"doi", func(ids paper.IDs) string { return strings.ToLower(ids.DOI) }},
	{"openReview", func(ids paper.IDs) string { return ids.OpenReview }},
	{"dblp", func(ids paper.IDs) string { return ids.DBLP }},
	{"mag", func(ids paper.IDs) string { return ids.MAG }},
}

// Key returns "<scheme>:<id>" for the first identifier p carries.
func Key(p paper.Paper) (string, bool) {
	for _, s := range schemes {
		if id := s.get(p.IDs); id != "" {
			return s.name + ":" + id, true
		}
	}
	return "", false
}

// Find returns the index of the first stored paper sharing an identifier
// with p in any scheme.
func Find(papers []paper.Paper, p paper.Paper) (int, bool) {
	for i, stored := range papers {
		for _, s := range schemes {
			id := s.get(p.IDs)
			if id != "" && s.get(stored.IDs) == id {
				return i, true
			}
		}
	}
	return -1, false
}
