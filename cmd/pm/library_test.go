package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matsen/papermerge/internal/paper"
)

func TestPapersPath(t *testing.T) {
	assert.Equal(t, "/tmp/papers.jsonl", papersPath("/tmp/papers.jsonl"))

	t.Setenv("PM_PAPERS_FILE", "/data/mine.jsonl")
	assert.Equal(t, "/data/mine.jsonl", papersPath(""))

	t.Setenv("HOME", "/home/reader")
	assert.Equal(t, filepath.Join("/home/reader", "lib.jsonl"), papersPath("~/lib.jsonl"))
}

func TestFilterByTag(t *testing.T) {
	a := paper.New()
	a.Title = "A"
	a.AutoTags = []string{"to-read", "auto:arxiv"}
	b := paper.New()
	b.Title = "B"
	b.AutoTags = []string{"auto:arxiv"}
	papers := []paper.Paper{a, b}

	assert.Len(t, filterByTag(papers, ""), 2)

	got := filterByTag(papers, "To Read")
	assert.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)

	assert.Len(t, filterByTag(papers, "auto:arxiv"), 2)
	assert.Empty(t, filterByTag(papers, "missing"))
}
