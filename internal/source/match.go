package source

import (
	"regexp"
	"strings"

	"github.com/matsen/papermerge/internal/paper"
)

var nonWord = regexp.MustCompile(`\W`)

// NormalizeForMatch lowercases title and removes every non-word character.
func NormalizeForMatch(title string) string {
	return strings.ToLower(nonWord.ReplaceAllString(title, ""))
}

// CompareTitles reports whether two titles name the same paper.
func CompareTitles(a, b string) bool {
	return NormalizeForMatch(a) == NormalizeForMatch(b)
}

// CompareWithQuery is the title-only comparator: rec matches q when q has
// no title or the normalized titles are equal.
func CompareWithQuery(rec paper.Summary, q paper.Query) bool {
	if q.Title == "" {
		return true
	}
	return CompareTitles(rec.Title, q.Title)
}

// ComparePapers is the generic comparator: titles must match and both sides
// must list the same number of authors.
func ComparePapers(rec paper.Summary, q paper.Query) bool {
	if !CompareTitles(rec.Title, q.Title) {
		return false
	}
	return len(rec.AuthorNames) == len(q.Authors)
}

// BestMatch returns the index of the candidate that best matches q, or -1.
// A title match is required; an equal author count only breaks ties between
// title matches, it never rejects the sole title match.
func BestMatch(candidates []paper.Summary, q paper.Query) int {
	first := -1
	for i, c := range candidates {
		if !CompareTitles(c.Title, q.Title) {
			continue
		}
		if ComparePapers(c, q) {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}

// SearchText turns free text into the plain word query providers expect.
func SearchText(text string) string {
	return strings.ToLower(nonWord.ReplaceAllString(text, " "))
}
