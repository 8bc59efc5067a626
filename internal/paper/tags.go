package paper

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TagNamespaceSep separates a tag's namespace from its value.
const TagNamespaceSep = ":"

// stripMarks decomposes accented letters and drops the combining marks, so
// "Zürich" becomes "Zurich" before the charset filter runs.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTag lowercases tag, turns spaces and dots into dashes and drops
// every character outside [a-z0-9-:].
func NormalizeTag(tag string) string {
	if folded, _, err := transform.String(stripMarks, tag); err == nil {
		tag = folded
	}
	tag = strings.ToLower(tag)

	var b strings.Builder
	b.Grow(len(tag))
	for _, r := range tag {
		switch {
		case r == ' ' || r == '.':
			b.WriteByte('-')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == ':':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsNamespaced reports whether tag is an auto-derived "<namespace>:<value>" tag.
func IsNamespaced(tag string) bool {
	return strings.Contains(tag, TagNamespaceSep)
}

// AppendTags normalizes newTags and appends those not already present,
// preserving the order of first appearance.
func AppendTags(current []string, newTags ...string) []string {
	out := make([]string, 0, len(current)+len(newTags))
	seen := make(map[string]bool, len(current)+len(newTags))
	add := func(t string) {
		if seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range current {
		add(t)
	}
	for _, t := range newTags {
		if n := NormalizeTag(t); n != "" {
			add(n)
		}
	}
	return out
}

// RemoveTag returns tags without any occurrence of tag.
func RemoveTag(tags []string, tag string) []string {
	return slices.DeleteFunc(slices.Clone(tags), func(t string) bool { return t == tag })
}

// UserTags returns the tags without a namespace.
func UserTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !IsNamespaced(t) {
			out = append(out, t)
		}
	}
	return out
}
