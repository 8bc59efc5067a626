package openreview

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/matsen/papermerge/internal/paper"
)

// SiteURL is the public OpenReview site that relative links resolve against.
const SiteURL = "https://openreview.net"

// Record is an OpenReview note.
type Record struct {
	ID         string   `json:"id"`
	Forum      string   `json:"forum,omitempty"`
	Number     int      `json:"number,omitempty"`
	CDate      int64    `json:"cdate,omitempty"`
	MDate      int64    `json:"mdate,omitempty"`
	Invitation string   `json:"invitation,omitempty"`
	Title      string   `json:"title"`
	Content    *Content `json:"content,omitempty"`
}

// Content is the submission form of a note.
type Content struct {
	Title     Text `json:"title,omitempty"`
	Abstract  Text `json:"abstract,omitempty"`
	Authors   List `json:"authors,omitempty"`
	AuthorIDs List `json:"authorids,omitempty"`
	Keywords  List `json:"keywords,omitempty"`
	TLDR      Text `json:"TL;DR,omitempty"`
	PDF       Text `json:"pdf,omitempty"`
	Code      Text `json:"code,omitempty"`
	Venue     Text `json:"venue,omitempty"`
	VenueID   Text `json:"venueid,omitempty"`
}

// Text is a content string. Notes from the v2 API wrap values as
// {"value": ...}; both forms decode.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := unwrap(data, &s); err != nil {
		return err
	}
	*t = Text(s)
	return nil
}

// List is a content string list, decoded like Text.
type List []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(data []byte) error {
	var s []string
	if err := unwrap(data, &s); err != nil {
		return err
	}
	*l = s
	return nil
}

func unwrap(data []byte, v any) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		if wrapped.Value == nil {
			return nil
		}
		data = wrapped.Value
	}
	return json.Unmarshal(data, v)
}

// PDFURL returns the absolute PDF link of the note, if any.
func (r *Record) PDFURL() string {
	if r.Content == nil || r.Content.PDF == "" {
		return ""
	}
	pdf := string(r.Content.PDF)
	if strings.HasPrefix(pdf, "/") {
		return SiteURL + pdf
	}
	return pdf
}

// Summary implements paper.Record.
func (r *Record) Summary() paper.Summary {
	s := paper.Summary{Title: r.Title}
	if r.Content != nil {
		s.AuthorNames = r.Content.Authors
	}
	return s
}

// Contribution implements paper.Record. Notes without content contribute
// nothing.
func (r *Record) Contribution() (paper.Contribution, bool) {
	if r.Content == nil {
		return paper.Contribution{}, false
	}
	c := paper.Contribution{
		IDs:      paper.IDs{OpenReview: r.ID},
		Title:    r.Title,
		TLDR:     string(r.Content.TLDR),
		Abstract: string(r.Content.Abstract),
		Venue:    string(r.Content.Venue),
		PDFURL:   r.PDFURL(),
	}
	if r.Content.Code != "" {
		c.URLs = append(c.URLs, paper.URL{Type: paper.URLCode, URL: string(r.Content.Code), Desc: "OpenReview (Code)"})
	}
	if r.Forum != "" {
		c.URLs = append(c.URLs, paper.URL{Type: paper.URLWeb, URL: SiteURL + "/forum?id=" + r.Forum, Desc: "OpenReview (Forum)"})
	}
	if c.PDFURL != "" {
		c.URLs = append(c.URLs, paper.URL{Type: paper.URLPDF, URL: c.PDFURL, Desc: "OpenReview (PDF)"})
	}
	for _, kw := range r.Content.Keywords {
		c.Tags = append(c.Tags, "openreview:"+kw)
	}
	return c, true
}
