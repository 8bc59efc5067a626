package merge

import (
	"slices"

	"github.com/matsen/papermerge/internal/paper"
)

// Rule says how a provider's value for a field combines with the paper's
// current value.
type Rule int

const (
	// FillOnce sets the field only while it is empty.
	FillOnce Rule = iota
	// Override replaces the field whenever the provider offers a value.
	Override
	// Recompute clears the field at the start of every pass and rebuilds it
	// from the providers holding this rule.
	Recompute
)

func (r Rule) String() string {
	switch r {
	case FillOnce:
		return "fill-once"
	case Override:
		return "override"
	case Recompute:
		return "recompute"
	}
	return "unknown"
}

// Field names a Paper field the merge populates.
type Field string

const (
	FieldTitle         Field = "title"
	FieldAlias         Field = "alias"
	FieldYear          Field = "year"
	FieldVenue         Field = "venue"
	FieldAbstract      Field = "abstract"
	FieldTLDR          Field = "tldr"
	FieldPDFURL        Field = "pdfUrl"
	FieldHTMLURL       Field = "htmlUrl"
	FieldNumCitations  Field = "numCitations"
	FieldNumReferences Field = "numReferences"
	FieldAuthors       Field = "authors"
	FieldAffiliations  Field = "affiliations"

	FieldIDArxiv           Field = "ids.arxiv"
	FieldIDSemanticScholar Field = "ids.semanticScholar"
	FieldIDPaperShelf      Field = "ids.paperShelf"
	FieldIDDOI             Field = "ids.doi"
	FieldIDOpenReview      Field = "ids.openReview"
	FieldIDDBLP            Field = "ids.dblp"
	FieldIDMAG             Field = "ids.mag"
)

// Precedence is one row of the precedence table.
type Precedence struct {
	Provider paper.Key
	Field    Field
	Rule     Rule
}

// Table lists every exception to FillOnce. A provider's own identifier is
// authoritative for that scheme; PaperShelf's author list always replaces the
// current one; affiliations are rebuilt from Semantic Scholar on every pass.
var Table = []Precedence{
	{paper.PaperShelf, FieldAuthors, Override},
	{paper.SemanticScholar, FieldAffiliations, Recompute},

	{paper.PaperShelf, FieldIDPaperShelf, Override},
	{paper.Arxiv, FieldIDArxiv, Override},
	{paper.SemanticScholar, FieldIDSemanticScholar, Override},
	{paper.CrossRef, FieldIDDOI, Override},
	{paper.OpenReview, FieldIDOpenReview, Override},
}

// RuleFor returns the rule that governs how provider populates field.
func RuleFor(provider paper.Key, field Field) Rule {
	for _, p := range Table {
		if p.Provider == provider && p.Field == field {
			return p.Rule
		}
	}
	return FillOnce
}

// recomputed returns the fields cleared at the start of every pass.
func recomputed() []Field {
	var out []Field
	for _, p := range Table {
		if p.Rule == Recompute && !slices.Contains(out, p.Field) {
			out = append(out, p.Field)
		}
	}
	return out
}

// accessor binds a Field to the Paper and Contribution members it moves
// between.
type accessor struct {
	isSet   func(p *paper.Paper) bool
	offered func(c *paper.Contribution) bool
	assign  func(p *paper.Paper, c *paper.Contribution)
	clear   func(p *paper.Paper)
}

func text(dst func(*paper.Paper) *string, src func(*paper.Contribution) string) accessor {
	return accessor{
		isSet:   func(p *paper.Paper) bool { return *dst(p) != "" },
		offered: func(c *paper.Contribution) bool { return src(c) != "" },
		assign:  func(p *paper.Paper, c *paper.Contribution) { *dst(p) = src(c) },
		clear:   func(p *paper.Paper) { *dst(p) = "" },
	}
}

func count(dst func(*paper.Paper) *int, src func(*paper.Contribution) int) accessor {
	return accessor{
		isSet:   func(p *paper.Paper) bool { return *dst(p) != 0 },
		offered: func(c *paper.Contribution) bool { return src(c) != 0 },
		assign:  func(p *paper.Paper, c *paper.Contribution) { *dst(p) = src(c) },
		clear:   func(p *paper.Paper) { *dst(p) = 0 },
	}
}

func list[T any](dst func(*paper.Paper) *[]T, src func(*paper.Contribution) []T) accessor {
	return accessor{
		isSet:   func(p *paper.Paper) bool { return len(*dst(p)) > 0 },
		offered: func(c *paper.Contribution) bool { return len(src(c)) > 0 },
		assign:  func(p *paper.Paper, c *paper.Contribution) { *dst(p) = slices.Clone(src(c)) },
		clear:   func(p *paper.Paper) { *dst(p) = []T{} },
	}
}

// fieldOrder is the order fields are evaluated for each provider.
var fieldOrder = []Field{
	FieldIDPaperShelf, FieldIDArxiv, FieldIDSemanticScholar, FieldIDDOI,
	FieldIDOpenReview, FieldIDDBLP, FieldIDMAG,
	FieldTitle, FieldAlias, FieldAuthors, FieldAffiliations, FieldAbstract,
	FieldTLDR, FieldPDFURL, FieldHTMLURL, FieldYear, FieldVenue,
	FieldNumCitations, FieldNumReferences,
}

var accessors = map[Field]accessor{
	FieldTitle:         text(func(p *paper.Paper) *string { return &p.Title }, func(c *paper.Contribution) string { return c.Title }),
	FieldAlias:         text(func(p *paper.Paper) *string { return &p.Alias }, func(c *paper.Contribution) string { return c.Alias }),
	FieldYear:          text(func(p *paper.Paper) *string { return &p.Year }, func(c *paper.Contribution) string { return c.Year }),
	FieldVenue:         text(func(p *paper.Paper) *string { return &p.Venue }, func(c *paper.Contribution) string { return c.Venue }),
	FieldAbstract:      text(func(p *paper.Paper) *string { return &p.Abstract }, func(c *paper.Contribution) string { return c.Abstract }),
	FieldTLDR:          text(func(p *paper.Paper) *string { return &p.TLDR }, func(c *paper.Contribution) string { return c.TLDR }),
	FieldPDFURL:        text(func(p *paper.Paper) *string { return &p.PDFURL }, func(c *paper.Contribution) string { return c.PDFURL }),
	FieldHTMLURL:       text(func(p *paper.Paper) *string { return &p.HTMLURL }, func(c *paper.Contribution) string { return c.HTMLURL }),
	FieldNumCitations:  count(func(p *paper.Paper) *int { return &p.NumCitations }, func(c *paper.Contribution) int { return c.NumCitations }),
	FieldNumReferences: count(func(p *paper.Paper) *int { return &p.NumReferences }, func(c *paper.Contribution) int { return c.NumReferences }),
	FieldAuthors:       list(func(p *paper.Paper) *[]paper.Author { return &p.Authors }, func(c *paper.Contribution) []paper.Author { return c.Authors }),
	FieldAffiliations:  list(func(p *paper.Paper) *[]string { return &p.Affiliations }, func(c *paper.Contribution) []string { return c.Affiliations }),

	FieldIDArxiv:           text(func(p *paper.Paper) *string { return &p.IDs.Arxiv }, func(c *paper.Contribution) string { return c.IDs.Arxiv }),
	FieldIDSemanticScholar: text(func(p *paper.Paper) *string { return &p.IDs.SemanticScholar }, func(c *paper.Contribution) string { return c.IDs.SemanticScholar }),
	FieldIDPaperShelf:      text(func(p *paper.Paper) *string { return &p.IDs.PaperShelf }, func(c *paper.Contribution) string { return c.IDs.PaperShelf }),
	FieldIDDOI:             text(func(p *paper.Paper) *string { return &p.IDs.DOI }, func(c *paper.Contribution) string { return c.IDs.DOI }),
	FieldIDOpenReview:      text(func(p *paper.Paper) *string { return &p.IDs.OpenReview }, func(c *paper.Contribution) string { return c.IDs.OpenReview }),
	FieldIDDBLP:            text(func(p *paper.Paper) *string { return &p.IDs.DBLP }, func(c *paper.Contribution) string { return c.IDs.DBLP }),
	FieldIDMAG:             text(func(p *paper.Paper) *string { return &p.IDs.MAG }, func(c *paper.Contribution) string { return c.IDs.MAG }),
}

// apply folds one contribution into p field by field.
func apply(p *paper.Paper, key paper.Key, c *paper.Contribution) {
	for _, f := range fieldOrder {
		acc := accessors[f]
		if !acc.offered(c) {
			continue
		}
		switch RuleFor(key, f) {
		case FillOnce:
			if !acc.isSet(p) {
				acc.assign(p, c)
			}
		case Override, Recompute:
			acc.assign(p, c)
		}
	}
}
