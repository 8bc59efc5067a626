// Package providers assembles the default provider registry from
// configuration.
package providers

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/matsen/papermerge/internal/config"
	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
	"github.com/matsen/papermerge/internal/source/arxiv"
	"github.com/matsen/papermerge/internal/source/crossref"
	"github.com/matsen/papermerge/internal/source/openreview"
	"github.com/matsen/papermerge/internal/source/s2"
	"github.com/matsen/papermerge/internal/source/shelf"
)

// Options configures the adapters of the default registry.
type Options struct {
	S2APIKey   string
	UserAgent  string
	RateLimits map[string]float64
	HTTPClient *http.Client

	// BaseURLs overrides provider endpoints, keyed by provider.
	BaseURLs map[paper.Key]string
}

// FromConfig derives Options from the global config. Environment overrides
// already applied by config are honored.
func FromConfig(cfg *config.GlobalConfig) Options {
	opts := Options{
		S2APIKey:   config.GetConfigValue("S2_API_KEY", cfg.S2APIKey),
		UserAgent:  cfg.UserAgent,
		RateLimits: cfg.RateLimits,
		BaseURLs:   map[paper.Key]string{},
	}
	if cfg.ShelfBaseURL != "" {
		opts.BaseURLs[paper.PaperShelf] = cfg.ShelfBaseURL
	}
	return opts
}

func (o Options) client(key paper.Key, name string, extra ...source.ClientOption) *source.Client {
	copts := []source.ClientOption{
		source.WithUserAgent(o.UserAgent),
		source.WithRateLimit(o.RateLimits[string(key)]),
	}
	if o.HTTPClient != nil {
		copts = append(copts, source.WithHTTPClient(o.HTTPClient))
	}
	return source.NewClient(name, append(copts, extra...)...)
}

func (o Options) baseURL(key paper.Key, fallback string) string {
	if u := o.BaseURLs[key]; u != "" {
		return strings.TrimRight(u, "/")
	}
	return fallback
}

// NewRegistry builds the default registry: paperShelf, arxiv,
// semanticScholar, crossRef, openReview, in that order.
func NewRegistry(o Options) (*source.Registry, error) {
	return source.NewRegistry(
		source.Entry{
			Key:      paper.PaperShelf,
			Name:     shelf.Name,
			URL:      "https://papershelf.app",
			CanFetch: true,
			Provider: shelf.New(
				shelf.WithBaseURL(o.baseURL(paper.PaperShelf, shelf.BaseURL)),
				shelf.WithClient(o.client(paper.PaperShelf, shelf.Name)),
			),
		},
		source.Entry{
			Key:       paper.Arxiv,
			Name:      arxiv.Name,
			URL:       "https://arxiv.org",
			CanFetch:  true,
			CanSearch: true,
			Provider: arxiv.New(
				arxiv.WithBaseURL(o.baseURL(paper.Arxiv, arxiv.BaseURL)),
				arxiv.WithClient(o.client(paper.Arxiv, arxiv.Name)),
			),
		},
		source.Entry{
			Key:          paper.SemanticScholar,
			Name:         s2.Name,
			URL:          "https://www.semanticscholar.org",
			CanFetch:     true,
			CanSearch:    true,
			Deselectable: true,
			Provider: s2.New(
				s2.WithBaseURL(o.baseURL(paper.SemanticScholar, s2.BaseURL)),
				s2.WithClient(o.client(paper.SemanticScholar, s2.Name,
					source.WithHeader("x-api-key", o.S2APIKey))),
			),
		},
		source.Entry{
			Key:          paper.CrossRef,
			Name:         crossref.Name,
			URL:          "https://www.crossref.org",
			CanFetch:     true,
			Deselectable: true,
			Provider: crossref.New(
				crossref.WithBaseURL(o.baseURL(paper.CrossRef, crossref.BaseURL)),
				crossref.WithClient(o.client(paper.CrossRef, crossref.Name)),
			),
		},
		source.Entry{
			Key:          paper.OpenReview,
			Name:         openreview.Name,
			URL:          openreview.SiteURL,
			CanFetch:     true,
			Deselectable: true,
			Provider: openreview.New(
				openreview.WithBaseURL(o.baseURL(paper.OpenReview, openreview.BaseURL)),
				openreview.WithClient(o.client(paper.OpenReview, openreview.Name)),
			),
		},
	)
}

// Select resolves requested provider keys against the candidates (for
// example reg.Fetchable()). An empty request selects every candidate.
// Providers that cannot be deselected are always included. The result
// follows registry order.
func Select(reg *source.Registry, requested []string, candidates []paper.Key) ([]paper.Key, error) {
	if len(requested) == 0 {
		return slices.Clone(candidates), nil
	}

	want := make(map[paper.Key]bool, len(requested))
	for _, name := range requested {
		key := paper.Key(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := reg.Lookup(key); !ok {
			return nil, fmt.Errorf("unknown provider %q (known: %s)", name, joinKeys(reg.Keys()))
		}
		if !slices.Contains(candidates, key) {
			return nil, fmt.Errorf("provider %q cannot be used here", name)
		}
		want[key] = true
	}
	for _, key := range reg.Required() {
		want[key] = true
	}

	var out []paper.Key
	for _, key := range reg.Keys() {
		if want[key] && slices.Contains(candidates, key) {
			out = append(out, key)
		}
	}
	return out, nil
}

func joinKeys(keys []paper.Key) string {
	s := make([]string, len(keys))
	for i, k := range keys {
		s[i] = string(k)
	}
	return strings.Join(s, ", ")
}
