// Package source defines the contract shared by metadata provider adapters,
// the provider registry, and the helpers adapters use to talk HTTP and to
// disambiguate search results.
package source

import (
	"context"

	"github.com/matsen/papermerge/internal/paper"
)

// Provider is implemented by every metadata provider adapter.
type Provider interface {
	// Search looks papers up by free text or a single paper URL. Providers
	// that cannot search return an empty list and no error.
	Search(ctx context.Context, text string, offset, limit int) ([]paper.Record, error)

	// Fetch resolves one specific paper, trying the most specific identifier
	// in q first and free text last.
	Fetch(ctx context.Context, q paper.Query) (paper.Record, error)
}

// GraphProvider is implemented by providers that can walk the citation graph.
type GraphProvider interface {
	Provider
	References(ctx context.Context, q paper.Query) ([]paper.Record, error)
	Citations(ctx context.Context, q paper.Query) ([]paper.Record, error)
}
