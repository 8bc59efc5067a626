// Package fetch orchestrates provider lookups: it decides which providers to
// ask and in what order, isolates their failures, and folds their records
// into canonical papers through the merge engine.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matsen/papermerge/internal/merge"
	"github.com/matsen/papermerge/internal/paper"
	"github.com/matsen/papermerge/internal/source"
)

// ProgressFunc receives the paper built so far and a status message before
// each provider is asked.
type ProgressFunc func(p paper.Paper, msg string)

// BatchFunc receives one provider's search results as soon as they arrive.
type BatchFunc func(papers []paper.Paper, key paper.Key)

// Orchestrator runs fetches and searches against a provider registry.
type Orchestrator struct {
	registry *source.Registry
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProviderTimeout bounds every individual provider call. Zero means no
// bound beyond the caller's context.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = d
	}
}

// WithClock sets the time source used for DateFetched stamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator over registry.
func New(registry *source.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Order sorts keys so providers whose native id is already known in q come
// first: an arXiv id weighs 1, a Semantic Scholar id weighs 2. Ties keep
// their input order. The input slice is not modified.
func Order(q paper.Query, keys []paper.Key) []paper.Key {
	weight := func(k paper.Key) int {
		switch {
		case k == paper.Arxiv && q.ArxivID != "":
			return 1
		case k == paper.SemanticScholar && q.SemanticScholarID != "":
			return 2
		}
		return 0
	}
	out := slices.Clone(keys)
	slices.SortStableFunc(out, func(a, b paper.Key) int {
		return weight(b) - weight(a)
	})
	return out
}

// FetchPaper asks each provider in keys, one after another, for the paper q
// describes. Every provider sees the identifiers discovered by the ones
// before it. A failing provider is recorded as an error entry in the
// returned paper's sources and never stops the others; keys not in the
// registry are skipped.
func (o *Orchestrator) FetchPaper(ctx context.Context, q paper.Query, keys []paper.Key, onProgress ProgressFunc) paper.Paper {
	logger := o.logger.With(slog.String("run", uuid.NewString()))
	current := paper.FromQuery(q)

	for _, key := range Order(q, keys) {
		entry, ok := o.registry.Lookup(key)
		if !ok {
			logger.Debug("skipping unknown provider", slog.String("provider", string(key)))
			continue
		}

		pq := q.Merge(paper.QueryFromPaper(current))
		if onProgress != nil {
			onProgress(current, fmt.Sprintf("Loading from %s...", entry.Name))
		}

		started := o.now()
		rec, err := o.fetchOne(ctx, entry, pq)
		if err != nil {
			logger.Warn("provider fetch failed",
				slog.String("provider", string(key)),
				slog.String("error", err.Error()))
			current = merge.Merge(current, key, paper.ErrorEntry(err), o.now())
			continue
		}

		logger.Debug("provider fetch complete",
			slog.String("provider", string(key)),
			slog.Duration("elapsed", o.now().Sub(started)))
		current = merge.Merge(current, key, paper.RecordEntry(rec), o.now())
	}
	return current
}

// fetchOne calls one provider, turning a panic or a nil record into an error.
func (o *Orchestrator) fetchOne(ctx context.Context, entry source.Entry, q paper.Query) (rec paper.Record, err error) {
	ctx, cancel := o.providerContext(ctx)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("%s: provider panicked: %v", entry.Name, r)
		}
	}()

	rec, err = entry.Provider.Fetch(ctx, q)
	if err == nil && rec == nil {
		err = source.NotFoundf("%s returned no record", entry.Name)
	}
	return rec, err
}

func (o *Orchestrator) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout > 0 {
		return context.WithTimeout(ctx, o.timeout)
	}
	return context.WithCancel(ctx)
}

// SearchPaper runs text against every selected provider concurrently. Each
// hit becomes a single-source paper; nothing is merged across providers.
// onEach fires once per provider in completion order, with an empty batch
// for a provider that failed. The result concatenates the batches in
// registry order. offset is a page index: results start at offset*limit.
func (o *Orchestrator) SearchPaper(ctx context.Context, text string, keys []paper.Key, onEach BatchFunc, offset, limit int) []paper.Paper {
	logger := o.logger.With(slog.String("run", uuid.NewString()))
	entries := o.registry.Entries()
	batches := make([][]paper.Paper, len(entries))
	start := offset * limit

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, entry := range entries {
		if !slices.Contains(keys, entry.Key) {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()

			recs, err := o.searchOne(ctx, entry, text, start, limit)
			if err != nil {
				logger.Warn("provider search failed",
					slog.String("provider", string(entry.Key)),
					slog.String("error", err.Error()))
			}

			at := o.now()
			batch := make([]paper.Paper, 0, len(recs))
			for _, rec := range recs {
				if rec != nil {
					batch = append(batch, merge.Single(entry.Key, rec, at))
				}
			}
			batches[i] = batch

			if onEach != nil {
				mu.Lock()
				onEach(batch, entry.Key)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	var out []paper.Paper
	for _, b := range batches {
		out = append(out, b...)
	}
	if out == nil {
		out = []paper.Paper{}
	}
	return out
}

func (o *Orchestrator) searchOne(ctx context.Context, entry source.Entry, text string, offset, limit int) (recs []paper.Record, err error) {
	ctx, cancel := o.providerContext(ctx)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, fmt.Errorf("%s: provider panicked: %v", entry.Name, r)
		}
	}()
	return entry.Provider.Search(ctx, text, offset, limit)
}

// References returns the papers p cites, as reported by the registry's
// citation-graph provider. Without such a provider the result is empty.
func (o *Orchestrator) References(ctx context.Context, p paper.Paper) ([]paper.Paper, error) {
	return o.walk(ctx, p, source.GraphProvider.References)
}

// Citations returns the papers citing p.
func (o *Orchestrator) Citations(ctx context.Context, p paper.Paper) ([]paper.Paper, error) {
	return o.walk(ctx, p, source.GraphProvider.Citations)
}

type edgeFunc func(source.GraphProvider, context.Context, paper.Query) ([]paper.Record, error)

func (o *Orchestrator) walk(ctx context.Context, p paper.Paper, edges edgeFunc) ([]paper.Paper, error) {
	graph, key, ok := o.registry.Graph()
	if !ok {
		o.logger.Debug("no citation graph provider registered")
		return []paper.Paper{}, nil
	}

	ctx, cancel := o.providerContext(ctx)
	defer cancel()

	recs, err := edges(graph, ctx, paper.QueryFromPaper(p))
	if err != nil {
		return nil, err
	}
	at := o.now()
	out := make([]paper.Paper, 0, len(recs))
	for _, rec := range recs {
		out = append(out, merge.Single(key, rec, at))
	}
	return out, nil
}
