package reconcile

import (
	"context"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

// CorpusProvider returns the canonical matches for a filter. Implementations
// must be idempotent and side-effect free; failures surface as errors and
// never mutate previously returned results.
type CorpusProvider interface {
	Query(ctx context.Context, f filter.Filter) ([]domain.Restaurant, error)
}

// FilterStore persists the current filter selection to a shareable location.
// In the web client this is the URL query string; absence of a key is the
// default value for that field, never an error.
type FilterStore interface {
	Load() filter.Filter
	Save(f filter.Filter)
}
