// Package aroihub is the client SDK for the aroihub restaurant discovery
// engine. A Session keeps an optimistic local result view consistent with
// the canonical catalog behind a debounced, race-safe re-query loop.
package aroihub

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
	"github.com/killmete/aroihub-sub000/internal/usecase/listview"
	"github.com/killmete/aroihub-sub000/internal/usecase/reconcile"
	"github.com/killmete/aroihub-sub000/internal/usecase/stats"
)

// Sort fields accepted by SortBy. An unknown field keeps catalog order.
const (
	SortByName    = "name"
	SortByRating  = "rating"
	SortByReviews = "reviews"
)

// View is the snapshot handed to the presentation layer.
type View struct {
	// Filter is the selection the results answer (or preview).
	Filter Filter
	// Results is the displayed result set.
	Results []Restaurant
	// Preview is true while Results come from the local evaluator and the
	// canonical answer is still outstanding.
	Preview bool
	// Loading is true while a canonical reconciliation is outstanding.
	Loading bool
	// Err is the last catalog failure; nil after the next filter change,
	// retry, or successful reconciliation.
	Err error
}

// Session is the SDK entry point: one filtered, sorted, paged view over the
// restaurant catalog.
type Session struct {
	ctrl  *reconcile.Controller
	store *reconcile.ValuesStore

	closed atomic.Bool

	mu        sync.Mutex
	sortField string
	sortDesc  bool
	pager     *listview.Pager
}

// NewSession creates a session against an API server (WithServer) or a
// custom backend (WithProvider).
func NewSession(opts ...Option) (*Session, error) {
	cfg := &sessionConfig{pageSize: listview.DefaultPageSize}
	for _, o := range opts {
		o.apply(cfg)
	}

	provider := cfg.provider
	if provider == nil {
		if cfg.baseURL == "" {
			return nil, errors.New("aroihub: catalog backend required (use WithServer or WithProvider)")
		}
		provider = newAPIProvider(cfg.baseURL, cfg.apiKey, cfg.httpClient)
	}

	seed := url.Values{}
	if cfg.saved != "" {
		if v, err := url.ParseQuery(cfg.saved); err == nil {
			seed = v
		}
	}
	store := reconcile.NewValuesStore(seed)

	ctrl := reconcile.New(
		&providerAdapter{inner: provider},
		store,
		cfg.logger,
		reconcile.Config{
			DebounceInterval: cfg.debounce,
			RequestTimeout:   cfg.timeout,
		},
	)

	s := &Session{
		ctrl:  ctrl,
		store: store,
		pager: listview.NewPager(cfg.pageSize),
	}
	if len(cfg.corpus) > 0 {
		ctrl.ReplaceCorpus(restaurantsToDomain(cfg.corpus))
	}
	return s, nil
}

// Apply records a new filter selection. The displayed results update
// immediately from the local corpus; the canonical answer follows once the
// burst of changes pauses.
func (s *Session) Apply(f Filter) error {
	if s.closed.Load() {
		return domain.ErrSessionClosed
	}
	inner, err := f.internal()
	if err != nil {
		return fmt.Errorf("apply filter: %w", err)
	}
	s.ctrl.Apply(inner)
	return nil
}

// ApplyValues applies a selection from its wire form (for URL-driven UIs).
// Malformed parameters fall back to their defaults.
func (s *Session) ApplyValues(values url.Values) {
	s.ctrl.Apply(filter.FromValues(values))
}

// Retry re-issues the canonical query immediately, bypassing the debounce
// window. Used after a catalog failure.
func (s *Session) Retry() {
	s.ctrl.Retry()
}

// Close stops the session and discards any in-flight completion. A closed
// session rejects further filter changes.
func (s *Session) Close() {
	s.closed.Store(true)
	s.ctrl.Close()
}

// OnUpdate registers a callback invoked with a fresh View after every state
// change. Register before the first Apply.
func (s *Session) OnUpdate(fn func(View)) *Session {
	s.ctrl.WithOnUpdate(func(v reconcile.View) {
		fn(viewFromInternal(v))
	})
	return s
}

// View returns a snapshot for rendering.
func (s *Session) View() View {
	return viewFromInternal(s.ctrl.View())
}

// ReplaceCorpus swaps in a new full corpus snapshot for optimistic previews.
func (s *Session) ReplaceCorpus(items []Restaurant) {
	s.ctrl.ReplaceCorpus(restaurantsToDomain(items))
}

// SavedFilters returns the current selection in its persistable wire form.
// Feed it to WithSavedFilters to restore the selection in a later session.
func (s *Session) SavedFilters() string {
	return s.store.Encoded()
}

// SortBy orders the displayed results by field. Equal listings keep their
// catalog order.
func (s *Session) SortBy(field string, desc bool) {
	s.mu.Lock()
	s.sortField = field
	s.sortDesc = desc
	s.mu.Unlock()
}

// SetPageSize changes the page size and snaps back to the first page.
func (s *Session) SetPageSize(n int) {
	s.mu.Lock()
	s.pager.SetSize(n)
	s.mu.Unlock()
}

// SetPage moves to the requested 1-indexed page. Out-of-range pages clamp to
// the nearest valid page on the next read.
func (s *Session) SetPage(n int) {
	s.mu.Lock()
	s.pager.SetIndex(n)
	s.mu.Unlock()
}

// Page returns the current window over the sorted result set.
func (s *Session) Page() ResultPage {
	results := s.ctrl.Results()

	s.mu.Lock()
	defer s.mu.Unlock()

	results = s.sortLocked(results)
	pg := listview.PageOf(s.pager, results)

	return ResultPage{
		Items:      restaurantsFromDomain(pg.Items),
		Page:       pg.Index,
		PageSize:   pg.Size,
		TotalItems: pg.TotalItems,
		TotalPages: pg.TotalPages,
	}
}

// Ratings returns the star-rating histogram over the displayed results.
func (s *Session) Ratings() RatingBreakdown {
	d := stats.OfRestaurants(s.ctrl.Results())
	return RatingBreakdown{
		Counts:      d.Counts,
		Percentages: d.Percentages,
		Total:       d.Total,
	}
}

func (s *Session) sortLocked(items []domain.Restaurant) []domain.Restaurant {
	dir := listview.Asc
	if s.sortDesc {
		dir = listview.Desc
	}

	switch s.sortField {
	case SortByName:
		return listview.Sort(items, listview.ByString(func(r domain.Restaurant) string { return r.Name }), dir)
	case SortByRating:
		return listview.Sort(items, listview.ByFloat64(func(r domain.Restaurant) float64 { return r.Rating }), dir)
	case SortByReviews:
		return listview.Sort(items, listview.ByFloat64(func(r domain.Restaurant) float64 { return float64(r.ReviewCount) }), dir)
	default:
		return items
	}
}

func viewFromInternal(v reconcile.View) View {
	return View{
		Filter:  filterFromInternal(v.Filter),
		Results: restaurantsFromDomain(v.Results),
		Preview: v.Preview,
		Loading: v.Loading,
		Err:     v.Err,
	}
}

// providerAdapter wraps the public Provider to satisfy the internal
// corpus contract.
type providerAdapter struct {
	inner Provider
}

func (a *providerAdapter) Query(ctx context.Context, f filter.Filter) ([]domain.Restaurant, error) {
	items, err := a.inner.Query(ctx, f.Values())
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	return restaurantsToDomain(items), nil
}
