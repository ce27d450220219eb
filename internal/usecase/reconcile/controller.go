// Package reconcile keeps an optimistic local result view consistent with
// the canonical corpus behind a debounced, race-safe re-query loop.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
	"github.com/killmete/aroihub-sub000/internal/metrics"
	"github.com/killmete/aroihub-sub000/internal/usecase/match"
)

// Timing defaults.
const (
	DefaultDebounceInterval = 500 * time.Millisecond
	DefaultRequestTimeout   = 10 * time.Second
)

// State is the controller's reconciliation phase.
type State int

// Reconciliation states.
const (
	Idle State = iota
	Debouncing
	InFlight
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case InFlight:
		return "in_flight"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Config tunes the controller's timing. The debounce interval is a knob, not
// a contract: callers observing a different burst rhythm may shorten it.
type Config struct {
	DebounceInterval time.Duration
	RequestTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.DebounceInterval <= 0 {
		c.DebounceInterval = DefaultDebounceInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

// View is the snapshot handed to the presentation boundary.
type View struct {
	// Filter is the selection the results answer (or preview).
	Filter filter.Filter
	// Results is the displayed result set.
	Results []domain.Restaurant
	// Preview is true while Results come from the local evaluator and the
	// canonical answer is still outstanding.
	Preview bool
	// Loading is true while a canonical reconciliation is outstanding
	// (debouncing or in flight).
	Loading bool
	// Err is the last provider failure; nil after the next filter change,
	// retry, or successful reconciliation.
	Err error
}

// Controller owns the displayed result set. It is the only writer of the
// result set and the request-token counter; every state transition happens
// under one lock, so completions interleave but never race.
type Controller struct {
	provider CorpusProvider
	store    FilterStore
	logger   *zap.Logger
	cfg      Config

	mu         sync.Mutex
	state      State
	corpus     []domain.Restaurant
	current    filter.Filter
	preview    []domain.Restaurant
	canonical  []domain.Restaurant
	previewing bool
	err        error
	latest     uint64
	pending    bool
	timer      *time.Timer
	closed     bool
	onUpdate   func(View)
}

// New creates a controller in the Idle state with an empty corpus and the
// default filter. store may be nil when the selection is not persisted.
func New(provider CorpusProvider, store FilterStore, logger *zap.Logger, cfg Config) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		provider: provider,
		store:    store,
		logger:   logger,
		cfg:      cfg.withDefaults(),
		current:  filter.Default(),
	}
	if store != nil {
		c.current = store.Load()
	}
	return c
}

// WithOnUpdate registers a callback invoked with a fresh View after every
// state change. The callback runs outside the controller lock.
func (c *Controller) WithOnUpdate(fn func(View)) *Controller {
	c.mu.Lock()
	c.onUpdate = fn
	c.mu.Unlock()
	return c
}

// ReplaceCorpus swaps in a new full corpus snapshot and recomputes the local
// preview for the current filter. The corpus is replaced wholesale, never
// patched.
func (c *Controller) ReplaceCorpus(entities []domain.Restaurant) {
	snapshot := make([]domain.Restaurant, len(entities))
	copy(snapshot, entities)

	c.mu.Lock()
	c.corpus = snapshot
	c.preview = match.Evaluate(c.corpus, c.current)
	if c.current.IsDefault() {
		c.canonical = c.preview
		c.previewing = false
	}
	view := c.viewLocked()
	c.mu.Unlock()

	c.notify(view)
}

// Apply records a new filter selection. The local preview updates
// immediately; unless the filter is trivially answerable from the corpus, a
// canonical re-query is scheduled behind the debounce window. A change while
// a request is in flight becomes the single pending successor, replacing any
// previous one.
func (c *Controller) Apply(f filter.Filter) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if f.Equal(c.current) && c.state == Idle && !c.previewing && c.err == nil {
		c.mu.Unlock()
		return
	}

	if c.store != nil {
		c.store.Save(f)
	}
	c.current = f
	c.err = nil
	c.preview = match.Evaluate(c.corpus, f)
	c.previewing = true

	// Clearing every facet needs no round-trip: the stored corpus is the
	// exact canonical answer.
	if f.IsDefault() {
		c.canonical = c.preview
		c.previewing = false
		c.pending = false
		c.stopTimerLocked()
		// Orphan any in-flight request so its late response cannot pass the
		// token comparison.
		c.latest++
		c.state = Idle
		view := c.viewLocked()
		c.mu.Unlock()
		c.notify(view)
		return
	}

	switch c.state {
	case InFlight:
		c.pending = true
	case Debouncing:
		metrics.DebounceResetsTotal.Inc()
		c.restartTimerLocked()
	default:
		c.state = Debouncing
		c.restartTimerLocked()
	}
	view := c.viewLocked()
	c.mu.Unlock()
	c.notify(view)
}

// Retry re-issues the canonical query for the current filter immediately,
// bypassing the debounce window. Used by the manual retry affordance after a
// provider failure.
func (c *Controller) Retry() {
	c.mu.Lock()
	if c.closed || c.state == InFlight {
		c.mu.Unlock()
		return
	}
	c.err = nil
	c.stopTimerLocked()
	token, f := c.mintLocked()
	view := c.viewLocked()
	c.mu.Unlock()

	c.notify(view)
	go c.dispatch(token, f)
}

// View returns a snapshot for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Results returns the displayed result set.
func (c *Controller) Results() []domain.Restaurant {
	return c.View().Results
}

// Filter returns the current filter selection.
func (c *Controller) Filter() filter.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// State returns the reconciliation phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close stops the debounce timer and discards any in-flight completion.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()
}

// debounceElapsed fires when a burst of filter changes has paused.
func (c *Controller) debounceElapsed() {
	c.mu.Lock()
	if c.closed || c.state != Debouncing {
		c.mu.Unlock()
		return
	}
	token, f := c.mintLocked()
	view := c.viewLocked()
	c.mu.Unlock()

	c.notify(view)
	c.dispatch(token, f)
}

// mintLocked mints the next request token and snapshots the current filter
// for dispatch. Tokens only grow; a response carrying anything but the
// latest token is stale by definition.
func (c *Controller) mintLocked() (uint64, filter.Filter) {
	c.latest++
	c.state = InFlight
	return c.latest, c.current
}

// dispatch runs the canonical query and hands the completion back for
// token comparison.
func (c *Controller) dispatch(token uint64, f filter.Filter) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	results, err := c.provider.Query(ctx, f)
	metrics.CanonicalQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CanonicalQueriesTotal.WithLabelValues("error").Inc()
	} else {
		metrics.CanonicalQueriesTotal.WithLabelValues("ok").Inc()
	}

	c.deliver(token, results, err)
}

// deliver merges a completion into the visible result set. Stale completions
// are discarded unconditionally; this is what keeps out-of-order network
// responses from flickering the displayed results.
func (c *Controller) deliver(token uint64, results []domain.Restaurant, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if token != c.latest {
		metrics.StaleResponsesTotal.Inc()
		c.logger.Debug("discarding stale response",
			zap.Uint64("token", token),
			zap.Uint64("latest", c.latest),
		)
		c.mu.Unlock()
		return
	}

	if c.pending {
		// The filter moved on while this request was in flight; its answer
		// is already superseded. Keep the preview on screen and re-enter the
		// debounce window for the successor.
		c.pending = false
		c.state = Debouncing
		c.restartTimerLocked()
		view := c.viewLocked()
		c.mu.Unlock()
		c.notify(view)
		return
	}

	if err != nil {
		// Keep the previously displayed results; surface a non-fatal error.
		c.err = fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		c.logger.Warn("canonical query failed", zap.Error(err))
	} else {
		c.canonical = results
		c.previewing = false
		c.err = nil
	}
	c.state = Idle
	view := c.viewLocked()
	c.mu.Unlock()
	c.notify(view)
}

func (c *Controller) restartTimerLocked() {
	c.stopTimerLocked()
	c.timer = time.AfterFunc(c.cfg.DebounceInterval, c.debounceElapsed)
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) viewLocked() View {
	displayed := c.canonical
	if c.previewing {
		displayed = c.preview
	}
	results := make([]domain.Restaurant, len(displayed))
	copy(results, displayed)

	return View{
		Filter:  c.current,
		Results: results,
		Preview: c.previewing,
		Loading: c.state != Idle,
		Err:     c.err,
	}
}

func (c *Controller) notify(v View) {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}
