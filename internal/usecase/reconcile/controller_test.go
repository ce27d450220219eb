package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

// fakeProvider records queries and answers them through respond. When block
// is non-nil, Query waits on it before responding, letting tests hold a
// request in flight.
type fakeProvider struct {
	mu      sync.Mutex
	calls   []filter.Filter
	respond func(f filter.Filter) ([]domain.Restaurant, error)
	block   chan struct{}
}

func (p *fakeProvider) Query(_ context.Context, f filter.Filter) ([]domain.Restaurant, error) {
	p.mu.Lock()
	p.calls = append(p.calls, f)
	block := p.block
	respond := p.respond
	p.mu.Unlock()

	if block != nil {
		<-block
	}
	if respond != nil {
		return respond(f)
	}
	return nil, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func (p *fakeProvider) call(i int) filter.Filter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[i]
}

func nameFilter(t *testing.T, q string) filter.Filter {
	t.Helper()
	f, err := filter.New(q, nil, filter.CombinatorOr, 0, filter.BucketNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func testConfig() Config {
	return Config{DebounceInterval: 30 * time.Millisecond, RequestTimeout: time.Second}
}

func corpusOf(names ...string) []domain.Restaurant {
	out := make([]domain.Restaurant, len(names))
	for i, n := range names {
		out[i] = domain.Restaurant{ID: int64(i + 1), Name: n}
	}
	return out
}

func TestApply_DebounceCollapsesBurstToOneQuery(t *testing.T) {
	p := &fakeProvider{}
	c := New(p, nil, nil, testConfig())
	defer c.Close()

	// Three rapid changes within the debounce window.
	c.Apply(nameFilter(t, "s"))
	c.Apply(nameFilter(t, "so"))
	c.Apply(nameFilter(t, "som"))

	waitFor(t, func() bool { return c.State() == Idle && p.callCount() > 0 },
		"reconciliation never completed")

	if got := p.callCount(); got != 1 {
		t.Fatalf("provider called %d times, want exactly 1", got)
	}
	if q := p.call(0).NameQuery(); q != "som" {
		t.Errorf("query issued for %q, want the last change only", q)
	}
}

func TestDeliver_MonotonicTokenDiscard(t *testing.T) {
	p := &fakeProvider{}
	c := New(p, nil, nil, testConfig())
	defer c.Close()

	c.mu.Lock()
	t1, _ := c.mintLocked()
	t2, _ := c.mintLocked()
	t3, _ := c.mintLocked()
	c.mu.Unlock()

	// Responses arrive out of order: 2, 3, 1. Only token 3 may render.
	c.deliver(t2, corpusOf("two"), nil)
	c.deliver(t3, corpusOf("three"), nil)
	c.deliver(t1, corpusOf("one"), nil)

	got := c.Results()
	if len(got) != 1 || got[0].Name != "three" {
		t.Fatalf("rendered %v, want only the result for the latest token", got)
	}
	if c.View().Preview {
		t.Error("latest response should be canonical, not a preview")
	}
}

func TestApply_LocalPreviewIsImmediate(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{})}
	defer close(p.block)

	c := New(p, nil, nil, testConfig())
	defer c.Close()
	c.ReplaceCorpus(corpusOf("Baan Somtum", "Sushi Masa"))

	c.Apply(nameFilter(t, "somtum"))

	// Before any network completion, the preview already reflects the filter.
	v := c.View()
	if !v.Preview || !v.Loading {
		t.Errorf("view = %+v, want optimistic preview while loading", v)
	}
	if len(v.Results) != 1 || v.Results[0].Name != "Baan Somtum" {
		t.Errorf("preview = %v, want the local evaluator's output", v.Results)
	}
}

func TestApply_ClearingFiltersBypassesNetwork(t *testing.T) {
	p := &fakeProvider{}
	c := New(p, nil, nil, testConfig())
	defer c.Close()
	c.ReplaceCorpus(corpusOf("A", "B", "C"))

	c.Apply(nameFilter(t, "a"))
	c.Apply(filter.Default())

	time.Sleep(100 * time.Millisecond)

	if got := p.callCount(); got != 0 {
		t.Fatalf("provider called %d times, want 0 for a cleared filter", got)
	}
	v := c.View()
	if v.Loading || v.Preview {
		t.Errorf("view = %+v, want settled canonical state", v)
	}
	if len(v.Results) != 3 {
		t.Errorf("cleared filter should show the full corpus, got %d entries", len(v.Results))
	}
}

func TestApply_DefaultWhileInFlightOrphansResponse(t *testing.T) {
	p := &fakeProvider{
		block:   make(chan struct{}),
		respond: func(filter.Filter) ([]domain.Restaurant, error) { return corpusOf("stale"), nil },
	}
	c := New(p, nil, nil, testConfig())
	defer c.Close()
	c.ReplaceCorpus(corpusOf("A", "B"))

	c.Apply(nameFilter(t, "a"))
	waitFor(t, func() bool { return c.State() == InFlight }, "request never dispatched")

	c.Apply(filter.Default())
	close(p.block)

	time.Sleep(100 * time.Millisecond)

	got := c.Results()
	if len(got) != 2 {
		t.Fatalf("late response overwrote the cleared filter's results: %v", got)
	}
}

func TestDeliver_FailureKeepsDisplayedResults(t *testing.T) {
	p := &fakeProvider{
		respond: func(filter.Filter) ([]domain.Restaurant, error) {
			return nil, errors.New("boom")
		},
	}
	c := New(p, nil, nil, testConfig())
	defer c.Close()
	c.ReplaceCorpus(corpusOf("Baan Somtum", "Sushi Masa"))

	c.Apply(nameFilter(t, "somtum"))
	waitFor(t, func() bool { return c.View().Err != nil }, "failure never surfaced")

	v := c.View()
	if !errors.Is(v.Err, domain.ErrProviderUnavailable) {
		t.Errorf("Err = %v, want ErrProviderUnavailable", v.Err)
	}
	if v.Loading {
		t.Error("failed reconciliation should settle to Idle")
	}
	if len(v.Results) != 1 || v.Results[0].Name != "Baan Somtum" {
		t.Errorf("failure blanked the displayed results: %v", v.Results)
	}

	// The next filter change clears the error and retries naturally.
	p.mu.Lock()
	p.respond = func(filter.Filter) ([]domain.Restaurant, error) { return corpusOf("Sushi Masa"), nil }
	p.mu.Unlock()

	c.Apply(nameFilter(t, "sushi"))
	if c.View().Err != nil {
		t.Error("filter change should clear the error immediately")
	}
	waitFor(t, func() bool { v := c.View(); return !v.Preview && v.Err == nil },
		"retry never reconciled")
}

func TestRetry_ReissuesCurrentFilter(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	p := &fakeProvider{
		respond: func(f filter.Filter) ([]domain.Restaurant, error) {
			if fail.Load() {
				return nil, errors.New("transient")
			}
			return corpusOf("ok"), nil
		},
	}
	c := New(p, nil, nil, testConfig())
	defer c.Close()

	c.Apply(nameFilter(t, "ok"))
	waitFor(t, func() bool { return c.View().Err != nil }, "failure never surfaced")

	fail.Store(false)
	c.Retry()
	waitFor(t, func() bool {
		v := c.View()
		return v.Err == nil && !v.Preview && len(v.Results) == 1
	}, "manual retry never recovered")

	if got := p.callCount(); got != 2 {
		t.Errorf("provider called %d times, want 2", got)
	}
}

func TestApply_PendingSuccessorWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{
		block:   release,
		respond: func(f filter.Filter) ([]domain.Restaurant, error) { return corpusOf(f.NameQuery()), nil },
	}
	c := New(p, nil, nil, testConfig())
	defer c.Close()

	c.Apply(nameFilter(t, "first"))
	waitFor(t, func() bool { return c.State() == InFlight }, "request never dispatched")

	// Two further changes while in flight: only the last survives as the
	// pending successor.
	c.Apply(nameFilter(t, "second"))
	c.Apply(nameFilter(t, "third"))
	close(release)

	waitFor(t, func() bool {
		v := c.View()
		return c.State() == Idle && !v.Preview && p.callCount() == 2
	}, "successor never reconciled")

	if q := p.call(1).NameQuery(); q != "third" {
		t.Errorf("successor query for %q, want the latest change", q)
	}
	got := c.Results()
	if len(got) != 1 || got[0].Name != "third" {
		t.Errorf("rendered %v, want the successor's canonical result", got)
	}
}

func TestReplaceCorpus_RefreshesPreview(t *testing.T) {
	p := &fakeProvider{block: make(chan struct{})}
	defer close(p.block)

	c := New(p, nil, nil, testConfig())
	defer c.Close()

	c.Apply(nameFilter(t, "thai"))
	c.ReplaceCorpus(corpusOf("Thai Orchid", "Sushi Masa"))

	v := c.View()
	if len(v.Results) != 1 || v.Results[0].Name != "Thai Orchid" {
		t.Errorf("preview = %v, want it recomputed against the new corpus", v.Results)
	}
}

func TestNew_LoadsPersistedFilter(t *testing.T) {
	seed := nameFilter(t, "somtum")
	store := NewValuesStore(seed.Values())

	c := New(&fakeProvider{}, store, nil, testConfig())
	defer c.Close()

	if !c.Filter().Equal(seed) {
		t.Errorf("Filter = %v, want the persisted selection", c.Filter().Values())
	}
}

func TestApply_PersistsFilter(t *testing.T) {
	store := NewValuesStore(nil)
	c := New(&fakeProvider{}, store, nil, testConfig())
	defer c.Close()

	f := nameFilter(t, "somtum")
	c.Apply(f)

	if !store.Load().Equal(f) {
		t.Errorf("store holds %q, want the applied filter", store.Encoded())
	}
}

func TestOnUpdate_NotifiedOnStateChanges(t *testing.T) {
	var mu sync.Mutex
	var views []View

	c := New(&fakeProvider{}, nil, nil, testConfig()).
		WithOnUpdate(func(v View) {
			mu.Lock()
			views = append(views, v)
			mu.Unlock()
		})
	defer c.Close()

	c.Apply(nameFilter(t, "x"))
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(views) >= 2
	}, "update callback never fired for dispatch and completion")
}

func TestClose_DiscardsLateCompletions(t *testing.T) {
	release := make(chan struct{})
	p := &fakeProvider{
		block:   release,
		respond: func(filter.Filter) ([]domain.Restaurant, error) { return corpusOf("late"), nil },
	}
	c := New(p, nil, nil, testConfig())

	c.Apply(nameFilter(t, "x"))
	waitFor(t, func() bool { return c.State() == InFlight }, "request never dispatched")

	c.Close()
	close(release)
	time.Sleep(50 * time.Millisecond)

	if got := c.Results(); len(got) != 0 {
		t.Errorf("completion applied after Close: %v", got)
	}
}
