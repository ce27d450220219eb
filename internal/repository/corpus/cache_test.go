package corpus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/killmete/aroihub-sub000/internal/db"
	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

// memStore is an in-memory KV store for cache tests.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// countingProvider records how often the authoritative source is hit.
type countingProvider struct {
	mu      sync.Mutex
	calls   int
	results []domain.Restaurant
	err     error
}

func (p *countingProvider) Query(context.Context, filter.Filter) ([]domain.Restaurant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.results, p.err
}

func (p *countingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestCached_MissThenHit(t *testing.T) {
	inner := &countingProvider{results: []domain.Restaurant{{ID: 1, Name: "Baan Somtum"}}}
	c := NewCached(inner, newMemStore(), time.Minute, nil, nil)
	f := mustFilter(t, "somtum", nil, filter.CombinatorOr, 0, filter.BucketNone)

	first, err := c.Query(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.Query(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.callCount() != 1 {
		t.Errorf("inner provider called %d times, want 1", inner.callCount())
	}
	if len(first) != 1 || len(second) != 1 || second[0].Name != "Baan Somtum" {
		t.Errorf("cached result mismatch: %v vs %v", first, second)
	}
}

func TestCached_EqualFiltersShareEntry(t *testing.T) {
	inner := &countingProvider{}
	c := NewCached(inner, newMemStore(), time.Minute, nil, nil)

	a := mustFilter(t, "", []string{"Thai", "Sushi"}, filter.CombinatorOr, 0, filter.BucketNone)
	b := mustFilter(t, "", []string{"Thai", "Sushi"}, filter.CombinatorOr, 0, filter.BucketNone)
	if _, err := c.Query(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Query(context.Background(), b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.callCount() != 1 {
		t.Errorf("inner provider called %d times, want shared cache entry", inner.callCount())
	}
}

func TestCached_StoreFailureDegradesToInner(t *testing.T) {
	inner := &countingProvider{results: []domain.Restaurant{{ID: 1, Name: "A"}}}
	s := newMemStore()
	s.getErr = errors.New("connection refused")
	c := NewCached(inner, s, time.Minute, nil, nil)

	got, err := c.Query(context.Background(), filter.Default())
	if err != nil {
		t.Fatalf("cache failure must not surface: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %v, want inner provider's results", got)
	}
}

func TestCached_InnerErrorPropagates(t *testing.T) {
	inner := &countingProvider{err: errors.New("boom")}
	c := NewCached(inner, newMemStore(), time.Minute, nil, nil)

	_, err := c.Query(context.Background(), filter.Default())
	if err == nil {
		t.Fatal("expected error from inner provider")
	}
}
