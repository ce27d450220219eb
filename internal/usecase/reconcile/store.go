package reconcile

import (
	"net/url"
	"sync"

	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

// ValuesStore is a FilterStore over a string-keyed key-value representation,
// round-tripping through the filter's query-param codec. It backs tests and
// embedders that keep the selection in a shareable URL.
type ValuesStore struct {
	mu     sync.Mutex
	values url.Values
}

// NewValuesStore creates a store seeded with the given params (may be nil).
func NewValuesStore(seed url.Values) *ValuesStore {
	if seed == nil {
		seed = url.Values{}
	}
	return &ValuesStore{values: seed}
}

// Load reconstructs the persisted filter, defaulting malformed fields.
func (s *ValuesStore) Load() filter.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter.FromValues(s.values)
}

// Save replaces the persisted params with the filter's serialized form.
func (s *ValuesStore) Save(f filter.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = f.Values()
}

// Encoded returns the current params as a query string.
func (s *ValuesStore) Encoded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Encode()
}
