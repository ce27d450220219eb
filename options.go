package aroihub

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Provider answers canonical catalog queries for a Session. The query holds
// the filter's wire form (q, cuisines, combine, min_rating, price).
type Provider interface {
	Query(ctx context.Context, query url.Values) ([]Restaurant, error)
}

// Option configures a Session.
type Option interface {
	apply(*sessionConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*sessionConfig)

func (f optionFunc) apply(c *sessionConfig) { f(c) }

type sessionConfig struct {
	provider   Provider
	baseURL    string
	apiKey     string
	httpClient *http.Client

	debounce time.Duration
	timeout  time.Duration
	pageSize int

	saved  string
	corpus []Restaurant
	logger *zap.Logger
}

// WithServer points the session at an aroihub API server.
func WithServer(baseURL string) Option {
	return optionFunc(func(c *sessionConfig) {
		c.baseURL = baseURL
	})
}

// WithAPIKey sends a Bearer token with every catalog query.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *sessionConfig) {
		c.apiKey = key
	})
}

// WithHTTPClient overrides the HTTP client used for catalog queries.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *sessionConfig) {
		c.httpClient = hc
	})
}

// WithProvider supplies a custom catalog backend instead of an API server.
func WithProvider(p Provider) Option {
	return optionFunc(func(c *sessionConfig) {
		c.provider = p
	})
}

// WithDebounce sets how long a burst of filter changes must pause before the
// canonical query fires. Default: 500ms.
func WithDebounce(d time.Duration) Option {
	return optionFunc(func(c *sessionConfig) {
		c.debounce = d
	})
}

// WithRequestTimeout bounds each canonical query. Default: 10s.
func WithRequestTimeout(d time.Duration) Option {
	return optionFunc(func(c *sessionConfig) {
		c.timeout = d
	})
}

// WithPageSize sets the result page size. Default: 10.
func WithPageSize(n int) Option {
	return optionFunc(func(c *sessionConfig) {
		c.pageSize = n
	})
}

// WithSavedFilters restores a selection persisted by a previous session
// (see Session.SavedFilters). Malformed input falls back to the default
// selection.
func WithSavedFilters(encoded string) Option {
	return optionFunc(func(c *sessionConfig) {
		c.saved = encoded
	})
}

// WithCorpus seeds the local corpus snapshot used for optimistic previews.
func WithCorpus(items []Restaurant) Option {
	return optionFunc(func(c *sessionConfig) {
		c.corpus = items
	})
}

// WithLogger enables structured logging for session operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *sessionConfig) {
		c.logger = l
	})
}
