package aroihub

import "github.com/killmete/aroihub-sub000/internal/domain"

// Sentinel errors surfaced by a Session.
var (
	// ErrSessionClosed is returned by Apply after Close.
	ErrSessionClosed = domain.ErrSessionClosed
	// ErrCatalogUnavailable wraps a failed canonical query in View.Err. The
	// previously displayed results stay on screen.
	ErrCatalogUnavailable = domain.ErrProviderUnavailable
	// ErrInvalidFilter wraps a rejected filter selection.
	ErrInvalidFilter = domain.ErrInvalidFilter
)
