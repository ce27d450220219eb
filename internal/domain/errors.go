package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrRestaurantNotFound signals a missing restaurant.
	ErrRestaurantNotFound = errors.New("restaurant not found")
	// ErrInvalidFilter signals an invalid filter definition.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrProviderUnavailable signals a corpus provider failure.
	ErrProviderUnavailable = errors.New("corpus provider unavailable")
	// ErrSessionClosed signals an operation on a closed discovery session.
	ErrSessionClosed = errors.New("session closed")
)
