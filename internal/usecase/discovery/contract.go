package discovery

import (
	"context"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

// Repository defines the storage contract for the discovery catalog.
type Repository interface {
	Query(ctx context.Context, f filter.Filter) ([]domain.Restaurant, error)
	Reviews(ctx context.Context, restaurantID int64) ([]domain.Review, error)
	AllReviews(ctx context.Context) ([]domain.Review, error)
	Users(ctx context.Context) ([]domain.User, error)
}
