// Package discovery runs faceted catalog queries and shapes the results
// for display: filtering, sorting, pagination, and rating breakdowns.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
	"github.com/killmete/aroihub-sub000/internal/usecase/listview"
	"github.com/killmete/aroihub-sub000/internal/usecase/stats"
)

// Sort fields accepted by the list operations. An unknown field keeps
// the catalog's own order.
const (
	SortByName      = "name"
	SortByRating    = "rating"
	SortByReviews   = "reviews"
	SortByCreatedAt = "created_at"
	SortByUsername  = "username"
)

// ListParams selects the ordering and page of a list operation.
type ListParams struct {
	SortField string
	Direction listview.Direction
	Page      int
	PageSize  int
}

// Service answers catalog queries.
type Service struct {
	repo            Repository
	defaultPageSize int
	maxPageSize     int
}

// New creates a discovery service.
func New(repo Repository) *Service {
	return &Service{
		repo:            repo,
		defaultPageSize: listview.DefaultPageSize,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Search runs a faceted query and returns one page of restaurants.
func (s *Service) Search(
	ctx context.Context, f filter.Filter, p ListParams,
) (listview.Page[domain.Restaurant], error) {
	results, err := s.repo.Query(ctx, f)
	if err != nil {
		return listview.Page[domain.Restaurant]{}, fmt.Errorf("query catalog: %w", err)
	}

	results = sortRestaurants(results, p)
	return listview.Paginate(results, s.pageSize(p), p.Page), nil
}

// Ratings returns the star-rating breakdown of a restaurant's reviews.
func (s *Service) Ratings(ctx context.Context, restaurantID int64) (stats.Distribution, error) {
	reviews, err := s.repo.Reviews(ctx, restaurantID)
	if err != nil {
		return stats.Distribution{}, fmt.Errorf("list reviews: %w", err)
	}
	return stats.OfReviews(reviews), nil
}

// RestaurantReviews returns one page of a restaurant's reviews.
func (s *Service) RestaurantReviews(
	ctx context.Context, restaurantID int64, p ListParams,
) (listview.Page[domain.Review], error) {
	reviews, err := s.repo.Reviews(ctx, restaurantID)
	if err != nil {
		return listview.Page[domain.Review]{}, fmt.Errorf("list reviews: %w", err)
	}

	reviews = sortReviews(reviews, p)
	return listview.Paginate(reviews, s.pageSize(p), p.Page), nil
}

// AllReviews returns one page over every review, for moderation views.
func (s *Service) AllReviews(ctx context.Context, p ListParams) (listview.Page[domain.Review], error) {
	reviews, err := s.repo.AllReviews(ctx)
	if err != nil {
		return listview.Page[domain.Review]{}, fmt.Errorf("list reviews: %w", err)
	}

	reviews = sortReviews(reviews, p)
	return listview.Paginate(reviews, s.pageSize(p), p.Page), nil
}

// Users returns one page of registered users, for admin views.
func (s *Service) Users(ctx context.Context, p ListParams) (listview.Page[domain.User], error) {
	users, err := s.repo.Users(ctx)
	if err != nil {
		return listview.Page[domain.User]{}, fmt.Errorf("list users: %w", err)
	}

	users = sortUsers(users, p)
	return listview.Paginate(users, s.pageSize(p), p.Page), nil
}

func (s *Service) pageSize(p ListParams) int {
	size := p.PageSize
	if size <= 0 {
		size = s.defaultPageSize
	}
	if size > s.maxPageSize {
		size = s.maxPageSize
	}
	return size
}

func sortRestaurants(items []domain.Restaurant, p ListParams) []domain.Restaurant {
	switch p.SortField {
	case SortByName:
		return listview.Sort(items, listview.ByString(func(r domain.Restaurant) string { return r.Name }), p.Direction)
	case SortByRating:
		return listview.Sort(items, listview.ByFloat64(func(r domain.Restaurant) float64 { return r.Rating }), p.Direction)
	case SortByReviews:
		return listview.Sort(items, listview.ByFloat64(func(r domain.Restaurant) float64 { return float64(r.ReviewCount) }), p.Direction)
	case SortByCreatedAt:
		return listview.Sort(items, listview.ByTime(func(r domain.Restaurant) time.Time { return r.CreatedAt }), p.Direction)
	default:
		return items
	}
}

func sortReviews(items []domain.Review, p ListParams) []domain.Review {
	switch p.SortField {
	case SortByRating:
		return listview.Sort(items, listview.ByFloat64(func(v domain.Review) float64 { return v.Rating }), p.Direction)
	case SortByCreatedAt:
		return listview.Sort(items, listview.ByTime(func(v domain.Review) time.Time { return v.CreatedAt }), p.Direction)
	case SortByUsername:
		return listview.Sort(items, listview.ByString(func(v domain.Review) string { return v.Username }), p.Direction)
	default:
		return items
	}
}

func sortUsers(items []domain.User, p ListParams) []domain.User {
	switch p.SortField {
	case SortByUsername:
		return listview.Sort(items, listview.ByString(func(u domain.User) string { return u.Username }), p.Direction)
	case SortByCreatedAt:
		return listview.Sort(items, listview.ByTime(func(u domain.User) time.Time { return u.CreatedAt }), p.Direction)
	default:
		return items
	}
}
