package aroihub

import (
	"fmt"
	"time"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

// PriceBucket selects one price band. Bands partition the price axis, so a
// listing matches at most one of them.
type PriceBucket string

// Price bands in Thai baht per person.
const (
	PriceAny      PriceBucket = ""
	PriceBudget   PriceBucket = "0-100"
	PriceModerate PriceBucket = "101-250"
	PriceUpper    PriceBucket = "251-500"
	PricePremium  PriceBucket = "501-1000"
	PriceLuxury   PriceBucket = "1001+"
)

// Filter is one faceted selection. The zero value matches everything.
type Filter struct {
	// Query is a case-insensitive substring match on the listing name.
	Query string
	// Cuisines restricts results to listings serving any of these cuisines,
	// or all of them when MatchAllCuisines is set.
	Cuisines         []string
	MatchAllCuisines bool
	// MinRating keeps listings rated at or above this floor (0 to 5 in
	// half-star steps).
	MinRating float64
	Price     PriceBucket
}

// Restaurant is one listing in the discovery catalog.
type Restaurant struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Cuisines    []string  `json:"cuisines"`
	Rating      float64   `json:"rating"`
	PriceMin    *int      `json:"price_min,omitempty"`
	PriceMax    *int      `json:"price_max,omitempty"`
	Address     string    `json:"address,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	ReviewCount int       `json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ResultPage is one window over the displayed result set. Pages are 1-indexed.
type ResultPage struct {
	Items      []Restaurant
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// RatingBreakdown is a star-rating histogram over the displayed results.
type RatingBreakdown struct {
	// Counts maps each star bucket (1..5) to the number of listings in it.
	Counts map[int]int
	// Percentages maps each star bucket to its share of the total, 0..100.
	Percentages map[int]float64
	Total       int
}

func (f Filter) internal() (filter.Filter, error) {
	comb := filter.CombinatorOr
	if f.MatchAllCuisines {
		comb = filter.CombinatorAnd
	}

	bucket := filter.BucketNone
	if f.Price != PriceAny {
		var ok bool
		bucket, ok = filter.ParsePriceBucket(string(f.Price))
		if !ok {
			return filter.Filter{}, fmt.Errorf("unknown price band %q: %w", f.Price, domain.ErrInvalidFilter)
		}
	}

	return filter.New(f.Query, f.Cuisines, comb, f.MinRating, bucket)
}

func filterFromInternal(f filter.Filter) Filter {
	out := Filter{
		Query:            f.NameQuery(),
		Cuisines:         f.Cuisines(),
		MatchAllCuisines: f.Combinator() == filter.CombinatorAnd,
		MinRating:        f.MinRating(),
	}
	if b := f.Bucket(); b != filter.BucketNone {
		out.Price = PriceBucket(b.String())
	}
	return out
}

func restaurantFromDomain(r domain.Restaurant) Restaurant {
	return Restaurant{
		ID:          r.ID,
		Name:        r.Name,
		Cuisines:    r.Cuisines,
		Rating:      r.Rating,
		PriceMin:    r.PriceMin,
		PriceMax:    r.PriceMax,
		Address:     r.Address,
		ImageURL:    r.ImageURL,
		ReviewCount: r.ReviewCount,
		CreatedAt:   r.CreatedAt,
	}
}

func restaurantsFromDomain(rs []domain.Restaurant) []Restaurant {
	out := make([]Restaurant, len(rs))
	for i, r := range rs {
		out[i] = restaurantFromDomain(r)
	}
	return out
}

func restaurantToDomain(r Restaurant) domain.Restaurant {
	return domain.Restaurant{
		ID:          r.ID,
		Name:        r.Name,
		Cuisines:    r.Cuisines,
		Rating:      r.Rating,
		PriceMin:    r.PriceMin,
		PriceMax:    r.PriceMax,
		Address:     r.Address,
		ImageURL:    r.ImageURL,
		ReviewCount: r.ReviewCount,
		CreatedAt:   r.CreatedAt,
	}
}

func restaurantsToDomain(rs []Restaurant) []domain.Restaurant {
	out := make([]domain.Restaurant, len(rs))
	for i, r := range rs {
		out[i] = restaurantToDomain(r)
	}
	return out
}
