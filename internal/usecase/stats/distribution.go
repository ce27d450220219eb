// Package stats computes derived statistics over a result set for display.
package stats

import (
	"math"

	"github.com/killmete/aroihub-sub000/internal/domain"
)

// Star-rating histogram scale.
const (
	MinStar = 1
	MaxStar = 5
)

// Distribution is a star-rating histogram over a result set.
type Distribution struct {
	// Counts maps each star bucket (1..5) to the number of entries in it.
	Counts map[int]int `json:"counts"`
	// Percentages maps each star bucket to counts[b]/total*100. All zero
	// when Total is zero.
	Percentages map[int]float64 `json:"percentages"`
	Total       int             `json:"total"`
}

// Compute builds the rating histogram. A rating is floored to its integer
// star bucket (4.7 counts as 4 stars); a half-star rating never weights two
// adjacent buckets. Ratings outside the 1..5 scale are clamped to the
// nearest bucket so every entry lands in exactly one.
func Compute(ratings []float64) Distribution {
	d := Distribution{
		Counts:      make(map[int]int, MaxStar),
		Percentages: make(map[int]float64, MaxStar),
		Total:       len(ratings),
	}
	for star := MinStar; star <= MaxStar; star++ {
		d.Counts[star] = 0
		d.Percentages[star] = 0
	}

	for _, r := range ratings {
		d.Counts[starBucket(r)]++
	}

	if d.Total == 0 {
		return d
	}
	for star := MinStar; star <= MaxStar; star++ {
		d.Percentages[star] = float64(d.Counts[star]) / float64(d.Total) * 100
	}
	return d
}

// OfRestaurants builds the histogram over restaurant ratings.
func OfRestaurants(entities []domain.Restaurant) Distribution {
	ratings := make([]float64, len(entities))
	for i, e := range entities {
		ratings[i] = e.Rating
	}
	return Compute(ratings)
}

// OfReviews builds the histogram over review ratings.
func OfReviews(reviews []domain.Review) Distribution {
	ratings := make([]float64, len(reviews))
	for i, v := range reviews {
		ratings[i] = v.Rating
	}
	return Compute(ratings)
}

func starBucket(rating float64) int {
	star := int(math.Floor(rating))
	if star < MinStar {
		return MinStar
	}
	if star > MaxStar {
		return MaxStar
	}
	return star
}
