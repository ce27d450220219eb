// Package match applies a facet filter against an in-memory corpus snapshot.
// It is pure and synchronous: the discovery session runs it on every filter
// change to give immediate feedback before the canonical re-query completes.
package match

import (
	"strings"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

// Evaluate returns the corpus entries matching the filter, preserving the
// corpus's original relative order. The predicates form a conjunction: a
// listing must pass every active facet.
func Evaluate(corpus []domain.Restaurant, f filter.Filter) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(corpus))
	for _, r := range corpus {
		if Matches(r, f) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single listing passes every facet of the filter.
func Matches(r domain.Restaurant, f filter.Filter) bool {
	return matchesName(r, f.NameQuery()) &&
		matchesCuisines(r, f.Cuisines(), f.Combinator()) &&
		r.Rating >= f.MinRating() &&
		f.Bucket().Contains(r.PriceMin, r.PriceMax)
}

// matchesName is a case-insensitive substring match. An empty query matches
// everything.
func matchesName(r domain.Restaurant, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(r.Name), strings.ToLower(query))
}

// matchesCuisines applies the cuisine facet. Under OR the listing needs any
// selected cuisine; under AND its cuisine set must be a superset of the
// selection. Comparison is case-insensitive.
func matchesCuisines(r domain.Restaurant, selected []string, comb filter.Combinator) bool {
	if len(selected) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(r.Cuisines))
	for _, c := range r.Cuisines {
		have[strings.ToLower(c)] = struct{}{}
	}
	if comb == filter.CombinatorAnd {
		for _, want := range selected {
			if _, ok := have[strings.ToLower(want)]; !ok {
				return false
			}
		}
		return true
	}
	for _, want := range selected {
		if _, ok := have[strings.ToLower(want)]; ok {
			return true
		}
	}
	return false
}
