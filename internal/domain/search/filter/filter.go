package filter

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Rating constraints.
const (
	MaxRating     = 5.0
	MinRatingStep = 0.5
)

// Query-param keys understood by Values/FromValues. Absent keys are
// equivalent to the default value for the field, never an error.
const (
	ParamQuery      = "q"
	ParamCuisines   = "cuisines"
	ParamCombinator = "combine"
	ParamMinRating  = "min_rating"
	ParamPrice      = "price"
)

// Combinator selects how multiple cuisine selections combine.
type Combinator string

// Cuisine combinators. The combinator only changes results when more than
// one cuisine is selected.
const (
	CombinatorOr  Combinator = "or"
	CombinatorAnd Combinator = "and"
)

// ParseCombinator maps a query-param value to a combinator.
func ParseCombinator(s string) (Combinator, bool) {
	switch strings.ToLower(s) {
	case "or":
		return CombinatorOr, true
	case "and":
		return CombinatorAnd, true
	}
	return CombinatorOr, false
}

// Filter is an immutable snapshot of all active facet criteria.
type Filter struct {
	nameQuery   string
	cuisines    []string
	combinator  Combinator
	minRating   float64
	priceBucket PriceBucket
}

// New validates and creates a Filter. Cuisines are trimmed and de-duplicated
// case-insensitively, keeping first-seen order.
func New(
	nameQuery string, cuisines []string, combinator Combinator,
	minRating float64, priceBucket PriceBucket,
) (Filter, error) {
	if combinator == "" {
		combinator = CombinatorOr
	}
	if combinator != CombinatorOr && combinator != CombinatorAnd {
		return Filter{}, fmt.Errorf("invalid combinator %q", combinator)
	}
	if minRating < 0 || minRating > MaxRating {
		return Filter{}, fmt.Errorf("min rating must be between 0 and %g", MaxRating)
	}
	if math.Mod(minRating, MinRatingStep) != 0 {
		return Filter{}, fmt.Errorf("min rating must be a multiple of %g", MinRatingStep)
	}
	if !priceBucket.IsValid() {
		return Filter{}, fmt.Errorf("invalid price bucket %d", priceBucket)
	}
	return Filter{
		nameQuery:   strings.TrimSpace(nameQuery),
		cuisines:    normalizeCuisines(cuisines),
		combinator:  combinator,
		minRating:   minRating,
		priceBucket: priceBucket,
	}, nil
}

// Default returns the filter that matches the full corpus.
func Default() Filter {
	return Filter{combinator: CombinatorOr}
}

// NameQuery returns the free-text name query.
func (f Filter) NameQuery() string { return f.nameQuery }

// Cuisines returns a copy of the selected cuisine tags.
func (f Filter) Cuisines() []string {
	if len(f.cuisines) == 0 {
		return nil
	}
	out := make([]string, len(f.cuisines))
	copy(out, f.cuisines)
	return out
}

// Combinator returns the cuisine combinator.
func (f Filter) Combinator() Combinator { return f.combinator }

// MinRating returns the minimum rating threshold.
func (f Filter) MinRating() float64 { return f.minRating }

// Bucket returns the selected price bucket.
func (f Filter) Bucket() PriceBucket { return f.priceBucket }

// IsDefault reports whether the filter matches the full corpus.
func (f Filter) IsDefault() bool {
	return f.nameQuery == "" &&
		len(f.cuisines) == 0 &&
		f.minRating == 0 &&
		f.priceBucket == BucketNone
}

// Equal reports structural equality. Cuisine order and case are irrelevant,
// and the combinator is only compared when it is meaningful, i.e. when more
// than one cuisine is selected.
func (f Filter) Equal(other Filter) bool {
	if f.nameQuery != other.nameQuery ||
		f.minRating != other.minRating ||
		f.priceBucket != other.priceBucket {
		return false
	}
	if !sameCuisineSet(f.cuisines, other.cuisines) {
		return false
	}
	if len(f.cuisines) > 1 && f.combinator != other.combinator {
		return false
	}
	return true
}

// Values flattens the filter for a persisted filter store (URL query string).
// Default fields are omitted so an empty filter serializes to nothing.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.nameQuery != "" {
		v.Set(ParamQuery, f.nameQuery)
	}
	if len(f.cuisines) > 0 {
		v.Set(ParamCuisines, strings.Join(f.cuisines, ","))
	}
	if len(f.cuisines) > 1 && f.combinator == CombinatorAnd {
		v.Set(ParamCombinator, string(CombinatorAnd))
	}
	if f.minRating > 0 {
		v.Set(ParamMinRating, strconv.FormatFloat(f.minRating, 'f', -1, 64))
	}
	if f.priceBucket != BucketNone {
		v.Set(ParamPrice, f.priceBucket.String())
	}
	return v
}

// FromValues reconstructs a Filter from persisted query params. It never
// fails: unknown keys are ignored and malformed fields fall back to their
// defaults, so a mangled shared URL still yields a usable filter.
func FromValues(v url.Values) Filter {
	f := Default()
	f.nameQuery = strings.TrimSpace(v.Get(ParamQuery))

	if raw := v.Get(ParamCuisines); raw != "" {
		f.cuisines = normalizeCuisines(strings.Split(raw, ","))
	}
	if c, ok := ParseCombinator(v.Get(ParamCombinator)); ok {
		f.combinator = c
	}
	if raw := v.Get(ParamMinRating); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil {
			f.minRating = snapRating(r)
		}
	}
	if b, ok := ParsePriceBucket(v.Get(ParamPrice)); ok {
		f.priceBucket = b
	}
	return f
}

// snapRating clamps into [0, MaxRating] and rounds down to the 0.5 step,
// tolerating hand-edited URLs without rejecting them.
func snapRating(r float64) float64 {
	if r <= 0 {
		return 0
	}
	if r > MaxRating {
		return MaxRating
	}
	return math.Floor(r/MinRatingStep) * MinRatingStep
}

func normalizeCuisines(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sameCuisineSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, c := range a {
		set[strings.ToLower(c)] = struct{}{}
	}
	for _, c := range b {
		if _, ok := set[strings.ToLower(c)]; !ok {
			return false
		}
	}
	return true
}
