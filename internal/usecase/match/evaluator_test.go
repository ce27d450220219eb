package match

import (
	"testing"

	"github.com/killmete/aroihub-sub000/internal/domain"
	"github.com/killmete/aroihub-sub000/internal/domain/search/filter"
)

func intPtr(n int) *int { return &n }

func mustFilter(
	t *testing.T,
	name string, cuisines []string, comb filter.Combinator,
	minRating float64, bucket filter.PriceBucket,
) filter.Filter {
	t.Helper()
	f, err := filter.New(name, cuisines, comb, minRating, bucket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func names(rs []domain.Restaurant) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}

func TestEvaluate_NamePredicate(t *testing.T) {
	corpus := []domain.Restaurant{
		{ID: 1, Name: "Baan Somtum"},
		{ID: 2, Name: "somtum der"},
		{ID: 3, Name: "Sushi Masa"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query matches everything", "", []string{"Baan Somtum", "somtum der", "Sushi Masa"}},
		{"case-insensitive substring", "SOMTUM", []string{"Baan Somtum", "somtum der"}},
		{"no match", "pizza", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFilter(t, tt.query, nil, filter.CombinatorOr, 0, filter.BucketNone)
			got := names(Evaluate(corpus, f))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("result[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEvaluate_CuisineAndVsOr(t *testing.T) {
	entity := domain.Restaurant{ID: 1, Name: "A", Cuisines: []string{"Thai", "Grill"}}
	selected := []string{"Thai", "Sushi"}

	or := mustFilter(t, "", selected, filter.CombinatorOr, 0, filter.BucketNone)
	if !Matches(entity, or) {
		t.Error("OR should match: cuisine sets intersect")
	}

	and := mustFilter(t, "", selected, filter.CombinatorAnd, 0, filter.BucketNone)
	if Matches(entity, and) {
		t.Error("AND should not match: entity lacks Sushi")
	}
}

func TestEvaluate_CuisineCaseInsensitive(t *testing.T) {
	entity := domain.Restaurant{ID: 1, Name: "A", Cuisines: []string{"thai"}}
	f := mustFilter(t, "", []string{"THAI"}, filter.CombinatorOr, 0, filter.BucketNone)
	if !Matches(entity, f) {
		t.Error("cuisine comparison should ignore case")
	}
}

func TestEvaluate_RatingPredicate(t *testing.T) {
	corpus := []domain.Restaurant{
		{ID: 1, Name: "A", Cuisines: []string{"Thai"}, Rating: 4.5},
		{ID: 2, Name: "B", Cuisines: []string{"Italian"}, Rating: 4.9},
		{ID: 3, Name: "C"}, // unrated, treated as 0
	}

	f := mustFilter(t, "", []string{"Thai", "Sushi"}, filter.CombinatorOr, 4, filter.BucketNone)
	got := Evaluate(corpus, f)
	if len(got) != 1 || got[0].Name != "A" {
		t.Fatalf("got %v, want [A]", names(got))
	}

	unrated := mustFilter(t, "", nil, filter.CombinatorOr, 0.5, filter.BucketNone)
	for _, r := range Evaluate(corpus, unrated) {
		if r.Name == "C" {
			t.Error("unrated entity should fail any positive rating threshold")
		}
	}
}

func TestEvaluate_PriceBucketStrictness(t *testing.T) {
	straddler := domain.Restaurant{ID: 1, Name: "S", PriceMin: intPtr(90), PriceMax: intPtr(150)}

	for _, b := range []filter.PriceBucket{
		filter.BucketBudget, filter.BucketModerate, filter.BucketUpper,
		filter.BucketPremium, filter.BucketLuxury,
	} {
		f := mustFilter(t, "", nil, filter.CombinatorOr, 0, b)
		if Matches(straddler, f) {
			t.Errorf("entity straddling [0,100] and [101,250] must not match bucket %s", b)
		}
	}
}

func TestEvaluate_PriceBucketContainment(t *testing.T) {
	tests := []struct {
		name     string
		min, max *int
		bucket   filter.PriceBucket
		want     bool
	}{
		{"inside budget", intPtr(50), intPtr(100), filter.BucketBudget, true},
		{"boundary inclusive", intPtr(101), intPtr(250), filter.BucketModerate, true},
		{"top bucket unbounded", intPtr(1200), intPtr(5000), filter.BucketLuxury, true},
		{"missing both bounds", nil, nil, filter.BucketBudget, false},
		{"missing max bound", intPtr(50), nil, filter.BucketBudget, false},
		{"no bucket matches unpriced", nil, nil, filter.BucketNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFilter(t, "", nil, filter.CombinatorOr, 0, tt.bucket)
			e := domain.Restaurant{ID: 1, Name: "E", PriceMin: tt.min, PriceMax: tt.max}
			if got := Matches(e, f); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_PreservesCorpusOrder(t *testing.T) {
	corpus := []domain.Restaurant{
		{ID: 3, Name: "Charlie Thai", Cuisines: []string{"Thai"}},
		{ID: 1, Name: "Alpha Thai", Cuisines: []string{"Thai"}},
		{ID: 2, Name: "Bravo Thai", Cuisines: []string{"Thai"}},
	}
	f := mustFilter(t, "thai", nil, filter.CombinatorOr, 0, filter.BucketNone)
	got := Evaluate(corpus, f)
	want := []string{"Charlie Thai", "Alpha Thai", "Bravo Thai"}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("order not preserved: got %v", names(got))
		}
	}
}

func TestEvaluate_DefaultFilterMatchesAll(t *testing.T) {
	corpus := []domain.Restaurant{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}}
	got := Evaluate(corpus, filter.Default())
	if len(got) != len(corpus) {
		t.Fatalf("default filter matched %d of %d", len(got), len(corpus))
	}
}
