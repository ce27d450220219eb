package filter

// PriceBucket is one of five fixed, non-overlapping, closed price intervals.
// A listing matches a bucket only when both of its price bounds fall inside
// the interval; a listing that straddles two buckets matches neither.
type PriceBucket int

// Price buckets, in ascending order. BucketNone disables price filtering.
const (
	BucketNone PriceBucket = iota
	BucketBudget
	BucketModerate
	BucketUpper
	BucketPremium
	BucketLuxury
)

// bucketBounds holds the closed [lo, hi] interval per bucket. A negative hi
// marks an unbounded upper edge.
var bucketBounds = map[PriceBucket][2]int{
	BucketBudget:   {0, 100},
	BucketModerate: {101, 250},
	BucketUpper:    {251, 500},
	BucketPremium:  {501, 1000},
	BucketLuxury:   {1001, -1},
}

var bucketLabels = map[PriceBucket]string{
	BucketNone:     "",
	BucketBudget:   "0-100",
	BucketModerate: "101-250",
	BucketUpper:    "251-500",
	BucketPremium:  "501-1000",
	BucketLuxury:   "1001+",
}

// ParsePriceBucket maps a query-param label to a bucket.
// Unknown labels report ok=false.
func ParsePriceBucket(label string) (PriceBucket, bool) {
	for b, l := range bucketLabels {
		if b != BucketNone && l == label {
			return b, true
		}
	}
	return BucketNone, false
}

// String returns the query-param label for the bucket.
func (b PriceBucket) String() string { return bucketLabels[b] }

// IsValid reports whether the bucket is BucketNone or one of the five intervals.
func (b PriceBucket) IsValid() bool {
	_, ok := bucketLabels[b]
	return ok
}

// Bounds returns the closed interval for the bucket. unbounded is true for
// the top bucket, whose upper edge is open-ended.
func (b PriceBucket) Bounds() (lo, hi int, unbounded bool) {
	bounds, ok := bucketBounds[b]
	if !ok {
		return 0, 0, false
	}
	if bounds[1] < 0 {
		return bounds[0], 0, true
	}
	return bounds[0], bounds[1], false
}

// Contains reports whether a (priceMin, priceMax) pair sits entirely inside
// the bucket. BucketNone contains everything. Listings missing either bound
// never match a concrete bucket.
func (b PriceBucket) Contains(priceMin, priceMax *int) bool {
	if b == BucketNone {
		return true
	}
	if priceMin == nil || priceMax == nil {
		return false
	}
	lo, hi, unbounded := b.Bounds()
	if *priceMin < lo || *priceMax < lo {
		return false
	}
	if unbounded {
		return true
	}
	return *priceMin <= hi && *priceMax <= hi
}
