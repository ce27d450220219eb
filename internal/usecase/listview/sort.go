// Package listview provides the generic sort and pagination machinery behind
// the review list and the admin tables.
package listview

import (
	"sort"
	"strings"
	"time"
)

// Direction orders a sorted list ascending or descending.
type Direction string

// Sort directions. Desc is the exact inverse of Asc: the same comparator is
// negated rather than swapped for a second one.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps a query-param value to a direction, defaulting to Asc.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "", "asc":
		return Asc, s != ""
	case "desc":
		return Desc, true
	}
	return Asc, false
}

// Sort returns a stably sorted copy of items. Ties under the comparator keep
// their original relative order in either direction; the input is untouched.
func Sort[T any](items []T, cmp func(a, b T) int, dir Direction) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == Desc {
			c = -c
		}
		return c < 0
	})
	return out
}

// ByString builds a comparator over a string key. Strings compare
// case-sensitively in lexical byte order.
func ByString[T any](key func(T) string) func(a, b T) int {
	return func(a, b T) int { return strings.Compare(key(a), key(b)) }
}

// ByFloat64 builds a comparator over a numeric key.
func ByFloat64[T any](key func(T) float64) func(a, b T) int {
	return func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	}
}

// ByTime builds a comparator over a timestamp key.
func ByTime[T any](key func(T) time.Time) func(a, b T) int {
	return func(a, b T) int { return key(a).Compare(key(b)) }
}
