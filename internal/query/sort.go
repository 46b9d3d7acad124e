package query

import "slices"

// Comparator orders two items, negative when a sorts first
type Comparator[T any] func(a, b T) int

// SliceSpec is SortSpec for in-memory collections
type SliceSpec[T any] struct {
	Keys     map[string]Comparator[T]
	Fallback string
	Default  string
}

// SortSlice stable-sorts items in place by criteria with the same leniency as SQL lists
func SortSlice[T any](items []T, criteria []SortCriterion, spec SliceSpec[T]) {
	if len(criteria) == 0 {
		criteria = ParseSort(spec.Default)
	}

	cmps := make([]Comparator[T], 0, len(criteria))
	for _, c := range criteria {
		cmp, ok := spec.Keys[c.Key()]
		if !ok {
			cmp, ok = spec.Keys[spec.Fallback]
		}
		if !ok {
			continue
		}
		if c.Descending() {
			asc := cmp
			cmp = func(a, b T) int { return asc(b, a) }
		}
		cmps = append(cmps, cmp)
	}

	slices.SortStableFunc(items, func(a, b T) int {
		for _, cmp := range cmps {
			if r := cmp(a, b); r != 0 {
				return r
			}
		}
		return 0
	})
}
