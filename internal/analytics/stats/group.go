package stats

import "sort"

// Range is a half-open interval [Min, Max).  A nil bound is unbounded.
type Range struct {
	Label string
	Min   *float64
	Max   *float64
}

// Contains reports whether v lies in the range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v >= *r.Max {
		return false
	}
	return true
}

// Bound returns a pointer to v for building Range literals.
func Bound(v float64) *float64 { return &v }

// Group is one partition produced by GroupByRange.
type Group[T any] struct {
	Label string
	Items []T
}

// GroupByRange partitions items by the numeric value returned by value.  The
// groups are returned in the order of ranges, including empty ones.  Items
// for which value reports false, or whose value falls in no range, go to the
// group labelled missingLabel, appended last when non-empty.
func GroupByRange[T any](items []T, value func(T) (float64, bool), ranges []Range, missingLabel string) []Group[T] {
	groups := make([]Group[T], len(ranges))
	for i, r := range ranges {
		groups[i].Label = r.Label
	}
	var missing []T
	for _, it := range items {
		v, ok := value(it)
		if !ok || !isFinite(v) {
			missing = append(missing, it)
			continue
		}
		placed := false
		for i, r := range ranges {
			if r.Contains(v) {
				groups[i].Items = append(groups[i].Items, it)
				placed = true
				break
			}
		}
		if !placed {
			missing = append(missing, it)
		}
	}
	if len(missing) > 0 {
		groups = append(groups, Group[T]{Label: missingLabel, Items: missing})
	}
	return groups
}

// GroupBy partitions items by a categorical key.  Keys are returned sorted so
// iteration over the result is deterministic.
func GroupBy[T any](items []T, key func(T) string) ([]string, map[string][]T) {
	out := make(map[string][]T)
	for _, it := range items {
		k := key(it)
		out[k] = append(out[k], it)
	}
	keys := make([]string, 0, len(out))
	for k := range out {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, out
}

// Collect extracts the values for which value reports true.
func Collect[T any](items []T, value func(T) (float64, bool)) []float64 {
	out := make([]float64, 0, len(items))
	for _, it := range items {
		if v, ok := value(it); ok && isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}
