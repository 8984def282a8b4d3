package scheduler

import (
	"cmp"
	"slices"
)

// Range is a half-open span of minutes since midnight, [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the range length, never negative.
func (r Range) Len() int {
	return max(0, r.End-r.Start)
}

// Empty reports whether the range covers no minutes.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Clip returns the part of r inside window. The result may be empty.
func (r Range) Clip(window Range) Range {
	return Range{Start: max(r.Start, window.Start), End: min(r.End, window.End)}
}

// Merge sorts ranges by start and coalesces overlapping or touching ones.
// Empty ranges are dropped. The input is not modified.
func Merge(ranges []Range) []Range {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if !r.Empty() {
			sorted = append(sorted, r)
		}
	}
	slices.SortFunc(sorted, func(a, b Range) int { return cmp.Compare(a.Start, b.Start) })

	var merged []Range
	for _, r := range sorted {
		if n := len(merged); n > 0 && r.Start <= merged[n-1].End {
			merged[n-1].End = max(merged[n-1].End, r.End)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Gaps returns the parts of window not covered by blocking, in order.
// Every gap is kept regardless of its size.
func Gaps(window Range, blocking []Range) []Range {
	if window.Empty() {
		return nil
	}
	clipped := make([]Range, 0, len(blocking))
	for _, r := range blocking {
		clipped = append(clipped, r.Clip(window))
	}

	var gaps []Range
	cursor := window.Start
	for _, r := range Merge(clipped) {
		if r.Start > cursor {
			gaps = append(gaps, Range{Start: cursor, End: r.Start})
		}
		cursor = max(cursor, r.End)
	}
	if cursor < window.End {
		gaps = append(gaps, Range{Start: cursor, End: window.End})
	}
	return gaps
}

// AvailableMinutes returns the free minutes in [windowStart, windowEnd) once
// blocking is removed, counting only gaps of at least minFragment minutes.
func AvailableMinutes(blocking []Range, windowStart, windowEnd, minFragment int) int {
	total := 0
	for _, g := range Gaps(Range{Start: windowStart, End: windowEnd}, blocking) {
		if g.Len() >= minFragment {
			total += g.Len()
		}
	}
	return total
}
