package soil

import (
	"encoding/json"
	"sort"
)

// Interval is one entry of an Index: a depth range [Top, Bottom) tagged with
// a single soil type, or [Top, Bottom] when ClosedBottom is set. Layer is the
// position of the owning layer in the report's layer slice, so a layer with
// N labels yields N intervals that share the same range and Layer.
type Interval struct {
	Top          float64 `json:"top"`
	Bottom       float64 `json:"bottom"`
	ClosedBottom bool    `json:"closed_bottom,omitempty"`
	Type         Type    `json:"type"`
	Layer        int     `json:"layer"`
}

// Contains reports whether depth falls in the interval. A zero-width
// interval contains only its own boundary depth.
func (iv Interval) Contains(depth float64) bool {
	if iv.Top == iv.Bottom {
		return depth == iv.Top
	}
	if iv.ClosedBottom {
		return iv.Top <= depth && depth <= iv.Bottom
	}
	return iv.Top <= depth && depth < iv.Bottom
}

// Overlaps reports whether the interval shares any depth with [top, bottom).
func (iv Interval) Overlaps(top, bottom float64) bool {
	if top == bottom {
		return iv.Contains(top)
	}
	if iv.Top == iv.Bottom {
		return top <= iv.Top && iv.Top < bottom
	}
	if iv.ClosedBottom {
		return iv.Top < bottom && iv.Bottom >= top
	}
	return iv.Top < bottom && iv.Bottom > top
}

// Index answers point, range and soil-type queries over a report's layers.
//
// Entries are kept sorted by Top together with a running maximum of Bottom.
// A query binary-searches the last entry that can start early enough and
// walks backwards until the running maximum proves no earlier entry can
// reach the query depth. Layer counts per borehole are in the tens, so this
// stays well below a full scan without the bookkeeping of a balanced tree.
type Index struct {
	entries   []Interval
	maxBottom []float64
}

// NewIndex builds an index over entries. Entries with equal Top keep their
// input order.
func NewIndex(entries []Interval) *Index {
	sorted := make([]Interval, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Top < sorted[j].Top
	})

	maxBottom := make([]float64, len(sorted))
	for i, iv := range sorted {
		maxBottom[i] = iv.Bottom
		if i > 0 && maxBottom[i-1] > maxBottom[i] {
			maxBottom[i] = maxBottom[i-1]
		}
	}
	return &Index{entries: sorted, maxBottom: maxBottom}
}

// Len returns the number of intervals in the index.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

// All returns every interval ordered by Top.
func (ix *Index) All() []Interval {
	if ix == nil {
		return nil
	}
	out := make([]Interval, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Point returns the intervals containing depth, ordered by Top.
func (ix *Index) Point(depth float64) []Interval {
	if ix.Len() == 0 {
		return nil
	}
	end := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Top > depth
	})
	return ix.collect(end, depth, func(iv Interval) bool { return iv.Contains(depth) })
}

// Overlap returns the intervals sharing any depth with [top, bottom),
// ordered by Top. A window with top == bottom behaves like Point(top).
func (ix *Index) Overlap(top, bottom float64) []Interval {
	if ix.Len() == 0 || bottom < top {
		return nil
	}
	if top == bottom {
		return ix.Point(top)
	}
	end := sort.Search(len(ix.entries), func(i int) bool {
		return ix.entries[i].Top >= bottom
	})
	return ix.collect(end, top, func(iv Interval) bool { return iv.Overlaps(top, bottom) })
}

// OfType returns every interval labelled t, ordered by Top.
func (ix *Index) OfType(t Type) []Interval {
	if ix == nil {
		return nil
	}
	var out []Interval
	for _, iv := range ix.entries {
		if iv.Type == t {
			out = append(out, iv)
		}
	}
	return out
}

// collect walks entries[:end] backwards while an entry could still reach
// floor, then restores ascending order.
func (ix *Index) collect(end int, floor float64, match func(Interval) bool) []Interval {
	var out []Interval
	for i := end - 1; i >= 0; i-- {
		if ix.maxBottom[i] < floor {
			break
		}
		if match(ix.entries[i]) {
			out = append(out, ix.entries[i])
		}
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

func (ix *Index) MarshalJSON() ([]byte, error) {
	entries := ix.All()
	if entries == nil {
		entries = []Interval{}
	}
	return json.Marshal(entries)
}
