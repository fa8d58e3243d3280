package strata

import (
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RENDER: Drawing the Express Lanes
// ═══════════════════════════════════════════════════════════════════════════════
// Render produces the classic skip-list picture, one line per lane, top
// lane first:
//
//	lane 2: HEAD -> [12] -> nil
//	lane 1: HEAD -> [5] -> [12] -> [20] -> nil
//	lane 0: HEAD -> [3] -> [5] -> [8] -> [12] -> [15] -> [20] -> nil
//
// The renderer is a pure consumer of the core's read access - Height() and
// LaneIterator() - and is never required for correctness. It walks each
// lane iteratively from the head to the terminator; nothing is mutated and
// nothing recursive bounds the input size.
// ═══════════════════════════════════════════════════════════════════════════════

// Formatter turns a stored value into its rendered form. Passing nil to
// Render falls back to fmt.Sprint.
type Formatter[T any] func(T) string

// Render returns a multi-line drawing of the skip list, one lane per line
// from the top lane down to lane 0. An empty list renders as "(empty)".
//
// Example with a custom formatter:
//
//	out := Render(list, func(e Event) string { return e.Name })
func Render[T any](sl *SkipList[T], format Formatter[T]) string {
	if format == nil {
		format = func(v T) string { return fmt.Sprint(v) }
	}

	height := sl.Height()
	if height == 0 {
		return "(empty)"
	}

	var b strings.Builder
	for lane := height - 1; lane >= 0; lane-- {
		fmt.Fprintf(&b, "lane %d: HEAD", lane)

		it := sl.LaneIterator(lane)
		for v, ok := it.Next(); ok; v, ok = it.Next() {
			fmt.Fprintf(&b, " -> [%s]", format(v))
		}

		b.WriteString(" -> nil")
		if lane > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
