// Package strata implements a priority-queue core built on a deterministic
// 1-2-3 skip list, plus the collaborators a scheduling workload needs: an
// event scheduler with a cancellation set, and a read-only lane renderer.
package strata

import (
	"cmp"
	"errors"
)

// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS A DETERMINISTIC 1-2-3 SKIP LIST?
// ═══════════════════════════════════════════════════════════════════════════════
// A skip list is a linked list with "express lanes" layered on top of it.
// Most skip lists flip coins to decide how tall each node's tower of lanes
// should be. This one flips no coins at all: the shape is maintained by a
// structural rule, the same way a 2-3 tree is.
//
// THE 1-2-3 RULE (gap invariant):
// -------------------------------
// Between any two nodes that sit next to each other on lane L, the number of
// nodes that appear on lane L-1 but not on lane L must be 1, 2, or 3.
// (A gap of 0 is tolerated directly behind the head, and nowhere else -
// extraction of the minimum is allowed to leave that one kind of hole.)
//
// VISUAL REPRESENTATION:
// ----------------------
// Lane 2: HEAD ------------------------> [12] ----------------> nil
// Lane 1: HEAD --------> [5] ----------> [12] -------> [20] --> nil
// Lane 0: HEAD -> [3] -> [5] -> [8] ---> [12] -> [15] -> [20] -> nil
//
// Every gap between consecutive lane-1 nodes holds 1-3 lane-0-only nodes,
// every gap between consecutive lane-2 nodes holds 1-3 lane-1-only nodes,
// and so on. That bounds the work per lane during a descent to a constant,
// which is what makes search and insert Θ(log n) in the WORST case - not
// just on average, and not subject to an unlucky random seed.
//
// HOW THE RULE IS MAINTAINED:
// ---------------------------
// There is no rebalancing pass. The descent that locates an insertion point
// repairs the structure as it goes: whenever it crosses a gap that already
// holds 3 nodes, it promotes the middle one up a lane, splitting the 3-run
// into two 1-runs. Because repair happens BEFORE the new element lands at
// the bottom, no gap can ever grow past 3.
//
// WHY A PRIORITY QUEUE?
// ---------------------
// The minimum always sits directly in front of the head on lane 0, so
// peeking is one pointer read, and extracting it is just "advance every
// head lane that points at it" - no search, no repair. Workloads that
// insert and drain in priority order (event queues, scheduler ready-sets,
// k-way merges) get Θ(log n) insert and Θ(1) amortized extract-min.
// ═══════════════════════════════════════════════════════════════════════════════

var ErrEmptyList = errors.New("skip list is empty")

// ═══════════════════════════════════════════════════════════════════════════════
// NODE: One Element and Its Tower of Lanes
// ═══════════════════════════════════════════════════════════════════════════════
// Each node stores a value and a growable slice of forward references, one
// per lane the node participates in:
//
//	lanes[2] -----> (points to a node far ahead)
//	lanes[1] -----> (points to a node ahead)
//	lanes[0] -----> (points to the very next node)
//
// A node's height is exactly len(lanes), and the lanes it occupies are
// always the contiguous prefix 0..height-1. Every node is born with height
// 1 and only ever grows, one lane at a time, when a later descent promotes
// it. There is no fixed tower array and no maximum height constant: the
// slice is appended to on promotion, which keeps per-node memory
// proportional to actual height (~1.5 references per node overall).
//
// The end of every lane is plain nil. No sentinel tail, no +infinity value -
// traversal just runs off the end naturally.
// ═══════════════════════════════════════════════════════════════════════════════
type node[T any] struct {
	value T
	lanes []*node[T] // Forward references, lanes[0] = base list
}

// next returns the node's successor at the given lane, or nil when the node
// does not reach that lane. Treating a missing lane as nil lets the head
// answer for lanes above the current height without special cases.
func (n *node[T]) next(lane int) *node[T] {
	if lane >= len(n.lanes) {
		return nil
	}
	return n.lanes[lane]
}

// setNext writes the node's successor at the given lane, growing the lane
// slice when the lane does not exist yet. Growth is how promotion raises a
// node's height by one, and - when the node is the head - how the whole
// structure gains a lane.
func (n *node[T]) setNext(lane int, to *node[T]) {
	for len(n.lanes) <= lane {
		n.lanes = append(n.lanes, nil)
	}
	n.lanes[lane] = to
}

// ═══════════════════════════════════════════════════════════════════════════════
// SKIP LIST: The Main Data Structure
// ═══════════════════════════════════════════════════════════════════════════════
// The head is a value-less node whose lane count IS the current height of
// the structure. The ordering is supplied as an explicit strict-less
// comparator at construction time; the list itself never compares values
// any other way.
//
// COMPARATOR CONTRACT:
// --------------------
// less must be a strict weak ordering. Only strict-less is ever asked:
// "not less" is treated as greater-or-equal, which is exactly what makes
// duplicates stable (an equal newcomer sorts AFTER the equals already
// present, so ties pop in insertion order).
//
// The structure is purely synchronous and performs no locking. Callers that
// share one list across goroutines must serialize access externally - see
// Scheduler for the canonical wrapper.
// ═══════════════════════════════════════════════════════════════════════════════
type SkipList[T any] struct {
	less func(a, b T) bool
	head *node[T] // Sentinel; len(head.lanes) = current height
	size int
}

// New creates an empty skip list ordered by the supplied strict-less
// comparator.
//
// Example:
//
//	byDeadline := New[Task](func(a, b Task) bool { return a.Due.Before(b.Due) })
func New[T any](less func(a, b T) bool) *SkipList[T] {
	return &SkipList[T]{
		less: less,
		head: &node[T]{}, // Height 0: an empty list has no lanes at all
	}
}

// NewOrdered creates an empty skip list over a naturally ordered type.
//
// Example:
//
//	pq := NewOrdered[int]()
func NewOrdered[T cmp.Ordered]() *SkipList[T] {
	return New(cmp.Less[T])
}

// Len returns the number of elements currently stored. O(1).
func (sl *SkipList[T]) Len() int {
	return sl.size
}

// Height returns the number of lanes the structure currently spans. O(1).
//
// Height only grows - by at most one per Add, and only when a promotion
// fires on the then-topmost lane. Pop never shrinks it: a drained top lane
// simply contributes nothing to later descents (its gap is 0 behind the
// head, which the descent skips over for free).
func (sl *SkipList[T]) Height() int {
	return len(sl.head.lanes)
}

// ═══════════════════════════════════════════════════════════════════════════════
// SEARCH AND PROMOTE: The Core Descent
// ═══════════════════════════════════════════════════════════════════════════════
// One pass does two jobs:
//
//  1. SEARCH: find the exact lane-0 slot where value belongs, as a bracket
//     (left, right) - left is the tightest node known to precede the slot
//     (the head when nothing does), right the tightest node known to follow
//     it (nil when nothing does).
//
//  2. PROMOTE: every time the descent crosses a gap that already holds 3
//     nodes, raise the middle one up a lane before choosing which third of
//     the gap to descend into. This is the ONLY place the structure is ever
//     repaired.
//
// WALKING ONE LANE:
// -----------------
// At each lane the bracket is refined by looking at up to three successors
// of left - e1, e2, e3 - stopping as soon as one of them equals the right
// boundary inherited from the lane above (the gap invariant guarantees a
// fourth successor could only be that boundary):
//
//	0 between (e1 == right):  nothing to learn, drop straight down
//	1 between (e2 == right):  value < e1 ? tighten right : tighten left
//	2 between (e3 == right):  two comparisons pick one of three sub-gaps
//	3 between:                promote e2 up a lane, then three comparisons
//	                          pick one of four sub-gaps
//
// PROMOTION EXAMPLE (descending toward 9, gap of 3 found on lane 0):
// ------------------------------------------------------------------
// Before:
// Lane 1: HEAD ------------------------------> [15] -> ...
// Lane 0: HEAD ----> [4] ----> [8] ----> [11] -> [15] -> ...
//
// After promoting the middle node [8]:
// Lane 1: HEAD --------------> [8] ----------> [15] -> ...
// Lane 0: HEAD ----> [4] ----> [8] ----> [11] -> [15] -> ...
//
// The 3-run (4, 8, 11) became two 1-runs around [8], and the descent then
// continues into the (8, 11) sub-gap since 8 <= 9 < 11.
//
// HEIGHT GROWTH:
// --------------
// When the promotion fires on the topmost lane, left is still the head
// (nothing can tighten it before the promotion step runs), so writing the
// head's reference one lane up grows the head's lane slice - the whole
// structure gets taller by one. The loop's starting lane was fixed on
// entry, so the brand-new top lane is not revisited within the same call.
// ═══════════════════════════════════════════════════════════════════════════════

// searchAndPromote locates the lane-0 insertion bracket for value,
// promoting the middle node of every 3-gap it crosses on the way down.
func (sl *SkipList[T]) searchAndPromote(value T) (left, right *node[T]) {
	left = sl.head // right starts as nil: the terminator

	for lane := len(sl.head.lanes) - 1; lane >= 0; lane-- {
		// Inspect up to three successors of left on this lane. The right
		// boundary from the lane above caps the walk; nil plays that role
		// naturally on the rightmost path.
		e1 := left.next(lane)
		if e1 == right {
			continue // Empty gap: this lane refines nothing
		}

		e2 := e1.next(lane)
		if e2 == right {
			// One node in the gap: a single comparison splits it
			if sl.less(value, e1.value) {
				right = e1
			} else {
				left = e1
			}
			continue
		}

		e3 := e2.next(lane)
		if e3 != right {
			// Three nodes in the gap (the invariant rules out a fourth):
			// promote the middle one BEFORE comparing. e2 gains the lane
			// above, spliced between left and left's old successor there.
			// When this is the topmost lane, left is the head and the
			// write below grows the structure by one lane.
			e2.setNext(lane+1, left.next(lane+1))
			left.setNext(lane+1, e2)
		}

		// Two or three nodes in the gap: walk them in order, tightening
		// left past everything <= value and stopping at the first node
		// value sorts below. Equal values are "not less", so left slides
		// past them - that is the duplicate stability rule.
		if sl.less(value, e1.value) {
			right = e1
			continue
		}
		if sl.less(value, e2.value) {
			left, right = e1, e2
			continue
		}
		if e3 == right {
			left = e2 // Gap of two, value belongs after both
			continue
		}
		if sl.less(value, e3.value) {
			left, right = e2, e3
		} else {
			left = e3 // Gap of three, value belongs after all of them
		}
	}

	return left, right
}

// ═══════════════════════════════════════════════════════════════════════════════
// ADD: Inserting an Element
// ═══════════════════════════════════════════════════════════════════════════════
// All the intelligence lives in the descent; the splice itself is two
// pointer writes. The new node ALWAYS starts at height 1 - it earns extra
// lanes only when some future descent happens to find it in the middle of
// a 3-run. Compare that with a randomized skip list, where the dice decide
// the height up front: here structure is earned, never guessed.
// ═══════════════════════════════════════════════════════════════════════════════

// Add inserts value, keeping the list sorted under the comparator.
// Θ(log n) worst case, including all promotions performed on the way down.
// Equal values are kept in insertion order.
func (sl *SkipList[T]) Add(value T) {
	left, right := sl.searchAndPromote(value)

	// Splice a fresh height-1 node into the lane-0 bracket:
	// left -> [value] -> right
	n := &node[T]{value: value, lanes: []*node[T]{right}}
	left.setNext(0, n)
	sl.size++
}

// ═══════════════════════════════════════════════════════════════════════════════
// TOP AND POP: Reading and Extracting the Minimum
// ═══════════════════════════════════════════════════════════════════════════════
// The minimum is whatever the head's lane-0 reference points at, so Top is
// one dereference. Pop advances every head lane that points directly at the
// minimum to the minimum's own successor on that lane - and touches nothing
// else:
//
// Before popping [3] (height 2):
// Lane 1: HEAD -> [3] ----------> [12] -> ...
// Lane 0: HEAD -> [3] -> [5] ---> [12] -> ...
//
// After:
// Lane 1: HEAD ----------------> [12] -> ...
// Lane 0: HEAD -> [5] ---------> [12] -> ...
//
// No rebalancing happens. The gap behind the head may drop to 0 - that hole
// is the one place the 1-2-3 rule is relaxed, and it is load-bearing: it is
// what buys Θ(1) amortized extraction. The cost of one Pop is the height of
// the departing node, and since the fraction of nodes at height h falls off
// geometrically (total references across all nodes is ~1.5n), draining the
// whole list costs O(n) pointer moves.
// ═══════════════════════════════════════════════════════════════════════════════

// Top returns the minimum element without removing it. The second return
// is false when the list is empty. Never mutates; repeated calls return
// the same value. O(1).
func (sl *SkipList[T]) Top() (T, bool) {
	if first := sl.head.next(0); first != nil {
		return first.value, true
	}
	var zero T
	return zero, false
}

// Pop removes and returns the minimum element. Returns ErrEmptyList when
// the list is empty. Θ(1) amortized over a drain; Θ(log n) worst case for
// a single call (the departing node can be as tall as the structure).
func (sl *SkipList[T]) Pop() (T, error) {
	target := sl.head.next(0)
	if target == nil {
		var zero T
		return zero, ErrEmptyList
	}

	// Advance every head lane still aimed at the target. The first lane
	// where the head points elsewhere ends the target's tower - lanes
	// above it cannot reference the target either (prefix property).
	for lane := 0; lane < len(target.lanes); lane++ {
		if sl.head.lanes[lane] != target {
			break
		}
		sl.head.lanes[lane] = target.next(lane)
	}

	sl.size--
	return target.value, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// ITERATORS: Sequential Read-Only Access
// ═══════════════════════════════════════════════════════════════════════════════
// Iterator walks lane 0 and therefore visits every element in sorted order.
// LaneIterator walks any single lane - that is the read access an external
// renderer needs to draw the express-lane picture, and it can never be
// required for correctness: it exposes values, nothing mutable.
//
// USAGE PATTERN:
// --------------
//
//	it := list.Iterator()
//	for v, ok := it.Next(); ok; v, ok = it.Next() {
//	    // v visits elements in non-decreasing order
//	}
//
// ═══════════════════════════════════════════════════════════════════════════════

// Iterator provides in-order sequential access over one lane.
type Iterator[T any] struct {
	current *node[T]
	lane    int
}

// Iterator returns an iterator over lane 0: every element, sorted order.
func (sl *SkipList[T]) Iterator() *Iterator[T] {
	return sl.LaneIterator(0)
}

// LaneIterator returns an iterator over the given lane. Lanes at or above
// Height() yield nothing. Lane 0 visits all elements; higher lanes visit
// progressively sparser subsequences.
func (sl *SkipList[T]) LaneIterator(lane int) *Iterator[T] {
	return &Iterator[T]{current: sl.head, lane: lane}
}

// Next advances the iterator and returns the next value. The second return
// is false once the lane is exhausted.
func (it *Iterator[T]) Next() (T, bool) {
	if it.current != nil {
		it.current = it.current.next(it.lane)
	}
	if it.current == nil {
		var zero T
		return zero, false
	}
	return it.current.value, true
}
