package strata

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring"
)

var ErrNoPendingEvents = errors.New("no pending events")

// ═══════════════════════════════════════════════════════════════════════════════
// SCHEDULER: An Event Ready-Set with HYBRID STORAGE
// ═══════════════════════════════════════════════════════════════════════════════
// The skip list answers "what is due next?" but a real scheduler also needs
// "is event 42 still pending?" and "cancel event 42" - and the core
// deliberately has no arbitrary-key deletion. The scheduler solves both
// with a hybrid of two structures:
//
// Architecture:
//
//	Scheduler
//	├── timeline: SkipList[Event]    (ORDER-LEVEL)
//	│   └── every scheduled event, sorted by due time, ties FIFO
//	├── live: roaring.Bitmap         (SET-LEVEL)
//	│   └── the IDs of events that have not been cancelled or delivered
//	└── mu: mutex serializing both (the core itself never locks)
//
// Why Hybrid Storage?
//   - Skip list: Essential for ordered delivery (earliest due event first)
//   - Roaring Bitmap: O(1) membership and removal over compressed ID sets,
//     which turns "cancel" into a one-bit operation
//
// CANCELLATION IS LAZY:
// ---------------------
// Cancel(id) only clears the ID's bit. The event's node stays in the
// timeline until it surfaces as the minimum, at which point Pop/Next
// recognizes the dead ID and discards it. The timeline is therefore
// append-and-drain only - exactly the contract the core offers - and
// every cancelled node still costs just one Θ(1)-amortized extraction,
// whenever it reaches the front.
// ═══════════════════════════════════════════════════════════════════════════════

// Event is one scheduled item: an identifier, a caller-supplied name, and
// the time it becomes due.
type Event struct {
	ID   uint32
	Name string
	At   time.Time
}

// Scheduler is a deadline-ordered event queue with cancellation, safe for
// concurrent use. Events with equal due times are delivered in the order
// they were scheduled.
type Scheduler struct {
	mu       sync.Mutex
	timeline *SkipList[Event]
	live     *roaring.Bitmap // IDs still pending delivery
	lastID   uint32
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		// Ordering is by due time only. Equal times fall back on the
		// skip list's own stability, so no tie-breaker field is needed.
		timeline: New(func(a, b Event) bool { return a.At.Before(b.At) }),
		live:     roaring.NewBitmap(),
	}
}

// Schedule enqueues a named event due at the given time and returns its ID.
//
// EXAMPLE:
// --------
//
//	id := s.Schedule("retry-upload", time.Now().Add(30*time.Second))
//	...
//	s.Cancel(id) // upload succeeded, retry no longer needed
func (s *Scheduler) Schedule(name string, at time.Time) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	id := s.lastID

	s.timeline.Add(Event{ID: id, Name: name, At: at})
	s.live.Add(id)

	slog.Debug("scheduled event",
		slog.Uint64("id", uint64(id)),
		slog.String("name", name),
		slog.Time("at", at))

	return id
}

// Cancel removes a pending event by ID. Returns false when the ID is
// unknown, already delivered, or already cancelled. O(1): only the live
// bitmap is touched - the timeline node is discarded lazily when it
// reaches the front of the queue.
func (s *Scheduler) Cancel(id uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live.CheckedRemove(id) {
		return false
	}

	slog.Debug("cancelled event", slog.Uint64("id", uint64(id)))
	return true
}

// Next returns the earliest pending event without delivering it. The
// second return is false when nothing is pending. Cancelled events
// encountered at the front are discarded on the way, so repeated calls
// with no intervening Schedule/Cancel/Pop return the same event.
func (s *Scheduler) Next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peekLive()
}

// Pop delivers the earliest pending event, removing it from the scheduler.
// Returns ErrNoPendingEvents when nothing is pending.
func (s *Scheduler) Pop() (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.peekLive()
	if !ok {
		return Event{}, ErrNoPendingEvents
	}

	s.timeline.Pop() // The peeked event: live, at the front
	s.live.Remove(ev.ID)

	slog.Debug("delivered event",
		slog.Uint64("id", uint64(ev.ID)),
		slog.String("name", ev.Name))

	return ev, nil
}

// PopDue delivers every pending event due at or before now, earliest
// first. This is the ready-set drain: a scheduler tick is one PopDue call.
func (s *Scheduler) PopDue(now time.Time) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Event
	for {
		ev, ok := s.peekLive()
		if !ok || ev.At.After(now) {
			break
		}
		s.timeline.Pop()
		s.live.Remove(ev.ID)
		due = append(due, ev)
	}

	if len(due) > 0 {
		slog.Debug("delivered due events", slog.Int("count", len(due)))
	}
	return due
}

// Len returns the number of pending (scheduled and not cancelled) events.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.live.GetCardinality())
}

// peekLive returns the earliest live event, popping and discarding any
// cancelled events sitting in front of it. Callers hold s.mu.
func (s *Scheduler) peekLive() (Event, bool) {
	for {
		ev, ok := s.timeline.Top()
		if !ok {
			return Event{}, false
		}
		if s.live.Contains(ev.ID) {
			return ev, true
		}
		// Tombstone: cancelled earlier, discard now that it surfaced
		s.timeline.Pop()
	}
}
