package strata

import (
	"testing"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SCHEDULER TESTS
// ═══════════════════════════════════════════════════════════════════════════════

var base = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func TestScheduler_DeliversByDueTime(t *testing.T) {
	s := NewScheduler()
	s.Schedule("third", base.Add(3*time.Second))
	s.Schedule("first", base.Add(1*time.Second))
	s.Schedule("second", base.Add(2*time.Second))

	for _, want := range []string{"first", "second", "third"} {
		ev, err := s.Pop()
		if err != nil {
			t.Fatalf("Pop(): %v", err)
		}
		if ev.Name != want {
			t.Errorf("Pop().Name = %q, want %q", ev.Name, want)
		}
	}

	if _, err := s.Pop(); err != ErrNoPendingEvents {
		t.Errorf("Pop() on drained scheduler error = %v, want %v", err, ErrNoPendingEvents)
	}
}

func TestScheduler_TiesDeliverFIFO(t *testing.T) {
	s := NewScheduler()
	at := base.Add(time.Minute)

	ids := []uint32{
		s.Schedule("a", at),
		s.Schedule("b", at),
		s.Schedule("c", at),
	}

	for i, want := range ids {
		ev, err := s.Pop()
		if err != nil {
			t.Fatalf("Pop() #%d: %v", i, err)
		}
		if ev.ID != want {
			t.Errorf("pop #%d delivered ID %d, want %d (insertion order)", i, ev.ID, want)
		}
	}
}

func TestScheduler_Cancel(t *testing.T) {
	s := NewScheduler()
	s.Schedule("keep-early", base.Add(1*time.Second))
	doomed := s.Schedule("cancel-me", base.Add(2*time.Second))
	s.Schedule("keep-late", base.Add(3*time.Second))

	if !s.Cancel(doomed) {
		t.Fatal("Cancel() of a pending event = false, want true")
	}
	if s.Cancel(doomed) {
		t.Error("second Cancel() of the same event = true, want false")
	}
	if s.Cancel(9999) {
		t.Error("Cancel() of an unknown ID = true, want false")
	}
	if got := s.Len(); got != 2 {
		t.Errorf("Len() after cancel = %d, want 2", got)
	}

	var names []string
	for {
		ev, err := s.Pop()
		if err != nil {
			break
		}
		names = append(names, ev.Name)
	}
	if len(names) != 2 || names[0] != "keep-early" || names[1] != "keep-late" {
		t.Errorf("delivered %v, want [keep-early keep-late]", names)
	}
}

func TestScheduler_CancelFront(t *testing.T) {
	s := NewScheduler()
	front := s.Schedule("front", base.Add(1*time.Second))
	s.Schedule("behind", base.Add(2*time.Second))

	s.Cancel(front)

	// The cancelled event sits at the minimum; Next must skip it.
	ev, ok := s.Next()
	if !ok || ev.Name != "behind" {
		t.Fatalf("Next() = (%+v, %v), want the event behind the tombstone", ev, ok)
	}

	// Cancelling something already delivered also reports false.
	if _, err := s.Pop(); err != nil {
		t.Fatalf("Pop(): %v", err)
	}
	if s.Cancel(ev.ID) {
		t.Error("Cancel() of a delivered event = true, want false")
	}
}

func TestScheduler_Next_Idempotent(t *testing.T) {
	s := NewScheduler()
	s.Schedule("only", base)

	for i := 0; i < 3; i++ {
		ev, ok := s.Next()
		if !ok || ev.Name != "only" {
			t.Fatalf("Next() call #%d = (%+v, %v), want the same pending event", i, ev, ok)
		}
	}
	if got := s.Len(); got != 1 {
		t.Errorf("Len() after repeated Next() = %d, want 1", got)
	}
}

func TestScheduler_NextEmpty(t *testing.T) {
	s := NewScheduler()
	if ev, ok := s.Next(); ok {
		t.Errorf("Next() on empty scheduler = (%+v, true), want ok=false", ev)
	}
}

func TestScheduler_PopDue(t *testing.T) {
	s := NewScheduler()
	s.Schedule("due-1", base.Add(1*time.Second))
	late := s.Schedule("cancelled", base.Add(2*time.Second))
	s.Schedule("due-2", base.Add(2*time.Second))
	s.Schedule("future", base.Add(10*time.Second))
	s.Cancel(late)

	due := s.PopDue(base.Add(5 * time.Second))

	if len(due) != 2 {
		t.Fatalf("PopDue() delivered %d events, want 2", len(due))
	}
	if due[0].Name != "due-1" || due[1].Name != "due-2" {
		t.Errorf("PopDue() order = [%s %s], want [due-1 due-2]", due[0].Name, due[1].Name)
	}
	if got := s.Len(); got != 1 {
		t.Errorf("Len() after PopDue = %d, want 1 (the future event)", got)
	}

	// Nothing else is due yet.
	if extra := s.PopDue(base.Add(5 * time.Second)); len(extra) != 0 {
		t.Errorf("second PopDue() delivered %d events, want 0", len(extra))
	}
}

func TestScheduler_IDsAreUnique(t *testing.T) {
	s := NewScheduler()
	seen := make(map[uint32]bool)
	for i := 0; i < 1000; i++ {
		id := s.Schedule("e", base.Add(time.Duration(i%7)*time.Second))
		if seen[id] {
			t.Fatalf("Schedule() returned duplicate ID %d", id)
		}
		seen[id] = true
	}
	if got := s.Len(); got != 1000 {
		t.Errorf("Len() = %d, want 1000", got)
	}
}

func BenchmarkScheduler_ScheduleCancel(b *testing.B) {
	s := NewScheduler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := s.Schedule("bench", base.Add(time.Duration(i)*time.Millisecond))
		if i%4 == 0 {
			s.Cancel(id)
		}
	}
}

func BenchmarkScheduler_PopDue(b *testing.B) {
	s := NewScheduler()
	for i := 0; i < b.N; i++ {
		s.Schedule("bench", base.Add(time.Duration(i)*time.Millisecond))
	}

	b.ResetTimer()
	s.PopDue(base.Add(time.Duration(b.N) * time.Millisecond))
}
