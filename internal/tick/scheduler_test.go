package tick

import "testing"

func TestDueIsZeroBeforeFirstInterval(t *testing.T) {
	s := NewScheduler(100, 0, 3)
	if got := s.Due(50); got != 0 {
		t.Fatalf("Due(50) = %d, want 0 before the first 100ms interval elapses", got)
	}
}

func TestDueFiresOncePerInterval(t *testing.T) {
	s := NewScheduler(100, 0, 3)
	if got := s.Due(100); got != 1 {
		t.Fatalf("Due(100) = %d, want 1", got)
	}
	if got := s.Due(150); got != 0 {
		t.Fatalf("Due(150) = %d, want 0 (already consumed this interval)", got)
	}
	if got := s.Due(200); got != 1 {
		t.Fatalf("Due(200) = %d, want 1", got)
	}
}

func TestDueCatchesUpBoundedByMaxCatchup(t *testing.T) {
	s := NewScheduler(10, 0, 3)
	// 55ms elapsed with nothing consumed: 5 ticks owed, capped at 3.
	got := s.Due(55)
	if got != 3 {
		t.Fatalf("Due(55) = %d, want capped at maxCatchup=3", got)
	}
}

func TestDueResyncsAfterDroppingBacklog(t *testing.T) {
	s := NewScheduler(10, 0, 3)
	s.Due(1000) // huge backlog, dropped and resynced to "now"
	got := s.Due(1010)
	if got != 1 {
		t.Fatalf("Due(1010) after resync = %d, want 1 (one interval past the resync point)", got)
	}
}

func TestDueDefaultsMaxCatchupWhenNonPositive(t *testing.T) {
	s := NewScheduler(10, 0, 0)
	got := s.Due(1000)
	if got != 3 {
		t.Fatalf("Due with maxCatchup<=0 should default to 3, got %d", got)
	}
}
