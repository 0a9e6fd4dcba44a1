package server

import (
	"errors"
	"testing"

	"nearby.live/geo"
)

// TestTrailBound verifies the trail keeps only the last 20 positions,
// oldest first.
func TestTrailBound(t *testing.T) {
	s := NewSessions()
	if err := s.Create("a"); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 25; i++ {
		if err := s.Record("a", geo.Position{Lat: float64(i), Lon: 0}); err != nil {
			t.Fatal(err)
		}
	}

	trail := s.Trail("a")
	if len(trail) != 20 {
		t.Fatalf("trail length = %d, want 20", len(trail))
	}

	// updates 6..25 in order
	for i, p := range trail {
		if want := float64(i + 6); p.Lat != want {
			t.Errorf("trail[%d].Lat = %v, want %v", i, p.Lat, want)
		}
	}
}

// TestTrailShorterThanBound verifies N updates leave a trail of N when
// under the cap.
func TestTrailShorterThanBound(t *testing.T) {
	s := NewSessions()
	s.Create("a")

	for i := 0; i < 3; i++ {
		s.Record("a", geo.Position{Lat: float64(i), Lon: 0})
	}

	if got := len(s.Trail("a")); got != 3 {
		t.Errorf("trail length = %d, want 3", got)
	}
}

// TestDuplicateCreate verifies creating the same id twice fails.
func TestDuplicateCreate(t *testing.T) {
	s := NewSessions()
	if err := s.Create("a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Create("a"); !errors.Is(err, ErrDuplicateSession) {
		t.Errorf("second create: got %v, want ErrDuplicateSession", err)
	}
}

// TestRecordUnknownSession verifies an update for an absent session is
// rejected without creating one.
func TestRecordUnknownSession(t *testing.T) {
	s := NewSessions()
	if err := s.Record("ghost", geo.Position{}); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("got %v, want ErrUnknownSession", err)
	}
	if s.Len() != 0 {
		t.Errorf("store has %d sessions after rejected update, want 0", s.Len())
	}
}

// TestRemoveIdempotent verifies duplicate removes are tolerated.
func TestRemoveIdempotent(t *testing.T) {
	s := NewSessions()
	s.Create("a")
	s.Remove("a")
	s.Remove("a")

	if s.Len() != 0 {
		t.Errorf("store has %d sessions, want 0", s.Len())
	}
}

// TestAllExcludesPositionless verifies sessions with no recorded
// position do not appear in the scan set.
func TestAllExcludesPositionless(t *testing.T) {
	s := NewSessions()
	s.Create("a")
	s.Create("b")
	s.Record("a", geo.Position{Lat: 1, Lon: 2})

	all := s.All()
	if len(all) != 1 {
		t.Fatalf("All() returned %d entries, want 1", len(all))
	}
	if all[0].ID != "a" {
		t.Errorf("All()[0].ID = %q, want a", all[0].ID)
	}
}

// TestTrailIsCopy verifies mutating a returned trail does not touch
// the stored one.
func TestTrailIsCopy(t *testing.T) {
	s := NewSessions()
	s.Create("a")
	s.Record("a", geo.Position{Lat: 1, Lon: 1})

	trail := s.Trail("a")
	trail[0] = geo.Position{Lat: 99, Lon: 99}

	if got := s.Trail("a")[0]; got.Lat != 1 {
		t.Errorf("stored trail mutated: %v", got)
	}
}
