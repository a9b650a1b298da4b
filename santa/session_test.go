/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package santa

import (
	"errors"
	"slices"
	"testing"
)

func generated(t *testing.T, participants ...string) Session {
	t.Helper()

	s := Session{}
	for _, p := range participants {
		if err := s.AddParticipant(p); err != nil {
			t.Fatalf("AddParticipant(%q): %v", p, err)
		}
	}
	if err := s.Generate(SeededRand(1)); err != nil {
		t.Fatal(err)
	}

	return s
}

func TestSession_AddParticipant(t *testing.T) {
	s := Session{}

	if err := s.AddParticipant("  Alice "); err != nil {
		t.Fatal(err)
	}
	if err := s.AddParticipant("Alice"); !errors.Is(err, ErrDuplicateParticipant) {
		t.Errorf("duplicate add: got %v", err)
	}
	if err := s.AddParticipant("   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank add: got %v", err)
	}
	if err := s.AddParticipant("Bob\xff"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("invalid utf-8 add: got %v", err)
	}

	if !slices.Equal(s.Participants, []string{"Alice"}) {
		t.Errorf("participants = %q", s.Participants)
	}
}

func TestSession_EditsClearAssignments(t *testing.T) {
	t.Run("remove", func(t *testing.T) {
		s := generated(t, "A", "B", "C")
		if len(s.Assignments) != 3 {
			t.Fatalf("got %d assignments", len(s.Assignments))
		}

		s.RemoveParticipant("C")

		if len(s.Assignments) != 0 {
			t.Errorf("assignments survived a removal: %v", s.Assignments)
		}
		if !slices.Equal(s.Participants, []string{"A", "B"}) {
			t.Errorf("participants = %q", s.Participants)
		}
	})

	t.Run("add", func(t *testing.T) {
		s := generated(t, "A", "B", "C")

		if err := s.AddParticipant("D"); err != nil {
			t.Fatal(err)
		}
		if len(s.Assignments) != 0 {
			t.Errorf("assignments survived an addition: %v", s.Assignments)
		}
	})

	t.Run("rejected add keeps draw", func(t *testing.T) {
		s := generated(t, "A", "B", "C")

		_ = s.AddParticipant("B")
		if len(s.Assignments) != 3 {
			t.Errorf("rejected add cleared the draw")
		}
	})

	t.Run("remove unknown keeps draw", func(t *testing.T) {
		s := generated(t, "A", "B", "C")

		s.RemoveParticipant("Z")
		if len(s.Assignments) != 3 {
			t.Errorf("removing an absent name cleared the draw")
		}
	})
}

func TestSession_RemoveDoesNotAlias(t *testing.T) {
	original := []string{"A", "B", "C"}
	s := Session{Participants: original}

	s.RemoveParticipant("A")

	if !slices.Equal(original, []string{"A", "B", "C"}) {
		t.Errorf("caller's slice modified: %q", original)
	}
}

func TestSession_RemoveClearsSelection(t *testing.T) {
	s := Session{Participants: []string{"A", "B", "C"}, Selected: "B"}

	s.RemoveParticipant("B")
	if s.Selected != "" {
		t.Errorf("selected = %q", s.Selected)
	}
}

func TestSession_GenerateFailure(t *testing.T) {
	s := Session{Participants: []string{"A", "B"}}

	if err := s.Generate(DefaultRand()); !errors.Is(err, ErrTooFewParticipants) {
		t.Errorf("got %v", err)
	}
	if s.Assignments != nil {
		t.Errorf("assignments = %v", s.Assignments)
	}

	s = Session{Participants: []string{"A", "B", "C", "D"}}
	if err := s.Generate(&stayRand{}); !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("got %v", err)
	}
	if s.Assignments != nil {
		t.Errorf("assignments = %v", s.Assignments)
	}
}

func TestSession_GenerateFailureKeepsDraw(t *testing.T) {
	s := generated(t, "A", "B", "C")
	before := slices.Clone(s.Assignments)

	if err := s.Generate(&stayRand{}); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("got %v", err)
	}
	if !slices.Equal(s.Assignments, before) {
		t.Errorf("assignments = %v, want %v", s.Assignments, before)
	}

	s.Participants = []string{"A", "B", "A"}
	if err := s.Generate(DefaultRand()); !errors.Is(err, ErrDuplicateParticipant) {
		t.Fatalf("got %v", err)
	}
	if !slices.Equal(s.Assignments, before) {
		t.Errorf("validation failure changed assignments: %v", s.Assignments)
	}
}

func TestSession_Ready(t *testing.T) {
	s := Session{Participants: []string{"A", "B"}}
	if s.Ready() {
		t.Error("two participants reported ready")
	}

	s = generated(t, "A", "B", "C")
	if s.Ready() {
		t.Error("session with a draw reported ready")
	}

	s.RemoveParticipant("C")
	_ = s.AddParticipant("C")
	if !s.Ready() {
		t.Error("edited session not ready")
	}
}

func TestLookupAssignment(t *testing.T) {
	set := []Assignment{{"A", "B"}, {"B", "C"}, {"C", "A"}}

	got, ok := LookupAssignment(set, "B")
	if !ok || got != (Assignment{"B", "C"}) {
		t.Errorf("lookup B = %v, %v", got, ok)
	}

	if _, ok := LookupAssignment(set, "Z"); ok {
		t.Error("lookup Z succeeded")
	}
	if _, ok := LookupAssignment(nil, "A"); ok {
		t.Error("lookup in empty set succeeded")
	}
}

func TestSession_Lookup(t *testing.T) {
	s := Session{Assignments: Assignments{{"A", "B"}, {"B", "C"}, {"C", "A"}}}

	if _, ok := s.Lookup(); ok {
		t.Error("lookup without selection succeeded")
	}

	s.Select(" C ")
	got, ok := s.Lookup()
	if !ok || got.Receiver != "A" {
		t.Errorf("lookup C = %v, %v", got, ok)
	}
}

func TestSession_ResetAndViewer(t *testing.T) {
	s := generated(t, "A", "B", "C")
	s.Select("A")

	v := s.Viewer()
	if v.Selected != "" || s.Selected != "A" {
		t.Errorf("viewer selected %q, session selected %q", v.Selected, s.Selected)
	}
	if len(v.Assignments) != 3 {
		t.Errorf("viewer lost assignments")
	}

	s.Reset()
	sameSession(t, s, Session{})
	if Encode(s) != "" {
		t.Errorf("reset session encodes to %q", Encode(s))
	}
}
