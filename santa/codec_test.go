/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package santa

import (
	"encoding/base64"
	"errors"
	"slices"
	"strings"
	"testing"
)

func sameSession(t *testing.T, got, want Session) {
	t.Helper()

	if !slices.Equal(got.Participants, want.Participants) {
		t.Errorf("participants = %q, want %q", got.Participants, want.Participants)
	}
	if !slices.Equal(got.Assignments, want.Assignments) {
		t.Errorf("assignments = %v, want %v", got.Assignments, want.Assignments)
	}
	if got.Selected != want.Selected {
		t.Errorf("selected = %q, want %q", got.Selected, want.Selected)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		session Session
	}{
		{"empty", Session{}},
		{"participants only", Session{Participants: []string{"Alice", "Bob"}}},
		{"selection only", Session{Selected: "Alice"}},
		{
			"full",
			Session{
				Participants: []string{"Alice", "Bob", "Carol"},
				Assignments:  Assignments{{"Alice", "Carol"}, {"Bob", "Alice"}, {"Carol", "Bob"}},
				Selected:     "Bob",
			},
		},
		{
			"reserved characters",
			Session{
				Participants: []string{"Smith, John", "50% off", "a+b=c&d", "Zoë 🎅", "Mary Ann", "x/y?z#w"},
				Assignments: Assignments{
					{"Smith, John", "50% off"},
					{"50% off", "Smith, John"},
					{"a+b=c&d", "Zoë 🎅"},
					{"Zoë 🎅", "Mary Ann"},
					{"Mary Ann", "x/y?z#w"},
					{"x/y?z#w", "a+b=c&d"},
				},
				Selected: "Smith, John",
			},
		},
		{"escape-looking name", Session{Participants: []string{"%2C", "%", "%zz"}, Selected: "%41"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := Encode(tt.session)

			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatalf("Decode(%q): %v", encoded, err)
			}
			sameSession(t, decoded, tt.session)

			again, err := Decode("?" + encoded)
			if err != nil {
				t.Fatalf("Decode with leading '?': %v", err)
			}
			sameSession(t, again, tt.session)
		})
	}
}

func TestCodec_RoundTripGenerated(t *testing.T) {
	r := SeededRand(7)

	for i := 0; i < 50; i++ {
		s := Session{Participants: names(3 + i%10)}
		if err := s.Generate(r); err != nil {
			t.Fatal(err)
		}
		s.Select(s.Participants[i%len(s.Participants)])

		decoded, err := Decode(Encode(s))
		if err != nil {
			t.Fatal(err)
		}
		sameSession(t, decoded, s)
	}
}

func TestEncode_OmitsEmptyFields(t *testing.T) {
	if got := Encode(Session{}); got != "" {
		t.Errorf("empty session encoded to %q", got)
	}

	got := Encode(Session{Participants: []string{"A", "B"}, Assignments: Assignments{}})
	if got != "participants=A%2CB" {
		t.Errorf("got %q", got)
	}

	for _, param := range []string{ParamAssignments, ParamSelected} {
		if strings.Contains(got, param) {
			t.Errorf("%q contains empty parameter %s", got, param)
		}
	}
}

func TestEncode_AssignmentsAreURLSafe(t *testing.T) {
	s := Session{
		Participants: []string{"~~~", "???", ">>>"},
		Assignments:  Assignments{{"~~~", "???"}, {"???", ">>>"}, {">>>", "~~~"}},
	}

	encoded := Encode(s)
	_, value, _ := strings.Cut(encoded, ParamAssignments+"=")

	if strings.ContainsAny(value, "%+/=") {
		t.Errorf("assignments value %q needs escaping", value)
	}
}

func TestDecode_Empty(t *testing.T) {
	for _, raw := range []string{"", "?", "&&", "unrelated=1"} {
		s, err := Decode(raw)
		if err != nil {
			t.Errorf("Decode(%q): %v", raw, err)
		}
		sameSession(t, s, Session{})
	}
}

func TestDecode_Malformed(t *testing.T) {
	b64 := func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"bad escape", "assignments=%%%garbage"},
		{"bad base64", "assignments=not*base64!"},
		{"not json", "assignments=" + b64("hello")},
		{"object", "assignments=" + b64(`{"giver":"A","receiver":"B"}`)},
		{"empty list", "assignments=" + b64(`[]`)},
		{"null", "assignments=" + b64(`null`)},
		{"missing receiver", "assignments=" + b64(`[{"giver":"A"}]`)},
		{"self assignment", "assignments=" + b64(`[{"giver":"A","receiver":"A"}]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := "participants=A%2CB%2CC&" + tt.raw + "&selected=B"

			s, err := Decode(raw)
			if err == nil {
				t.Fatal("expected a decode failure")
			}

			var de *DecodeError
			if !errors.As(err, &de) || de.Field != ParamAssignments {
				t.Errorf("got %v, want a DecodeError for %s", err, ParamAssignments)
			}

			sameSession(t, s, Session{Participants: []string{"A", "B", "C"}, Selected: "B"})
		})
	}
}

func TestDecode_FieldsIndependent(t *testing.T) {
	good := Encode(Session{Assignments: Assignments{{"A", "B"}, {"B", "A"}}})

	s, err := Decode("participants=%zz&" + good + "&selected=%")
	if err == nil {
		t.Fatal("expected decode failures")
	}

	var fields []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var de *DecodeError
		if errors.As(e, &de) {
			fields = append(fields, de.Field)
		}
	}
	if !slices.Equal(fields, []string{ParamParticipants, ParamSelected}) {
		t.Errorf("failed fields = %v", fields)
	}

	sameSession(t, s, Session{Assignments: Assignments{{"A", "B"}, {"B", "A"}}})
}

func TestDecode_Participants(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"participants=A,B,,C,", []string{"A", "B", "C"}},
		{"participants=A%2CB%2C%20%2CC", []string{"A", "B", "C"}},
		{"participants=A,B,A", []string{"A", "B"}},
		{"participants=Mary+Ann,Bob", []string{"Mary Ann", "Bob"}},
		{"participants=50%25,100%25", []string{"50%", "100%"}},
		{"participants=", nil},
	}

	for _, tt := range tests {
		s, err := Decode(tt.raw)
		if err != nil {
			t.Errorf("Decode(%q): %v", tt.raw, err)
			continue
		}
		if !slices.Equal(s.Participants, tt.want) {
			t.Errorf("Decode(%q) participants = %q, want %q", tt.raw, s.Participants, tt.want)
		}
	}
}

func TestDecode_FullURL(t *testing.T) {
	s, err := Decode("https://santa.example/santa/view?participants=Alice%2CBob%2CCarol&selected=Carol#top")
	if err != nil {
		t.Fatal(err)
	}
	sameSession(t, s, Session{Participants: []string{"Alice", "Bob", "Carol"}, Selected: "Carol"})

	s, err = Decode("/santa/view?selected=Alice")
	if err != nil {
		t.Fatal(err)
	}
	sameSession(t, s, Session{Selected: "Alice"})
}

func TestDecode_FirstValueWins(t *testing.T) {
	s, err := Decode("selected=Alice&selected=Bob")
	if err != nil {
		t.Fatal(err)
	}
	if s.Selected != "Alice" {
		t.Errorf("selected = %q, want Alice", s.Selected)
	}
}

func TestDecode_EmptySelection(t *testing.T) {
	s, err := Decode("participants=A&selected=")
	if err != nil {
		t.Fatal(err)
	}
	if s.Selected != "" {
		t.Errorf("selected = %q", s.Selected)
	}
	if _, ok := s.Lookup(); ok {
		t.Error("lookup succeeded without a selection")
	}
}

func TestDecode_StandardBase64(t *testing.T) {
	data := `[{"giver":"~~~","receiver":"B"},{"giver":"B","receiver":"~~~"}]`
	std := base64.StdEncoding.EncodeToString([]byte(data))

	want := Assignments{{"~~~", "B"}, {"B", "~~~"}}

	// Escaped, and pasted raw so that '+' reads as a space.
	for _, raw := range []string{"assignments=" + strings.NewReplacer("+", "%2B", "/", "%2F", "=", "%3D").Replace(std), "assignments=" + std} {
		s, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%q): %v", raw, err)
		}
		if !slices.Equal(s.Assignments, want) {
			t.Errorf("Decode(%q) = %v", raw, s.Assignments)
		}
	}
}

func TestDecodeBase64_Alphabets(t *testing.T) {
	for _, in := range []string{"fn5+", "fn5-", "fn5 "} {
		got, err := decodeBase64(in)
		if err != nil {
			t.Errorf("decodeBase64(%q): %v", in, err)
			continue
		}
		if string(got) != "~~~" {
			t.Errorf("decodeBase64(%q) = %q", in, got)
		}
	}

	for _, in := range []string{"fg==", "fg"} {
		got, err := decodeBase64(in)
		if err != nil || string(got) != "~" {
			t.Errorf("decodeBase64(%q) = %q, %v", in, got, err)
		}
	}
}
