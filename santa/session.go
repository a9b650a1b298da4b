/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package santa

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Assignment says who buys a gift for whom.
type Assignment struct {
	Giver    string `json:"giver"`
	Receiver string `json:"receiver"`
}

type Assignments []Assignment

// Lookup returns the assignment whose giver is name.
func (a Assignments) Lookup(name string) (Assignment, bool) {
	for _, as := range a {
		if as.Giver == name {
			return as, true
		}
	}
	return Assignment{}, false
}

// LookupAssignment is Lookup for a plain slice.
func LookupAssignment(assignments []Assignment, giver string) (Assignment, bool) {
	return Assignments(assignments).Lookup(giver)
}

// Session is everything a page needs, rebuilt from the URL on every load.
// An empty Assignments means the draw has not happened yet; an empty
// Selected means nobody is selected.
type Session struct {
	Participants []string
	Assignments  Assignments
	Selected     string
}

// Ready reports whether a draw can be made for the current roster.
func (s *Session) Ready() bool {
	return len(s.Participants) >= MinParticipants && len(s.Assignments) == 0
}

// AddParticipant appends a trimmed name. Any existing draw is discarded.
func (s *Session) AddParticipant(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if !utf8.ValidString(name) {
		return ErrInvalidName
	}
	if slices.Contains(s.Participants, name) {
		return ErrDuplicateParticipant
	}

	s.Participants = append(s.Participants, name)
	s.Assignments = nil

	return nil
}

// RemoveParticipant drops name from the roster. Any existing draw is
// discarded if the roster changed.
func (s *Session) RemoveParticipant(name string) {
	i := slices.Index(s.Participants, name)
	if i < 0 {
		return
	}

	s.Participants = slices.Delete(slices.Clone(s.Participants), i, i+1)
	s.Assignments = nil
	if s.Selected == name {
		s.Selected = ""
	}
}

// Generate draws assignments for the current roster. On failure the
// session is left as it was, including any earlier draw.
func (s *Session) Generate(r Rand) error {
	assignments, err := Generate(s.Participants, r)
	if err != nil {
		return err
	}

	s.Assignments = assignments

	return nil
}

// Select marks name as the participant whose reveal view is shown.
func (s *Session) Select(name string) {
	s.Selected = strings.TrimSpace(name)
}

// Lookup returns the selected participant's assignment.
func (s *Session) Lookup() (Assignment, bool) {
	if s.Selected == "" {
		return Assignment{}, false
	}
	return s.Assignments.Lookup(s.Selected)
}

// Reset clears all three fields.
func (s *Session) Reset() {
	*s = Session{}
}

// Viewer returns a copy without the selection, the state shared with
// participants before they pick their own name.
func (s *Session) Viewer() Session {
	v := *s
	v.Selected = ""
	return v
}
