/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package santa

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Query parameters carrying the session. Together they are the only
// persisted copy of a session.
const (
	ParamParticipants = "participants"
	ParamAssignments  = "assignments"
	ParamSelected     = "selected"
)

const participantSeparator = ","

// Names are escaped before joining so that a comma inside a name never
// reads as a separator.
var (
	nameEscaper   = strings.NewReplacer("%", "%25", ",", "%2C")
	base64Repairs = strings.NewReplacer("+", "-", "/", "_", " ", "-", "=", "")
)

// Encode renders s as a URL query string. Empty fields are left out, so
// an empty session encodes to "".
func Encode(s Session) string {
	var b strings.Builder

	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	if len(s.Participants) > 0 {
		add(ParamParticipants, joinParticipants(s.Participants))
	}
	if len(s.Assignments) > 0 {
		add(ParamAssignments, encodeAssignments(s.Assignments))
	}
	if s.Selected != "" {
		add(ParamSelected, s.Selected)
	}

	return b.String()
}

// Decode rebuilds a session from a query string, with or without the
// leading '?', or from a full URL. Each field is decoded on its own: a
// field that fails falls back to empty and is reported as a *DecodeError,
// while the fields that decoded are still returned.
func Decode(raw string) (Session, error) {
	var (
		s    Session
		errs []error
		seen = make(map[string]bool, 3)
	)

	for _, pair := range strings.Split(queryOf(raw), "&") {
		if pair == "" {
			continue
		}

		k, v, _ := strings.Cut(pair, "=")

		key, err := url.QueryUnescape(k)
		if err != nil || seen[key] {
			continue
		}

		switch key {
		case ParamParticipants:
			seen[key] = true
			value, err := url.QueryUnescape(v)
			if err != nil {
				errs = append(errs, &DecodeError{Field: key, Err: err})
				continue
			}
			s.Participants = splitParticipants(value)
		case ParamAssignments:
			seen[key] = true
			value, err := url.QueryUnescape(v)
			if err != nil {
				errs = append(errs, &DecodeError{Field: key, Err: err})
				continue
			}
			assignments, err := decodeAssignments(value)
			if err != nil {
				errs = append(errs, &DecodeError{Field: key, Err: err})
				continue
			}
			s.Assignments = assignments
		case ParamSelected:
			seen[key] = true
			value, err := url.QueryUnescape(v)
			if err != nil {
				errs = append(errs, &DecodeError{Field: key, Err: err})
				continue
			}
			s.Selected = value
		}
	}

	return s, errors.Join(errs...)
}

// queryOf strips everything but the query from raw.
func queryOf(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.Contains(raw, "://") {
		if u, err := url.Parse(raw); err == nil {
			return u.RawQuery
		}
	}

	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	return raw
}

func joinParticipants(names []string) string {
	escaped := make([]string, len(names))
	for i, n := range names {
		escaped[i] = nameEscaper.Replace(n)
	}
	return strings.Join(escaped, participantSeparator)
}

// splitParticipants drops blank entries and repeated names. Entries that
// are not valid escapes are kept verbatim.
func splitParticipants(value string) []string {
	var names []string
	seen := make(map[string]bool)

	for _, part := range strings.Split(value, participantSeparator) {
		if strings.TrimSpace(part) == "" {
			continue
		}

		name, err := url.PathUnescape(part)
		if err != nil {
			name = part
		}

		if seen[name] {
			continue
		}
		seen[name] = true

		names = append(names, name)
	}

	return names
}

func encodeAssignments(assignments Assignments) string {
	data, err := json.Marshal(assignments)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeAssignments(value string) (Assignments, error) {
	data, err := decodeBase64(value)
	if err != nil {
		return nil, err
	}

	var assignments Assignments
	if err := json.Unmarshal(data, &assignments); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: no assignments", ErrMalformedState)
	}

	for i, a := range assignments {
		if err := checkAssignment(a); err != nil {
			return nil, fmt.Errorf("assignment %d: %w", i, err)
		}
	}

	return assignments, nil
}

func checkAssignment(a Assignment) error {
	switch {
	case a.Giver == "" || a.Receiver == "":
		return fmt.Errorf("%w: missing giver or receiver", ErrMalformedState)
	case a.Giver == a.Receiver:
		return fmt.Errorf("%w: %q is assigned to themselves", ErrMalformedState, a.Giver)
	}
	return nil
}

// decodeBase64 accepts the standard and URL-safe alphabets, padded or not.
// Form decoding turns '+' into ' ', which is undone here as well.
func decodeBase64(value string) ([]byte, error) {
	value = base64Repairs.Replace(value)

	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	return data, nil
}
