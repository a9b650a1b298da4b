/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package santa

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestToken_RoundTrip(t *testing.T) {
	for _, a := range []Assignment{{"Alice", "Bob"}, {"Zoë 🎅", "Smith, John"}, {"~~~", "???"}} {
		token := EncodeToken(a)
		if strings.ContainsAny(token, "+/=") {
			t.Errorf("token %q is not path-safe", token)
		}

		got, err := DecodeToken(token)
		if err != nil {
			t.Fatalf("DecodeToken(%q): %v", token, err)
		}
		if got != a {
			t.Errorf("got %v, want %v", got, a)
		}
	}
}

func TestToken_StandardAlphabet(t *testing.T) {
	token := base64.StdEncoding.EncodeToString([]byte(`{"giver":"Alice","receiver":"Bob"}`))

	got, err := DecodeToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if got != (Assignment{"Alice", "Bob"}) {
		t.Errorf("got %v", got)
	}
}

func TestToken_Malformed(t *testing.T) {
	for _, token := range []string{
		"",
		"***",
		base64.RawURLEncoding.EncodeToString([]byte(`[1,2]`)),
		base64.RawURLEncoding.EncodeToString([]byte(`{"giver":"A"}`)),
		base64.RawURLEncoding.EncodeToString([]byte(`{"giver":"A","receiver":"A"}`)),
	} {
		if _, err := DecodeToken(token); !errors.Is(err, ErrMalformedState) {
			t.Errorf("DecodeToken(%q) = %v, want ErrMalformedState", token, err)
		}
	}
}
