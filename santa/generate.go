/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package santa

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

const (
	MinParticipants = 3
	MaxAttempts     = 100
)

// Rand is the randomness the generator draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// DefaultRand returns a ChaCha8 generator seeded from crypto/rand.
func DefaultRand() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return rand.New(rand.NewChaCha8(seed))
}

// SeededRand returns a deterministic generator, for reproducible draws.
func SeededRand(seed uint64) *rand.Rand {
	var buf [32]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	return rand.New(rand.NewChaCha8(buf))
}

// Generate pairs every participant with someone else to buy a gift for.
// Givers keep the order of participants. Receivers form a derangement of
// the same set, drawn by rejection sampling over uniform shuffles.
func Generate(participants []string, r Rand) ([]Assignment, error) {
	if err := validateRoster(participants); err != nil {
		return nil, err
	}

	receivers, _, err := derange(participants, r, MaxAttempts)
	if err != nil {
		return nil, err
	}

	assignments := make([]Assignment, len(participants))
	for i, giver := range participants {
		assignments[i] = Assignment{Giver: giver, Receiver: receivers[i]}
	}

	return assignments, nil
}

func validateRoster(participants []string) error {
	if len(participants) < MinParticipants {
		return ErrTooFewParticipants
	}

	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if strings.TrimSpace(p) == "" {
			return ErrEmptyName
		}
		if !utf8.ValidString(p) {
			return ErrInvalidName
		}
		if _, ok := seen[p]; ok {
			return ErrDuplicateParticipant
		}
		seen[p] = struct{}{}
	}

	return nil
}

// derange returns a shuffled copy of in with no element left in place,
// and the number of shuffles it took.
func derange(in []string, r Rand, maxAttempts int) ([]string, int, error) {
	out := make([]string, len(in))

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		copy(out, in)
		shuffle(out, r)

		if isDerangement(in, out) {
			return out, attempt, nil
		}
	}

	return nil, maxAttempts, ErrGenerationFailed
}

// shuffle is Fisher–Yates, from the end down to index 1.
func shuffle(s []string, r Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

func isDerangement(original, shuffled []string) bool {
	for i := range original {
		if original[i] == shuffled[i] {
			return false
		}
	}
	return true
}
