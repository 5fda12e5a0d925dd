// Package historyid implements compact round-history identifiers.
//
// A history ID lets a stateless client carry an in-progress match between
// requests. The first character holds the number of rounds; each following
// character packs up to three rounds at two bits per round (opponent
// action in the high bit, own action in the low bit), oldest round first.
// The empty history is "A".
package historyid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/awsim/pkg/engine"
)

// Base64 alphabet used for history ID encoding
const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const roundsPerChar = 3

// MaxLength is the length of the ID of a complete match.
const MaxLength = 1 + (engine.RoundsPerMatch+roundsPerChar-1)/roundsPerChar

// ErrInvalidID is returned for malformed history IDs.
var ErrInvalidID = errors.New("invalid history ID")

func roundBits(r engine.Round) int {
	return int(r.Opponent)<<1 | int(r.Own)
}

// Encode returns the ID of h. Histories longer than a match are rejected.
func Encode(h engine.History) (string, error) {
	if len(h) > engine.RoundsPerMatch {
		return "", fmt.Errorf("%w: %d rounds", ErrInvalidID, len(h))
	}
	var b strings.Builder
	b.WriteByte(base64Chars[len(h)])

	for i := 0; i < len(h); i += roundsPerChar {
		v := 0
		for j := 0; j < roundsPerChar && i+j < len(h); j++ {
			r := h[i+j]
			if !r.Opponent.Valid() || !r.Own.Valid() {
				return "", fmt.Errorf("%w: round %d", ErrInvalidID, i+j+1)
			}
			v |= roundBits(r) << (2 * j)
		}
		b.WriteByte(base64Chars[v])
	}
	return b.String(), nil
}

// Decode parses an ID produced by Encode.
func Decode(id string) (engine.History, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	n := strings.IndexByte(base64Chars, id[0])
	if n < 0 || n > engine.RoundsPerMatch {
		return nil, fmt.Errorf("%w: bad length character %q", ErrInvalidID, id[0])
	}
	want := 1 + (n+roundsPerChar-1)/roundsPerChar
	if len(id) != want {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrInvalidID, len(id), want)
	}

	h := make(engine.History, 0, n)
	for c := 1; c < len(id); c++ {
		v := strings.IndexByte(base64Chars, id[c])
		if v < 0 {
			return nil, fmt.Errorf("%w: bad character %q", ErrInvalidID, id[c])
		}
		for j := 0; j < roundsPerChar && len(h) < n; j++ {
			bits := (v >> (2 * j)) & 0x3
			h = append(h, engine.Round{
				Opponent: engine.Action(bits >> 1),
				Own:      engine.Action(bits & 1),
			})
		}
		// Unused high bits in the last character must be zero.
		used := min(roundsPerChar, n-(c-1)*roundsPerChar)
		if v>>(2*used) != 0 {
			return nil, fmt.Errorf("%w: trailing bits in %q", ErrInvalidID, id[c])
		}
	}
	return h, nil
}
