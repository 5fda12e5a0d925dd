package historyid

import (
	"errors"
	"testing"

	"github.com/yourusername/awsim/pkg/engine"
)

func TestEncodeKnownIDs(t *testing.T) {
	tests := []struct {
		history string
		want    string
	}{
		{"", "A"},
		{"DD", "BA"},
		{"DU", "BB"},
		{"UD", "BC"},
		{"UU", "BD"},
		// UD | DU<<2 | UU<<4 = 2 + 4 + 48 = 54
		{"UD DU UU", "D2"},
		{"UU UU UU UU UU", "F//P"},
	}
	for _, tc := range tests {
		h, err := engine.ParseHistory(tc.history)
		if err != nil {
			t.Fatalf("ParseHistory(%q) error: %v", tc.history, err)
		}
		got, err := Encode(h)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", tc.history, err)
		}
		if got != tc.want {
			t.Errorf("Encode(%q) = %q, want %q", tc.history, got, tc.want)
		}
	}
}

func TestRoundTripAllHistories(t *testing.T) {
	// Every history up to a full match.
	var walk func(h engine.History)
	count := 0
	walk = func(h engine.History) {
		id, err := Encode(h)
		if err != nil {
			t.Fatalf("Encode(%v) error: %v", h, err)
		}
		if len(id) > MaxLength {
			t.Errorf("Encode(%v) = %q, longer than %d", h, id, MaxLength)
		}
		back, err := Decode(id)
		if err != nil {
			t.Fatalf("Decode(%q) error: %v", id, err)
		}
		if back.String() != h.String() {
			t.Errorf("round trip %q -> %q -> %q", h.String(), id, back.String())
		}
		count++
		if len(h) == engine.RoundsPerMatch {
			return
		}
		for _, opp := range []engine.Action{engine.DontUse, engine.Use} {
			for _, own := range []engine.Action{engine.DontUse, engine.Use} {
				walk(append(h.Clone(), engine.Round{Opponent: opp, Own: own}))
			}
		}
	}
	walk(engine.History{})

	// 1 + 4 + 16 + 64 + 256 + 1024
	if count != 1365 {
		t.Errorf("visited %d histories, want 1365", count)
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, id := range []string{
		"",      // empty
		"G",     // six rounds
		"B",     // missing data character
		"BAA",   // extra character
		"B!",    // not base64
		"BE",    // bits set beyond the single round
		"*",     // bad length character
		"D2A",   // too long
		"F//",   // too short
		"F///",  // trailing bits in last character
	} {
		if _, err := Decode(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Decode(%q) error = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestEncodeRejectsLongHistory(t *testing.T) {
	h := make(engine.History, engine.RoundsPerMatch+1)
	if _, err := Encode(h); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Encode error = %v, want ErrInvalidID", err)
	}
}
