// Package engine provides the strategic game engine: the opponent roster,
// the strategy policies, the round resolver and the fixed-length match.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAction is returned for values outside {DontUse, Use}.
	ErrInvalidAction = errors.New("invalid action")
	// ErrUnknownStrategy is returned for a strategy kind outside the roster's five.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrUnknownOpponent is returned for an opponent id outside the roster.
	ErrUnknownOpponent = errors.New("unknown opponent")
	// ErrMatchOver is returned when a round is played after the last one.
	ErrMatchOver = errors.New("match is over")
	// ErrMatchIncomplete is returned when payoffs are requested early.
	ErrMatchIncomplete = errors.New("match is not complete")
	// ErrInconsistentHistory is returned when a recorded opponent action is
	// not the one the opponent's strategy takes.
	ErrInconsistentHistory = errors.New("history inconsistent with opponent strategy")
)

// Action is one side's decision in a round.
type Action uint8

const (
	DontUse Action = iota // Refrain from using the weapon (cooperate)
	Use                   // Activate the autonomous weapon (defect)
)

// Valid reports whether a is one of the two enumerated actions.
func (a Action) Valid() bool {
	return a == DontUse || a == Use
}

func (a Action) String() string {
	switch a {
	case DontUse:
		return "dont"
	case Use:
		return "use"
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// Letter returns the single-letter notation used in transcripts ("U" or "D").
func (a Action) Letter() string {
	if a == Use {
		return "U"
	}
	return "D"
}

// ParseAction maps UI tokens to an Action. It accepts "use"/"dont", the
// letters "u"/"d", the digits "1"/"0" and "defect"/"cooperate".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "use", "u", "1", "defect":
		return Use, nil
	case "dont", "don't", "d", "0", "cooperate", "refrain":
		return DontUse, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// MarshalText encodes the action as "use" or "dont".
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAction, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText decodes any token accepted by ParseAction.
func (a *Action) UnmarshalText(text []byte) error {
	v, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Round records one round from the deciding side's perspective.
// Opponent comes first: strategies read it as "what the other side did".
type Round struct {
	Opponent Action `json:"opponent"`
	Own      Action `json:"own"`
}

// String returns the two-letter notation, opponent first (e.g. "UD").
func (r Round) String() string {
	return r.Opponent.Letter() + r.Own.Letter()
}

// Mirror returns the same round seen from the other side.
func (r Round) Mirror() Round {
	return Round{Opponent: r.Own, Own: r.Opponent}
}

// History is the chronological list of rounds of one ongoing match.
type History []Round

// Last returns the most recent round.
func (h History) Last() (Round, bool) {
	if len(h) == 0 {
		return Round{}, false
	}
	return h[len(h)-1], true
}

// Mirror returns the history seen from the other side.
func (h History) Mirror() History {
	out := make(History, len(h))
	for i, r := range h {
		out[i] = r.Mirror()
	}
	return out
}

// Clone returns a copy that shares no storage with h.
func (h History) Clone() History {
	out := make(History, len(h))
	copy(out, h)
	return out
}

func (h History) String() string {
	parts := make([]string, len(h))
	for i, r := range h {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

// ParseHistory parses the notation produced by History.String.
func ParseHistory(s string) (History, error) {
	fields := strings.Fields(s)
	h := make(History, 0, len(fields))
	for _, f := range fields {
		if len(f) != 2 {
			return nil, fmt.Errorf("round %q: want two letters", f)
		}
		opp, err := ParseAction(f[:1])
		if err != nil {
			return nil, fmt.Errorf("round %q: %w", f, err)
		}
		own, err := ParseAction(f[1:])
		if err != nil {
			return nil, fmt.Errorf("round %q: %w", f, err)
		}
		h = append(h, Round{Opponent: opp, Own: own})
	}
	return h, nil
}
