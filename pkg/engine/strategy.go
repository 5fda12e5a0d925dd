package engine

import (
	"fmt"
	"strings"
)

// Strategy is one of the five fixed opponent behaviours.
type Strategy uint8

const (
	Cautious      Strategy = iota // Tit-for-tat with a random opening
	Unpredictable                 // Alternates, starting with DontUse
	Defensive                     // Grim trigger
	Aggressive                    // Always Use
	Cooperative                   // Always DontUse
	numStrategies
)

var strategyNames = [numStrategies]string{
	"Cautious",
	"Unpredictable",
	"Defensive",
	"Aggressive",
	"Cooperative",
}

// Valid reports whether s is one of the five strategies.
func (s Strategy) Valid() bool {
	return s < numStrategies
}

func (s Strategy) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
	return strategyNames[s]
}

// Strategies returns all strategy kinds in id order.
func Strategies() []Strategy {
	out := make([]Strategy, numStrategies)
	for i := range out {
		out[i] = Strategy(i)
	}
	return out
}

// ParseStrategy matches a strategy name, case-insensitively.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// MarshalText encodes the strategy by name.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a strategy name.
func (s *Strategy) UnmarshalText(text []byte) error {
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// RandomSource supplies the coin flip Cautious makes on its opening move.
// *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// Decide returns the action strategy s takes given h, the history seen from
// the deciding side (opponent action first). rng is consulted only for the
// opening move of Cautious.
func Decide(s Strategy, h History, rng RandomSource) (Action, error) {
	switch s {
	case Cautious:
		if last, ok := h.Last(); ok {
			return last.Opponent, nil
		}
		if rng == nil {
			return 0, fmt.Errorf("cautious opening move: no random source")
		}
		return Action(rng.Intn(2)), nil

	case Unpredictable:
		return Action(len(h) % 2), nil

	case Defensive:
		for _, r := range h {
			if r.Opponent == Use {
				return Use, nil
			}
		}
		return DontUse, nil

	case Aggressive:
		return Use, nil

	case Cooperative:
		return DontUse, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownStrategy, uint8(s))
}
