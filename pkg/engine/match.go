package engine

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// RoundsPerMatch is the fixed length of every match.
const RoundsPerMatch = 5

// Payoff weights.
const (
	LifeWeight     = 0.7
	ResourceWeight = 0.3
)

var payoffWeights = []float64{LifeWeight, ResourceWeight}

// ResourceState holds one side's counters for one match. Both start at
// zero and only decrease; there is no floor.
type ResourceState struct {
	Lives     int `json:"lives"`
	Resources int `json:"resources"`
}

// Apply returns s with d added.
func (s ResourceState) Apply(d Delta) ResourceState {
	return ResourceState{
		Lives:     s.Lives + d.Lives,
		Resources: s.Resources + d.Resources,
	}
}

// Payoff returns 0.7*lives + 0.3*resources.
func (s ResourceState) Payoff() float64 {
	return floats.Dot(payoffWeights, []float64{float64(s.Lives), float64(s.Resources)})
}

// Side names a participant of a match.
type Side int

const (
	SideA Side = iota
	SideB
)

// Outcome is one resolved round, recorded from side A's perspective.
type Outcome struct {
	Round  int    `json:"round"` // 1-indexed
	A      Action `json:"a"`
	B      Action `json:"b"`
	DeltaA Delta  `json:"delta_a"`
	DeltaB Delta  `json:"delta_b"`
}

// Match is one fixed-length contest between sides A and B. Each side keeps
// its own history with the other side's action first.
type Match struct {
	A, B     ResourceState
	histA    History
	histB    History
	outcomes []Outcome
}

// NewMatch returns a match with no rounds played and both states at zero.
func NewMatch() *Match {
	return &Match{
		histA:    make(History, 0, RoundsPerMatch),
		histB:    make(History, 0, RoundsPerMatch),
		outcomes: make([]Outcome, 0, RoundsPerMatch),
	}
}

// RestoreMatch replays h, side A's history, into a fresh match. The
// resource states are recomputed, never trusted from the caller.
func RestoreMatch(h History) (*Match, error) {
	if len(h) > RoundsPerMatch {
		return nil, fmt.Errorf("%w: history has %d rounds", ErrMatchOver, len(h))
	}
	m := NewMatch()
	for i, r := range h {
		if _, err := m.Play(r.Own, r.Opponent); err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
	}
	return m, nil
}

// ReplayMatch is RestoreMatch for a live match against opponent. Every
// opponent action in h must be the one opponent's strategy takes from that
// point; Cautious's opening coin flip cannot be re-derived and either
// action is accepted for that round.
func ReplayMatch(opponent Strategy, h History) (*Match, error) {
	if !opponent.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, uint8(opponent))
	}
	if len(h) > RoundsPerMatch {
		return nil, fmt.Errorf("%w: history has %d rounds", ErrMatchOver, len(h))
	}
	m := NewMatch()
	for i, r := range h {
		if opponent != Cautious || i > 0 {
			want, err := Decide(opponent, m.histB, nil)
			if err != nil {
				return nil, fmt.Errorf("round %d: %w", i+1, err)
			}
			if r.Opponent != want {
				return nil, fmt.Errorf("%w: round %d has %s, %s plays %s",
					ErrInconsistentHistory, i+1, r.Opponent, opponent, want)
			}
		}
		if _, err := m.Play(r.Own, r.Opponent); err != nil {
			return nil, fmt.Errorf("round %d: %w", i+1, err)
		}
	}
	return m, nil
}

// Rounds returns the number of rounds played.
func (m *Match) Rounds() int {
	return len(m.outcomes)
}

// Done reports whether all rounds have been played.
func (m *Match) Done() bool {
	return len(m.outcomes) >= RoundsPerMatch
}

// Play resolves one round and applies the deltas to both sides.
func (m *Match) Play(a, b Action) (Outcome, error) {
	if m.Done() {
		return Outcome{}, ErrMatchOver
	}
	da, db, err := Resolve(a, b)
	if err != nil {
		return Outcome{}, err
	}

	m.A = m.A.Apply(da)
	m.B = m.B.Apply(db)
	m.histA = append(m.histA, Round{Opponent: b, Own: a})
	m.histB = append(m.histB, Round{Opponent: a, Own: b})

	out := Outcome{Round: len(m.outcomes) + 1, A: a, B: b, DeltaA: da, DeltaB: db}
	m.outcomes = append(m.outcomes, out)
	return out, nil
}

// History returns a copy of the given side's history.
func (m *Match) History(side Side) History {
	if side == SideB {
		return m.histB.Clone()
	}
	return m.histA.Clone()
}

// Outcomes returns a copy of the resolved rounds.
func (m *Match) Outcomes() []Outcome {
	out := make([]Outcome, len(m.outcomes))
	copy(out, m.outcomes)
	return out
}

// Payoffs returns both sides' payoffs once the match is complete.
func (m *Match) Payoffs() (float64, float64, error) {
	if !m.Done() {
		return 0, 0, fmt.Errorf("%w: %d of %d rounds played", ErrMatchIncomplete, m.Rounds(), RoundsPerMatch)
	}
	return m.A.Payoff(), m.B.Payoff(), nil
}

// Clone returns a deep copy of m.
func (m *Match) Clone() *Match {
	c := &Match{
		A:        m.A,
		B:        m.B,
		histA:    make(History, len(m.histA), RoundsPerMatch),
		histB:    make(History, len(m.histB), RoundsPerMatch),
		outcomes: make([]Outcome, len(m.outcomes), RoundsPerMatch),
	}
	copy(c.histA, m.histA)
	copy(c.histB, m.histB)
	copy(c.outcomes, m.outcomes)
	return c
}

// MatchResult is a completed automated match.
type MatchResult struct {
	A        Strategy      `json:"a"`
	B        Strategy      `json:"b"`
	Outcomes []Outcome     `json:"outcomes"`
	StateA   ResourceState `json:"state_a"`
	StateB   ResourceState `json:"state_b"`
	PayoffA  float64       `json:"payoff_a"`
	PayoffB  float64       `json:"payoff_b"`
}
