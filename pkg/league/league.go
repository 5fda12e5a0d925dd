// Package league runs every roster opponent against every other and keeps
// the pairwise payoffs for the tournament display.
package league

import (
	"errors"
	"fmt"

	"github.com/yourusername/awsim/pkg/engine"
)

// ErrSelfPair is returned for lookups of an opponent against itself.
var ErrSelfPair = errors.New("opponent cannot play itself")

// MatchRunner plays one automated match. *engine.Engine implements it.
type MatchRunner interface {
	RunMatch(a, b engine.Strategy) (*engine.MatchResult, error)
}

// Pair identifies an unordered pairing by roster ids, A < B.
type Pair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Table holds the league results. Payoff(i, j) is i's payoff in its match
// against j. It is written once by Scheduler.Run and read-only afterwards.
type Table struct {
	roster  []engine.Opponent
	payoff  [][]float64
	done    [][]bool
	results map[Pair]*engine.MatchResult
	order   []Pair
}

func newTable(roster []engine.Opponent) *Table {
	n := len(roster)
	t := &Table{
		roster:  roster,
		payoff:  make([][]float64, n),
		done:    make([][]bool, n),
		results: make(map[Pair]*engine.MatchResult, n*(n-1)/2),
	}
	for i := range t.payoff {
		t.payoff[i] = make([]float64, n)
		t.done[i] = make([]bool, n)
	}
	return t
}

// Size returns the number of opponents in the table.
func (t *Table) Size() int {
	return len(t.roster)
}

// Roster returns a copy of the opponents the table was computed for.
func (t *Table) Roster() []engine.Opponent {
	out := make([]engine.Opponent, len(t.roster))
	copy(out, t.roster)
	return out
}

func (t *Table) check(i, j int) error {
	n := len(t.roster)
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d", engine.ErrUnknownOpponent, i)
	}
	if j < 0 || j >= n {
		return fmt.Errorf("%w: %d", engine.ErrUnknownOpponent, j)
	}
	if i == j {
		return fmt.Errorf("%w: %d", ErrSelfPair, i)
	}
	return nil
}

// Payoff returns i's payoff in its match against j.
func (t *Table) Payoff(i, j int) (float64, error) {
	if err := t.check(i, j); err != nil {
		return 0, err
	}
	return t.payoff[i][j], nil
}

// Result returns the full match for the pairing of i and j, with i on
// side A of the returned copy.
func (t *Table) Result(i, j int) (*engine.MatchResult, error) {
	if err := t.check(i, j); err != nil {
		return nil, err
	}
	p := Pair{A: min(i, j), B: max(i, j)}
	r := *t.results[p]
	r.Outcomes = append([]engine.Outcome(nil), r.Outcomes...)
	if i == p.A {
		return &r, nil
	}
	return flip(&r), nil
}

// Pairs returns the computed pairings in the order they were simulated.
func (t *Table) Pairs() []Pair {
	return append([]Pair(nil), t.order...)
}

// row returns i's payoffs against each other opponent, in roster order,
// skipping i itself.
func (t *Table) row(i int) []float64 {
	row := make([]float64, 0, len(t.roster)-1)
	for j, v := range t.payoff[i] {
		if j != i {
			row = append(row, v)
		}
	}
	return row
}

func flip(r *engine.MatchResult) *engine.MatchResult {
	out := &engine.MatchResult{
		A:        r.B,
		B:        r.A,
		Outcomes: make([]engine.Outcome, len(r.Outcomes)),
		StateA:   r.StateB,
		StateB:   r.StateA,
		PayoffA:  r.PayoffB,
		PayoffB:  r.PayoffA,
	}
	for i, o := range r.Outcomes {
		out.Outcomes[i] = engine.Outcome{Round: o.Round, A: o.B, B: o.A, DeltaA: o.DeltaB, DeltaB: o.DeltaA}
	}
	return out
}

// Scheduler runs the league over a roster.
type Scheduler struct {
	runner MatchRunner
}

// NewScheduler creates a scheduler that plays matches with runner.
func NewScheduler(runner MatchRunner) *Scheduler {
	return &Scheduler{runner: runner}
}

// Run plays one match per unordered pair of opponents and records both
// sides' payoffs from that single match. Opponents are never matched
// against themselves. The roster must be indexed by opponent id.
func (s *Scheduler) Run(roster []engine.Opponent) (*Table, error) {
	for i, o := range roster {
		if o.ID != i {
			return nil, fmt.Errorf("%w: roster position %d holds id %d", engine.ErrUnknownOpponent, i, o.ID)
		}
		if !o.Strategy.Valid() {
			return nil, fmt.Errorf("opponent %d: %w: %d", o.ID, engine.ErrUnknownStrategy, uint8(o.Strategy))
		}
	}

	t := newTable(append([]engine.Opponent(nil), roster...))
	for i := range roster {
		for j := range roster {
			if i == j || t.done[i][j] {
				continue
			}
			res, err := s.runner.RunMatch(roster[i].Strategy, roster[j].Strategy)
			if err != nil {
				return nil, fmt.Errorf("match %s vs %s: %w", roster[i].Name, roster[j].Name, err)
			}
			t.payoff[i][j] = res.PayoffA
			t.payoff[j][i] = res.PayoffB
			t.done[i][j] = true
			t.done[j][i] = true

			p := Pair{A: i, B: j}
			t.results[p] = res
			t.order = append(t.order, p)
		}
	}
	return t, nil
}

// RunLeague is a convenience wrapper around NewScheduler(runner).Run(roster).
func RunLeague(runner MatchRunner, roster []engine.Opponent) (*Table, error) {
	return NewScheduler(runner).Run(roster)
}
