package league

import "github.com/yourusername/awsim/pkg/engine"

// Fixture is one league match as shown in the tournament bracket, with
// every opponent's running total after it.
type Fixture struct {
	Number  int             `json:"number"` // 1-indexed
	A       engine.Opponent `json:"a"`
	B       engine.Opponent `json:"b"`
	PayoffA float64         `json:"payoff_a"`
	PayoffB float64         `json:"payoff_b"`
	Totals  []float64       `json:"totals"` // indexed by opponent id
}

// Bracket lists the league matches in the order they were simulated.
func Bracket(t *Table) []Fixture {
	running := make([]float64, t.Size())
	fixtures := make([]Fixture, 0, len(t.order))
	for n, p := range t.order {
		payA, payB := t.payoff[p.A][p.B], t.payoff[p.B][p.A]
		running[p.A] += payA
		running[p.B] += payB
		fixtures = append(fixtures, Fixture{
			Number:  n + 1,
			A:       t.roster[p.A],
			B:       t.roster[p.B],
			PayoffA: payA,
			PayoffB: payB,
			Totals:  append([]float64(nil), running...),
		})
	}
	return fixtures
}
