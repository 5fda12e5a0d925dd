package league

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/awsim/pkg/engine"
)

// Standing is one opponent's league total.
type Standing struct {
	Rank     int             `json:"rank"` // 1 = best
	Opponent engine.Opponent `json:"opponent"`
	Total    float64         `json:"total"`
}

// Totals returns each opponent's summed payoff over its league matches,
// indexed by opponent id.
func Totals(t *Table) []float64 {
	totals := make([]float64, t.Size())
	for i := range totals {
		totals[i] = floats.Sum(t.row(i))
	}
	return totals
}

// Standings ranks opponents by total payoff, highest first. Ties keep
// roster order.
func Standings(t *Table) []Standing {
	totals := Totals(t)
	out := make([]Standing, len(totals))
	for i, total := range totals {
		out[i] = Standing{Opponent: t.roster[i], Total: total}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Total > out[b].Total
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Winner returns the opponent with the highest total. The lowest id wins
// a tie. ok is false for an empty table.
func Winner(t *Table) (winner engine.Opponent, ok bool) {
	if t.Size() == 0 {
		return engine.Opponent{}, false
	}
	return t.roster[floats.MaxIdx(Totals(t))], true
}
