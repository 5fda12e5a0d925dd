package league

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/awsim/pkg/engine"
)

// SampleResult summarises repeated matches between two strategies.
type SampleResult struct {
	A       engine.Strategy `json:"a"`
	B       engine.Strategy `json:"b"`
	Matches int             `json:"matches"`
	MeanA   float64         `json:"mean_a"`
	StdDevA float64         `json:"stddev_a"`
	MeanB   float64         `json:"mean_b"`
	StdDevB float64         `json:"stddev_b"`
	MinA    float64         `json:"min_a"`
	MaxA    float64         `json:"max_a"`
}

// Sample plays n independent matches between a and b. Only Cautious's
// opening coin flip makes the payoffs vary.
func Sample(runner MatchRunner, a, b engine.Strategy, n int) (*SampleResult, error) {
	if n < 1 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}
	payA := make([]float64, n)
	payB := make([]float64, n)
	for i := 0; i < n; i++ {
		res, err := runner.RunMatch(a, b)
		if err != nil {
			return nil, fmt.Errorf("sample match %d: %w", i+1, err)
		}
		payA[i], payB[i] = res.PayoffA, res.PayoffB
	}

	out := &SampleResult{A: a, B: b, Matches: n}
	if n == 1 {
		out.MeanA, out.MeanB = payA[0], payB[0]
	} else {
		out.MeanA, out.StdDevA = stat.MeanStdDev(payA, nil)
		out.MeanB, out.StdDevB = stat.MeanStdDev(payB, nil)
	}
	out.MinA, out.MaxA = floats.Min(payA), floats.Max(payA)
	return out, nil
}
