// Command awcheck runs a numbered self-check of the engine and prints a
// report. It exits non-zero if any check fails.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/yourusername/awsim/internal/historyid"
	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
)

type report struct {
	failed int
}

func (r *report) ok(format string, args ...interface{}) {
	fmt.Printf("   OK: "+format+"\n", args...)
}

func (r *report) fail(format string, args ...interface{}) {
	r.failed++
	fmt.Printf("   FAIL: "+format+"\n", args...)
}

func (r *report) check(cond bool, format string, args ...interface{}) {
	if cond {
		r.ok(format, args...)
	} else {
		r.fail(format, args...)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func main() {
	seed := flag.Int64("seed", 0, "Random seed (0 = random)")
	samples := flag.Int("samples", 1000, "Matches per sampled pairing")
	flag.Parse()

	fmt.Println("=== AW Simulation Engine Check ===")
	fmt.Println()

	var r report

	eng, err := engine.NewEngine(engine.Options{Seed: *seed})
	if err != nil {
		fmt.Printf("Engine creation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Seed: %d\n\n", eng.Seed())

	// Test 1: Roster
	fmt.Println("1. Checking opponent roster...")
	roster := engine.Roster()
	r.check(len(roster) == engine.NumOpponents, "%d opponents", len(roster))
	for i, o := range roster {
		if o.ID != i || !o.Strategy.Valid() {
			r.fail("opponent %d: id %d strategy %v", i, o.ID, o.Strategy)
		}
	}
	fmt.Println()

	// Test 2: Resolver
	fmt.Println("2. Checking round resolver...")
	for _, a := range []engine.Action{engine.DontUse, engine.Use} {
		for _, b := range []engine.Action{engine.DontUse, engine.Use} {
			da, db, err := engine.Resolve(a, b)
			if err != nil {
				r.fail("Resolve(%s, %s): %v", a, b, err)
				continue
			}
			rb, ra, _ := engine.Resolve(b, a)
			symmetric := da == ra && db == rb
			r.check(symmetric && da.Lives <= 0 && da.Resources <= 0,
				"%-4s vs %-4s  A %+4d/%+4d  B %+4d/%+4d", a, b, da.Lives, da.Resources, db.Lives, db.Resources)
		}
	}
	fmt.Println()

	// Test 3: Known matches
	fmt.Println("3. Checking deterministic matches...")
	known := []struct {
		a, b       engine.Strategy
		payA, payB float64
	}{
		{engine.Cooperative, engine.Cooperative, -18.5, -18.5},
		{engine.Aggressive, engine.Aggressive, -185, -185},
		{engine.Aggressive, engine.Cooperative, -150, -350},
		{engine.Unpredictable, engine.Cooperative, -71.1, -151.1},
		{engine.Defensive, engine.Aggressive, -218, -178},
	}
	for _, k := range known {
		res, err := eng.RunMatch(k.a, k.b)
		if err != nil {
			r.fail("%s vs %s: %v", k.a, k.b, err)
			continue
		}
		r.check(near(res.PayoffA, k.payA) && near(res.PayoffB, k.payB),
			"%s vs %s: %.1f / %.1f (want %.1f / %.1f)", k.a, k.b, res.PayoffA, res.PayoffB, k.payA, k.payB)
	}
	fmt.Println()

	// Test 4: History ids
	fmt.Println("4. Checking history ids...")
	roundTrips := 0
	var walk func(h engine.History) bool
	walk = func(h engine.History) bool {
		id, err := historyid.Encode(h)
		if err != nil {
			r.fail("Encode(%s): %v", h, err)
			return false
		}
		back, err := historyid.Decode(id)
		if err != nil || back.String() != h.String() {
			r.fail("Decode(%s) = %s, %v; want %s", id, back, err, h)
			return false
		}
		roundTrips++
		if len(h) == engine.RoundsPerMatch {
			return true
		}
		for _, opp := range []engine.Action{engine.DontUse, engine.Use} {
			for _, own := range []engine.Action{engine.DontUse, engine.Use} {
				if !walk(append(h.Clone(), engine.Round{Opponent: opp, Own: own})) {
					return false
				}
			}
		}
		return true
	}
	if walk(nil) {
		r.ok("%d histories round-trip", roundTrips)
	}
	fmt.Println()

	// Test 5: League
	fmt.Println("5. Checking league...")
	table, err := league.RunLeague(eng, roster)
	if err != nil {
		r.fail("RunLeague: %v", err)
	} else {
		pairs := table.Pairs()
		r.check(len(pairs) == engine.NumOpponents*(engine.NumOpponents-1)/2, "%d matches played", len(pairs))
		consistent := true
		for _, p := range pairs {
			res, err := table.Result(p.A, p.B)
			pa, _ := table.Payoff(p.A, p.B)
			pb, _ := table.Payoff(p.B, p.A)
			if err != nil || !near(res.PayoffA, pa) || !near(res.PayoffB, pb) {
				consistent = false
				r.fail("pair %d-%d payoffs %.1f/%.1f disagree with the match", p.A, p.B, pa, pb)
			}
		}
		if consistent {
			r.ok("payoff cells match their single match")
		}
		for _, s := range league.Standings(table) {
			fmt.Printf("       %d. %-7s %9.1f\n", s.Rank, s.Opponent.Name, s.Total)
		}
	}
	fmt.Println()

	// Test 6: Cautious sampling
	fmt.Println("6. Sampling Cautious openings...")
	res, err := league.Sample(eng, engine.Cautious, engine.Aggressive, *samples)
	if err != nil {
		r.fail("Sample: %v", err)
	} else {
		r.check(res.MinA >= -218-1e-9 && res.MaxA <= -185+1e-9,
			"Cautious vs Aggressive over %d matches: mean %.1f ± %.1f, range [%.1f, %.1f]",
			res.Matches, res.MeanA, res.StdDevA, res.MinA, res.MaxA)
	}
	fmt.Println()

	if r.failed > 0 {
		fmt.Printf("=== %d check(s) failed ===\n", r.failed)
		os.Exit(1)
	}
	fmt.Println("=== All checks passed ===")
}
