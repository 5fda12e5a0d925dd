// Package transcript writes plain-text records of matches, the league and
// a player's campaign.
package transcript

import (
	"fmt"
	"io"
	"strings"

	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
	"github.com/yourusername/awsim/pkg/session"
)

func actionLabel(a engine.Action) string {
	if a == engine.Use {
		return "Uses AWs!"
	}
	return "Doesn't use AWs!"
}

// WriteOutcomes writes one line per round with running totals for both
// sides.
func WriteOutcomes(w io.Writer, nameA, nameB string, outcomes []engine.Outcome) error {
	if _, err := fmt.Fprintf(w, " %-5s  %-18s %-18s %16s %16s\n", "Round", nameA, nameB, "Lives/Res A", "Lives/Res B"); err != nil {
		return err
	}
	var a, b engine.ResourceState
	for _, o := range outcomes {
		a = a.Apply(o.DeltaA)
		b = b.Apply(o.DeltaB)
		if _, err := fmt.Fprintf(w, " %3d)   %-18s %-18s %16s %16s\n",
			o.Round, actionLabel(o.A), actionLabel(o.B),
			fmt.Sprintf("%d/%d", a.Lives, a.Resources),
			fmt.Sprintf("%d/%d", b.Lives, b.Resources)); err != nil {
			return err
		}
	}
	return nil
}

// WriteMatch writes a finished automated match.
func WriteMatch(w io.Writer, nameA, nameB string, r *engine.MatchResult) error {
	fmt.Fprintf(w, " %s (%s) vs %s (%s)\n\n", nameA, r.A, nameB, r.B)
	if err := WriteOutcomes(w, nameA, nameB, r.Outcomes); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n Payoff: %s %.1f   %s %.1f\n", nameA, r.PayoffA, nameB, r.PayoffB)
	return err
}

// WriteTable writes the league payoff matrix. Row i, column j is i's
// payoff against j.
func WriteTable(w io.Writer, t *league.Table) error {
	roster := t.Roster()
	fmt.Fprintf(w, " %-8s", "")
	for _, o := range roster {
		fmt.Fprintf(w, " %9s", o.Name)
	}
	fmt.Fprintln(w)

	for i, o := range roster {
		fmt.Fprintf(w, " %-8s", o.Name)
		for j := range roster {
			if i == j {
				fmt.Fprintf(w, " %9s", "-")
				continue
			}
			p, err := t.Payoff(i, j)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, " %9.1f", p)
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteStandings writes the ranked league totals.
func WriteStandings(w io.Writer, standings []league.Standing) error {
	for _, s := range standings {
		if _, err := fmt.Fprintf(w, " %d. %-8s %-26s %-14s %9.1f\n",
			s.Rank, s.Opponent.Name, s.Opponent.Country, s.Opponent.Strategy, s.Total); err != nil {
			return err
		}
	}
	return nil
}

// WriteBracket writes the tournament fixtures in play order.
func WriteBracket(w io.Writer, fixtures []league.Fixture) error {
	for _, f := range fixtures {
		if _, err := fmt.Fprintf(w, " Match %d: %s vs %s   %.1f vs %.1f\n",
			f.Number, f.A.Name, f.B.Name, f.PayoffA, f.PayoffB); err != nil {
			return err
		}
	}
	return nil
}

// WriteCampaign writes every finished match of a campaign and the totals.
func WriteCampaign(w io.Writer, player string, c session.Campaign) error {
	for i, r := range c.Records {
		fmt.Fprintf(w, " Match %d: %s vs %s (%s)\n", i+1, player, r.Opponent.Name, r.Opponent.Country)
		if err := WriteOutcomes(w, player, r.Opponent.Name, r.Outcomes); err != nil {
			return err
		}
		fmt.Fprintf(w, " Payoff: %.1f vs %.1f\n\n", r.PlayerPayoff, r.ComputerPayoff)
	}
	fmt.Fprintf(w, " Lives lost: %d\n", -c.TotalLives)
	fmt.Fprintf(w, " Resources lost: %d\n", -c.TotalResources)
	_, err := fmt.Fprintf(w, " Result: %.1f\n", c.Result())
	return err
}

// WriteMotto writes an opponent's strategy reveal.
func WriteMotto(w io.Writer, o engine.Opponent) error {
	_, err := fmt.Fprintf(w, " %s (%s): %s\n", strings.ToUpper(o.Country), o.Strategy, strings.Join(o.Motto, " "))
	return err
}
