// Package session drives a player through the simulation: a five-match
// campaign against the roster, then the league tournament, as an explicit
// scene state machine.
package session

import (
	"fmt"

	"github.com/yourusername/awsim/pkg/engine"
)

// MatchRecord is one finished campaign match.
type MatchRecord struct {
	Opponent       engine.Opponent      `json:"opponent"`
	Outcomes       []engine.Outcome     `json:"outcomes"`
	Player         engine.ResourceState `json:"player"`
	Computer       engine.ResourceState `json:"computer"`
	PlayerPayoff   float64              `json:"player_payoff"`
	ComputerPayoff float64              `json:"computer_payoff"`
}

// Campaign is the player's run of one match against each opponent in
// roster order. Values are never mutated in place; Choose returns a new one.
type Campaign struct {
	Opponents []engine.Opponent
	Current   *engine.Match // nil between matches
	Records   []MatchRecord

	// Sums of the player's final lives and resources over finished matches.
	TotalLives     int
	TotalResources int
}

// NewCampaign starts a campaign against the given opponents.
func NewCampaign(opponents []engine.Opponent) Campaign {
	return Campaign{Opponents: append([]engine.Opponent(nil), opponents...)}
}

// Done reports whether every match has been played.
func (c Campaign) Done() bool {
	return len(c.Records) >= len(c.Opponents)
}

// Started reports whether at least one round has been played.
func (c Campaign) Started() bool {
	return len(c.Records) > 0 || c.Current != nil
}

// Opponent returns the opponent of the current or next match.
func (c Campaign) Opponent() (engine.Opponent, bool) {
	if c.Done() {
		return engine.Opponent{}, false
	}
	return c.Opponents[len(c.Records)], true
}

// Match returns the match in progress, or a fresh one between matches.
func (c Campaign) Match() *engine.Match {
	if c.Current == nil {
		return engine.NewMatch()
	}
	return c.Current.Clone()
}

// Result is the sum of the player's payoffs over finished matches.
func (c Campaign) Result() float64 {
	var sum float64
	for _, r := range c.Records {
		sum += r.PlayerPayoff
	}
	return sum
}

// Choose plays the player's action in the current match. When the match
// finishes it is recorded and the campaign moves on to the next opponent.
func (c Campaign) Choose(e *engine.Engine, a engine.Action) (Campaign, engine.Outcome, error) {
	opp, ok := c.Opponent()
	if !ok {
		return c, engine.Outcome{}, engine.ErrMatchOver
	}
	next, out, err := e.PlayRound(a, opp.Strategy, c.Current)
	if err != nil {
		return c, engine.Outcome{}, err
	}

	c.Current = next
	if !next.Done() {
		return c, out, nil
	}

	payPlayer, payComputer, err := next.Payoffs()
	if err != nil {
		return c, engine.Outcome{}, fmt.Errorf("finish match against %s: %w", opp.Name, err)
	}
	records := make([]MatchRecord, len(c.Records), len(c.Records)+1)
	copy(records, c.Records)
	c.Records = append(records, MatchRecord{
		Opponent:       opp,
		Outcomes:       next.Outcomes(),
		Player:         next.A,
		Computer:       next.B,
		PlayerPayoff:   payPlayer,
		ComputerPayoff: payComputer,
	})
	c.TotalLives += next.A.Lives
	c.TotalResources += next.A.Resources
	c.Current = nil
	return c, out, nil
}
