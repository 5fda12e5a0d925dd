// Package api provides the HTTP/JSON and WebSocket API for the simulation.
package api

import (
	"time"

	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
	"github.com/yourusername/awsim/pkg/session"
)

// ============================================================================
// Request Types
// ============================================================================

// DecideRequest asks a strategy for its next action.
type DecideRequest struct {
	Strategy  string `json:"strategy"`             // Strategy name, e.g. "Defensive"
	History   string `json:"history,omitempty"`    // Rounds in "UD DU" notation, opponent first
	HistoryID string `json:"history_id,omitempty"` // Compact history id (overrides History)
}

// ResolveRequest is one round's pair of actions.
type ResolveRequest struct {
	A string `json:"a"` // "use" or "dont"
	B string `json:"b"`
}

// MatchRequest runs an automated match between two strategies.
type MatchRequest struct {
	A string `json:"a"` // Strategy name for side A
	B string `json:"b"` // Strategy name for side B
}

// RoundRequest plays one live round against a roster opponent. The match
// so far is carried by HistoryID from the player's perspective.
type RoundRequest struct {
	Opponent  int    `json:"opponent"`             // Roster id
	Action    string `json:"action"`               // Player's action
	HistoryID string `json:"history_id,omitempty"` // Empty for the first round
}

// SampleRequest runs many matches between two strategies.
type SampleRequest struct {
	A       string `json:"a"`
	B       string `json:"b"`
	Matches int    `json:"matches,omitempty"` // default 100
}

// EventRequest is one player input to a session.
type EventRequest struct {
	Event    string `json:"event"`              // "continue", "back", "choose", "bet"
	Action   string `json:"action,omitempty"`   // for "choose"
	Opponent *int   `json:"opponent,omitempty"` // for "bet"
}

// ============================================================================
// Response Types
// ============================================================================

// DecideResponse is a strategy's decision.
type DecideResponse struct {
	Strategy engine.Strategy `json:"strategy"`
	Action   engine.Action   `json:"action"`
	Rounds   int             `json:"rounds"` // Rounds in the history decided on
}

// ResolveResponse holds both sides' deltas for a round.
type ResolveResponse struct {
	A      engine.Action `json:"a"`
	B      engine.Action `json:"b"`
	DeltaA engine.Delta  `json:"delta_a"`
	DeltaB engine.Delta  `json:"delta_b"`
}

// RoundResponse is the result of one live round.
type RoundResponse struct {
	Outcome        engine.Outcome       `json:"outcome"`
	HistoryID      string               `json:"history_id"` // Pass back for the next round
	History        string               `json:"history"`
	Player         engine.ResourceState `json:"player"`
	Computer       engine.ResourceState `json:"computer"`
	Done           bool                 `json:"done"`
	PlayerPayoff   *float64             `json:"player_payoff,omitempty"` // Set once Done
	ComputerPayoff *float64             `json:"computer_payoff,omitempty"`
}

// LeagueResponse is the computed league. Payoffs[i][j] is i's payoff
// against j; the diagonal is null.
type LeagueResponse struct {
	Roster    []engine.Opponent `json:"roster"`
	Payoffs   [][]*float64      `json:"payoffs"`
	Standings []league.Standing `json:"standings"`
	Winner    *engine.Opponent  `json:"winner,omitempty"`
	Bracket   []league.Fixture  `json:"bracket"`
}

// CampaignView is a session's campaign progress.
type CampaignView struct {
	Match     int                   `json:"match"` // 1-indexed current match, 0 when done
	Round     int                   `json:"round"` // Rounds played in the current match
	Opponent  *engine.Opponent      `json:"opponent,omitempty"`
	Player    engine.ResourceState  `json:"player"`
	Computer  engine.ResourceState  `json:"computer"`
	Records   []session.MatchRecord `json:"records"`
	Lives     int                   `json:"lives"`
	Resources int                   `json:"resources"`
	Result    float64               `json:"result"`
	Done      bool                  `json:"done"`
}

// SessionResponse is a snapshot of one session. Which optional fields are
// set depends on Scene.
type SessionResponse struct {
	ID        string            `json:"id"`
	Scene     string            `json:"scene"`
	Created   time.Time         `json:"created"`
	Updated   time.Time         `json:"updated"`
	Campaign  *CampaignView     `json:"campaign,omitempty"`
	Last      *engine.Outcome   `json:"last,omitempty"`
	Roster    []engine.Opponent `json:"roster,omitempty"`
	Bet       *int              `json:"bet,omitempty"`
	Fixture   *league.Fixture   `json:"fixture,omitempty"`
	Fixtures  int               `json:"fixtures,omitempty"`
	Standings []league.Standing `json:"standings,omitempty"`
	Winner    *engine.Opponent  `json:"winner,omitempty"`
	BetWon    *bool             `json:"bet_won,omitempty"`
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error   string `json:"error"`             // Error message
	Code    string `json:"code,omitempty"`    // Error code
	Details string `json:"details,omitempty"` // Additional details
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status   string     `json:"status"`         // "ok" or "error"
	Version  string     `json:"version"`        // Server version
	Ready    bool       `json:"ready"`          // Whether the league has been computed
	Seed     int64      `json:"seed"`           // Engine seed
	Sessions int        `json:"sessions"`       // Live sessions
	Pool     *PoolStats `json:"pool,omitempty"` // Worker pool statistics
}

// ============================================================================
// Helper Functions
// ============================================================================

// leagueToResponse converts a finished table to its API form.
func leagueToResponse(t *league.Table) *LeagueResponse {
	n := t.Size()
	resp := &LeagueResponse{
		Roster:    t.Roster(),
		Payoffs:   make([][]*float64, n),
		Standings: league.Standings(t),
		Bracket:   league.Bracket(t),
	}
	for i := 0; i < n; i++ {
		resp.Payoffs[i] = make([]*float64, n)
		for j := 0; j < n; j++ {
			if p, err := t.Payoff(i, j); err == nil {
				resp.Payoffs[i][j] = &p
			}
		}
	}
	if w, ok := league.Winner(t); ok {
		resp.Winner = &w
	}
	return resp
}

func campaignView(c session.Campaign) *CampaignView {
	v := &CampaignView{
		Records:   c.Records,
		Lives:     c.TotalLives,
		Resources: c.TotalResources,
		Result:    c.Result(),
		Done:      c.Done(),
	}
	if v.Records == nil {
		v.Records = []session.MatchRecord{}
	}
	if opp, ok := c.Opponent(); ok {
		v.Match = len(c.Records) + 1
		v.Opponent = &opp
		m := c.Match()
		v.Round = m.Rounds()
		v.Player, v.Computer = m.A, m.B
	}
	return v
}

// sessionToResponse renders a session for the scene it is on.
func sessionToResponse(s session.Session, m *session.Machine) *SessionResponse {
	resp := &SessionResponse{
		ID:      s.ID,
		Scene:   s.Scene.Name(),
		Created: s.Created,
		Updated: s.Updated,
	}
	switch sc := s.Scene.(type) {
	case session.Play:
		resp.Campaign = campaignView(sc.Campaign)
		resp.Last = sc.Last
	case session.Explanation:
		resp.Campaign = campaignView(sc.Campaign)
		resp.Roster = sc.Campaign.Opponents
	case session.TournamentIntro:
		resp.Roster = sc.Campaign.Opponents
		resp.Bet = sc.Bet
	case session.Tournament:
		f := m.Fixture(sc)
		resp.Fixture = &f
		resp.Fixtures = len(m.Bracket())
		resp.Bet = sc.Bet
	case session.Results:
		resp.Campaign = campaignView(sc.Campaign)
		resp.Bet = sc.Bet
		resp.Standings = sc.Standings
		if len(sc.Standings) > 0 {
			w := sc.Winner
			resp.Winner = &w
		}
		won := sc.BetWon
		resp.BetWon = &won
	}
	return resp
}
