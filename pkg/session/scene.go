package session

import (
	"errors"
	"fmt"

	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
)

// ErrInvalidEvent is returned when an event does not apply to a scene.
var ErrInvalidEvent = errors.New("invalid event for scene")

// Scene is one screen of the simulation. The set of scenes is closed.
type Scene interface {
	Name() string
	scene()
}

// Progress is the data every scene after the player intro carries forward.
type Progress struct {
	Campaign Campaign
	Bet      *int // opponent id the player bet on, nil if none
}

// Intro is the opening screen.
type Intro struct{}

// PlayerIntro explains the one-on-one mode.
type PlayerIntro struct{}

// Play is the campaign in progress. Last is the most recent round, if any.
type Play struct {
	Progress
	Last *engine.Outcome
}

// Explanation reveals each opponent's strategy after the campaign.
type Explanation struct {
	Progress
}

// TournamentIntro invites the player to bet on the league winner.
type TournamentIntro struct {
	Progress
}

// Tournament walks the league bracket one fixture at a time.
type Tournament struct {
	Progress
	Fixture int // 0-indexed into the bracket
}

// Results is the final screen.
type Results struct {
	Progress
	PlayerResult float64
	Standings    []league.Standing
	Winner       engine.Opponent
	BetWon       bool
}

func (Intro) Name() string           { return "intro" }
func (PlayerIntro) Name() string     { return "player_intro" }
func (Play) Name() string            { return "play" }
func (Explanation) Name() string     { return "explanation" }
func (TournamentIntro) Name() string { return "tournament_intro" }
func (Tournament) Name() string      { return "tournament" }
func (Results) Name() string         { return "results" }

func (Intro) scene()           {}
func (PlayerIntro) scene()     {}
func (Play) scene()            {}
func (Explanation) scene()     {}
func (TournamentIntro) scene() {}
func (Tournament) scene()      {}
func (Results) scene()         {}

// EventKind enumerates player inputs.
type EventKind int

const (
	Continue EventKind = iota // Continue / next button
	Back                      // Left navigation arrow
	Choose                    // Use / don't use buttons
	Bet                       // Pick a league winner
)

var eventNames = [...]string{"continue", "back", "choose", "bet"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

// ParseEventKind maps an event name to its kind.
func ParseEventKind(s string) (EventKind, error) {
	for i, n := range eventNames {
		if n == s {
			return EventKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown event %q", ErrInvalidEvent, s)
}

// Event is one player input.
type Event struct {
	Kind     EventKind
	Action   engine.Action // for Choose
	Opponent int           // for Bet
}

// Machine computes scene transitions. It holds the engine used for the
// computer's moves and the league computed before the session started.
type Machine struct {
	engine  *engine.Engine
	table   *league.Table
	bracket []league.Fixture
}

// NewMachine creates a machine over a finished league table.
func NewMachine(e *engine.Engine, table *league.Table) *Machine {
	return &Machine{engine: e, table: table, bracket: league.Bracket(table)}
}

// Start returns the first scene.
func (m *Machine) Start() Scene {
	return Intro{}
}

// Bracket returns the tournament fixtures shown by the Tournament scene.
func (m *Machine) Bracket() []league.Fixture {
	return m.bracket
}

// Fixture returns the fixture a Tournament scene is showing.
func (m *Machine) Fixture(t Tournament) league.Fixture {
	return m.bracket[t.Fixture]
}

func invalid(s Scene, ev Event) error {
	return fmt.Errorf("%w: %s on %s", ErrInvalidEvent, ev.Kind, s.Name())
}

// Next returns the scene that follows s after ev. s is never modified.
func (m *Machine) Next(s Scene, ev Event) (Scene, error) {
	switch s := s.(type) {
	case Intro:
		if ev.Kind == Continue {
			return PlayerIntro{}, nil
		}

	case PlayerIntro:
		switch ev.Kind {
		case Continue:
			return Play{Progress: Progress{Campaign: NewCampaign(m.table.Roster())}}, nil
		case Back:
			return Intro{}, nil
		}

	case Play:
		switch ev.Kind {
		case Choose:
			c, out, err := s.Campaign.Choose(m.engine, ev.Action)
			if err != nil {
				return nil, err
			}
			s.Campaign = c
			s.Last = &out
			return s, nil
		case Continue:
			if s.Campaign.Done() {
				return Explanation{Progress: s.Progress}, nil
			}
		case Back:
			if !s.Campaign.Started() {
				return PlayerIntro{}, nil
			}
		}

	case Explanation:
		switch ev.Kind {
		case Continue:
			return TournamentIntro{Progress: s.Progress}, nil
		case Back:
			return Play{Progress: s.Progress}, nil
		}

	case TournamentIntro:
		switch ev.Kind {
		case Bet:
			if ev.Opponent < 0 || ev.Opponent >= m.table.Size() {
				return nil, fmt.Errorf("bet: %w: %d", engine.ErrUnknownOpponent, ev.Opponent)
			}
			id := ev.Opponent
			s.Bet = &id
			return s, nil
		case Continue:
			if len(m.bracket) == 0 {
				return m.results(s.Progress), nil
			}
			return Tournament{Progress: s.Progress}, nil
		case Back:
			return Explanation{Progress: s.Progress}, nil
		}

	case Tournament:
		switch ev.Kind {
		case Continue:
			if s.Fixture+1 < len(m.bracket) {
				s.Fixture++
				return s, nil
			}
			return m.results(s.Progress), nil
		case Back:
			if s.Fixture > 0 {
				s.Fixture--
				return s, nil
			}
			return TournamentIntro{Progress: s.Progress}, nil
		}

	case Results:
		if ev.Kind == Back {
			if len(m.bracket) == 0 {
				return TournamentIntro{Progress: s.Progress}, nil
			}
			return Tournament{Progress: s.Progress, Fixture: len(m.bracket) - 1}, nil
		}

	default:
		return nil, fmt.Errorf("%w: unknown scene %T", ErrInvalidEvent, s)
	}
	return nil, invalid(s, ev)
}

func (m *Machine) results(p Progress) Results {
	r := Results{
		Progress:     p,
		PlayerResult: p.Campaign.Result(),
		Standings:    league.Standings(m.table),
	}
	if w, ok := league.Winner(m.table); ok {
		r.Winner = w
		r.BetWon = p.Bet != nil && *p.Bet == w.ID
	}
	return r
}
