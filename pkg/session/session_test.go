package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func getTestMachine(t *testing.T) (*Machine, *league.Table) {
	t.Helper()
	e, err := engine.NewEngine(engine.Options{Seed: 2024})
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	table, err := league.RunLeague(e, engine.Roster())
	if err != nil {
		t.Fatalf("RunLeague error: %v", err)
	}
	return NewMachine(e, table), table
}

func mustNext(t *testing.T, m *Machine, s Scene, ev Event) Scene {
	t.Helper()
	next, err := m.Next(s, ev)
	if err != nil {
		t.Fatalf("Next(%s, %s) error: %v", s.Name(), ev.Kind, err)
	}
	return next
}

func TestCampaignAllRestraint(t *testing.T) {
	e, _ := engine.NewEngine(engine.Options{Seed: 1})
	c := NewCampaign(engine.Roster())

	if c.Started() || c.Done() {
		t.Fatal("new campaign should be neither started nor done")
	}

	rounds := 0
	for !c.Done() {
		var err error
		c, _, err = c.Choose(e, engine.DontUse)
		if err != nil {
			t.Fatalf("Choose error: %v", err)
		}
		rounds++
	}
	if rounds != engine.NumOpponents*engine.RoundsPerMatch {
		t.Errorf("rounds = %d, want %d", rounds, engine.NumOpponents*engine.RoundsPerMatch)
	}
	if len(c.Records) != engine.NumOpponents {
		t.Fatalf("Records = %d, want %d", len(c.Records), engine.NumOpponents)
	}

	// Opponents after Joe play deterministically against constant restraint.
	want := []float64{-151.1, -18.5, -350, -18.5}
	for i, w := range want {
		rec := c.Records[i+1]
		if rec.Opponent.ID != i+1 {
			t.Errorf("record %d opponent = %d", i+1, rec.Opponent.ID)
		}
		if !approxEqual(rec.PlayerPayoff, w) {
			t.Errorf("record %d PlayerPayoff = %v, want %v", i+1, rec.PlayerPayoff, w)
		}
		if len(rec.Outcomes) != engine.RoundsPerMatch {
			t.Errorf("record %d has %d outcomes", i+1, len(rec.Outcomes))
		}
	}

	var sum float64
	lives, resources := 0, 0
	for _, r := range c.Records {
		sum += r.PlayerPayoff
		lives += r.Player.Lives
		resources += r.Player.Resources
	}
	if !approxEqual(c.Result(), sum) {
		t.Errorf("Result = %v, want %v", c.Result(), sum)
	}
	if c.TotalLives != lives || c.TotalResources != resources {
		t.Errorf("totals = (%d, %d), want (%d, %d)", c.TotalLives, c.TotalResources, lives, resources)
	}

	if _, _, err := c.Choose(e, engine.Use); !errors.Is(err, engine.ErrMatchOver) {
		t.Errorf("Choose after campaign error = %v, want ErrMatchOver", err)
	}
}

func TestCampaignImmutable(t *testing.T) {
	e, _ := engine.NewEngine(engine.Options{Seed: 1})
	c0 := NewCampaign(engine.Roster())

	c1, _, err := c0.Choose(e, engine.Use)
	if err != nil {
		t.Fatalf("Choose error: %v", err)
	}
	if c0.Started() {
		t.Error("original campaign was modified")
	}
	if c1.Current == nil || c1.Current.Rounds() != 1 {
		t.Fatalf("Current = %+v, want one round played", c1.Current)
	}

	c2, _, _ := c1.Choose(e, engine.Use)
	if c1.Current.Rounds() != 1 || c2.Current.Rounds() != 2 {
		t.Errorf("rounds: c1 = %d, c2 = %d", c1.Current.Rounds(), c2.Current.Rounds())
	}
}

func TestSceneFlow(t *testing.T) {
	m, table := getTestMachine(t)

	s := m.Start()
	if s.Name() != "intro" {
		t.Fatalf("Start = %s, want intro", s.Name())
	}
	if _, err := m.Next(s, Event{Kind: Back}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Back on intro error = %v, want ErrInvalidEvent", err)
	}

	s = mustNext(t, m, s, Event{Kind: Continue})
	if _, ok := s.(PlayerIntro); !ok {
		t.Fatalf("after intro: %s", s.Name())
	}
	if back := mustNext(t, m, s, Event{Kind: Back}); back.Name() != "intro" {
		t.Errorf("Back from player intro = %s", back.Name())
	}

	s = mustNext(t, m, s, Event{Kind: Continue})
	play, ok := s.(Play)
	if !ok {
		t.Fatalf("after player intro: %s", s.Name())
	}
	if back := mustNext(t, m, play, Event{Kind: Back}); back.Name() != "player_intro" {
		t.Errorf("Back from unstarted play = %s", back.Name())
	}
	if _, err := m.Next(play, Event{Kind: Continue}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Continue on unfinished campaign error = %v, want ErrInvalidEvent", err)
	}

	before := play
	for i := 0; i < engine.NumOpponents*engine.RoundsPerMatch; i++ {
		s = mustNext(t, m, s, Event{Kind: Choose, Action: engine.Action(i % 2)})
	}
	if before.Campaign.Started() || before.Last != nil {
		t.Error("Next modified the input scene")
	}
	play = s.(Play)
	if !play.Campaign.Done() || play.Last == nil || play.Last.Round != engine.RoundsPerMatch {
		t.Fatalf("campaign not finished: %+v", play.Campaign)
	}
	if _, err := m.Next(play, Event{Kind: Choose, Action: engine.Use}); !errors.Is(err, engine.ErrMatchOver) {
		t.Errorf("extra Choose error = %v, want ErrMatchOver", err)
	}
	if _, err := m.Next(play, Event{Kind: Back}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Back on started play error = %v, want ErrInvalidEvent", err)
	}

	s = mustNext(t, m, s, Event{Kind: Continue})
	if _, ok := s.(Explanation); !ok {
		t.Fatalf("after play: %s", s.Name())
	}
	s = mustNext(t, m, s, Event{Kind: Continue})
	if _, ok := s.(TournamentIntro); !ok {
		t.Fatalf("after explanation: %s", s.Name())
	}

	if _, err := m.Next(s, Event{Kind: Bet, Opponent: 9}); !errors.Is(err, engine.ErrUnknownOpponent) {
		t.Errorf("bad bet error = %v, want ErrUnknownOpponent", err)
	}
	winner, _ := league.Winner(table)
	s = mustNext(t, m, s, Event{Kind: Bet, Opponent: winner.ID})
	if ti := s.(TournamentIntro); ti.Bet == nil || *ti.Bet != winner.ID {
		t.Fatalf("bet not recorded: %+v", ti.Bet)
	}

	s = mustNext(t, m, s, Event{Kind: Continue})
	for i := 0; i < len(m.Bracket()); i++ {
		tour, ok := s.(Tournament)
		if !ok {
			t.Fatalf("step %d: %s, want tournament", i, s.Name())
		}
		if tour.Fixture != i {
			t.Errorf("Fixture = %d, want %d", tour.Fixture, i)
		}
		if f := m.Fixture(tour); f.Number != i+1 {
			t.Errorf("fixture number = %d, want %d", f.Number, i+1)
		}
		s = mustNext(t, m, s, Event{Kind: Continue})
	}

	res, ok := s.(Results)
	if !ok {
		t.Fatalf("after tournament: %s", s.Name())
	}
	if !res.BetWon {
		t.Error("bet on the winner should win")
	}
	if res.Winner.ID != winner.ID {
		t.Errorf("Winner = %d, want %d", res.Winner.ID, winner.ID)
	}
	if !approxEqual(res.PlayerResult, play.Campaign.Result()) {
		t.Errorf("PlayerResult = %v, want %v", res.PlayerResult, play.Campaign.Result())
	}
	if len(res.Standings) != engine.NumOpponents {
		t.Errorf("Standings = %d entries", len(res.Standings))
	}
	if _, err := m.Next(res, Event{Kind: Continue}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Continue on results error = %v, want ErrInvalidEvent", err)
	}

	back := mustNext(t, m, res, Event{Kind: Back})
	if tour, ok := back.(Tournament); !ok || tour.Fixture != len(m.Bracket())-1 {
		t.Errorf("Back from results = %+v", back)
	}
}

func TestResultsWithoutBet(t *testing.T) {
	m, _ := getTestMachine(t)
	res := m.results(Progress{Campaign: NewCampaign(engine.Roster())})
	if res.BetWon {
		t.Error("no bet cannot win")
	}
	if res.PlayerResult != 0 {
		t.Errorf("PlayerResult = %v, want 0", res.PlayerResult)
	}
}

func TestTournamentBack(t *testing.T) {
	m, _ := getTestMachine(t)
	s := mustNext(t, m, Tournament{Fixture: 2}, Event{Kind: Back})
	if tour := s.(Tournament); tour.Fixture != 1 {
		t.Errorf("Fixture = %d, want 1", tour.Fixture)
	}
	s = mustNext(t, m, Tournament{Fixture: 0}, Event{Kind: Back})
	if _, ok := s.(TournamentIntro); !ok {
		t.Errorf("Back from first fixture = %s", s.Name())
	}
}

func TestParseEventKind(t *testing.T) {
	for _, k := range []EventKind{Continue, Back, Choose, Bet} {
		got, err := ParseEventKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseEventKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseEventKind("jump"); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("ParseEventKind error = %v, want ErrInvalidEvent", err)
	}
}

func TestStore(t *testing.T) {
	m, _ := getTestMachine(t)
	store := NewStore(m)

	sess := store.Create()
	if sess.ID == "" || sess.Scene.Name() != "intro" {
		t.Fatalf("Create = %+v", sess)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}

	got, err := store.Apply(sess.ID, Event{Kind: Continue})
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	if got.Scene.Name() != "player_intro" {
		t.Errorf("Scene = %s, want player_intro", got.Scene.Name())
	}

	// A rejected event leaves the session where it was.
	if _, err := store.Apply(sess.ID, Event{Kind: Bet}); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("Apply error = %v, want ErrInvalidEvent", err)
	}
	again, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if again.Scene.Name() != "player_intro" {
		t.Errorf("Scene after rejected event = %s", again.Scene.Name())
	}

	for _, id := range []string{"nope", "00000000-0000-0000-0000-000000000000"} {
		if _, err := store.Get(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrNotFound", id, err)
		}
		if _, err := store.Apply(id, Event{Kind: Continue}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Apply(%q) error = %v, want ErrNotFound", id, err)
		}
	}

	store.Delete(sess.ID)
	if store.Len() != 0 {
		t.Errorf("Len after Delete = %d", store.Len())
	}
}

func TestStoreConcurrentApply(t *testing.T) {
	m, _ := getTestMachine(t)
	store := NewStore(m)
	sess := store.Create()
	store.Apply(sess.ID, Event{Kind: Continue})
	store.Apply(sess.ID, Event{Kind: Continue})

	var wg sync.WaitGroup
	for i := 0; i < engine.RoundsPerMatch; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Apply(sess.ID, Event{Kind: Choose, Action: engine.Use}); err != nil {
				t.Errorf("Apply error: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := store.Get(sess.ID)
	play := got.Scene.(Play)
	if len(play.Campaign.Records) != 1 {
		t.Errorf("Records = %d, want 1 after one full match", len(play.Campaign.Records))
	}
}

func TestStoreSweep(t *testing.T) {
	m, _ := getTestMachine(t)
	store := NewStore(m)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	stale := store.Create()
	clock = clock.Add(20 * time.Minute)
	fresh := store.Create()
	clock = clock.Add(5 * time.Minute)
	if _, err := store.Apply(fresh.ID, Event{Kind: Continue}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	clock = clock.Add(10 * time.Minute)
	if n := store.Sweep(30 * time.Minute); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, err := store.Get(stale.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(stale) error = %v, want ErrNotFound", err)
	}
	if _, err := store.Get(fresh.ID); err != nil {
		t.Errorf("Get(fresh) error: %v", err)
	}
}

func TestStoreExpire(t *testing.T) {
	m, _ := getTestMachine(t)
	store := NewStore(m)
	store.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Expire(ctx, time.Millisecond, -time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0 after expiry", store.Len())
	}
}
