package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
	"github.com/yourusername/awsim/pkg/session"
	"github.com/yourusername/awsim/pkg/transcript"
)

var errQuit = errors.New("quit")

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	fs.Parse(args)

	e := createEngine(*seed)
	table, err := league.RunLeague(e, engine.Roster())
	if err != nil {
		fail("league failed: %v", err)
	}

	if err := play(session.NewMachine(e, table), os.Stdin, os.Stdout); err != nil && err != errQuit {
		fail("%v", err)
	}
}

// play runs the scene machine against line input until the player quits
// or input ends.
func play(m *session.Machine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scene := m.Start()
	for {
		render(m, scene, out)
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			if err := scanner.Err(); err != nil {
				return err
			}
			return nil
		}

		ev, err := parseInput(scene, scanner.Text())
		if err != nil {
			if err == errQuit {
				return err
			}
			fmt.Fprintf(out, " %v\n", err)
			continue
		}
		next, err := m.Next(scene, ev)
		if err != nil {
			fmt.Fprintf(out, " %v\n", err)
			continue
		}
		scene = next
	}
}

// parseInput maps one line of input to a machine event. An empty line
// continues.
func parseInput(scene session.Scene, line string) (session.Event, error) {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "", "c", "continue", "n", "next":
		return session.Event{Kind: session.Continue}, nil
	case "b", "back":
		return session.Event{Kind: session.Back}, nil
	case "q", "quit", "exit":
		return session.Event{}, errQuit
	}

	switch scene.(type) {
	case session.Play:
		a, err := engine.ParseAction(line)
		if err != nil {
			return session.Event{}, err
		}
		return session.Event{Kind: session.Choose, Action: a}, nil
	case session.TournamentIntro:
		id, err := parseOpponent(line)
		if err != nil {
			return session.Event{}, err
		}
		return session.Event{Kind: session.Bet, Opponent: id}, nil
	}
	return session.Event{}, fmt.Errorf("%w: %q", session.ErrInvalidEvent, line)
}

func render(m *session.Machine, scene session.Scene, out io.Writer) {
	fmt.Fprintln(out)
	switch s := scene.(type) {
	case session.Intro:
		fmt.Fprintln(out, " AUTONOMOUS WEAPONS SIMULATION")
		fmt.Fprintln(out, " Each round, you and another country decide whether to use autonomous")
		fmt.Fprintln(out, " weapons. Using them costs resources; being attacked costs lives.")
		fmt.Fprintln(out, " [enter] continue")

	case session.PlayerIntro:
		fmt.Fprintf(out, " You will play %d matches of %d rounds, one against each country.\n",
			engine.NumOpponents, engine.RoundsPerMatch)
		fmt.Fprintln(out, " Your payoff is 0.7 x lives + 0.3 x resources. Lose as little as you can.")
		fmt.Fprintln(out, " [enter] start  [b] back")

	case session.Play:
		c := s.Campaign
		if s.Last != nil {
			fmt.Fprintf(out, " Round %d: you %s, they %s\n", s.Last.Round, s.Last.A, s.Last.B)
			if s.Last.Round == engine.RoundsPerMatch && len(c.Records) > 0 {
				r := c.Records[len(c.Records)-1]
				transcript.WriteOutcomes(out, "You", r.Opponent.Name, r.Outcomes)
				fmt.Fprintf(out, " Payoff: %.1f vs %.1f\n", r.PlayerPayoff, r.ComputerPayoff)
			}
		}
		opp, ok := c.Opponent()
		if !ok {
			fmt.Fprintf(out, " Campaign over. Result: %.1f\n", c.Result())
			fmt.Fprintln(out, " [enter] continue")
			return
		}
		cur := c.Match()
		fmt.Fprintf(out, " Match %d vs %s (%s), round %d of %d\n",
			len(c.Records)+1, opp.Name, opp.Country, cur.Rounds()+1, engine.RoundsPerMatch)
		fmt.Fprintf(out, " You: %d lives, %d resources\n", cur.A.Lives, cur.A.Resources)
		fmt.Fprintln(out, " [u] use AWs  [d] don't use AWs")

	case session.Explanation:
		fmt.Fprintln(out, " What each country was thinking:")
		for _, o := range s.Campaign.Opponents {
			transcript.WriteMotto(out, o)
		}
		fmt.Fprintln(out, " [enter] continue  [b] back")

	case session.TournamentIntro:
		fmt.Fprintln(out, " The countries now play each other. Who will lose the least?")
		for _, o := range s.Campaign.Opponents {
			fmt.Fprintf(out, "  %d. %s (%s)\n", o.ID, o.Name, o.Country)
		}
		if s.Bet != nil {
			fmt.Fprintf(out, " Your bet: %d\n", *s.Bet)
		}
		fmt.Fprintln(out, " [0-4 or name] bet  [enter] start  [b] back")

	case session.Tournament:
		f := m.Fixture(s)
		transcript.WriteBracket(out, []league.Fixture{f})
		fmt.Fprintln(out, " [enter] next  [b] back")

	case session.Results:
		fmt.Fprintln(out, " League standings:")
		transcript.WriteStandings(out, s.Standings)
		if s.Bet != nil {
			if s.BetWon {
				fmt.Fprintf(out, " You bet on %s and won.\n", s.Winner.Name)
			} else {
				fmt.Fprintf(out, " %s won; your bet lost.\n", s.Winner.Name)
			}
		}
		fmt.Fprintln(out, "\n Your campaign:")
		transcript.WriteCampaign(out, "You", s.Campaign)
		fmt.Fprintln(out, " [b] back  [q] quit")
	}
}
