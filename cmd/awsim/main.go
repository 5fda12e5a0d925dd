// awsim - autonomous weapons dilemma simulator
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yourusername/awsim/internal/historyid"
	"github.com/yourusername/awsim/pkg/engine"
	"github.com/yourusername/awsim/pkg/league"
	"github.com/yourusername/awsim/pkg/transcript"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "roster":
		cmdRoster(args)
	case "decide":
		cmdDecide(args)
	case "resolve":
		cmdResolve(args)
	case "match":
		cmdMatch(args)
	case "league":
		cmdLeague(args)
	case "sample":
		cmdSample(args)
	case "play":
		cmdPlay(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`awsim - Autonomous Weapons Dilemma Simulator

Usage: awsim <command> [options]

Commands:
  roster    List the computer opponents
  decide    Ask a strategy for its next action
  resolve   Show the damage of one round
  match     Run an automated match between two strategies
  league    Run the round-robin league
  sample    Run many matches and summarise the payoffs
  play      Play the full simulation interactively

Use "awsim <command> -h" for command-specific help.

History Format:
  Rounds are two letters, the opponent's action first, U = use, D = don't.
  Example: "DD UD DU". A compact history id (e.g. "D2") is also accepted.

Strategies:
  Cautious, Unpredictable, Defensive, Aggressive, Cooperative`)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func createEngine(seed int64) *engine.Engine {
	e, err := engine.NewEngine(engine.Options{Seed: seed})
	if err != nil {
		fail("failed to create engine: %v", err)
	}
	return e
}

// parseHistory accepts either round notation or a history id.
func parseHistory(s string) (engine.History, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if h, err := engine.ParseHistory(s); err == nil {
		return h, nil
	}
	h, err := historyid.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("history %q is neither round notation nor a history id", s)
	}
	return h, nil
}

func cmdRoster(args []string) {
	fs := flag.NewFlagSet("roster", flag.ExitOnError)
	mottos := fs.Bool("mottos", false, "Reveal each opponent's strategy motto")
	fs.Parse(args)

	for _, o := range engine.Roster() {
		fmt.Printf("  %d. %-7s %-26s %s\n", o.ID, o.Name, o.Country, o.Strategy)
		if *mottos {
			fmt.Printf("     %s\n", strings.Join(o.Motto, " "))
		}
	}
}

func cmdDecide(args []string) {
	fs := flag.NewFlagSet("decide", flag.ExitOnError)
	strategy := fs.String("strategy", "", "Strategy name")
	strategyShort := fs.String("s", "", "Strategy name (short form)")
	history := fs.String("history", "", "Rounds so far, e.g. \"DD UD\", or a history id")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	fs.Parse(args)

	name := *strategy
	if name == "" {
		name = *strategyShort
	}
	if name == "" {
		fmt.Fprintln(os.Stderr, "Error: strategy required")
		fmt.Fprintln(os.Stderr, "Usage: awsim decide -strategy <name> [-history \"DD UD\"]")
		os.Exit(1)
	}

	s, err := engine.ParseStrategy(name)
	if err != nil {
		fail("%v", err)
	}
	h, err := parseHistory(*history)
	if err != nil {
		fail("%v", err)
	}
	if len(h) >= engine.RoundsPerMatch {
		fail("%v", engine.ErrMatchOver)
	}

	a, err := createEngine(*seed).Decide(s, h)
	if err != nil {
		fail("%v", err)
	}
	id, _ := historyid.Encode(h)
	fmt.Printf("%s after [%s] (id %s): %s\n", s, h, id, a)
}

func cmdResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	a := fs.String("a", "", "Side A action (use/dont)")
	b := fs.String("b", "", "Side B action (use/dont)")
	fs.Parse(args)

	if *a == "" || *b == "" {
		fmt.Fprintln(os.Stderr, "Error: both actions required")
		fmt.Fprintln(os.Stderr, "Usage: awsim resolve -a use -b dont")
		os.Exit(1)
	}

	actA, err := engine.ParseAction(*a)
	if err != nil {
		fail("side A: %v", err)
	}
	actB, err := engine.ParseAction(*b)
	if err != nil {
		fail("side B: %v", err)
	}
	da, db, err := engine.Resolve(actA, actB)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("A %-5s lives %+4d  resources %+4d\n", actA, da.Lives, da.Resources)
	fmt.Printf("B %-5s lives %+4d  resources %+4d\n", actB, db.Lives, db.Resources)
}

func cmdMatch(args []string) {
	fs := flag.NewFlagSet("match", flag.ExitOnError)
	a := fs.String("a", "", "Side A strategy")
	b := fs.String("b", "", "Side B strategy")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	fs.Parse(args)

	if *a == "" || *b == "" {
		fmt.Fprintln(os.Stderr, "Error: both strategies required")
		fmt.Fprintln(os.Stderr, "Usage: awsim match -a Cautious -b Defensive [-seed N]")
		os.Exit(1)
	}

	sa, err := engine.ParseStrategy(*a)
	if err != nil {
		fail("side A: %v", err)
	}
	sb, err := engine.ParseStrategy(*b)
	if err != nil {
		fail("side B: %v", err)
	}

	res, err := createEngine(*seed).RunMatch(sa, sb)
	if err != nil {
		fail("%v", err)
	}
	if err := transcript.WriteMatch(os.Stdout, "A", "B", res); err != nil {
		fail("%v", err)
	}
}

func cmdLeague(args []string) {
	fs := flag.NewFlagSet("league", flag.ExitOnError)
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	bracket := fs.Bool("bracket", false, "List every fixture in play order")
	fs.Parse(args)

	e := createEngine(*seed)
	table, err := league.RunLeague(e, engine.Roster())
	if err != nil {
		fail("league failed: %v", err)
	}

	fmt.Printf("League (seed %d):\n\n", e.Seed())
	if err := transcript.WriteTable(os.Stdout, table); err != nil {
		fail("%v", err)
	}
	if *bracket {
		fmt.Println("\nFixtures:")
		transcript.WriteBracket(os.Stdout, league.Bracket(table))
	}
	fmt.Println("\nStandings:")
	transcript.WriteStandings(os.Stdout, league.Standings(table))
}

func cmdSample(args []string) {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	a := fs.String("a", "", "Side A strategy")
	b := fs.String("b", "", "Side B strategy")
	n := fs.Int("n", 1000, "Number of matches")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	fs.Parse(args)

	if *a == "" || *b == "" {
		fmt.Fprintln(os.Stderr, "Error: both strategies required")
		fmt.Fprintln(os.Stderr, "Usage: awsim sample -a Cautious -b Unpredictable [-n 1000]")
		os.Exit(1)
	}
	sa, err := engine.ParseStrategy(*a)
	if err != nil {
		fail("side A: %v", err)
	}
	sb, err := engine.ParseStrategy(*b)
	if err != nil {
		fail("side B: %v", err)
	}

	res, err := league.Sample(createEngine(*seed), sa, sb, *n)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("%s vs %s (%d matches):\n", res.A, res.B, res.Matches)
	fmt.Printf("  A: %.1f ± %.1f (min %.1f, max %.1f)\n", res.MeanA, res.StdDevA, res.MinA, res.MaxA)
	fmt.Printf("  B: %.1f ± %.1f\n", res.MeanB, res.StdDevB)
}

// parseOpponent reads a roster id or name.
func parseOpponent(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	for _, o := range engine.Roster() {
		if strings.EqualFold(o.Name, s) {
			return o.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", engine.ErrUnknownOpponent, s)
}
