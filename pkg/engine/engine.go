package engine

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/yourusername/awsim/internal/random"
)

// Options configures the engine.
type Options struct {
	Seed int64 // RNG seed for Cautious's opening coin flip (0 = random)
}

// Engine runs matches. It owns the random-bit source so that a fixed seed
// reproduces every result; that one draw per Cautious match is the only
// non-determinism in the model.
type Engine struct {
	seed int64
	mu   sync.Mutex
	rng  *rand.Rand
}

// NewEngine creates an engine with the given options.
func NewEngine(opts Options) (*Engine, error) {
	seed := opts.Seed
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return nil, fmt.Errorf("failed to seed engine: %w", err)
		}
	}
	return &Engine{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}, nil
}

// Seed returns the seed the engine was created with.
func (e *Engine) Seed() int64 {
	return e.seed
}

// Intn implements RandomSource. Safe for concurrent use.
func (e *Engine) Intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

// Decide applies strategy s to h using the engine's random source.
func (e *Engine) Decide(s Strategy, h History) (Action, error) {
	return Decide(s, h, e)
}

// RunMatch plays a full automated match between two strategies.
func (e *Engine) RunMatch(a, b Strategy) (*MatchResult, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("side A: %w: %d", ErrUnknownStrategy, uint8(a))
	}
	if !b.Valid() {
		return nil, fmt.Errorf("side B: %w: %d", ErrUnknownStrategy, uint8(b))
	}

	m := NewMatch()
	for !m.Done() {
		actA, err := e.Decide(a, m.histA)
		if err != nil {
			return nil, fmt.Errorf("round %d side A: %w", m.Rounds()+1, err)
		}
		actB, err := e.Decide(b, m.histB)
		if err != nil {
			return nil, fmt.Errorf("round %d side B: %w", m.Rounds()+1, err)
		}
		if _, err := m.Play(actA, actB); err != nil {
			return nil, err
		}
	}

	payA, payB, err := m.Payoffs()
	if err != nil {
		return nil, err
	}
	return &MatchResult{
		A:        a,
		B:        b,
		Outcomes: m.Outcomes(),
		StateA:   m.A,
		StateB:   m.B,
		PayoffA:  payA,
		PayoffB:  payB,
	}, nil
}

// PlayRound plays one live round. own is side A's action (the human); the
// opponent decides from its own view of m. m is left untouched and the
// advanced match is returned. A nil m is a match with no rounds played.
func (e *Engine) PlayRound(own Action, opponent Strategy, m *Match) (*Match, Outcome, error) {
	if !own.Valid() {
		return nil, Outcome{}, fmt.Errorf("%w: %d", ErrInvalidAction, uint8(own))
	}
	if m == nil {
		m = NewMatch()
	}
	if m.Done() {
		return nil, Outcome{}, ErrMatchOver
	}
	theirs, err := e.Decide(opponent, m.histB)
	if err != nil {
		return nil, Outcome{}, err
	}
	next := m.Clone()
	out, err := next.Play(own, theirs)
	if err != nil {
		return nil, Outcome{}, err
	}
	return next, out, nil
}
