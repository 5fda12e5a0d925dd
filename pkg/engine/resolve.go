package engine

import "fmt"

// Damage magnitudes applied by the resolver.
const (
	MinDamage = 1
	MidDamage = 10
	MaxDamage = 100
)

// Delta is the change a round applies to one side's ResourceState.
type Delta struct {
	Lives     int `json:"lives"`
	Resources int `json:"resources"`
}

// outcomes[a][b] holds (delta for A, delta for B).
var outcomes = [2][2][2]Delta{
	DontUse: {
		DontUse: {{-MinDamage, -MidDamage}, {-MinDamage, -MidDamage}},
		Use:     {{-MaxDamage, 0}, {0, -MaxDamage}},
	},
	Use: {
		DontUse: {{0, -MaxDamage}, {-MaxDamage, 0}},
		Use:     {{-MidDamage, -MaxDamage}, {-MidDamage, -MaxDamage}},
	},
}

// Resolve returns the deltas for both sides of a round. It never mutates
// state; the caller applies each delta to the matching side.
func Resolve(a, b Action) (Delta, Delta, error) {
	if !a.Valid() {
		return Delta{}, Delta{}, fmt.Errorf("side A: %w: %d", ErrInvalidAction, uint8(a))
	}
	if !b.Valid() {
		return Delta{}, Delta{}, fmt.Errorf("side B: %w: %d", ErrInvalidAction, uint8(b))
	}
	d := outcomes[a][b]
	return d[0], d[1], nil
}
