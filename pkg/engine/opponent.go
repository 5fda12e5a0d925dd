package engine

import "fmt"

// Opponent is a computer-controlled country with a fixed strategy.
type Opponent struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Country  string   `json:"country"`
	Strategy Strategy `json:"strategy"`
	Motto    []string `json:"motto"`
}

// NumOpponents is the size of the fixed roster.
const NumOpponents = 5

var roster = [NumOpponents]Opponent{
	{
		ID: 0, Name: "Joe", Country: "Developed Country", Strategy: Cautious,
		Motto: []string{
			"Greetings! I never start with force, but I'm not afraid",
			"to retaliate by copying your actions. An eye for an eye, a tooth for a tooth.",
		},
	},
	{
		ID: 1, Name: "Kanye", Country: "Developing Country", Strategy: Unpredictable,
		Motto: []string{
			"My priorities are always changing based on the needs of my country.",
			"Might use 'em, might not.",
		},
	},
	{
		ID: 2, Name: "Sam", Country: "Resource-Rich Country", Strategy: Defensive,
		Motto: []string{
			"Fool me once, shame on you; fool me twice, shame on me.",
			"I will not give second chances in war.",
		},
	},
	{
		ID: 3, Name: "Lizzy", Country: "Military-Focused Country", Strategy: Aggressive,
		Motto: []string{
			"We are not afraid to make sacrifices for the benefit of our country.",
			"Autonomous weapons are the answer.",
		},
	},
	{
		ID: 4, Name: "Dierre", Country: "Peace-Focused Country", Strategy: Cooperative,
		Motto: []string{
			"Violence is never the answer.",
		},
	},
}

// Roster returns a copy of the fixed opponent roster in id order.
func Roster() []Opponent {
	out := make([]Opponent, NumOpponents)
	for i, o := range roster {
		o.Motto = append([]string(nil), o.Motto...)
		out[i] = o
	}
	return out
}

// OpponentByID looks up a roster entry.
func OpponentByID(id int) (Opponent, error) {
	if id < 0 || id >= NumOpponents {
		return Opponent{}, fmt.Errorf("%w: %d", ErrUnknownOpponent, id)
	}
	return Roster()[id], nil
}
