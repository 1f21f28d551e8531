package events

import (
	"fmt"
	"slices"

	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/team"
)

// DefaultProbability is the chance each pool modifier is active in a fixture.
const DefaultProbability = 0.5

// Source names the contextual events active for a fixture.
type Source interface {
	EventsFor(f match.Fixture) []team.ModifierName
}

// Uniform supplies draws in [0,1). *rand.Rand satisfies it.
type Uniform interface {
	Float64() float64
}

// DefaultPool returns every known modifier except HomeAdvantage, which the
// simulator applies to the home side itself.
func DefaultPool() []team.ModifierName {
	var pool []team.ModifierName
	for _, m := range team.KnownModifiers {
		if m != team.HomeAdvantage {
			pool = append(pool, m)
		}
	}
	return pool
}

// Get returns a Source by provider name.
func Get(name string, rng Uniform, probability float64, pool []team.ModifierName) (Source, error) {
	switch name {
	case "random":
		r, err := NewRandom(rng, probability, pool)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "none", "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown events provider: %q", name)
	}
}

// None never reports events.
type None struct{}

func (None) EventsFor(match.Fixture) []team.ModifierName { return nil }

// Random activates each pool modifier independently with a fixed
// probability, drawing once per modifier in pool order.
type Random struct {
	rng         Uniform
	probability float64
	pool        []team.ModifierName
}

// NewRandom builds a Random source. An empty pool uses DefaultPool.
func NewRandom(rng Uniform, probability float64, pool []team.ModifierName) (*Random, error) {
	if rng == nil {
		return nil, fmt.Errorf("random events provider needs a random source")
	}
	if probability < 0 || probability > 1 {
		return nil, fmt.Errorf("event probability %g must be between 0 and 1", probability)
	}
	if len(pool) == 0 {
		pool = DefaultPool()
	}
	return &Random{rng: rng, probability: probability, pool: slices.Clone(pool)}, nil
}

// EventsFor returns the picked modifiers, or nil when none were picked.
func (r *Random) EventsFor(match.Fixture) []team.ModifierName {
	var picks []team.ModifierName
	for _, m := range r.pool {
		if r.rng.Float64() < r.probability {
			picks = append(picks, m)
		}
	}
	return picks
}
