package outcome

import (
	"fmt"
	"math"

	"github.com/derekprior/groupsim/internal/match"
)

// Source supplies uniform draws in [0,1). *rand.Rand satisfies it.
//
// Sources are stateful and are not safe for concurrent use.
type Source interface {
	Float64() float64
}

const balancedRatio = 0.5

// Settings tunes how ratings translate into expected goals.
type Settings struct {
	// BaseExpectedGoals is the lambda of two evenly matched teams.
	BaseExpectedGoals float64
	// StrengthImpact scales how far the strength ratio moves lambda.
	StrengthImpact float64
	MinLambda      float64
	MaxLambda      float64
	// MinCombinedRating floors the ratio denominator so two zero ratings
	// do not divide by zero.
	MinCombinedRating float64
	MinRatio          float64
	MaxRatio          float64
}

// DefaultSettings returns the standard sampler coefficients.
func DefaultSettings() Settings {
	return Settings{
		BaseExpectedGoals: 1.35,
		StrengthImpact:    1.85,
		MinLambda:         0.05,
		MaxLambda:         4.75,
		MinCombinedRating: 1,
		MinRatio:          0.05,
		MaxRatio:          0.95,
	}
}

// Knuth turns two ratings into a score line by sampling each side's goals
// from a Poisson distribution with Knuth's multiplication method.
type Knuth struct {
	src      Source
	settings Settings
}

// NewKnuth returns a sampler drawing from src.
func NewKnuth(src Source, settings Settings) *Knuth {
	return &Knuth{src: src, settings: settings}
}

// Simulate samples home goals and then away goals independently. Ratings or
// settings that leave either expected goals value non-finite are rejected
// before any draw is taken.
func (k *Knuth) Simulate(f match.Fixture, homeRating, awayRating float64) (match.Result, error) {
	homeLambda := k.Lambda(homeRating, awayRating)
	awayLambda := k.Lambda(awayRating, homeRating)
	if !finite(homeLambda) || !finite(awayLambda) {
		return match.Result{}, fmt.Errorf("expected goals %g - %g from ratings %g - %g are not finite",
			homeLambda, awayLambda, homeRating, awayRating)
	}

	homeGoals := k.sample(homeLambda)
	awayGoals := k.sample(awayLambda)
	return match.Final(f, homeGoals, awayGoals)
}

// Lambda returns the expected goals for a side rated self against opp.
func (k *Knuth) Lambda(self, opp float64) float64 {
	s := k.settings
	total := math.Max(self+opp, s.MinCombinedRating)
	ratio := clamp(self/total, s.MinRatio, s.MaxRatio)
	return clamp(s.BaseExpectedGoals+s.StrengthImpact*(ratio-balancedRatio), s.MinLambda, s.MaxLambda)
}

// sample multiplies uniform draws until the product falls to exp(-lambda)
// or below; the number of draws minus one is Poisson(lambda).
func (k *Knuth) sample(lambda float64) int {
	limit := math.Exp(-lambda)
	p := 1.0
	n := 0
	for {
		n++
		p *= k.src.Float64()
		if p <= limit {
			return n - 1
		}
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
