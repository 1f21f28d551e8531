package team

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidTeam is wrapped by every construction error in this package.
var ErrInvalidTeam = errors.New("invalid team")

// Rating and normalization bounds.
const (
	MinRating = 0.0
	MaxRating = 100.0

	MinFactorValue = 0.0
	MaxFactorValue = 1.0

	MinAdjustment = -1.0
	MaxAdjustment = 1.0
)

// FactorName identifies a normalized skill dimension of a team.
type FactorName string

const (
	Attack          FactorName = "attack"
	Defense         FactorName = "defense"
	MidfieldControl FactorName = "midfield_control"
	TeamSpirit      FactorName = "team_spirit"
	Goalkeeping     FactorName = "goalkeeping"
	Stamina         FactorName = "stamina"
)

// ModifierName identifies a contextual match event.
type ModifierName string

const (
	RainyWeather  ModifierName = "rainy_weather"
	ScorchingHeat ModifierName = "scorching_heat"
	CrowdSurge    ModifierName = "crowd_surge"
	HomeAdvantage ModifierName = "home_advantage"
	TravelFatigue ModifierName = "travel_fatigue"
	Injuries      ModifierName = "injuries"
)

// KnownModifiers lists the built-in modifiers in declaration order.
var KnownModifiers = []ModifierName{
	RainyWeather,
	ScorchingHeat,
	CrowdSurge,
	HomeAdvantage,
	TravelFatigue,
	Injuries,
}

// outOfRange reports whether v lies outside [lo, hi]. NaN is always out of
// range.
func outOfRange(v, lo, hi float64) bool {
	return math.IsNaN(v) || v < lo || v > hi
}

// Factor is a named strength value normalized to [0,1].
type Factor struct {
	Name  FactorName
	Value float64
}

// NewFactor returns a Factor after range-checking its value.
func NewFactor(name FactorName, value float64) (Factor, error) {
	f := Factor{Name: name, Value: value}
	if err := f.validate(); err != nil {
		return Factor{}, err
	}
	return f, nil
}

func (f Factor) validate() error {
	if strings.TrimSpace(string(f.Name)) == "" {
		return fmt.Errorf("%w: factor name must be provided", ErrInvalidTeam)
	}
	if outOfRange(f.Value, MinFactorValue, MaxFactorValue) {
		return fmt.Errorf("%w: factor %s value %g must be between %g and %g",
			ErrInvalidTeam, f.Name, f.Value, MinFactorValue, MaxFactorValue)
	}
	return nil
}

// Adjustment is a percentage change to one factor, expressed as -1..1
// (e.g. -0.2 = -20%).
type Adjustment struct {
	Factor     FactorName
	Percentage float64
}

// NewAdjustment returns an Adjustment after range-checking its percentage.
func NewAdjustment(factor FactorName, percentage float64) (Adjustment, error) {
	a := Adjustment{Factor: factor, Percentage: percentage}
	if err := a.validate(); err != nil {
		return Adjustment{}, err
	}
	return a, nil
}

func (a Adjustment) validate() error {
	if strings.TrimSpace(string(a.Factor)) == "" {
		return fmt.Errorf("%w: adjustment factor must be provided", ErrInvalidTeam)
	}
	if outOfRange(a.Percentage, MinAdjustment, MaxAdjustment) {
		return fmt.Errorf("%w: adjustment for %s percentage %g must be between %g and %g",
			ErrInvalidTeam, a.Factor, a.Percentage, MinAdjustment, MaxAdjustment)
	}
	return nil
}

// Modifier describes how a team reacts to one contextual event.
type Modifier struct {
	name        ModifierName
	adjustments []Adjustment
}

// NewModifier builds a Modifier. It needs at least one adjustment and each
// factor may be targeted only once.
func NewModifier(name ModifierName, adjustments ...Adjustment) (Modifier, error) {
	if strings.TrimSpace(string(name)) == "" {
		return Modifier{}, fmt.Errorf("%w: modifier name must be provided", ErrInvalidTeam)
	}
	if len(adjustments) == 0 {
		return Modifier{}, fmt.Errorf("%w: modifier %s must contain at least one adjustment", ErrInvalidTeam, name)
	}
	seen := make(map[FactorName]bool, len(adjustments))
	for _, a := range adjustments {
		if err := a.validate(); err != nil {
			return Modifier{}, fmt.Errorf("modifier %s: %w", name, err)
		}
		if seen[a.Factor] {
			return Modifier{}, fmt.Errorf("%w: modifier %s targets factor %s more than once", ErrInvalidTeam, name, a.Factor)
		}
		seen[a.Factor] = true
	}
	return Modifier{
		name:        name,
		adjustments: append([]Adjustment(nil), adjustments...),
	}, nil
}

func (m Modifier) Name() ModifierName { return m.name }

// Adjustments returns a copy of the modifier's adjustments.
func (m Modifier) Adjustments() []Adjustment {
	return append([]Adjustment(nil), m.adjustments...)
}

// Percentage returns the adjustment for factor, or 0 if the modifier does
// not target it.
func (m Modifier) Percentage(factor FactorName) float64 {
	for _, a := range m.adjustments {
		if a.Factor == factor {
			return a.Percentage
		}
	}
	return 0
}

func (m Modifier) String() string {
	parts := make([]string, len(m.adjustments))
	for i, a := range m.adjustments {
		parts[i] = fmt.Sprintf("%s:%+.0f%%", a.Factor, a.Percentage*100)
	}
	return fmt.Sprintf("%s (%s)", m.name, strings.Join(parts, ", "))
}

// Team is an immutable club definition: a base rating, its strength factors
// and the modifiers it knows how to react to.
//
// A team's identity is its name alone (case-sensitive, byte comparison).
// Two Team values with the same name are interchangeable as lookup keys even
// if their factors differ, so callers must not reuse a name for different
// teams within one group.
type Team struct {
	name      string
	base      float64
	factors   []Factor
	responses map[ModifierName]Modifier
}

// New validates and builds a Team.
func New(name string, baseRating float64, factors []Factor, modifiers ...Modifier) (*Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: team name must be provided", ErrInvalidTeam)
	}
	if outOfRange(baseRating, MinRating, MaxRating) {
		return nil, fmt.Errorf("%w: team %q base rating %g must be between %g and %g",
			ErrInvalidTeam, name, baseRating, MinRating, MaxRating)
	}

	seen := make(map[FactorName]bool, len(factors))
	for _, f := range factors {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("team %q: %w", name, err)
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("%w: team %q has factor %s more than once", ErrInvalidTeam, name, f.Name)
		}
		seen[f.Name] = true
	}

	responses := make(map[ModifierName]Modifier, len(modifiers))
	for _, m := range modifiers {
		if m.name == "" || len(m.adjustments) == 0 {
			return nil, fmt.Errorf("%w: team %q has an empty modifier", ErrInvalidTeam, name)
		}
		if _, ok := responses[m.name]; ok {
			return nil, fmt.Errorf("%w: team %q responds to %s more than once", ErrInvalidTeam, name, m.name)
		}
		responses[m.name] = m
	}

	return &Team{
		name:      name,
		base:      baseRating,
		factors:   append([]Factor(nil), factors...),
		responses: responses,
	}, nil
}

func (t *Team) Name() string { return t.name }

func (t *Team) BaseRating() float64 { return t.base }

// Factors returns a copy of the team's factors in construction order.
func (t *Team) Factors() []Factor {
	return append([]Factor(nil), t.factors...)
}

// Modifier returns the team's response to the named event, if any.
func (t *Team) Modifier(name ModifierName) (Modifier, bool) {
	m, ok := t.responses[name]
	return m, ok
}

// Is reports whether t and other share a name.
func (t *Team) Is(other *Team) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.name == other.name
}

func (t *Team) String() string { return t.name }
