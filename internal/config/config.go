package config

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/derekprior/groupsim/internal/events"
	"github.com/derekprior/groupsim/internal/group"
	"github.com/derekprior/groupsim/internal/outcome"
	"github.com/derekprior/groupsim/internal/schedule"
	"github.com/derekprior/groupsim/internal/team"
)

// Team describes one club. Factors map factor name to a 0-1 value and
// modifiers map an event name to the factor percentages it applies.
type Team struct {
	Name       string                        `yaml:"name"`
	BaseRating float64                       `yaml:"base_rating"`
	Factors    map[string]float64            `yaml:"factors"`
	Modifiers  map[string]map[string]float64 `yaml:"modifiers"`
}

type Group struct {
	Name  string `yaml:"name"`
	Teams []Team `yaml:"teams"`
}

type Simulation struct {
	// Seed makes a run reproducible. When nil the caller picks one.
	Seed              *int64  `yaml:"seed"`
	Scheduler         string  `yaml:"scheduler"`
	BaseExpectedGoals float64 `yaml:"base_expected_goals"`
	StrengthImpact    float64 `yaml:"strength_impact"`
	MinLambda         float64 `yaml:"min_lambda"`
	MaxLambda         float64 `yaml:"max_lambda"`
	MinCombinedRating float64 `yaml:"min_combined_rating"`
	MinRatio          float64 `yaml:"min_ratio"`
	MaxRatio          float64 `yaml:"max_ratio"`
}

type Rating struct {
	BaseWeight   float64 `yaml:"base_weight"`
	FactorWeight float64 `yaml:"factor_weight"`
}

type Events struct {
	Provider    string   `yaml:"provider"`
	Probability float64  `yaml:"probability"`
	Pool        []string `yaml:"pool"`
}

type Config struct {
	Group      Group      `yaml:"group"`
	Simulation Simulation `yaml:"simulation"`
	Rating     Rating     `yaml:"rating"`
	Events     Events     `yaml:"events"`
}

// Defaults returns a Config with every tunable at its standard value and no
// roster.
func Defaults() Config {
	s := outcome.DefaultSettings()
	return Config{
		Simulation: Simulation{
			Scheduler:         "round_robin",
			BaseExpectedGoals: s.BaseExpectedGoals,
			StrengthImpact:    s.StrengthImpact,
			MinLambda:         s.MinLambda,
			MaxLambda:         s.MaxLambda,
			MinCombinedRating: s.MinCombinedRating,
			MinRatio:          s.MinRatio,
			MaxRatio:          s.MaxRatio,
		},
		Rating: Rating{
			BaseWeight:   team.DefaultWeights.Base,
			FactorWeight: team.DefaultWeights.Factor,
		},
		Events: Events{
			Provider:    "random",
			Probability: events.DefaultProbability,
		},
	}
}

// LoadFromBytes parses YAML bytes over the defaults and validates the result.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads a YAML config file, then applies GROUPSIM_* overrides
// from the environment or a .env file in the working directory.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	// A missing .env is fine.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GROUPSIM_SEED"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GROUPSIM_SEED: %w", err)
		}
		cfg.Simulation.Seed = &seed
	}
	if v := os.Getenv("GROUPSIM_EVENTS_PROVIDER"); v != "" {
		cfg.Events.Provider = v
	}
	if v := os.Getenv("GROUPSIM_EVENTS_PROBABILITY"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("GROUPSIM_EVENTS_PROBABILITY: %w", err)
		}
		cfg.Events.Probability = p
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Group.Name) == "" {
		return fmt.Errorf("group name is required")
	}
	if len(c.Group.Teams) < group.MinTeams {
		return fmt.Errorf("group %q needs at least %d teams, got %d", c.Group.Name, group.MinTeams, len(c.Group.Teams))
	}
	if len(c.Group.Teams)%2 != 0 {
		return fmt.Errorf("group %q has %d teams; round robin scheduling needs an even number", c.Group.Name, len(c.Group.Teams))
	}

	seen := make(map[string]bool)
	for _, t := range c.Group.Teams {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("every team needs a name")
		}
		if seen[t.Name] {
			return fmt.Errorf("team %q appears more than once", t.Name)
		}
		seen[t.Name] = true
	}

	r := c.Rating
	s := c.Simulation
	for _, n := range []struct {
		key   string
		value float64
	}{
		{"rating.base_weight", r.BaseWeight},
		{"rating.factor_weight", r.FactorWeight},
		{"simulation.base_expected_goals", s.BaseExpectedGoals},
		{"simulation.strength_impact", s.StrengthImpact},
		{"simulation.min_lambda", s.MinLambda},
		{"simulation.max_lambda", s.MaxLambda},
		{"simulation.min_combined_rating", s.MinCombinedRating},
		{"simulation.min_ratio", s.MinRatio},
		{"simulation.max_ratio", s.MaxRatio},
		{"events.probability", c.Events.Probability},
	} {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return fmt.Errorf("%s must be a finite number, got %g", n.key, n.value)
		}
	}

	if r.BaseWeight < 0 || r.FactorWeight < 0 {
		return fmt.Errorf("rating weights must not be negative")
	}
	if r.BaseWeight+r.FactorWeight <= 0 {
		return fmt.Errorf("rating weights must not both be zero")
	}

	if _, err := schedule.Get(s.Scheduler); err != nil {
		return err
	}
	if s.MinLambda < 0 || s.MinLambda > s.MaxLambda {
		return fmt.Errorf("min_lambda %g must be between 0 and max_lambda %g", s.MinLambda, s.MaxLambda)
	}
	if s.MinRatio < 0 || s.MaxRatio > 1 || s.MinRatio > s.MaxRatio {
		return fmt.Errorf("strength ratio bounds %g..%g must lie within 0..1", s.MinRatio, s.MaxRatio)
	}
	if s.MinCombinedRating <= 0 {
		return fmt.Errorf("min_combined_rating must be positive")
	}

	e := c.Events
	if e.Provider != "random" && e.Provider != "none" {
		return fmt.Errorf("unknown events provider: %q", e.Provider)
	}
	if e.Probability < 0 || e.Probability > 1 {
		return fmt.Errorf("event probability %g must be between 0 and 1", e.Probability)
	}
	for _, m := range e.Pool {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("event pool contains an empty modifier name")
		}
	}
	return nil
}

// SamplerSettings returns the outcome sampler coefficients.
func (c *Config) SamplerSettings() outcome.Settings {
	s := c.Simulation
	return outcome.Settings{
		BaseExpectedGoals: s.BaseExpectedGoals,
		StrengthImpact:    s.StrengthImpact,
		MinLambda:         s.MinLambda,
		MaxLambda:         s.MaxLambda,
		MinCombinedRating: s.MinCombinedRating,
		MinRatio:          s.MinRatio,
		MaxRatio:          s.MaxRatio,
	}
}

func (c *Config) Weights() team.Weights {
	return team.Weights{Base: c.Rating.BaseWeight, Factor: c.Rating.FactorWeight}
}

// EventPool returns the configured modifier pool, or nil for the default.
func (c *Config) EventPool() []team.ModifierName {
	if len(c.Events.Pool) == 0 {
		return nil
	}
	pool := make([]team.ModifierName, len(c.Events.Pool))
	for i, m := range c.Events.Pool {
		pool[i] = team.ModifierName(m)
	}
	return pool
}

// TeamNames returns the roster names in config order.
func (c *Config) TeamNames() []string {
	names := make([]string, len(c.Group.Teams))
	for i, t := range c.Group.Teams {
		names[i] = t.Name
	}
	return names
}

// Teams builds the roster. Factors and modifiers are applied in name order
// and zero-percentage adjustments are dropped.
func (c *Config) Teams() ([]*team.Team, error) {
	teams := make([]*team.Team, 0, len(c.Group.Teams))
	for _, tc := range c.Group.Teams {
		t, err := tc.build()
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, nil
}

// Definition builds the group definition from the roster.
func (c *Config) Definition() (group.Definition, error) {
	teams, err := c.Teams()
	if err != nil {
		return group.Definition{}, err
	}
	return group.NewDefinition(c.Group.Name, teams)
}

func (tc Team) build() (*team.Team, error) {
	var factors []team.Factor
	for _, name := range sortedKeys(tc.Factors) {
		f, err := team.NewFactor(team.FactorName(name), tc.Factors[name])
		if err != nil {
			return nil, fmt.Errorf("team %q: %w", tc.Name, err)
		}
		factors = append(factors, f)
	}

	var modifiers []team.Modifier
	for _, name := range sortedKeys(tc.Modifiers) {
		var adjustments []team.Adjustment
		for _, factor := range sortedKeys(tc.Modifiers[name]) {
			pct := tc.Modifiers[name][factor]
			if pct == 0 {
				continue
			}
			adjustments = append(adjustments, team.Adjustment{Factor: team.FactorName(factor), Percentage: pct})
		}
		if len(adjustments) == 0 {
			continue
		}
		m, err := team.NewModifier(team.ModifierName(name), adjustments...)
		if err != nil {
			return nil, fmt.Errorf("team %q: %w", tc.Name, err)
		}
		modifiers = append(modifiers, m)
	}

	return team.New(tc.Name, tc.BaseRating, factors, modifiers...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
