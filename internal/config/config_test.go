package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/derekprior/groupsim/internal/team"
)

const testConfigYAML = `
group:
  name: Group A
  teams:
    - name: Coastal Mariners
      base_rating: 72
      factors:
        attack: 0.78
        defense: 0.64
        stamina: 0.71
      modifiers:
        rainy_weather:
          attack: -0.05
          stamina: 0
        home_advantage:
          attack: 0.06
    - name: Mountain Rangers
      base_rating: 70
      factors:
        defense: 0.82
        stamina: 0.8
      modifiers:
        scorching_heat:
          stamina: 0
    - name: Metro Strikers
      base_rating: 74
    - name: Desert Falcons
      base_rating: 68

simulation:
  seed: 42
  max_lambda: 4

events:
  provider: none
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("group", func(t *testing.T) {
		if cfg.Group.Name != "Group A" {
			t.Errorf("group name = %q, want Group A", cfg.Group.Name)
		}
		want := []string{"Coastal Mariners", "Mountain Rangers", "Metro Strikers", "Desert Falcons"}
		got := cfg.TeamNames()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("team names = %v, want %v", got, want)
		}
	})

	t.Run("simulation", func(t *testing.T) {
		if cfg.Simulation.Seed == nil || *cfg.Simulation.Seed != 42 {
			t.Errorf("seed = %v, want 42", cfg.Simulation.Seed)
		}
		if cfg.Simulation.Scheduler != "round_robin" {
			t.Errorf("scheduler = %q, want round_robin", cfg.Simulation.Scheduler)
		}
		s := cfg.SamplerSettings()
		if s.MaxLambda != 4 {
			t.Errorf("max lambda = %g, want 4", s.MaxLambda)
		}
		// Unset keys keep their defaults.
		if s.BaseExpectedGoals != 1.35 {
			t.Errorf("base expected goals = %g, want 1.35", s.BaseExpectedGoals)
		}
		if s.MinLambda != 0.05 {
			t.Errorf("min lambda = %g, want 0.05", s.MinLambda)
		}
	})

	t.Run("rating weights default", func(t *testing.T) {
		w := cfg.Weights()
		if w.Base != 0.6 || w.Factor != 0.4 {
			t.Errorf("weights = %+v, want {0.6 0.4}", w)
		}
	})

	t.Run("events", func(t *testing.T) {
		if cfg.Events.Provider != "none" {
			t.Errorf("provider = %q, want none", cfg.Events.Provider)
		}
		if cfg.Events.Probability != 0.5 {
			t.Errorf("probability = %g, want 0.5", cfg.Events.Probability)
		}
		if cfg.EventPool() != nil {
			t.Errorf("pool = %v, want nil", cfg.EventPool())
		}
	})
}

func TestTeams(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	teams, err := cfg.Teams()
	if err != nil {
		t.Fatalf("Teams() error: %v", err)
	}
	if len(teams) != 4 {
		t.Fatalf("teams = %d, want 4", len(teams))
	}

	mariners := teams[0]
	if mariners.BaseRating() != 72 {
		t.Errorf("base rating = %g, want 72", mariners.BaseRating())
	}

	t.Run("factors in name order", func(t *testing.T) {
		factors := mariners.Factors()
		want := []team.FactorName{team.Attack, team.Defense, team.Stamina}
		if len(factors) != len(want) {
			t.Fatalf("factors = %v, want %v", factors, want)
		}
		for i, f := range factors {
			if f.Name != want[i] {
				t.Errorf("factor %d = %s, want %s", i, f.Name, want[i])
			}
		}
	})

	t.Run("zero adjustments dropped", func(t *testing.T) {
		rain, ok := mariners.Modifier(team.RainyWeather)
		if !ok {
			t.Fatal("expected rainy_weather modifier")
		}
		if len(rain.Adjustments()) != 1 {
			t.Errorf("rainy_weather adjustments = %d, want 1", len(rain.Adjustments()))
		}
		if rain.Percentage(team.Stamina) != 0 {
			t.Errorf("stamina percentage = %g, want 0", rain.Percentage(team.Stamina))
		}
	})

	t.Run("all-zero modifier omitted", func(t *testing.T) {
		if _, ok := teams[1].Modifier(team.ScorchingHeat); ok {
			t.Error("scorching_heat with only zero adjustments should be omitted")
		}
	})

	t.Run("definition", func(t *testing.T) {
		def, err := cfg.Definition()
		if err != nil {
			t.Fatalf("Definition() error: %v", err)
		}
		if def.Name() != "Group A" || len(def.Teams()) != 4 {
			t.Errorf("definition = %s with %d teams", def.Name(), len(def.Teams()))
		}
	})
}

func TestTeamsRejectsBadFactor(t *testing.T) {
	yaml := `
group:
  name: Group B
  teams:
    - name: Alpha
      factors:
        attack: 1.5
    - name: Beta
`
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := cfg.Teams(); err == nil {
		t.Error("expected error for factor value above 1")
	}
}

func TestTeamsRejectsNaN(t *testing.T) {
	tests := []struct {
		name string
		team string
	}{
		{"base rating", "{name: Alpha, base_rating: .nan}"},
		{"factor", "{name: Alpha, factors: {attack: .nan}}"},
		{"adjustment", "{name: Alpha, factors: {attack: 0.5}, modifiers: {rainy_weather: {attack: .nan}}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromBytes([]byte("group:\n  name: Group N\n  teams: [" + tt.team + ", {name: Beta}]\n"))
			if err != nil {
				t.Fatalf("unexpected load error: %v", err)
			}
			if _, err := cfg.Teams(); err == nil {
				t.Error("expected error for NaN value")
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing group name",
			yaml: `
group:
  teams:
    - name: A
    - name: B
`,
		},
		{
			name: "too few teams",
			yaml: `
group:
  name: Solo
  teams:
    - name: A
`,
		},
		{
			name: "odd team count",
			yaml: `
group:
  name: Odd
  teams:
    - name: A
    - name: B
    - name: C
`,
		},
		{
			name: "duplicate team",
			yaml: `
group:
  name: Dup
  teams:
    - name: A
    - name: A
`,
		},
		{
			name: "unnamed team",
			yaml: `
group:
  name: Blank
  teams:
    - name: A
    - base_rating: 50
`,
		},
		{
			name: "zero weights",
			yaml: `
group:
  name: W
  teams: [{name: A}, {name: B}]
rating:
  base_weight: 0
  factor_weight: 0
`,
		},
		{
			name: "inverted lambda bounds",
			yaml: `
group:
  name: L
  teams: [{name: A}, {name: B}]
simulation:
  min_lambda: 5
  max_lambda: 1
`,
		},
		{
			name: "ratio above one",
			yaml: `
group:
  name: R
  teams: [{name: A}, {name: B}]
simulation:
  max_ratio: 1.5
`,
		},
		{
			name: "unknown scheduler",
			yaml: `
group:
  name: S
  teams: [{name: A}, {name: B}]
simulation:
  scheduler: swiss
`,
		},
		{
			name: "unknown provider",
			yaml: `
group:
  name: P
  teams: [{name: A}, {name: B}]
events:
  provider: weather_service
`,
		},
		{
			name: "probability out of range",
			yaml: `
group:
  name: P
  teams: [{name: A}, {name: B}]
events:
  probability: 1.2
`,
		},
		{
			name: "NaN min lambda",
			yaml: `
group:
  name: N
  teams: [{name: A}, {name: B}]
simulation:
  min_lambda: .nan
`,
		},
		{
			name: "infinite max lambda",
			yaml: `
group:
  name: N
  teams: [{name: A}, {name: B}]
simulation:
  max_lambda: .inf
`,
		},
		{
			name: "NaN ratio",
			yaml: `
group:
  name: N
  teams: [{name: A}, {name: B}]
simulation:
  min_ratio: .nan
`,
		},
		{
			name: "NaN rating floor",
			yaml: `
group:
  name: N
  teams: [{name: A}, {name: B}]
simulation:
  min_combined_rating: .nan
`,
		},
		{
			name: "NaN expected goals",
			yaml: `
group:
  name: N
  teams: [{name: A}, {name: B}]
simulation:
  base_expected_goals: .nan
`,
		},
		{
			name: "NaN weight",
			yaml: `
group:
  name: N
  teams: [{name: A}, {name: B}]
rating:
  base_weight: .nan
`,
		},
		{
			name: "NaN probability",
			yaml: `
group:
  name: N
  teams: [{name: A}, {name: B}]
events:
  probability: .nan
`,
		},
		{
			name: "malformed yaml",
			yaml: "group: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tt.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadFromFileEnvOverrides(t *testing.T) {
	// Run from an empty directory so no stray .env is picked up.
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "groupsim.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GROUPSIM_SEED", "7")
	t.Setenv("GROUPSIM_EVENTS_PROVIDER", "random")
	t.Setenv("GROUPSIM_EVENTS_PROBABILITY", "0.25")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Simulation.Seed == nil || *cfg.Simulation.Seed != 7 {
		t.Errorf("seed = %v, want 7", cfg.Simulation.Seed)
	}
	if cfg.Events.Provider != "random" {
		t.Errorf("provider = %q, want random", cfg.Events.Provider)
	}
	if cfg.Events.Probability != 0.25 {
		t.Errorf("probability = %g, want 0.25", cfg.Events.Probability)
	}

	t.Run("bad override", func(t *testing.T) {
		t.Setenv("GROUPSIM_SEED", "not-a-number")
		if _, err := LoadFromFile(path); err == nil {
			t.Error("expected error for non-numeric seed")
		}
	})

	t.Run("override validated", func(t *testing.T) {
		t.Setenv("GROUPSIM_EVENTS_PROBABILITY", "3")
		if _, err := LoadFromFile(path); err == nil {
			t.Error("expected error for probability above 1")
		}
	})
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
