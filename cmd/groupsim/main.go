package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/derekprior/groupsim/internal/config"
	"github.com/derekprior/groupsim/internal/events"
	"github.com/derekprior/groupsim/internal/excel"
	"github.com/derekprior/groupsim/internal/group"
	"github.com/derekprior/groupsim/internal/outcome"
	"github.com/derekprior/groupsim/internal/schedule"
	"github.com/derekprior/groupsim/internal/validator"
)

const defaultConfigFile = "groupsim.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

// newLogger writes human-readable logs to stderr so they stay out of the
// printed summary.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "groupsim",
		Short: "Football group-stage simulator",
	}

	var configFile string
	var verbose bool
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: groupsim.yaml in current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every fixture at debug level")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter groupsim.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	var outputFile string
	var seed int64
	simulateCmd := &cobra.Command{
		Use:          "simulate",
		Short:        "Simulate the group once and write the results workbook",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			var seedOverride *int64
			if cmd.Flags().Changed("seed") {
				seedOverride = &seed
			}
			logger, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()
			return runSimulate(configPath, outputFile, seedOverride, logger)
		},
	}
	simulateCmd.Flags().StringVarP(&outputFile, "output", "o", "results.xlsx", "Output Excel file path")
	simulateCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (overrides the config and GROUPSIM_SEED)")

	validateCmd := &cobra.Command{
		Use:          "validate <results.xlsx>",
		Short:        "Validate a results workbook and rebuild its standings",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	rootCmd.AddCommand(initCmd, simulateCmd, validateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Group Simulation Configuration
# ==============================
# This file defines the teams of one group and how their matches are played.

# The group plays a single round robin, so it needs an even number of teams.
# Team names must be unique.
#
# base_rating is on a 0-100 scale. Factors are 0-1 values for named skills
# (attack, defense, midfield_control, team_spirit, goalkeeping, stamina).
# A team's rating blends its base rating with the average of its factors.
#
# Modifiers list how a team responds to match events. Each adjustment is a
# fraction between -1 and 1 applied to one factor, so 0.05 is +5%. Events a
# team has no response for leave it unchanged. The home side of every match
# also gets its home_advantage response.
group:
  name: "Group A"
  teams:
    - name: Coastal Mariners
      base_rating: 74
      factors:
        attack: 0.78
        midfield_control: 0.74
        team_spirit: 0.82
        defense: 0.68
      modifiers:
        home_advantage: {attack: 0.03, team_spirit: 0.05}
        rainy_weather: {attack: 0.05, team_spirit: 0.1}
        scorching_heat: {stamina: -0.2, attack: -0.1}

    - name: Mountain Rangers
      base_rating: 71
      factors:
        defense: 0.81
        stamina: 0.77
        goalkeeping: 0.75
        team_spirit: 0.71
      modifiers:
        home_advantage: {attack: 0.03, team_spirit: 0.05}
        travel_fatigue: {attack: -0.05, team_spirit: -0.03}

    - name: Metro Strikers
      base_rating: 76
      factors:
        attack: 0.82
        midfield_control: 0.76
      modifiers:
        home_advantage: {attack: 0.03, team_spirit: 0.05}
        crowd_surge: {team_spirit: 0.18, attack: 0.1}
        travel_fatigue: {attack: -0.12}

    - name: Desert Falcons
      base_rating: 69
      factors:
        defense: 0.72
        stamina: 0.74
        team_spirit: 0.7
        goalkeeping: 0.69
      modifiers:
        home_advantage: {attack: 0.03, team_spirit: 0.05}
        scorching_heat: {stamina: 0.15, team_spirit: 0.1}
        rainy_weather: {attack: -0.15, team_spirit: -0.1}

# Simulation settings. Omit seed for a different group every run, or set it
# (or GROUPSIM_SEED, or --seed) to replay one exactly.
simulation:
  # seed: 42
  scheduler: round_robin

  # Goal sampling. Each side's expected goals is
  #   base_expected_goals + strength_impact * (share - 0.5)
  # where share is the side's rating over the combined rating (floored at
  # min_combined_rating), clamped to [min_ratio, max_ratio]. The result is
  # clamped to [min_lambda, max_lambda].
  base_expected_goals: 1.35
  strength_impact: 1.85
  min_lambda: 0.05
  max_lambda: 4.75
  min_combined_rating: 1
  min_ratio: 0.05
  max_ratio: 0.95

# How base rating and factors are blended into a team rating.
rating:
  base_weight: 0.6
  factor_weight: 0.4

# Match events. "random" activates each pool event independently with the
# given probability for every match; "none" plays every match in neutral
# conditions. The default pool is every known event except home_advantage.
events:
  provider: random
  probability: 0.5
  # pool: [rainy_weather, scorching_heat, crowd_surge, travel_fatigue, injuries]
`

func runSimulate(configPath, outputPath string, seedOverride *int64, logger *zap.Logger) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	def, err := cfg.Definition()
	if err != nil {
		return fmt.Errorf("building group: %w", err)
	}

	seed := time.Now().UnixNano()
	switch {
	case seedOverride != nil:
		seed = *seedOverride
	case cfg.Simulation.Seed != nil:
		seed = *cfg.Simulation.Seed
	}

	// One source feeds both events and goals so a seed replays the whole run.
	rng := rand.New(rand.NewSource(seed))

	scheduler, err := schedule.Get(cfg.Simulation.Scheduler)
	if err != nil {
		return err
	}
	source, err := events.Get(cfg.Events.Provider, rng, cfg.Events.Probability, cfg.EventPool())
	if err != nil {
		return err
	}
	sampler := outcome.NewKnuth(rng, cfg.SamplerSettings())

	runID := uuid.New().String()
	logger = logger.With(zap.String("run_id", runID))
	logger.Debug("starting simulation",
		zap.String("group", def.Name()),
		zap.Int64("seed", seed),
		zap.String("events", cfg.Events.Provider),
	)

	sim, err := group.NewSimulator(scheduler, sampler, source,
		group.WithWeights(cfg.Weights()),
		group.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	result, err := sim.Simulate(def)
	if err != nil {
		return fmt.Errorf("simulating: %w", err)
	}

	printSummary(result, seed)

	f, err := excel.Generate(result, excel.Meta{RunID: runID, Seed: seed, Generated: time.Now()})
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Results saved to %s\n", outputPath)
	return nil
}

func printSummary(result *group.Result, seed int64) {
	fmt.Println("Group: " + result.Group.Name())
	fmt.Printf("Seed:  %d\n", seed)

	fmt.Println("\nStandings")
	fmt.Printf("%3s %-23s %2s %2s %2s %2s %3s %3s %3s %4s\n",
		"Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts")
	for _, r := range result.Standings {
		mark := ""
		if r.Advances() {
			mark = " ✓"
		}
		fmt.Printf("%3d %-23s %2d %2d %2d %2d %3d %3d %3d %4d%s\n",
			r.Position, r.Team.Name(), r.Played, r.Wins, r.Draws, r.Losses,
			r.GoalsFor, r.GoalsAgainst, r.GoalDifference(), r.Points, mark)
	}

	fmt.Println("\nMatches")
	for i, m := range result.Matches {
		fmt.Printf("%2d. Round %d: %s\n", i+1, m.Fixture.Round, m)
	}
}

func runValidate(configPath, resultsPath string) error {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	def, err := cfg.Definition()
	if err != nil {
		return fmt.Errorf("building group: %w", err)
	}

	violations, err := validator.Validate(def, resultsPath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ Guideline violation: %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d rule violations, %d guideline violations\n", errors, warnings)

	// Rebuild standings and team sheets from the Matches sheet
	if _, err := excel.UpdateSheets(resultsPath, def); err != nil {
		return fmt.Errorf("updating sheets: %w", err)
	}
	fmt.Printf("✓ Standings and team sheets updated in %s\n", resultsPath)

	if errors > 0 {
		return fmt.Errorf("%d rule violations found", errors)
	}
	return nil
}
