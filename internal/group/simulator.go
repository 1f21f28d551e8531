package group

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/standings"
	"github.com/derekprior/groupsim/internal/team"
)

// Scheduler produces the ordered fixture list for a set of teams.
type Scheduler interface {
	Fixtures(teams []*team.Team) ([]match.Fixture, error)
}

// Sampler resolves a fixture's score from both sides' ratings.
type Sampler interface {
	Simulate(f match.Fixture, homeRating, awayRating float64) (match.Result, error)
}

// EventSource names the contextual events active for a fixture. An empty
// or nil result means no events.
type EventSource interface {
	EventsFor(f match.Fixture) []team.ModifierName
}

// Simulator runs a group through scheduling, rating, sampling and ranking.
// It is not safe for concurrent use when its sampler or event source share
// a random source.
type Simulator struct {
	scheduler Scheduler
	sampler   Sampler
	events    EventSource
	weights   team.Weights
	logger    *zap.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithWeights overrides the rating blend weights.
func WithWeights(w team.Weights) Option {
	return func(s *Simulator) { s.weights = w }
}

// WithLogger sets the logger for per-fixture debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSimulator wires the simulation capabilities. A nil event source means
// no fixture ever has contextual events.
func NewSimulator(scheduler Scheduler, sampler Sampler, events EventSource, opts ...Option) (*Simulator, error) {
	if scheduler == nil {
		return nil, errors.New("scheduler is required")
	}
	if sampler == nil {
		return nil, errors.New("sampler is required")
	}
	s := &Simulator{
		scheduler: scheduler,
		sampler:   sampler,
		events:    events,
		weights:   team.DefaultWeights,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Simulate plays every fixture of the group in schedule order and ranks the
// final table.
func (s *Simulator) Simulate(g Definition) (*Result, error) {
	teams := g.Teams()
	if len(teams) < MinTeams {
		return nil, fmt.Errorf("%w: group %q has %d teams", ErrInvalidGroup, g.Name(), len(teams))
	}

	fixtures, err := s.scheduler.Fixtures(teams)
	if err != nil {
		return nil, fmt.Errorf("scheduling group %q: %w", g.Name(), err)
	}

	table, err := standings.NewTable(teams)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", g.Name(), err)
	}

	matches := make([]match.Result, 0, len(fixtures))
	for _, f := range fixtures {
		var events []team.ModifierName
		if s.events != nil {
			events = s.events.EventsFor(f)
		}

		homeRating := s.weights.Rating(f.Home, HomeModifiers(events))
		awayRating := s.weights.Rating(f.Away, AwayModifiers(events))

		r, err := s.sampler.Simulate(f, homeRating, awayRating)
		if err != nil {
			return nil, fmt.Errorf("simulating %s: %w", f, err)
		}
		if !r.Involves(f.Home) || !r.Involves(f.Away) {
			return nil, fmt.Errorf("simulating %s: result %s does not match fixture", f, r)
		}
		if err := table.Record(r); err != nil {
			return nil, err
		}
		matches = append(matches, r)

		s.logger.Debug("fixture played",
			zap.Int("round", f.Round),
			zap.String("home", f.Home.Name()),
			zap.String("away", f.Away.Name()),
			zap.Any("events", events),
			zap.Float64("home_rating", homeRating),
			zap.Float64("away_rating", awayRating),
			zap.Int("home_goals", r.HomeGoals()),
			zap.Int("away_goals", r.AwayGoals()),
		)
	}

	rows := table.Rank()
	s.logger.Info("group simulated",
		zap.String("group", g.Name()),
		zap.Int("fixtures", len(matches)),
		zap.String("leader", rows[0].Team.Name()),
	)

	return &Result{Group: g, Matches: matches, Standings: rows}, nil
}

// HomeModifiers returns the home side's active set: the fixture events plus
// HomeAdvantage, added once.
func HomeModifiers(events []team.ModifierName) []team.ModifierName {
	active := slices.Clone(events)
	if !slices.Contains(active, team.HomeAdvantage) {
		active = append(active, team.HomeAdvantage)
	}
	return active
}

// AwayModifiers returns the away side's active set, which is the fixture
// events unchanged. HomeAdvantage is never added for the away side.
func AwayModifiers(events []team.ModifierName) []team.ModifierName {
	return slices.Clone(events)
}
