package match

import (
	"errors"
	"fmt"

	"github.com/derekprior/groupsim/internal/team"
)

var (
	// ErrInvalidFixture is wrapped by fixture construction errors.
	ErrInvalidFixture = errors.New("invalid fixture")
	// ErrInvalidScore is wrapped by score and result construction errors.
	ErrInvalidScore = errors.New("invalid score")
)

// MinRound is the first round number.
const MinRound = 1

// Points awarded per match outcome.
const (
	PointsForWin  = 3
	PointsForDraw = 1
	PointsForLoss = 0
)

// Fixture is a single scheduled match.
type Fixture struct {
	Round int
	Home  *team.Team
	Away  *team.Team
}

// NewFixture validates and builds a Fixture.
func NewFixture(round int, home, away *team.Team) (Fixture, error) {
	if round < MinRound {
		return Fixture{}, fmt.Errorf("%w: round %d must be at least %d", ErrInvalidFixture, round, MinRound)
	}
	if home == nil || away == nil {
		return Fixture{}, fmt.Errorf("%w: both teams must be provided", ErrInvalidFixture)
	}
	if home.Is(away) {
		return Fixture{}, fmt.Errorf("%w: %s cannot play against itself", ErrInvalidFixture, home.Name())
	}
	return Fixture{Round: round, Home: home, Away: away}, nil
}

// Involves reports whether t is one of the fixture's teams.
func (f Fixture) Involves(t *team.Team) bool {
	return f.Home.Is(t) || f.Away.Is(t)
}

func (f Fixture) String() string {
	return fmt.Sprintf("Round %d: %s vs %s", f.Round, f.Home.Name(), f.Away.Name())
}

// Score is one team's goal count.
type Score struct {
	Team  *team.Team
	Goals int
}

// ScoreLine holds the goal counts of two different teams.
type ScoreLine struct {
	scores [2]Score
}

// NewScoreLine validates and builds a ScoreLine.
func NewScoreLine(a, b Score) (ScoreLine, error) {
	for _, s := range []Score{a, b} {
		if s.Team == nil {
			return ScoreLine{}, fmt.Errorf("%w: team must be provided", ErrInvalidScore)
		}
		if s.Goals < 0 {
			return ScoreLine{}, fmt.Errorf("%w: %s goals %d cannot be negative", ErrInvalidScore, s.Team.Name(), s.Goals)
		}
	}
	if a.Team.Is(b.Team) {
		return ScoreLine{}, fmt.Errorf("%w: score line needs two different teams", ErrInvalidScore)
	}
	return ScoreLine{scores: [2]Score{a, b}}, nil
}

// Involves reports whether t appears in the score line.
func (s ScoreLine) Involves(t *team.Team) bool {
	return s.scores[0].Team.Is(t) || s.scores[1].Team.Is(t)
}

func (s ScoreLine) index(t *team.Team) int {
	switch {
	case s.scores[0].Team.Is(t):
		return 0
	case s.scores[1].Team.Is(t):
		return 1
	}
	panic(fmt.Sprintf("match: team %s did not participate in this match", t))
}

// Result is the final score of a fixture.
//
// Queries about a team that did not play in the match panic; use Involves
// first when that is not known.
type Result struct {
	Fixture Fixture
	score   ScoreLine
}

// NewResult ties a score line to a fixture. The score line must reference
// exactly the fixture's two teams.
func NewResult(f Fixture, score ScoreLine) (Result, error) {
	if f.Home == nil || f.Away == nil {
		return Result{}, fmt.Errorf("%w: fixture has no teams", ErrInvalidScore)
	}
	if !score.Involves(f.Home) || !score.Involves(f.Away) {
		return Result{}, fmt.Errorf("%w: score line teams do not match fixture %s", ErrInvalidScore, f)
	}
	return Result{Fixture: f, score: score}, nil
}

// Final builds a Result from home and away goal counts.
func Final(f Fixture, homeGoals, awayGoals int) (Result, error) {
	score, err := NewScoreLine(Score{f.Home, homeGoals}, Score{f.Away, awayGoals})
	if err != nil {
		return Result{}, err
	}
	return NewResult(f, score)
}

func (r Result) Involves(t *team.Team) bool { return r.score.Involves(t) }

func (r Result) HomeGoals() int { return r.GoalsFor(r.Fixture.Home) }

func (r Result) AwayGoals() int { return r.GoalsFor(r.Fixture.Away) }

// GoalsFor returns the goals scored by t.
func (r Result) GoalsFor(t *team.Team) int {
	return r.score.scores[r.score.index(t)].Goals
}

// GoalsAgainst returns the goals conceded by t.
func (r Result) GoalsAgainst(t *team.Team) int {
	return r.score.scores[1-r.score.index(t)].Goals
}

// Opponent returns the team t played against.
func (r Result) Opponent(t *team.Team) *team.Team {
	return r.score.scores[1-r.score.index(t)].Team
}

func (r Result) IsDraw() bool {
	return r.score.scores[0].Goals == r.score.scores[1].Goals
}

// Winner returns the winning team, or nil for a draw.
func (r Result) Winner() *team.Team {
	if r.IsDraw() {
		return nil
	}
	if r.score.scores[0].Goals > r.score.scores[1].Goals {
		return r.score.scores[0].Team
	}
	return r.score.scores[1].Team
}

// Loser returns the losing team, or nil for a draw.
func (r Result) Loser() *team.Team {
	if r.IsDraw() {
		return nil
	}
	return r.Opponent(r.Winner())
}

// Points returns the league points t earned from the match.
func (r Result) Points(t *team.Team) int {
	gf, ga := r.GoalsFor(t), r.GoalsAgainst(t)
	switch {
	case gf > ga:
		return PointsForWin
	case gf == ga:
		return PointsForDraw
	default:
		return PointsForLoss
	}
}

func (r Result) String() string {
	return fmt.Sprintf("%s %d - %d %s",
		r.Fixture.Home.Name(), r.HomeGoals(),
		r.AwayGoals(), r.Fixture.Away.Name(),
	)
}
