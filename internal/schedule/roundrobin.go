package schedule

import (
	"errors"
	"fmt"

	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/team"
)

// ErrOddTeamCount is returned when a round robin is requested for an odd
// number of teams.
var ErrOddTeamCount = errors.New("round robin scheduling requires an even number of teams")

// RoundRobin schedules a single round robin with the circle method.
type RoundRobin struct{}

// Fixtures returns n-1 rounds of n/2 fixtures in which every pair of teams
// meets exactly once, ordered by round and then pairing index.
//
// The first team stays fixed while the others rotate one position per
// round. Home and away are swapped on every other round to balance home
// games.
func (RoundRobin) Fixtures(teams []*team.Team) ([]match.Fixture, error) {
	n := len(teams)
	if n%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrOddTeamCount, n)
	}
	if n < 2 {
		return nil, fmt.Errorf("round robin needs at least 2 teams, got %d", n)
	}

	// Work on a copy so the caller's slice keeps its order.
	ring := make([]*team.Team, n)
	copy(ring, teams)

	fixtures := make([]match.Fixture, 0, n*(n-1)/2)
	for round := 0; round < n-1; round++ {
		for i := 0; i < n/2; i++ {
			home, away := ring[i], ring[n-1-i]
			if round%2 == 1 {
				home, away = away, home
			}
			f, err := match.NewFixture(round+1, home, away)
			if err != nil {
				return nil, fmt.Errorf("round %d: %w", round+1, err)
			}
			fixtures = append(fixtures, f)
		}
		rotate(ring)
	}
	return fixtures, nil
}

// rotate moves the last team to position 1 and shifts the rest right,
// keeping position 0 fixed.
func rotate(ring []*team.Team) {
	if len(ring) <= 2 {
		return
	}
	last := ring[len(ring)-1]
	copy(ring[2:], ring[1:len(ring)-1])
	ring[1] = last
}
