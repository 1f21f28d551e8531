package schedule

import (
	"fmt"

	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/team"
)

// Scheduler produces the ordered fixture list for a set of teams.
type Scheduler interface {
	Fixtures(teams []*team.Team) ([]match.Fixture, error)
}

// Get returns a Scheduler by name. An empty name selects the round robin.
func Get(name string) (Scheduler, error) {
	switch name {
	case "round_robin", "":
		return RoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown scheduler: %q", name)
	}
}
