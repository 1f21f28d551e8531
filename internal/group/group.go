package group

import (
	"errors"
	"fmt"
	"strings"

	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/standings"
	"github.com/derekprior/groupsim/internal/team"
)

// ErrInvalidGroup is wrapped by group definition errors.
var ErrInvalidGroup = errors.New("invalid group")

// MinTeams is the smallest playable group.
const MinTeams = 2

// Definition is a named set of unique teams.
type Definition struct {
	name  string
	teams []*team.Team
}

// NewDefinition validates and builds a Definition. Teams are unique by name.
func NewDefinition(name string, teams []*team.Team) (Definition, error) {
	if strings.TrimSpace(name) == "" {
		return Definition{}, fmt.Errorf("%w: group name must be provided", ErrInvalidGroup)
	}
	if len(teams) < MinTeams {
		return Definition{}, fmt.Errorf("%w: group %q needs at least %d teams, got %d", ErrInvalidGroup, name, MinTeams, len(teams))
	}
	seen := make(map[string]bool, len(teams))
	for _, t := range teams {
		if t == nil {
			return Definition{}, fmt.Errorf("%w: group %q contains a nil team", ErrInvalidGroup, name)
		}
		if seen[t.Name()] {
			return Definition{}, fmt.Errorf("%w: team %q appears more than once in group %q", ErrInvalidGroup, t.Name(), name)
		}
		seen[t.Name()] = true
	}
	return Definition{name: name, teams: append([]*team.Team(nil), teams...)}, nil
}

func (d Definition) Name() string { return d.name }

// Teams returns a copy of the group's teams in definition order.
func (d Definition) Teams() []*team.Team {
	return append([]*team.Team(nil), d.teams...)
}

// Result is the outcome of one simulation run.
type Result struct {
	Group     Definition
	Matches   []match.Result // schedule order
	Standings []standings.Row
}
