package standings

import (
	"fmt"
	"sort"

	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/team"
)

// AdvancingPositions is how many teams qualify from a group.
const AdvancingPositions = 2

// Row is a team's final record and rank within the group.
type Row struct {
	Team         *team.Team
	Position     int
	Played       int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
	Points       int
}

func (r Row) GoalDifference() int { return r.GoalsFor - r.GoalsAgainst }

// Advances reports whether the row's position qualifies.
func (r Row) Advances() bool { return r.Position >= 1 && r.Position <= AdvancingPositions }

// Accumulator collects one team's statistics match by match.
type Accumulator struct {
	team *team.Team
	row  Row
}

func NewAccumulator(t *team.Team) *Accumulator {
	return &Accumulator{team: t, row: Row{Team: t}}
}

func (a *Accumulator) Team() *team.Team { return a.team }

// Apply adds a match to the team's record. It panics if the team did not
// play in the match.
func (a *Accumulator) Apply(r match.Result) {
	gf, ga := r.GoalsFor(a.team), r.GoalsAgainst(a.team)
	a.row.Played++
	a.row.GoalsFor += gf
	a.row.GoalsAgainst += ga
	a.row.Points += r.Points(a.team)
	switch {
	case gf > ga:
		a.row.Wins++
	case gf == ga:
		a.row.Draws++
	default:
		a.row.Losses++
	}
}

// Row returns the accumulated record with the given position.
func (a *Accumulator) Row(position int) Row {
	row := a.row
	row.Position = position
	return row
}

// Table tracks accumulators for a fixed set of teams, keyed by team name.
type Table struct {
	order   []*Accumulator
	byName  map[string]*Accumulator
	matches []match.Result
}

// NewTable returns an empty table for teams. Team names must be unique.
func NewTable(teams []*team.Team) (*Table, error) {
	t := &Table{byName: make(map[string]*Accumulator, len(teams))}
	for _, tm := range teams {
		if _, ok := t.byName[tm.Name()]; ok {
			return nil, fmt.Errorf("team %q appears more than once", tm.Name())
		}
		acc := NewAccumulator(tm)
		t.byName[tm.Name()] = acc
		t.order = append(t.order, acc)
	}
	return t, nil
}

// Record feeds a result to both teams' accumulators.
func (t *Table) Record(r match.Result) error {
	home, ok := t.byName[r.Fixture.Home.Name()]
	if !ok {
		return fmt.Errorf("recording %s: team %q is not in the table", r, r.Fixture.Home.Name())
	}
	away, ok := t.byName[r.Fixture.Away.Name()]
	if !ok {
		return fmt.Errorf("recording %s: team %q is not in the table", r, r.Fixture.Away.Name())
	}
	home.Apply(r)
	away.Apply(r)
	t.matches = append(t.matches, r)
	return nil
}

// Matches returns the recorded results in recording order.
func (t *Table) Matches() []match.Result {
	return append([]match.Result(nil), t.matches...)
}

// Rank orders the table and assigns positions 1..n.
func (t *Table) Rank() []Row {
	return Rank(t.order, t.matches)
}

// Rank orders accumulators by points, goal difference, goals scored and
// fewest goals conceded. Teams still level are separated by a head-to-head
// mini table built only from the matches among them (points, goal
// difference, goals scored), and finally by name.
func Rank(accs []*Accumulator, matches []match.Result) []Row {
	ordered := append([]*Accumulator(nil), accs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return comparePrimary(ordered[i].row, ordered[j].row) < 0
	})

	for start := 0; start < len(ordered); {
		end := start + 1
		for end < len(ordered) && comparePrimary(ordered[start].row, ordered[end].row) == 0 {
			end++
		}
		if end-start > 1 {
			breakTie(ordered[start:end], matches)
		}
		start = end
	}

	rows := make([]Row, len(ordered))
	for i, acc := range ordered {
		rows[i] = acc.Row(i + 1)
	}
	return rows
}

// comparePrimary returns a negative number when a ranks above b.
func comparePrimary(a, b Row) int {
	if a.Points != b.Points {
		return b.Points - a.Points
	}
	if a.GoalDifference() != b.GoalDifference() {
		return b.GoalDifference() - a.GoalDifference()
	}
	if a.GoalsFor != b.GoalsFor {
		return b.GoalsFor - a.GoalsFor
	}
	return a.GoalsAgainst - b.GoalsAgainst
}

func breakTie(tied []*Accumulator, matches []match.Result) {
	if len(tied) == 2 {
		a, b := tied[0].team, tied[1].team
		c := CompareHeadToHead(a, b, matches)
		if c > 0 || (c == 0 && a.Name() > b.Name()) {
			tied[0], tied[1] = tied[1], tied[0]
		}
		return
	}

	members := make([]*team.Team, len(tied))
	for i, acc := range tied {
		members[i] = acc.team
	}
	mini := miniTable(members, matches)
	sort.SliceStable(tied, func(i, j int) bool {
		a, b := tied[i].team.Name(), tied[j].team.Name()
		if c := compareRecord(mini[a], mini[b]); c != 0 {
			return c < 0
		}
		return a < b
	})
}

// record is a head-to-head sub-table line.
type record struct {
	points, goalsFor, goalsAgainst int
}

func (r record) goalDifference() int { return r.goalsFor - r.goalsAgainst }

func compareRecord(a, b record) int {
	if a.points != b.points {
		return b.points - a.points
	}
	if a.goalDifference() != b.goalDifference() {
		return b.goalDifference() - a.goalDifference()
	}
	return b.goalsFor - a.goalsFor
}

// miniTable builds records for members from the matches played between two
// members.
func miniTable(members []*team.Team, matches []match.Result) map[string]record {
	in := make(map[string]bool, len(members))
	for _, m := range members {
		in[m.Name()] = true
	}
	table := make(map[string]record, len(members))
	for _, r := range matches {
		home, away := r.Fixture.Home, r.Fixture.Away
		if !in[home.Name()] || !in[away.Name()] {
			continue
		}
		for _, t := range []*team.Team{home, away} {
			rec := table[t.Name()]
			rec.points += r.Points(t)
			rec.goalsFor += r.GoalsFor(t)
			rec.goalsAgainst += r.GoalsAgainst(t)
			table[t.Name()] = rec
		}
	}
	return table
}

// CompareHeadToHead compares a and b using only the matches between them.
// It returns a negative number when a ranks above b, positive when b ranks
// above a and 0 when they are level or never met.
func CompareHeadToHead(a, b *team.Team, matches []match.Result) int {
	var ra, rb record
	for _, r := range matches {
		if !(r.Involves(a) && r.Involves(b)) {
			continue
		}
		ra.points += r.Points(a)
		ra.goalsFor += r.GoalsFor(a)
		ra.goalsAgainst += r.GoalsAgainst(a)
		rb.points += r.Points(b)
		rb.goalsFor += r.GoalsFor(b)
		rb.goalsAgainst += r.GoalsAgainst(b)
	}
	return compareRecord(ra, rb)
}
