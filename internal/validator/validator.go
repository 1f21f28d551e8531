package validator

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/groupsim/internal/excel"
	"github.com/derekprior/groupsim/internal/group"
	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/standings"
)

// Violation represents a problem found during validation.
type Violation struct {
	Row     int    // sheet row, 0 when not tied to a single row
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a results workbook and checks its Matches and Standings
// sheets against the group.
func Validate(def group.Definition, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := excel.ReadMatches(f)
	if err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}

	games, violations := readGames(def, rows)

	// Rule violations
	violations = append(violations, checkRounds(games)...)
	violations = append(violations, checkPairs(def, games)...)
	violations = append(violations, checkStandings(f, def, games)...)

	// Guideline violations
	violations = append(violations, checkHomeAwayBalance(def, games)...)

	return violations, nil
}

type parsedGame struct {
	Row    int
	Result match.Result
}

// readGames converts each row into a result. Rows that cannot be converted
// are reported and left out of the remaining checks.
func readGames(def group.Definition, rows []excel.MatchRow) ([]parsedGame, []Violation) {
	roster := excel.Roster(def)
	var games []parsedGame
	var violations []Violation
	for _, row := range rows {
		r, err := row.Result(roster)
		if err != nil {
			violations = append(violations, Violation{Row: row.Row, Type: "error", Message: err.Error()})
			continue
		}
		games = append(games, parsedGame{Row: row.Row, Result: r})
	}
	return games, violations
}

func checkRounds(games []parsedGame) []Violation {
	type teamRound struct {
		team  string
		round int
	}
	seen := make(map[teamRound]bool)
	var violations []Violation
	for _, g := range games {
		f := g.Result.Fixture
		for _, name := range []string{f.Home.Name(), f.Away.Name()} {
			key := teamRound{name, f.Round}
			if seen[key] {
				violations = append(violations, Violation{
					Row:     g.Row,
					Type:    "error",
					Message: fmt.Sprintf("%s plays more than once in round %d", name, f.Round),
				})
			}
			seen[key] = true
		}
	}
	return violations
}

func checkPairs(def group.Definition, games []parsedGame) []Violation {
	type pair struct{ a, b string }
	key := func(a, b string) pair {
		if a > b {
			a, b = b, a
		}
		return pair{a, b}
	}

	counts := make(map[pair]int)
	for _, g := range games {
		f := g.Result.Fixture
		counts[key(f.Home.Name(), f.Away.Name())]++
	}

	var violations []Violation
	teams := def.Teams()
	for i := range teams {
		for j := i + 1; j < len(teams); j++ {
			a, b := teams[i].Name(), teams[j].Name()
			switch n := counts[key(a, b)]; {
			case n == 0:
				violations = append(violations, Violation{
					Type:    "error",
					Message: fmt.Sprintf("%s vs %s is missing", a, b),
				})
			case n > 1:
				violations = append(violations, Violation{
					Type:    "error",
					Message: fmt.Sprintf("%s vs %s is played %d times", a, b, n),
				})
			}
		}
	}
	return violations
}

// checkStandings compares the Standings sheet with standings recomputed
// from the valid match rows.
func checkStandings(f *excelize.File, def group.Definition, games []parsedGame) []Violation {
	table, err := standings.NewTable(def.Teams())
	if err != nil {
		return []Violation{{Type: "error", Message: err.Error()}}
	}
	for _, g := range games {
		if err := table.Record(g.Result); err != nil {
			return []Violation{{Row: g.Row, Type: "error", Message: err.Error()}}
		}
	}
	ranked := table.Rank()

	rows, err := f.GetRows(excel.StandingsSheet)
	if err != nil {
		return []Violation{{Type: "error", Message: fmt.Sprintf("reading %s: %v", excel.StandingsSheet, err)}}
	}

	var violations []Violation
	for i, r := range ranked {
		want := excel.StandingsCells(r)
		var got []string
		if i+1 < len(rows) {
			got = trimRow(rows[i+1], len(want))
		}
		if strings.Join(got, "|") != strings.Join(want, "|") {
			violations = append(violations, Violation{
				Row:  i + 2,
				Type: "error",
				Message: fmt.Sprintf("Standings row %d reads %v, recomputed %v",
					i+2, got, want),
			})
		}
	}
	for i := len(ranked) + 1; i < len(rows); i++ {
		if len(trimRow(rows[i], len(excel.StandingsHeaders))) > 0 {
			violations = append(violations, Violation{
				Row:     i + 1,
				Type:    "error",
				Message: fmt.Sprintf("Standings row %d is not a team of group %s", i+1, def.Name()),
			})
		}
	}
	return violations
}

func checkHomeAwayBalance(def group.Definition, games []parsedGame) []Violation {
	home := make(map[string]int)
	away := make(map[string]int)
	for _, g := range games {
		home[g.Result.Fixture.Home.Name()]++
		away[g.Result.Fixture.Away.Name()]++
	}

	var violations []Violation
	for _, t := range def.Teams() {
		h, a := home[t.Name()], away[t.Name()]
		if h-a > 1 || a-h > 1 {
			violations = append(violations, Violation{
				Type:    "warning",
				Message: fmt.Sprintf("%s has %d home and %d away matches", t.Name(), h, a),
			})
		}
	}
	return violations
}

// trimRow returns at most n cells with surrounding space removed, dropping
// trailing blanks.
func trimRow(row []string, n int) []string {
	if len(row) > n {
		row = row[:n]
	}
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
