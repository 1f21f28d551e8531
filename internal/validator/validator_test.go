package validator

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/groupsim/internal/excel"
	"github.com/derekprior/groupsim/internal/group"
	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/outcome"
	"github.com/derekprior/groupsim/internal/schedule"
	"github.com/derekprior/groupsim/internal/standings"
	"github.com/derekprior/groupsim/internal/team"
)

var meta = excel.Meta{RunID: "test-run", Seed: 1, Generated: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}

type game struct {
	round      int
	home, away string
	hg, ag     int
}

// balancedGames is a single round robin in which every team has one or two
// home matches.
var balancedGames = []game{
	{1, "Angels", "Padres", 2, 0},
	{1, "Astros", "Cubs", 1, 1},
	{2, "Cubs", "Angels", 0, 1},
	{2, "Padres", "Astros", 3, 2},
	{3, "Angels", "Astros", 1, 1},
	{3, "Padres", "Cubs", 0, 2},
}

func testGroup(t *testing.T) group.Definition {
	t.Helper()
	var teams []*team.Team
	for _, name := range []string{"Angels", "Astros", "Cubs", "Padres"} {
		tm, err := team.New(name, 60, nil)
		if err != nil {
			t.Fatal(err)
		}
		teams = append(teams, tm)
	}
	def, err := group.NewDefinition("Group A", teams)
	if err != nil {
		t.Fatal(err)
	}
	return def
}

// writeWorkbook builds a results workbook for the games and returns its path.
func writeWorkbook(t *testing.T, def group.Definition, games []game) string {
	t.Helper()
	roster := excel.Roster(def)
	table, err := standings.NewTable(def.Teams())
	if err != nil {
		t.Fatal(err)
	}
	var matches []match.Result
	for _, g := range games {
		f, err := match.NewFixture(g.round, roster[g.home], roster[g.away])
		if err != nil {
			t.Fatal(err)
		}
		r, err := match.Final(f, g.hg, g.ag)
		if err != nil {
			t.Fatal(err)
		}
		if err := table.Record(r); err != nil {
			t.Fatal(err)
		}
		matches = append(matches, r)
	}

	f, err := excel.Generate(&group.Result{Group: def, Matches: matches, Standings: table.Rank()}, meta)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "results.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return path
}

func editWorkbook(t *testing.T, path string, edit func(f *excelize.File)) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f.Close()
	edit(f)
	if err := f.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
}

func count(violations []Violation, typ string) int {
	n := 0
	for _, v := range violations {
		if v.Type == typ {
			n++
		}
	}
	return n
}

func hasViolation(violations []Violation, typ, substr string) bool {
	for _, v := range violations {
		if v.Type == typ && strings.Contains(v.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidateCleanWorkbook(t *testing.T) {
	def := testGroup(t)
	path := writeWorkbook(t, def, balancedGames)

	violations, err := Validate(def, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("expected no violations, got %d:", len(violations))
		for _, v := range violations {
			t.Errorf("  [%s] row %d: %s", v.Type, v.Row, v.Message)
		}
	}
}

func TestValidateSimulatedGroup(t *testing.T) {
	var teams []*team.Team
	for i, rating := range []float64{78, 72, 66, 61, 58, 70} {
		tm, err := team.New(fmt.Sprintf("Team %02d", i+1), rating, nil)
		if err != nil {
			t.Fatal(err)
		}
		teams = append(teams, tm)
	}
	def, err := group.NewDefinition("Group B", teams)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(42))
	sim, err := group.NewSimulator(schedule.RoundRobin{}, outcome.NewKnuth(rng, outcome.DefaultSettings()), nil)
	if err != nil {
		t.Fatal(err)
	}
	result, err := sim.Simulate(def)
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}

	f, err := excel.Generate(result, meta)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "results.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	violations, err := Validate(def, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if n := count(violations, "error"); n != 0 {
		t.Errorf("expected no rule violations, got %d", n)
		for _, v := range violations {
			t.Errorf("  [%s] row %d: %s", v.Type, v.Row, v.Message)
		}
	}
}

func TestValidateDetectsEdits(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(f *excelize.File)
		typ    string
		substr string
	}{
		{
			name:   "non-integer score",
			edit:   func(f *excelize.File) { f.SetCellValue(excel.MatchesSheet, "E2", "two") },
			typ:    "error",
			substr: "not a whole number",
		},
		{
			name:   "negative score",
			edit:   func(f *excelize.File) { f.SetCellValue(excel.MatchesSheet, "F3", -1) },
			typ:    "error",
			substr: "negative",
		},
		{
			name:   "unknown team",
			edit:   func(f *excelize.File) { f.SetCellValue(excel.MatchesSheet, "C2", "Mets") },
			typ:    "error",
			substr: `unknown team "Mets"`,
		},
		{
			name:   "self play",
			edit:   func(f *excelize.File) { f.SetCellValue(excel.MatchesSheet, "D2", "Angels") },
			typ:    "error",
			substr: "itself",
		},
		{
			name:   "team twice in a round",
			edit:   func(f *excelize.File) { f.SetCellValue(excel.MatchesSheet, "B4", 1) },
			typ:    "error",
			substr: "more than once in round 1",
		},
		{
			name: "missing pair",
			edit: func(f *excelize.File) {
				for _, col := range []string{"A", "B", "C", "D", "E", "F"} {
					f.SetCellValue(excel.MatchesSheet, col+"7", "")
				}
			},
			typ:    "error",
			substr: "Cubs vs Padres is missing",
		},
		{
			name: "repeated pair",
			edit: func(f *excelize.File) {
				f.SetCellValue(excel.MatchesSheet, "A8", 7)
				f.SetCellValue(excel.MatchesSheet, "B8", 4)
				f.SetCellValue(excel.MatchesSheet, "C8", "Padres")
				f.SetCellValue(excel.MatchesSheet, "D8", "Angels")
				f.SetCellValue(excel.MatchesSheet, "E8", 1)
				f.SetCellValue(excel.MatchesSheet, "F8", 0)
			},
			typ:    "error",
			substr: "Angels vs Padres is played 2 times",
		},
		{
			name:   "standings out of date",
			edit:   func(f *excelize.File) { f.SetCellValue(excel.MatchesSheet, "E2", 5) },
			typ:    "error",
			substr: "recomputed",
		},
		{
			name:   "standings hand edited",
			edit:   func(f *excelize.File) { f.SetCellValue(excel.StandingsSheet, "J2", 99) },
			typ:    "error",
			substr: "Standings row 2",
		},
		{
			name: "home away imbalance",
			edit: func(f *excelize.File) {
				// Angels at home to Cubs instead of away gives Angels 3 home games.
				f.SetCellValue(excel.MatchesSheet, "C4", "Angels")
				f.SetCellValue(excel.MatchesSheet, "D4", "Cubs")
				f.SetCellValue(excel.MatchesSheet, "E4", 1)
				f.SetCellValue(excel.MatchesSheet, "F4", 0)
			},
			typ:    "warning",
			substr: "Angels has 3 home and 0 away matches",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testGroup(t)
			path := writeWorkbook(t, def, balancedGames)
			editWorkbook(t, path, tt.edit)

			violations, err := Validate(def, path)
			if err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			if !hasViolation(violations, tt.typ, tt.substr) {
				t.Errorf("expected %s containing %q, got %+v", tt.typ, tt.substr, violations)
			}
		})
	}
}

func TestUpdateSheetsClearsStandingsErrors(t *testing.T) {
	def := testGroup(t)
	path := writeWorkbook(t, def, balancedGames)
	editWorkbook(t, path, func(f *excelize.File) {
		f.SetCellValue(excel.MatchesSheet, "E2", 5)
	})

	violations, err := Validate(def, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if count(violations, "error") == 0 {
		t.Fatal("expected a standings error before the rewrite")
	}

	if _, err := excel.UpdateSheets(path, def); err != nil {
		t.Fatalf("UpdateSheets error: %v", err)
	}

	violations, err = Validate(def, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("expected no violations after rewrite, got %+v", violations)
	}
}

func TestValidateMissingFile(t *testing.T) {
	def := testGroup(t)
	if _, err := Validate(def, filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
		t.Error("expected error for missing file")
	}
}
