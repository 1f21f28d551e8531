package excel

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/groupsim/internal/group"
	"github.com/derekprior/groupsim/internal/match"
	"github.com/derekprior/groupsim/internal/standings"
	"github.com/derekprior/groupsim/internal/team"
)

const (
	SummarySheet   = "Summary"
	StandingsSheet = "Standings"
	MatchesSheet   = "Matches"
)

// Column headers, also used by readers of the workbook.
var (
	StandingsHeaders = []string{"Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts"}
	MatchesHeaders   = []string{"#", "Round", "Home", "Away", "HG", "AG"}
	TeamHeaders      = []string{"Round", "Opponent", "Home/Away", "GF", "GA", "Result"}
)

// Meta describes the run that produced a workbook.
type Meta struct {
	RunID     string
	Seed      int64
	Generated time.Time
}

// Generate creates a workbook with the summary, the final standings, the
// match list and one sheet per team.
func Generate(result *group.Result, meta Meta) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	if err := writeSummary(f, result, meta); err != nil {
		return nil, fmt.Errorf("writing summary sheet: %w", err)
	}
	if err := writeStandings(f, result.Standings); err != nil {
		return nil, fmt.Errorf("writing standings sheet: %w", err)
	}
	if err := writeMatches(f, result.Matches); err != nil {
		return nil, fmt.Errorf("writing matches sheet: %w", err)
	}
	if err := writeTeamSheets(f, result.Group.Teams(), result.Matches); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	f.DeleteSheet(defaultSheet)
	if idx, err := f.GetSheetIndex(StandingsSheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// UpdateSheets re-reads the Matches sheet of the workbook at path,
// recomputes the standings and rewrites the Standings and team sheets.
// Rows that cannot be turned into a result for the group are skipped.
func UpdateSheets(path string, def group.Definition) ([]standings.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := ReadMatches(f)
	if err != nil {
		return nil, err
	}
	results := Results(def, rows)

	table, err := standings.NewTable(def.Teams())
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if err := table.Record(r); err != nil {
			return nil, err
		}
	}
	ranked := table.Rank()

	if err := clearSheet(f, StandingsSheet); err != nil {
		return nil, err
	}
	if err := writeStandings(f, ranked); err != nil {
		return nil, fmt.Errorf("writing standings sheet: %w", err)
	}
	if err := writeTeamSheets(f, def.Teams(), results); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	if err := f.Save(); err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}
	return ranked, nil
}

// MatchRow is one row of the Matches sheet as text, so hand edits that are
// not valid scores can still be reported.
type MatchRow struct {
	Row       int // 1-based sheet row
	Round     string
	Home      string
	Away      string
	HomeGoals string
	AwayGoals string
}

// ReadMatches returns the non-blank rows of the Matches sheet.
func ReadMatches(f *excelize.File) ([]MatchRow, error) {
	rows, err := f.GetRows(MatchesSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MatchesSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", MatchesSheet)
	}

	var out []MatchRow
	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}
		out = append(out, MatchRow{
			Row:       i + 1,
			Round:     cell(row, 1),
			Home:      cell(row, 2),
			Away:      cell(row, 3),
			HomeGoals: cell(row, 4),
			AwayGoals: cell(row, 5),
		})
	}
	return out, nil
}

// Result converts the row into a match result between teams of the roster.
func (m MatchRow) Result(roster map[string]*team.Team) (match.Result, error) {
	round, err := strconv.Atoi(m.Round)
	if err != nil {
		return match.Result{}, fmt.Errorf("row %d: round %q is not a number", m.Row, m.Round)
	}
	home, ok := roster[m.Home]
	if !ok {
		return match.Result{}, fmt.Errorf("row %d: unknown team %q", m.Row, m.Home)
	}
	away, ok := roster[m.Away]
	if !ok {
		return match.Result{}, fmt.Errorf("row %d: unknown team %q", m.Row, m.Away)
	}
	hg, err := ParseGoals(m.HomeGoals)
	if err != nil {
		return match.Result{}, fmt.Errorf("row %d: %w", m.Row, err)
	}
	ag, err := ParseGoals(m.AwayGoals)
	if err != nil {
		return match.Result{}, fmt.Errorf("row %d: %w", m.Row, err)
	}
	f, err := match.NewFixture(round, home, away)
	if err != nil {
		return match.Result{}, fmt.Errorf("row %d: %w", m.Row, err)
	}
	return match.Final(f, hg, ag)
}

// ParseGoals parses a goal count cell.
func ParseGoals(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("score %q is not a whole number", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("score %d is negative", n)
	}
	return n, nil
}

// Results converts every valid row into a result, skipping the rest.
func Results(def group.Definition, rows []MatchRow) []match.Result {
	roster := Roster(def)
	var results []match.Result
	for _, row := range rows {
		r, err := row.Result(roster)
		if err != nil {
			continue
		}
		results = append(results, r)
	}
	return results
}

// Roster indexes the group's teams by name.
func Roster(def group.Definition) map[string]*team.Team {
	roster := make(map[string]*team.Team)
	for _, t := range def.Teams() {
		roster[t.Name()] = t
	}
	return roster
}

// StandingsCells renders a standings row the way the Standings sheet reads
// back.
func StandingsCells(r standings.Row) []string {
	return []string{
		strconv.Itoa(r.Position),
		r.Team.Name(),
		strconv.Itoa(r.Played),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Draws),
		strconv.Itoa(r.Losses),
		strconv.Itoa(r.GoalsFor),
		strconv.Itoa(r.GoalsAgainst),
		strconv.Itoa(r.GoalDifference()),
		strconv.Itoa(r.Points),
	}
}

// maxSheetName is the longest sheet name Excel accepts, in characters.
const maxSheetName = 31

// defaultSheet is the sheet excelize.NewFile creates. Generate deletes it.
const defaultSheet = "Sheet1"

// TeamSheetName returns a valid, unreserved sheet name for a team. Distinct
// teams may share a result; TeamSheetNames resolves those collisions.
func TeamSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, name)
	name = strings.Trim(name, " '")
	if name == "" {
		name = "Team"
	}
	for _, reserved := range []string{SummarySheet, StandingsSheet, MatchesSheet, defaultSheet} {
		if strings.EqualFold(name, reserved) {
			name = "Team " + name
		}
	}
	return truncateSheetName(name, maxSheetName)
}

// TeamSheetNames maps every team name to its own sheet. Excel compares
// sheet names case-insensitively, so names are folded before the collision
// check and a clash gets a " (2)", " (3)"... suffix. Teams are visited in
// name order, which keeps the mapping independent of roster order.
func TeamSheetNames(teams []*team.Team) map[string]string {
	names := make([]string, 0, len(teams))
	for _, t := range teams {
		names = append(names, t.Name())
	}
	sort.Strings(names)

	used := make(map[string]bool, len(names)+4)
	for _, reserved := range []string{SummarySheet, StandingsSheet, MatchesSheet, defaultSheet} {
		used[strings.ToLower(reserved)] = true
	}

	sheets := make(map[string]string, len(names))
	for _, name := range names {
		base := TeamSheetName(name)
		sheet := base
		for n := 2; used[strings.ToLower(sheet)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			sheet = truncateSheetName(base, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
		}
		used[strings.ToLower(sheet)] = true
		sheets[name] = sheet
	}
	return sheets
}

func truncateSheetName(name string, n int) string {
	if r := []rune(name); len(r) > n {
		name = strings.Trim(string(r[:n]), " '")
	}
	return name
}

type styles struct {
	header    int
	cell      int
	qualifier int
}

func newStyles(f *excelize.File) styles {
	header, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 12, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	body, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
	})
	qualifier, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
	})
	return styles{header: header, cell: body, qualifier: qualifier}
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func writeSummary(f *excelize.File, result *group.Result, meta Meta) error {
	sheet := SummarySheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	s := newStyles(f)

	lines := []struct {
		label string
		value any
	}{
		{"Group", result.Group.Name()},
		{"Run ID", meta.RunID},
		{"Seed", meta.Seed},
		{"Generated", meta.Generated.Format(time.RFC3339)},
		{"Teams", len(result.Group.Teams())},
		{"Matches", len(result.Matches)},
	}
	for i, l := range lines {
		row := i + 1
		f.SetCellValue(sheet, cellRef(1, row), l.label)
		f.SetCellValue(sheet, cellRef(2, row), l.value)
	}
	if s.header != 0 {
		f.SetCellStyle(sheet, "A1", cellRef(1, len(lines)), s.header)
	}
	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 40)
	return nil
}

func writeStandings(f *excelize.File, rows []standings.Row) error {
	sheet := StandingsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	s := newStyles(f)
	writeHeader(f, sheet, StandingsHeaders, s.header)

	for i, r := range rows {
		row := i + 2
		values := []any{
			r.Position, r.Team.Name(), r.Played, r.Wins, r.Draws, r.Losses,
			r.GoalsFor, r.GoalsAgainst, r.GoalDifference(), r.Points,
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
		style := s.cell
		if r.Advances() {
			style = s.qualifier
		}
		if style != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(values), row), style)
		}
	}

	f.SetColWidth(sheet, "A", "A", 6)
	f.SetColWidth(sheet, "B", "B", 26)
	f.SetColWidth(sheet, "C", colLetter(len(StandingsHeaders)), 6)
	return nil
}

func writeMatches(f *excelize.File, matches []match.Result) error {
	sheet := MatchesSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	s := newStyles(f)
	writeHeader(f, sheet, MatchesHeaders, s.header)

	for i, m := range matches {
		row := i + 2
		values := []any{i + 1, m.Fixture.Round, m.Fixture.Home.Name(), m.Fixture.Away.Name(), m.HomeGoals(), m.AwayGoals()}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
		if s.cell != 0 {
			f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(values), row), s.cell)
		}
	}

	widths := map[string]float64{"A": 6, "B": 8, "C": 26, "D": 26, "E": 6, "F": 6}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeTeamSheets(f *excelize.File, teams []*team.Team, matches []match.Result) error {
	s := newStyles(f)
	sheets := TeamSheetNames(teams)
	for _, t := range teams {
		sheet := sheets[t.Name()]
		if err := clearSheet(f, sheet); err != nil {
			return err
		}
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %s: %w", t.Name(), err)
		}
		writeHeader(f, sheet, TeamHeaders, s.header)

		row := 2
		for _, m := range matches {
			if !m.Involves(t) {
				continue
			}
			side := "Away"
			if m.Fixture.Home.Is(t) {
				side = "Home"
			}
			values := []any{m.Fixture.Round, m.Opponent(t).Name(), side, m.GoalsFor(t), m.GoalsAgainst(t), outcomeLetter(m, t)}
			for col, v := range values {
				f.SetCellValue(sheet, cellRef(col+1, row), v)
			}
			if s.cell != 0 {
				f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(values), row), s.cell)
			}
			row++
		}

		widths := map[string]float64{"A": 8, "B": 26, "C": 12, "D": 6, "E": 6, "F": 8}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

func outcomeLetter(m match.Result, t *team.Team) string {
	switch m.Points(t) {
	case match.PointsForWin:
		return "W"
	case match.PointsForDraw:
		return "D"
	default:
		return "L"
	}
}

// clearSheet removes every row of an existing sheet. Missing sheets are left
// alone.
func clearSheet(f *excelize.File, sheet string) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sheet, err)
	}
	for r := len(rows); r >= 1; r-- {
		if err := f.RemoveRow(sheet, r); err != nil {
			return fmt.Errorf("clearing %s: %w", sheet, err)
		}
	}
	return nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
