// Package export renders engine output into an Excel workbook.
package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/okian/survivor/internal/domain/model"
)

// Report bundles the engine output that can be exported. Empty sections are
// skipped.
type Report struct {
	// Summaries holds ranked week summaries keyed by week.
	Summaries map[int][]model.WeekSummary

	// Simulation is an optional Monte Carlo run.
	Simulation *model.SimulationResult

	// Ratings is an optional power-rating snapshot.
	Ratings map[string]float64
}

func (r Report) empty() bool {
	return len(r.Summaries) == 0 && r.Simulation == nil && len(r.Ratings) == 0
}

// Generate creates an Excel workbook with one sheet per report section.
func Generate(report Report) (*excelize.File, error) {
	if report.empty() {
		return nil, ErrEmptyReport
	}

	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	weeks := make([]int, 0, len(report.Summaries))
	for week := range report.Summaries {
		weeks = append(weeks, week)
	}
	sort.Ints(weeks)
	for _, week := range weeks {
		if err := writeSummarySheet(f, week, report.Summaries[week]); err != nil {
			return nil, fmt.Errorf("writing week %d sheet: %w", week, err)
		}
	}

	if report.Simulation != nil {
		if err := writeSimulationSheet(f, *report.Simulation); err != nil {
			return nil, fmt.Errorf("writing simulation sheet: %w", err)
		}
	}

	if len(report.Ratings) > 0 {
		if err := writeRatingsSheet(f, report.Ratings); err != nil {
			return nil, fmt.Errorf("writing ratings sheet: %w", err)
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeSummarySheet(f *excelize.File, week int, rows []model.WeekSummary) error {
	sheet := fmt.Sprintf("Week %d", week)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Team", "Opponent", "Site", "Win Prob", "Popularity", "Future Value", "Expected Value"}
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cellRef(i+1, 1), h); err != nil {
			return err
		}
	}
	styleHeaders(f, sheet, len(headers))

	for i, row := range rows {
		r := i + 2
		site := "Away"
		if row.Home {
			site = "Home"
		}
		values := []any{row.Team, row.Opponent, site, row.WinProbability, row.Popularity, row.FutureValue, row.ExpectedValue}
		for col, v := range values {
			if err := f.SetCellValue(sheet, cellRef(col+1, r), v); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "B", 24)
	_ = f.SetColWidth(sheet, "C", "C", 8)
	_ = f.SetColWidth(sheet, "D", "G", 14)
	return nil
}

func writeSimulationSheet(f *excelize.File, sim model.SimulationResult) error {
	sheet := "Simulation"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Week", "Survival Probability"}
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cellRef(i+1, 1), h); err != nil {
			return err
		}
	}
	styleHeaders(f, sheet, len(headers))

	for i, point := range sim.Curve {
		r := i + 2
		if err := f.SetCellValue(sheet, cellRef(1, r), point.Week); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cellRef(2, r), point.Probability); err != nil {
			return err
		}
	}

	footer := len(sim.Curve) + 3
	_ = f.SetCellValue(sheet, cellRef(1, footer), "Overall")
	_ = f.SetCellValue(sheet, cellRef(2, footer), sim.OverallProbability)
	_ = f.SetCellValue(sheet, cellRef(1, footer+1), "Trials")
	_ = f.SetCellValue(sheet, cellRef(2, footer+1), sim.Trials)
	_ = f.SetCellValue(sheet, cellRef(1, footer+2), "Seed")
	_ = f.SetCellValue(sheet, cellRef(2, footer+2), sim.Seed)
	_ = f.SetCellValue(sheet, cellRef(1, footer+3), "Run ID")
	_ = f.SetCellValue(sheet, cellRef(2, footer+3), sim.RunID)

	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "B", 24)
	return nil
}

func writeRatingsSheet(f *excelize.File, ratings map[string]float64) error {
	sheet := "Ratings"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{"Team", "Rating"}
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cellRef(i+1, 1), h); err != nil {
			return err
		}
	}
	styleHeaders(f, sheet, len(headers))

	type teamRating struct {
		team   string
		rating float64
	}
	sorted := make([]teamRating, 0, len(ratings))
	for team, r := range ratings {
		sorted = append(sorted, teamRating{team, r})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].rating != sorted[j].rating {
			return sorted[i].rating > sorted[j].rating
		}
		return sorted[i].team < sorted[j].team
	})

	for i, tr := range sorted {
		r := i + 2
		if err := f.SetCellValue(sheet, cellRef(1, r), tr.team); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cellRef(2, r), tr.rating); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "B", "B", 12)
	return nil
}

func styleHeaders(f *excelize.File, sheet string, count int) {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if headerStyle != 0 {
		_ = f.SetCellStyle(sheet, cellRef(1, 1), cellRef(count, 1), headerStyle)
	}
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
