package render

import (
	"bytes"
	"fmt"

	"github.com/KaramelBytes/enrolpulse/internal/analysis"
	"github.com/KaramelBytes/enrolpulse/internal/utils"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

// Sheet names written by Workbook.
const (
	SheetRanking = "Ranking"
	SheetTop     = "Top"
	SheetBottom  = "Bottom"
	SheetAges    = "AgeBrackets"
)

// Workbook writes the ranking, both views and the age bracket totals to an
// xlsx file at path.
func Workbook(fs afero.Fs, path string, s *analysis.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	ranking := make([][]interface{}, 0, s.Ranking.Len())
	for _, e := range s.Ranking.All() {
		ranking = append(ranking, []interface{}{e.Rank, e.Label, e.Total})
	}
	if err := f.SetSheetName("Sheet1", SheetRanking); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := writeSheet(f, SheetRanking, bold, []interface{}{"Rank", "State", "Total Enrolment"}, ranking); err != nil {
		return err
	}
	for _, v := range []struct {
		name string
		view []analysis.RankedEntity
	}{{SheetTop, s.Top}, {SheetBottom, s.Bottom}} {
		rows := make([][]interface{}, 0, len(v.view))
		for _, e := range v.view {
			rows = append(rows, []interface{}{e.LocalRank, e.Label, e.Total, e.Rank})
		}
		if _, err := f.NewSheet(v.name); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := writeSheet(f, v.name, bold, []interface{}{"Rank", "State", "Total Enrolment", "Overall Rank"}, rows); err != nil {
			return err
		}
	}

	total := s.AgeTotals.Total()
	ages := make([][]interface{}, 0, len(bracketLabels))
	for i, n := range bracketValues(s) {
		share := 0.0
		if total > 0 {
			share = float64(n) / float64(total)
		}
		ages = append(ages, []interface{}{bracketLabels[i], n, share})
	}
	if _, err := f.NewSheet(SheetAges); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := writeSheet(f, SheetAges, bold, []interface{}{"Age Bracket", "Enrolments", "Share"}, ages); err != nil {
		return err
	}
	pct, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}
	if err := f.SetCellStyle(SheetAges, "C2", fmt.Sprintf("C%d", len(ages)+1), pct); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("encode xlsx: %w", err)
	}
	return utils.SafeWriteFile(fs, path, buf.Bytes())
}

func writeSheet(f *excelize.File, sheet string, header int, head []interface{}, rows [][]interface{}) error {
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("xlsx %s: %w", sheet, err)
	}
	last, _ := excelize.CoordinatesToCellName(len(head), 1)
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fmt.Errorf("xlsx %s: %w", sheet, err)
	}
	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("xlsx %s: %w", sheet, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(head))
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("xlsx %s: %w", sheet, err)
	}
	return nil
}
