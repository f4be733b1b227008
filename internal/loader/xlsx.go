package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

// loadXLSX reads the selected sheet; the first row is the header.
func loadXLSX(fs afero.Fs, path string, opt Options, res *Result) error {
	fh, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("open xlsx: %w", err)
	}
	defer fh.Close()
	wb, err := excelize.OpenReader(fh)
	if err != nil {
		return fmt.Errorf("read xlsx: %w", err)
	}
	defer wb.Close()

	source := filepath.Base(path)
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return fmt.Errorf("%s: workbook has no sheets", source)
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				opt.Sheet, source, strings.Join(sheets, ", "))
		}
	}
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("%s: read sheet %s: %w", source, sheet, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s: sheet %s is empty", source, sheet)
	}
	idx, err := headerIndex(source, rows[0], opt.Columns)
	if err != nil {
		return err
	}
	for i, cells := range rows[1:] {
		res.Records = append(res.Records, res.toRecord(opt, source, i+1, idx, cells))
	}
	return nil
}
