package loader

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

const chunkA = "date,state,district,pincode,age_0_5,age_5_17,age_18_greater\n" +
	"02-03-2025,Orissa,Khordha,751001,10,20,30\n" +
	"02-03-2025,West Bengal,Kolkata,700001,0,0,0\n"

const chunkB = "date,state,district,pincode,age_0_5,age_5_17,age_18_greater\n" +
	"03-03-2025,100000,x,100000,1,1,1\n" +
	"03-03-2025,,Unknown,000000,1,\"1,200\",abc\n"

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, body := range files {
		if err := afero.WriteFile(fs, name, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return fs
}

func TestExpandAndLoadCSVChunks(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/data/enrol_500000_1000000.csv": chunkB,
		"/data/enrol_0_500000.csv":       chunkA,
	})
	paths, err := Expand(fs, []string{"/data/*.csv", "/data/enrol_0_500000.csv"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(paths) != 2 || !strings.HasSuffix(paths[0], "enrol_0_500000.csv") {
		t.Fatalf("paths = %v", paths)
	}
	res, err := Load(fs, paths, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Records) != 4 || len(res.Sources) != 2 {
		t.Fatalf("records=%d sources=%d", len(res.Records), len(res.Sources))
	}
	first := res.Records[0]
	if *first.Region != "Orissa" || *first.Age18Plus != 30 || first.Row != 1 || first.Source != "enrol_0_500000.csv" {
		t.Fatalf("first = %+v", first)
	}
	last := res.Records[3]
	if last.Region != nil {
		t.Fatalf("empty region should be nil")
	}
	if last.Age5To17 == nil || *last.Age5To17 != 1200 {
		t.Fatalf("thousands separator not parsed: %v", last.Age5To17)
	}
	if last.Age18Plus != nil {
		t.Fatalf("non-numeric cell should be nil")
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], `"abc" is not a count`) {
		t.Fatalf("warnings = %#v", res.Warnings)
	}
}

func TestLoadErrors(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/bad.csv":   "state,age_0_5\nGoa,1\n",
		"/empty.csv": "",
		"/doc.pdf":   "x",
	})
	if _, err := Expand(fs, []string{"/nothing/*.csv"}); !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
	_, err := Load(fs, []string{"/bad.csv"}, DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "missing required columns: age_5_17, age_18_greater") {
		t.Fatalf("missing columns error = %v", err)
	}
	if _, err := Load(fs, []string{"/empty.csv"}, DefaultOptions()); err == nil {
		t.Fatalf("expected error for empty file")
	}
	if _, err := Load(fs, []string{"/doc.pdf"}, DefaultOptions()); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestLoadTSVCustomColumns(t *testing.T) {
	fs := memFS(t, map[string]string{"/x.tsv": "Region\tKids\tTeens\tAdults\nGoa\t1\t2\t3.0\n"})
	opt := DefaultOptions()
	opt.Columns = Columns{Region: "region", Age0To5: "kids", Age5To17: "teens", Age18Plus: "adults"}
	res, err := Load(fs, []string{"/x.tsv"}, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Records) != 1 || *res.Records[0].Age18Plus != 3 {
		t.Fatalf("records = %+v", res.Records)
	}
}

func TestLoadXLSX(t *testing.T) {
	wb := excelize.NewFile()
	if _, err := wb.NewSheet("Data"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	rows := [][]interface{}{
		{"state", "age_0_5", "age_5_17", "age_18_greater"},
		{"Pondicherry", 4, 5, 6},
		{"Goa", 1, 0, 0},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow("Data", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	fs := memFS(t, map[string]string{"/book.xlsx": buf.String()})

	opt := DefaultOptions()
	opt.Sheet = "data"
	res, err := Load(fs, []string{"/book.xlsx"}, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Records) != 2 || *res.Records[0].Region != "Pondicherry" || *res.Records[0].Age5To17 != 5 {
		t.Fatalf("records = %+v", res.Records)
	}

	opt.Sheet = "Missing"
	if _, err := Load(fs, []string{"/book.xlsx"}, opt); err == nil || !strings.Contains(err.Error(), "Available sheets") {
		t.Fatalf("expected sheet error, got %v", err)
	}
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrol.db")
	db, err := OpenSQL(DriverSQLite, path)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	stmts := []string{
		`CREATE TABLE enrolment (state TEXT, age_0_5 INTEGER, age_5_17 INTEGER, age_18_greater INTEGER)`,
		`INSERT INTO enrolment VALUES ('Orissa', 1, 2, 3)`,
		`INSERT INTO enrolment VALUES (NULL, 4, 5, 6)`,
		`INSERT INTO enrolment VALUES ('Goa', 7, NULL, 9)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	res, err := LoadSQL(ctx, db, "enrolment", Columns{})
	if err != nil {
		t.Fatalf("LoadSQL: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("records = %d", len(res.Records))
	}
	if *res.Records[0].Region != "Orissa" || *res.Records[0].Age18Plus != 3 {
		t.Fatalf("first = %+v", res.Records[0])
	}
	if res.Records[1].Region != nil || res.Records[2].Age5To17 != nil {
		t.Fatalf("NULLs should map to nil fields")
	}
	if _, err := OpenSQL("mysql", "x"); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}

func TestParseCount(t *testing.T) {
	cases := map[string]struct {
		n  int64
		ok bool
	}{
		"12":    {12, true},
		"1,234": {1234, true},
		"12.0":  {12, true},
		"12.5":  {0, false},
		"-3":    {-3, true},
		"n/a":   {0, false},
	}
	for in, want := range cases {
		n, ok := parseCount(in)
		if n != want.n || ok != want.ok {
			t.Fatalf("parseCount(%q) = %d,%v want %d,%v", in, n, ok, want.n, want.ok)
		}
	}
}
