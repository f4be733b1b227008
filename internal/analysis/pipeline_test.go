package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/enrolpulse/internal/canon"
	"github.com/KaramelBytes/enrolpulse/internal/enrol"
)

func record(row int, region string, a, b, c int64) enrol.Record {
	return enrol.Record{Row: row, Source: "test.csv", Region: enrol.Str(region), Age0To5: enrol.Int(a), Age5To17: enrol.Int(b), Age18Plus: enrol.Int(c)}
}

func TestRunMergesSpellings(t *testing.T) {
	records := []enrol.Record{
		record(1, "Orissa", 5, 0, 0),
		record(2, "ORISSA ", 1, 1, 1),
		record(3, "odisha", 0, 2, 0),
		record(4, "Kerala", 1, 0, 0),
	}
	sum, err := Run(records, canon.DefaultRules(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	top := sum.Top
	if len(top) != 2 || top[0].Label != "odisha" || top[0].Total != 10 {
		t.Fatalf("top = %+v", top)
	}
	if sum.DistinctRaw != 4 || sum.DistinctCanonical != 2 {
		t.Fatalf("distinct = %d/%d", sum.DistinctRaw, sum.DistinctCanonical)
	}
}

func TestRunDiscardRemovesFromCounts(t *testing.T) {
	records := []enrol.Record{
		record(1, "Goa", 1, 2, 3),
		record(2, "Goa", 1, 1, 1),
		record(3, "100000", 50, 50, 50),
		record(4, "Bihar", 4, 4, 4),
		record(5, "Bihar", 0, 0, 1),
	}
	sum, err := Run(records, canon.DefaultRules(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.TotalRecords != 5 || sum.Canonicalized != 4 || sum.RetainedRecords != 4 || sum.Discarded != 1 {
		t.Fatalf("counts = %+v", sum)
	}
	var total int64
	for _, e := range sum.Ranking.All() {
		if e.Label == "100000" {
			t.Fatalf("discarded label ranked")
		}
		total += e.Total
	}
	if total != 22 || sum.AgeTotals.Total() != 22 {
		t.Fatalf("conservation: ranking %d, brackets %d, want 22", total, sum.AgeTotals.Total())
	}
	if sum.AgeTotals.Age0To5 != 6 || sum.AgeTotals.Age5To17 != 7 || sum.AgeTotals.Age18Plus != 9 {
		t.Fatalf("age totals = %+v", sum.AgeTotals)
	}
}

func TestRunAbortPolicy(t *testing.T) {
	records := []enrol.Record{
		record(1, "Goa", 1, 1, 1),
		{Row: 2, Source: "test.csv", Region: enrol.Str("Goa"), Age0To5: enrol.Int(1), Age18Plus: enrol.Int(1)},
	}
	_, err := Run(records, nil, DefaultOptions())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	var mf *enrol.MissingFieldError
	if !errors.As(err, &mf) || mf.Field != enrol.FieldAge5To17 {
		t.Fatalf("expected MissingFieldError for age_5_17, got %v", err)
	}
	if !strings.Contains(err.Error(), "test.csv row 2") {
		t.Fatalf("error should identify position: %v", err)
	}
}

func TestRunSkipPolicy(t *testing.T) {
	records := []enrol.Record{
		record(1, "Goa", 1, 1, 1),
		{Row: 2, Source: "test.csv"},
		{Row: 3, Source: "test.csv", Region: enrol.Str("Goa"), Age0To5: enrol.Int(1)},
		record(4, "Goa", 2, 2, 2),
	}
	opt := DefaultOptions()
	opt.OnError = OnErrorSkip
	opt.MaxWarnings = 1
	sum, err := Run(records, nil, opt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Skipped != 2 || sum.RetainedRecords != 2 {
		t.Fatalf("skipped=%d retained=%d", sum.Skipped, sum.RetainedRecords)
	}
	if sum.Ranking.Total() != 9 {
		t.Fatalf("total = %d, want 9", sum.Ranking.Total())
	}
	if len(sum.Warnings) != 2 || !strings.Contains(sum.Warnings[1], "1 more skipped") {
		t.Fatalf("warnings = %#v", sum.Warnings)
	}
}

func TestRunEmptyAndBadPolicy(t *testing.T) {
	sum, err := Run(nil, canon.DefaultRules(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run empty: %v", err)
	}
	if sum.Ranking.Len() != 0 || len(sum.Top) != 0 {
		t.Fatalf("empty run should have empty ranking")
	}
	if _, err := Run(nil, nil, Options{OnError: "ignore"}); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestSummaryMarkdown(t *testing.T) {
	records := []enrol.Record{
		record(1, "Uttar Pradesh", 1000, 2000, 500),
		record(2, "Goa", 1, 2, 3),
		record(3, "100000", 1, 1, 1),
	}
	sum, err := Run(records, canon.DefaultRules(), DefaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	sum.RunID = "run-1"
	md := sum.Markdown()
	for _, want := range []string{
		"[ENROLMENT SUMMARY]",
		"Run: run-1",
		"Total Records: 3",
		"Final Clean States & UTs: 2",
		"(discarded 1, skipped 0)",
		"[TOP 10]",
		"| 1 | uttar pradesh | 3,500 | 1 |",
		"[BOTTOM 10]",
		"[AGE BRACKETS]",
		"- 5-17 Years: 2,002",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
