package analysis

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Markdown renders a compact report suitable for terminals or standalone docs.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[ENROLMENT SUMMARY]\n")
	if s.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", s.RunID))
	}
	b.WriteString(fmt.Sprintf("Total Records: %s\n", humanize.Comma(int64(s.TotalRecords))))
	b.WriteString(fmt.Sprintf("Unique Raw States: %d\n", s.DistinctRaw))
	b.WriteString(fmt.Sprintf("Final Clean States & UTs: %d\n", s.DistinctCanonical))
	b.WriteString(fmt.Sprintf("Retained Records: %s", humanize.Comma(int64(s.RetainedRecords))))
	if s.Discarded > 0 || s.Skipped > 0 {
		b.WriteString(fmt.Sprintf(" (discarded %d, skipped %d)", s.Discarded, s.Skipped))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Total Enrolment: %s\n", humanize.Comma(s.Ranking.Total())))

	writeView(&b, fmt.Sprintf("TOP %d", s.TopN), s.Top)
	writeView(&b, fmt.Sprintf("BOTTOM %d", s.TopN), s.Bottom)

	b.WriteString("\n[AGE BRACKETS]\n")
	total := s.AgeTotals.Total()
	for _, br := range []struct {
		name string
		v    int64
	}{
		{"0-5 Years", s.AgeTotals.Age0To5},
		{"5-17 Years", s.AgeTotals.Age5To17},
		{"18+ Years", s.AgeTotals.Age18Plus},
	} {
		pct := 0.0
		if total > 0 {
			pct = float64(br.v) * 100 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (%.1f%%)\n", br.name, humanize.Comma(br.v), pct))
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range s.Warnings {
			b.WriteString("- ")
			b.WriteString(safeVal(w))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeView(b *strings.Builder, title string, view []RankedEntity) {
	b.WriteString(fmt.Sprintf("\n[%s]\n", title))
	if len(view) == 0 {
		b.WriteString("(no regions)\n")
		return
	}
	b.WriteString("| Rank | State | Total Enrolment | Overall |\n")
	b.WriteString("| --- | --- | --- | --- |\n")
	for _, e := range view {
		b.WriteString(fmt.Sprintf("| %d | %s | %s | %d |\n", e.LocalRank, safeVal(e.Label), humanize.Comma(e.Total), e.Rank))
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
