package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/KaramelBytes/enrolpulse/internal/analysis"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Console prints the run totals and the top/bottom tables.
func Console(w io.Writer, s *analysis.Summary) {
	fmt.Fprintf(w, "Total Records: %s\n", humanize.Comma(int64(s.TotalRecords)))
	fmt.Fprintf(w, "Unique Raw States: %d\n", s.DistinctRaw)
	fmt.Fprintf(w, "Final Clean States & UTs: %d\n", s.DistinctCanonical)
	if s.Discarded > 0 || s.Skipped > 0 {
		fmt.Fprintf(w, "Retained Records: %s (discarded %d, skipped %d)\n",
			humanize.Comma(int64(s.RetainedRecords)), s.Discarded, s.Skipped)
	}

	fmt.Fprintf(w, "\n🏆 Top %d States (Aadhaar Enrolment):\n", s.TopN)
	viewTable(w, fmt.Sprintf("Top%d_Rank", s.TopN), s.Top)
	fmt.Fprintf(w, "\n🔻 Bottom %d States (Aadhaar Enrolment):\n", s.TopN)
	viewTable(w, fmt.Sprintf("Bottom%d_Rank", s.TopN), s.Bottom)
}

func viewTable(w io.Writer, rankHeader string, view []analysis.RankedEntity) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{rankHeader, "state_clean", "total_enrolment"})
	table.SetAutoFormatHeaders(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, e := range view {
		table.Append([]string{strconv.Itoa(e.LocalRank), e.Label, humanize.Comma(e.Total)})
	}
	table.Render()
}

// AgeBrackets prints the three bracket totals with their shares.
func AgeBrackets(w io.Writer, s *analysis.Summary) {
	total := s.AgeTotals.Total()
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Age Bracket", "Enrolments", "Share"})
	table.SetAutoFormatHeaders(false)
	for i, v := range bracketValues(s) {
		share := 0.0
		if total > 0 {
			share = float64(v) * 100 / float64(total)
		}
		table.Append([]string{bracketLabels[i], humanize.Comma(v), fmt.Sprintf("%.1f%%", share)})
	}
	table.Render()
}

var bracketLabels = []string{"0-5 Years", "5-17 Years", "18+ Years"}

func bracketValues(s *analysis.Summary) []int64 {
	return []int64{s.AgeTotals.Age0To5, s.AgeTotals.Age5To17, s.AgeTotals.Age18Plus}
}
