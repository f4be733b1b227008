package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/enrolpulse/internal/canon"
	"github.com/KaramelBytes/enrolpulse/internal/enrol"
)

// Error policies.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// ErrAborted wraps the record error that stopped a run under the abort policy.
var ErrAborted = errors.New("run aborted")

// Options controls a pipeline run.
type Options struct {
	// OnError is OnErrorAbort or OnErrorSkip.
	OnError string
	// TopN sizes the top and bottom views.
	TopN int
	// MaxWarnings caps per-record notes kept under the skip policy; 0 means 20.
	MaxWarnings int
}

// DefaultOptions aborts on the first bad record and reports ten entities
// at each end of the ranking.
func DefaultOptions() Options {
	return Options{OnError: OnErrorAbort, TopN: 10, MaxWarnings: 20}
}

// Summary is the outcome of one run, consumed by the presentation layer.
type Summary struct {
	RunID string `json:"run_id,omitempty"`
	// TotalRecords counts every input record.
	TotalRecords int `json:"total_records"`
	// Canonicalized counts records left after canonicalization.
	Canonicalized int `json:"canonicalized"`
	// RetainedRecords counts records that contributed to the ranking.
	RetainedRecords int `json:"retained_records"`
	Discarded       int `json:"discarded"`
	Skipped         int `json:"skipped"`
	// DistinctRaw counts distinct region labels as supplied.
	DistinctRaw int `json:"distinct_raw"`
	// DistinctCanonical counts ranked entities.
	DistinctCanonical int `json:"distinct_canonical"`

	TopN      int            `json:"top_n"`
	Ranking   *Ranking       `json:"ranking"`
	Top       []RankedEntity `json:"top"`
	Bottom    []RankedEntity `json:"bottom"`
	AgeTotals enrol.Brackets `json:"age_totals"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// Run canonicalizes, derives metrics and ranks records. Under the abort
// policy the first failing record stops the run with an error wrapping
// ErrAborted and the record error; under skip it is counted and noted.
func Run(records []enrol.Record, rules *canon.RuleSet, opt Options) (*Summary, error) {
	switch opt.OnError {
	case "":
		opt.OnError = OnErrorAbort
	case OnErrorAbort, OnErrorSkip:
	default:
		return nil, fmt.Errorf("unknown error policy %q (use %s or %s)", opt.OnError, OnErrorAbort, OnErrorSkip)
	}
	if opt.TopN <= 0 {
		opt.TopN = 10
	}
	maxWarn := opt.MaxWarnings
	if maxWarn <= 0 {
		maxWarn = 20
	}

	sum := &Summary{TotalRecords: len(records), TopN: opt.TopN}
	noted := 0
	handle := func(rec enrol.Record, err error) error {
		if opt.OnError == OnErrorAbort {
			return fmt.Errorf("%w: %w", ErrAborted, err)
		}
		if noted < maxWarn {
			sum.Warnings = append(sum.Warnings, "skipped "+err.Error())
		}
		noted++
		return nil
	}

	labeled, st, err := canon.New(rules).Apply(records, handle)
	if err != nil {
		return nil, err
	}
	pairs, kept, skipped, err := PairsOf(labeled, handle)
	if err != nil {
		return nil, err
	}
	if noted > maxWarn {
		sum.Warnings = append(sum.Warnings, fmt.Sprintf("%d more skipped records not listed", noted-maxWarn))
	}

	sum.Canonicalized = st.Retained
	sum.Discarded = st.Discarded
	sum.Skipped = st.Skipped + skipped
	sum.DistinctRaw = st.DistinctRaw
	sum.RetainedRecords = len(kept)
	for _, r := range kept {
		sum.AgeTotals.Add(r)
	}
	sum.Ranking = Rank(pairs)
	sum.DistinctCanonical = sum.Ranking.Len()
	sum.Top = sum.Ranking.TopN(opt.TopN)
	sum.Bottom = sum.Ranking.BottomN(opt.TopN)
	return sum, nil
}

// ValidPolicy reports whether s names a known error policy.
func ValidPolicy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case OnErrorAbort, OnErrorSkip:
		return true
	}
	return false
}
