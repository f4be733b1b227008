package canon

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/enrolpulse/internal/enrol"
)

// MalformedRecordError reports a record whose region label is missing or blank.
type MalformedRecordError struct {
	Row    int
	Source string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("%s: malformed record: %s", enrol.Record{Row: e.Row, Source: e.Source}.Position(), e.Reason)
}

// Canonicalizer maps raw region labels to canonical labels using a RuleSet.
type Canonicalizer struct {
	rules *RuleSet
}

// New returns a Canonicalizer over rules. A nil RuleSet passes every
// normalized label through.
func New(rules *RuleSet) *Canonicalizer {
	return &Canonicalizer{rules: rules}
}

// Canonicalize resolves the region of one record. keep is false when a
// discard rule matched.
func (c *Canonicalizer) Canonicalize(rec enrol.Record) (label string, keep bool, err error) {
	if rec.Region == nil {
		return "", false, &MalformedRecordError{Row: rec.Row, Source: rec.Source, Reason: "region label missing"}
	}
	if strings.TrimSpace(*rec.Region) == "" {
		return "", false, &MalformedRecordError{Row: rec.Row, Source: rec.Source, Reason: "region label empty"}
	}
	label, out := c.rules.Resolve(*rec.Region)
	if out == Discarded {
		return "", false, nil
	}
	return label, true, nil
}

// Labeled pairs a retained record with its canonical label.
type Labeled struct {
	Label  string
	Record enrol.Record
}

// ErrorHandler decides what happens to a record that failed a pipeline
// stage: return nil to skip it, or an error to abort the run.
type ErrorHandler func(rec enrol.Record, err error) error

// Stats describes one Apply pass.
type Stats struct {
	Input     int `json:"input"`
	Retained  int `json:"retained"`
	Discarded int `json:"discarded"`
	Skipped   int `json:"skipped"`
	// DistinctRaw counts distinct labels exactly as supplied, before any rule.
	DistinctRaw int `json:"distinct_raw"`
	// DistinctCanonical counts distinct labels among retained records.
	DistinctCanonical int `json:"distinct_canonical"`
}

// Apply canonicalizes records in order. Records matching a discard rule
// are dropped and counted in Discarded only. Malformed records go to
// handle; a nil handle aborts on the first one.
func (c *Canonicalizer) Apply(records []enrol.Record, handle ErrorHandler) ([]Labeled, Stats, error) {
	st := Stats{Input: len(records)}
	raw := map[string]struct{}{}
	canonical := map[string]struct{}{}
	out := make([]Labeled, 0, len(records))
	for _, rec := range records {
		if rec.Region != nil {
			raw[*rec.Region] = struct{}{}
		}
		label, keep, err := c.Canonicalize(rec)
		if err != nil {
			if handle == nil {
				return nil, st, err
			}
			if herr := handle(rec, err); herr != nil {
				return nil, st, herr
			}
			st.Skipped++
			continue
		}
		if !keep {
			st.Discarded++
			continue
		}
		canonical[label] = struct{}{}
		out = append(out, Labeled{Label: label, Record: rec})
	}
	st.Retained = len(out)
	st.DistinctRaw = len(raw)
	st.DistinctCanonical = len(canonical)
	return out, st, nil
}
