package enrol

import "fmt"

// Field names as they appear in error messages and column mappings.
const (
	FieldRegion    = "region"
	FieldAge0To5   = "age_0_5"
	FieldAge5To17  = "age_5_17"
	FieldAge18Plus = "age_18_plus"
)

// Record is one enrolment row as produced by a loader. Nil fields were
// absent (or empty) in the source.
type Record struct {
	// Row is the 1-based data row position within Source (header excluded).
	Row    int
	Source string

	Region    *string
	Age0To5   *int64
	Age5To17  *int64
	Age18Plus *int64
}

// Position identifies the record for error messages.
func (r Record) Position() string {
	if r.Source == "" {
		return fmt.Sprintf("row %d", r.Row)
	}
	return fmt.Sprintf("%s row %d", r.Source, r.Row)
}

// Str and Int build optional field values; mostly useful in tests and loaders.
func Str(s string) *string { return &s }
func Int(n int64) *int64   { return &n }

// MissingFieldError reports a numeric field absent from a record.
type MissingFieldError struct {
	Row    int
	Source string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing field %s", Record{Row: e.Row, Source: e.Source}.Position(), e.Field)
}

// NegativeFieldError reports a count below zero.
type NegativeFieldError struct {
	Row    int
	Source string
	Field  string
	Value  int64
}

func (e *NegativeFieldError) Error() string {
	return fmt.Sprintf("%s: field %s is negative (%d)", Record{Row: e.Row, Source: e.Source}.Position(), e.Field, e.Value)
}

// Metric returns the total enrolment of a record: the sum of its three age
// bracket counts. All three must be present and non-negative.
func Metric(r Record) (int64, error) {
	fields := []struct {
		name string
		v    *int64
	}{
		{FieldAge0To5, r.Age0To5},
		{FieldAge5To17, r.Age5To17},
		{FieldAge18Plus, r.Age18Plus},
	}
	var sum int64
	for _, f := range fields {
		if f.v == nil {
			return 0, &MissingFieldError{Row: r.Row, Source: r.Source, Field: f.name}
		}
		if *f.v < 0 {
			return 0, &NegativeFieldError{Row: r.Row, Source: r.Source, Field: f.name, Value: *f.v}
		}
		sum += *f.v
	}
	return sum, nil
}

// Brackets holds per-bracket totals.
type Brackets struct {
	Age0To5   int64 `json:"age_0_5"`
	Age5To17  int64 `json:"age_5_17"`
	Age18Plus int64 `json:"age_18_plus"`
}

// Add accumulates a record whose metric has already been validated.
func (b *Brackets) Add(r Record) {
	b.Age0To5 += *r.Age0To5
	b.Age5To17 += *r.Age5To17
	b.Age18Plus += *r.Age18Plus
}

// Total is the sum of all three brackets.
func (b Brackets) Total() int64 { return b.Age0To5 + b.Age5To17 + b.Age18Plus }
