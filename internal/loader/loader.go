package loader

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/enrolpulse/internal/enrol"
	"github.com/spf13/afero"
)

// Columns names the source columns that feed a Record.
type Columns struct {
	Region    string
	Age0To5   string
	Age5To17  string
	Age18Plus string
}

// DefaultColumns matches the public enrolment extract layout.
func DefaultColumns() Columns {
	return Columns{Region: "state", Age0To5: "age_0_5", Age5To17: "age_5_17", Age18Plus: "age_18_greater"}
}

// Options controls file loading.
type Options struct {
	Columns Columns
	// Delimiter for CSV. If 0, '\t' for .tsv files and ',' otherwise.
	Delimiter rune
	// Sheet selects an XLSX sheet by name; empty means the first sheet.
	Sheet string
	// MaxWarnings caps collected cell warnings; 0 means 20.
	MaxWarnings int
	// Progress, if set, is called before each file is read.
	Progress func(i, total int, path string)
}

// DefaultOptions returns the default column mapping with auto delimiter.
func DefaultOptions() Options {
	return Options{Columns: DefaultColumns(), MaxWarnings: 20}
}

// Result is the merged output of every loaded source.
type Result struct {
	Records  []enrol.Record
	Sources  []string
	Warnings []string
	dropped  int
}

// ErrNoInput is returned when no path matched.
var ErrNoInput = errors.New("no input files matched")

// Expand resolves glob patterns, keeps literal paths that exist, removes
// duplicates and sorts the result.
func Expand(fs afero.Fs, patterns []string) ([]string, error) {
	seen := map[string]struct{}{}
	var files []string
	for _, p := range patterns {
		matches, err := afero.Glob(fs, p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			if ok, _ := afero.Exists(fs, p); ok {
				matches = []string{p}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, ErrNoInput
	}
	sort.Strings(files)
	return files, nil
}

// Load reads every path and concatenates the records in path order.
func Load(fs afero.Fs, paths []string, opt Options) (*Result, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}
	if opt.Columns == (Columns{}) {
		opt.Columns = DefaultColumns()
	}
	res := &Result{}
	for i, path := range paths {
		if opt.Progress != nil {
			opt.Progress(i+1, len(paths), path)
		}
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			err = loadXLSX(fs, path, opt, res)
		case ".csv", ".tsv", ".txt":
			err = loadCSV(fs, path, opt, res)
		default:
			return nil, fmt.Errorf("%s: unsupported file type (use .csv, .tsv or .xlsx)", path)
		}
		if err != nil {
			return nil, err
		}
		res.Sources = append(res.Sources, path)
	}
	if res.dropped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d more cell warnings not listed", res.dropped))
	}
	return res, nil
}

func (r *Result) warn(opt Options, format string, args ...interface{}) {
	limit := opt.MaxWarnings
	if limit <= 0 {
		limit = 20
	}
	if len(r.Warnings) >= limit {
		r.dropped++
		return
	}
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// index maps the configured columns onto header positions.
type index struct {
	region, a, b, c int
}

func headerIndex(source string, header []string, cols Columns) (index, error) {
	pos := map[string]int{}
	for i, h := range header {
		k := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := pos[k]; !dup {
			pos[k] = i
		}
	}
	var missing []string
	find := func(name string) int {
		i, ok := pos[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}
	idx := index{region: find(cols.Region), a: find(cols.Age0To5), b: find(cols.Age5To17), c: find(cols.Age18Plus)}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%s: missing required columns: %s", source, strings.Join(missing, ", "))
	}
	return idx, nil
}

// toRecord builds a Record from one data row; short rows yield nil fields.
func (r *Result) toRecord(opt Options, source string, row int, idx index, cells []string) enrol.Record {
	cell := func(i int) (string, bool) {
		if i < 0 || i >= len(cells) {
			return "", false
		}
		v := strings.TrimSpace(cells[i])
		return v, v != ""
	}
	rec := enrol.Record{Row: row, Source: source}
	if v, ok := cell(idx.region); ok {
		rec.Region = &v
	}
	num := func(i int, field string) *int64 {
		v, ok := cell(i)
		if !ok {
			return nil
		}
		n, ok := parseCount(v)
		if !ok {
			r.warn(opt, "%s row %d: %s value %q is not a count", source, row, field, v)
			return nil
		}
		return &n
	}
	rec.Age0To5 = num(idx.a, enrol.FieldAge0To5)
	rec.Age5To17 = num(idx.b, enrol.FieldAge5To17)
	rec.Age18Plus = num(idx.c, enrol.FieldAge18Plus)
	return rec
}

// parseCount accepts plain integers, thousands separators and integral floats
// (spreadsheets often store counts as 12.0).
func parseCount(s string) (int64, bool) {
	raw := strings.NewReplacer(",", "", "_", "", " ", "", "\u00a0", "").Replace(s)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}
