package canon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Outcome describes how a raw label resolved against a RuleSet.
type Outcome int

const (
	// PassThrough means no rule matched and the normalized label is used as-is.
	PassThrough Outcome = iota
	// Mapped means a rule rewrote the label.
	Mapped
	// Discarded means the record must be dropped entirely.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Mapped:
		return "mapped"
	case Discarded:
		return "discard"
	default:
		return "pass-through"
	}
}

// Normalize folds a raw region label into lookup form: Unicode NFC,
// lowercase, surrounding whitespace removed. Normalize is idempotent.
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(strings.ToLower(s)))
}

type rule struct {
	label   string
	discard bool
}

// RuleSet is an immutable table of canonicalization rules keyed by
// normalized raw label. Build one with NewRuleSet, DefaultRules or LoadRules.
type RuleSet struct {
	rules map[string]rule
}

// RuleError reports an invalid rule table.
type RuleError struct {
	Key    string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid rule %q: %s", e.Key, e.Reason)
}

// NewRuleSet validates and freezes a rule table. Keys and targets are
// normalized. Duplicate keys after normalization, keys that are both
// aliased and discarded, empty targets, and chained rules are rejected.
func NewRuleSet(aliases map[string]string, discard []string) (*RuleSet, error) {
	rs := &RuleSet{rules: make(map[string]rule, len(aliases)+len(discard))}
	// iterate in sorted order so the reported conflict is stable
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, raw := range keys {
		k := Normalize(raw)
		if k == "" {
			return nil, &RuleError{Key: raw, Reason: "empty key"}
		}
		target := Normalize(aliases[raw])
		if target == "" {
			return nil, &RuleError{Key: raw, Reason: "empty target label"}
		}
		if _, dup := rs.rules[k]; dup {
			return nil, &RuleError{Key: raw, Reason: "duplicate key after normalization"}
		}
		rs.rules[k] = rule{label: target}
	}
	for _, raw := range discard {
		k := Normalize(raw)
		if k == "" {
			return nil, &RuleError{Key: raw, Reason: "empty key"}
		}
		if prev, dup := rs.rules[k]; dup {
			if prev.discard {
				return nil, &RuleError{Key: raw, Reason: "duplicate key after normalization"}
			}
			return nil, &RuleError{Key: raw, Reason: "key is both aliased and discarded"}
		}
		rs.rules[k] = rule{discard: true}
	}
	for k, r := range rs.rules {
		if r.discard {
			continue
		}
		next, ok := rs.rules[r.label]
		if !ok {
			continue
		}
		if next.discard {
			return nil, &RuleError{Key: k, Reason: fmt.Sprintf("target %q is a discarded key", r.label)}
		}
		if next.label != r.label {
			return nil, &RuleError{Key: k, Reason: fmt.Sprintf("target %q is itself remapped to %q", r.label, next.label)}
		}
	}
	return rs, nil
}

// Resolve normalizes raw and looks it up. A miss is not an error: the
// normalized label passes through unchanged as the canonical label.
func (rs *RuleSet) Resolve(raw string) (string, Outcome) {
	k := Normalize(raw)
	if rs == nil {
		return k, PassThrough
	}
	r, ok := rs.rules[k]
	switch {
	case !ok:
		return k, PassThrough
	case r.discard:
		return "", Discarded
	default:
		return r.label, Mapped
	}
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Entry is one rule in listing form.
type Entry struct {
	Key     string
	Label   string
	Discard bool
}

// Entries lists the rules sorted by key.
func (rs *RuleSet) Entries() []Entry {
	if rs == nil {
		return nil
	}
	out := make([]Entry, 0, len(rs.rules))
	for k, r := range rs.rules {
		out = append(out, Entry{Key: k, Label: r.label, Discard: r.discard})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// File is the YAML layout of a rules file.
type File struct {
	// ExtendDefaults layers this file over the built-in table instead of replacing it.
	ExtendDefaults bool              `yaml:"extend_defaults"`
	Aliases        map[string]string `yaml:"aliases"`
	Discard        []string          `yaml:"discard"`
}

// File converts the rule set back to its YAML layout.
func (rs *RuleSet) File() File {
	f := File{Aliases: map[string]string{}}
	for _, e := range rs.Entries() {
		if e.Discard {
			f.Discard = append(f.Discard, e.Key)
			continue
		}
		f.Aliases[e.Key] = e.Label
	}
	return f
}

// MarshalYAML renders the rule set as a rules file.
func (rs *RuleSet) MarshalYAML() (interface{}, error) {
	return rs.File(), nil
}

var defaultAliases = map[string]string{
	"orissa":                    "odisha",
	"pondicherry":               "puducherry",
	"westbengal":                "west bengal",
	"west bengal":               "west bengal",
	"jammu & kashmir":           "jammu and kashmir",
	"andaman & nicobar islands": "andaman and nicobar islands",
	"dadra & nagar haveli":      "dadra and nagar haveli and daman and diu",
	"daman and diu":             "dadra and nagar haveli and daman and diu",
	"daman & diu":               "dadra and nagar haveli and daman and diu",
	"dadra and nagar haveli":    "dadra and nagar haveli and daman and diu",
}

var defaultDiscard = []string{"100000"}

// DefaultRules returns the built-in fix-up table for Indian state and
// union territory names.
func DefaultRules() *RuleSet {
	rs, err := NewRuleSet(defaultAliases, defaultDiscard)
	if err != nil {
		panic(fmt.Sprintf("built-in rules invalid: %v", err))
	}
	return rs
}

// ParseRules decodes a YAML rules file. With extend_defaults the file's
// rules override the built-in ones key by key.
func ParseRules(data []byte) (*RuleSet, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	// validate the file on its own first so conflicts inside it are reported
	own, err := NewRuleSet(f.Aliases, f.Discard)
	if err != nil {
		return nil, err
	}
	if !f.ExtendDefaults {
		return own, nil
	}
	aliases := make(map[string]string, len(defaultAliases)+len(f.Aliases))
	discard := map[string]struct{}{}
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	for _, k := range defaultDiscard {
		discard[k] = struct{}{}
	}
	for _, e := range own.Entries() {
		if e.Discard {
			delete(aliases, e.Key)
			discard[e.Key] = struct{}{}
			continue
		}
		delete(discard, e.Key)
		aliases[e.Key] = e.Label
	}
	dl := make([]string, 0, len(discard))
	for k := range discard {
		dl = append(dl, k)
	}
	sort.Strings(dl)
	return NewRuleSet(aliases, dl)
}

// LoadRules reads a YAML rules file. An empty path yields DefaultRules.
func LoadRules(fs afero.Fs, path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	rs, err := ParseRules(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}
