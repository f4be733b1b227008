package analysis

import (
	"encoding/json"
	"sort"

	"github.com/KaramelBytes/enrolpulse/internal/canon"
	"github.com/KaramelBytes/enrolpulse/internal/enrol"
)

// Entity is one canonical region with its aggregated metric.
type Entity struct {
	Label string `json:"label"`
	Total int64  `json:"total"`
	// Rank is the 1-based position in the full descending ranking.
	Rank int `json:"rank"`
}

// RankedEntity is an Entity inside a top or bottom view.
type RankedEntity struct {
	Entity
	// LocalRank is 1..k in view order.
	LocalRank int `json:"local_rank"`
}

// Pair is one (label, metric) contribution to the aggregate.
type Pair struct {
	Label  string
	Metric int64
}

// Ranking is the full descending list of entities. It is read-only once built.
type Ranking struct {
	entities []Entity
}

// Rank groups pairs by label, sums their metric and orders the groups by
// total descending. Groups start in label order and the sort is stable, so
// equal totals are ranked by label ascending.
func Rank(pairs []Pair) *Ranking {
	sums := map[string]int64{}
	for _, p := range pairs {
		sums[p.Label] += p.Metric
	}
	ents := make([]Entity, 0, len(sums))
	for label, total := range sums {
		ents = append(ents, Entity{Label: label, Total: total})
	}
	sort.Slice(ents, func(i, j int) bool { return ents[i].Label < ents[j].Label })
	sort.SliceStable(ents, func(i, j int) bool { return ents[i].Total > ents[j].Total })
	for i := range ents {
		ents[i].Rank = i + 1
	}
	return &Ranking{entities: ents}
}

// PairsOf derives the metric of each labelled record. Records that fail
// the metric go to handle, which returns nil to skip them. A nil handle
// aborts on the first failure. skipped counts records handle let through.
func PairsOf(labeled []canon.Labeled, handle canon.ErrorHandler) (pairs []Pair, kept []enrol.Record, skipped int, err error) {
	pairs = make([]Pair, 0, len(labeled))
	kept = make([]enrol.Record, 0, len(labeled))
	for _, l := range labeled {
		m, merr := enrol.Metric(l.Record)
		if merr != nil {
			if handle == nil {
				return nil, nil, skipped, merr
			}
			if herr := handle(l.Record, merr); herr != nil {
				return nil, nil, skipped, herr
			}
			skipped++
			continue
		}
		pairs = append(pairs, Pair{Label: l.Label, Metric: m})
		kept = append(kept, l.Record)
	}
	return pairs, kept, skipped, nil
}

// Len is the number of distinct canonical labels.
func (r *Ranking) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entities)
}

// All returns a copy of the full ranking.
func (r *Ranking) All() []Entity {
	if r == nil {
		return nil
	}
	out := make([]Entity, len(r.entities))
	copy(out, r.entities)
	return out
}

// MarshalJSON renders the ranking as a list of entities.
func (r *Ranking) MarshalJSON() ([]byte, error) {
	all := r.All()
	if all == nil {
		all = []Entity{}
	}
	return json.Marshal(all)
}

// Total sums every entity's total.
func (r *Ranking) Total() int64 {
	var sum int64
	for _, e := range r.All() {
		sum += e.Total
	}
	return sum
}

// TopN returns the first k entities renumbered 1..k. Fewer are returned
// when the ranking is shorter than k.
func (r *Ranking) TopN(k int) []RankedEntity {
	if r == nil || k <= 0 {
		return nil
	}
	if k > len(r.entities) {
		k = len(r.entities)
	}
	return renumber(r.entities[:k])
}

// BottomN returns the last k entities, still in descending order, with
// local ranks 1..k following that order. LocalRank 1 is therefore the
// largest total within the tail, not the overall minimum.
func (r *Ranking) BottomN(k int) []RankedEntity {
	if r == nil || k <= 0 {
		return nil
	}
	if k > len(r.entities) {
		k = len(r.entities)
	}
	return renumber(r.entities[len(r.entities)-k:])
}

func renumber(src []Entity) []RankedEntity {
	out := make([]RankedEntity, len(src))
	for i, e := range src {
		out[i] = RankedEntity{Entity: e, LocalRank: i + 1}
	}
	return out
}
