package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func pairs(kv ...interface{}) []Pair {
	var out []Pair
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Pair{Label: kv[i].(string), Metric: int64(kv[i+1].(int))})
	}
	return out
}

func TestRankGroupsAndOrders(t *testing.T) {
	r := Rank(pairs("odisha", 5, "goa", 1, "odisha", 3, "kerala", 7, "odisha", 2))
	all := r.All()
	want := []Entity{{"odisha", 10, 1}, {"kerala", 7, 2}, {"goa", 1, 3}}
	if fmt.Sprint(all) != fmt.Sprint(want) {
		t.Fatalf("ranking = %v, want %v", all, want)
	}
	if r.Total() != 18 {
		t.Fatalf("total = %d, want 18 (conservation)", r.Total())
	}
}

func TestRankTieBreakIsLabelOrder(t *testing.T) {
	for i := 0; i < 5; i++ {
		r := Rank(pairs("b", 4, "c", 4, "a", 4, "d", 9))
		var labels []string
		for _, e := range r.All() {
			labels = append(labels, e.Label)
		}
		if strings.Join(labels, ",") != "d,a,b,c" {
			t.Fatalf("tie order = %v", labels)
		}
	}
}

func TestRankIsPermutation(t *testing.T) {
	var ps []Pair
	for i := 0; i < 30; i++ {
		ps = append(ps, Pair{Label: fmt.Sprintf("r%02d", i%13), Metric: int64(i * 7 % 11)})
	}
	r := Rank(ps)
	if r.Len() != 13 {
		t.Fatalf("len = %d, want 13", r.Len())
	}
	seen := map[int]bool{}
	prev := int64(1 << 62)
	for _, e := range r.All() {
		if seen[e.Rank] || e.Rank < 1 || e.Rank > 13 {
			t.Fatalf("bad rank %d", e.Rank)
		}
		seen[e.Rank] = true
		if e.Total > prev {
			t.Fatalf("not descending at %v", e)
		}
		prev = e.Total
	}
}

func TestTopAndBottomViews(t *testing.T) {
	var ps []Pair
	for i := 1; i <= 12; i++ {
		ps = append(ps, Pair{Label: fmt.Sprintf("s%02d", i), Metric: int64(i * 100)})
	}
	r := Rank(ps)

	top := r.TopN(10)
	if len(top) != 10 || top[0].Label != "s12" || top[0].LocalRank != 1 || top[9].Label != "s03" || top[9].LocalRank != 10 {
		t.Fatalf("top = %v", top)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Total > top[i-1].Total {
			t.Fatalf("top not non-increasing: %v", top)
		}
	}

	bottom := r.BottomN(10)
	if len(bottom) != 10 {
		t.Fatalf("bottom len = %d", len(bottom))
	}
	// tail of the descending list, renumbered in that order
	if bottom[0].Label != "s10" || bottom[0].LocalRank != 1 || bottom[0].Rank != 3 {
		t.Fatalf("bottom[0] = %+v", bottom[0])
	}
	if bottom[9].Label != "s01" || bottom[9].LocalRank != 10 || bottom[9].Rank != 12 {
		t.Fatalf("bottom[9] = %+v", bottom[9])
	}
}

func TestViewsShortAndEmpty(t *testing.T) {
	r := Rank(pairs("a", 1, "b", 2))
	if len(r.TopN(10)) != 2 || len(r.BottomN(10)) != 2 {
		t.Fatalf("short ranking should return all entities")
	}
	if r.TopN(0) != nil {
		t.Fatalf("k=0 should return nothing")
	}
	empty := Rank(nil)
	if empty.Len() != 0 || len(empty.TopN(10)) != 0 || len(empty.BottomN(10)) != 0 {
		t.Fatalf("empty input should give empty ranking")
	}
	b, err := json.Marshal(empty)
	if err != nil || string(b) != "[]" {
		t.Fatalf("empty ranking json = %s, %v", b, err)
	}
}
