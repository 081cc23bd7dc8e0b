package classifier

import (
	"math"
	"reflect"
	"testing"
)

var isic4 = map[int]string{0: "MEL", 1: "NV", 2: "BCC", 3: "BKL"}

func TestRank_ConfidentTopTwo(t *testing.T) {
	r, err := Rank([]float64{0.1, 0.7, 0.15, 0.05}, isic4, 2)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	want := []ClassProb{{Index: 1, Class: "NV", Prob: 0.7}, {Index: 2, Class: "BCC", Prob: 0.15}}
	if !reflect.DeepEqual(r.Results, want) {
		t.Fatalf("results=%+v", r.Results)
	}
	if r.Uncertain {
		t.Fatalf("expected certain prediction")
	}
}

func TestRank_LowTopIsUncertain(t *testing.T) {
	r, err := Rank([]float64{0.4, 0.35, 0.15, 0.10}, isic4, 2)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if !r.Uncertain {
		t.Fatalf("expected uncertain (top=0.4)")
	}
}

func TestRank_SmallMarginIsUncertain(t *testing.T) {
	cases := []struct {
		probs     []float64
		uncertain bool
	}{
		{[]float64{0.02, 0.65, 0.30, 0.03}, false},
		{[]float64{0.00, 0.70, 0.25, 0.05}, false},
		{[]float64{0.05, 0.65, 0.30, 0.00}, false},
		{[]float64{0.30, 0.65, 0.60, 0.00}, true},
		{[]float64{0.00, 0.61, 0.55, 0.00}, true},
	}
	for _, c := range cases {
		// top_k=1 still compares against the runner-up in the full distribution
		r, err := Rank(c.probs, isic4, 1)
		if err != nil {
			t.Fatalf("rank: %v", err)
		}
		if len(r.Results) != 1 || r.Results[0].Class != "NV" {
			t.Fatalf("%v: results=%+v", c.probs, r.Results)
		}
		if r.Uncertain != c.uncertain {
			t.Fatalf("%v: uncertain=%v, want %v", c.probs, r.Uncertain, c.uncertain)
		}
	}
}

func TestRank_TiesKeepOutputOrder(t *testing.T) {
	r, err := Rank([]float64{0.25, 0.25, 0.25, 0.25}, isic4, 4)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	for i, c := range r.Results {
		if c.Index != i {
			t.Fatalf("position %d holds index %d", i, c.Index)
		}
	}
	if !r.Uncertain {
		t.Fatalf("uniform distribution must be uncertain")
	}
}

func TestRank_MissingNameUsesIndex(t *testing.T) {
	r, err := Rank([]float64{0.1, 0.9}, map[int]string{0: "MEL"}, 2)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if r.Results[0].Class != "1" || r.Results[1].Class != "MEL" {
		t.Fatalf("results=%+v", r.Results)
	}
}

func TestRank_SingleClass(t *testing.T) {
	r, err := Rank([]float64{0.9}, map[int]string{0: "NV"}, 1)
	if err != nil || r.Uncertain {
		t.Fatalf("single confident class: %+v err=%v", r, err)
	}
}

func TestRank_Errors(t *testing.T) {
	if _, err := Rank(nil, isic4, 1); err != ErrEmptyDistribution {
		t.Fatalf("empty: %v", err)
	}
	for _, k := range []int{0, -1, 5} {
		if _, err := Rank([]float64{0.1, 0.2, 0.3, 0.4}, isic4, k); err != ErrInvalidTopK {
			t.Fatalf("top_k=%d: %v", k, err)
		}
	}
	if _, err := Rank([]float64{0.5, math.NaN()}, isic4, 1); err != ErrNonFiniteProbability {
		t.Fatalf("NaN: %v", err)
	}
	if _, err := Rank([]float64{math.Inf(1), 0}, isic4, 1); err != ErrNonFiniteProbability {
		t.Fatalf("Inf: %v", err)
	}
}

func TestRank_NoRenormalization(t *testing.T) {
	r, err := Rank([]float64{2, 8}, map[int]string{0: "a", 1: "b"}, 2)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if r.Results[0].Prob != 8 || r.Results[1].Prob != 2 {
		t.Fatalf("probabilities changed: %+v", r.Results)
	}
}

func TestUniform(t *testing.T) {
	if Uniform(0) != nil {
		t.Fatalf("expected nil for n=0")
	}
	u := Uniform(4)
	if len(u) != 4 || u[0] != 0.25 || u[3] != 0.25 {
		t.Fatalf("uniform=%v", u)
	}
}

func TestFallbackPrediction(t *testing.T) {
	b := mustParse(t, `{}`)
	r, probs, err := b.FallbackPrediction(3)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if !r.Uncertain || !r.Fallback || len(r.Results) != 3 || len(probs) != 4 {
		t.Fatalf("fallback=%+v probs=%v", r, probs)
	}
	if r.Results[0].Class != "MEL" || r.Results[0].Prob != 0.25 {
		t.Fatalf("first=%+v", r.Results[0])
	}
	// single class bundle is still flagged
	one := mustParse(t, `{"idx2class":{"0":"NV"}}`)
	r, _, err = one.FallbackPrediction(3)
	if err != nil || !r.Uncertain || len(r.Results) != 1 {
		t.Fatalf("single-class fallback=%+v err=%v", r, err)
	}
}

func TestRank_Deterministic(t *testing.T) {
	probs := []float64{0.2, 0.3, 0.3, 0.2}
	first, _ := Rank(probs, isic4, 4)
	for i := 0; i < 20; i++ {
		again, _ := Rank(probs, isic4, 4)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("non-deterministic ranking: %+v vs %+v", first, again)
		}
	}
}
