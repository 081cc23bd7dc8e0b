package classifier

import (
	"encoding/json"
	"testing"
)

func TestTopK_JSONShape(t *testing.T) {
	r, err := Rank([]float64{0.1, 0.7, 0.15, 0.05}, isic4, 3)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	b, err := json.Marshal(TopK(r))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"top3":[{"class":"NV","prob":0.7},{"class":"BCC","prob":0.15},{"class":"MEL","prob":0.1}]}`
	if string(b) != want {
		t.Fatalf("got %s\nwant %s", b, want)
	}
}

func TestSummary(t *testing.T) {
	bundle := mustParse(t, `{}`)
	probs := []float64{0.1, 0.7, 0.15, 0.05}
	r, err := bundle.Rank(probs, 2)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	s, err := bundle.Summary(r, probs)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Top1.Class != "NV" || s.Top1.Prob != 0.7 || s.Top2.Class != "BCC" || s.Uncertain {
		t.Fatalf("summary=%+v", s)
	}
	if len(s.AllProbs) != 4 || s.AllProbs["BKL"] != 0.05 {
		t.Fatalf("all_probs=%v", s.AllProbs)
	}
	b, _ := json.Marshal(s)
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("json: %v", err)
	}
	for _, k := range []string{"top1", "top2", "all_probs", "uncertain"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %q in %s", k, b)
		}
	}
	if _, ok := m["fallback"]; ok {
		t.Fatalf("fallback key should be omitted: %s", b)
	}
}

func TestSummary_NeedsTwoResults(t *testing.T) {
	bundle := mustParse(t, `{}`)
	r, _ := bundle.Rank([]float64{0.1, 0.7, 0.15, 0.05}, 1)
	if _, err := bundle.Summary(r, nil); err != ErrInvalidTopK {
		t.Fatalf("expected ErrInvalidTopK, got %v", err)
	}
}
