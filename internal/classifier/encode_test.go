package classifier

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeSex_FemaleSynonymsAnyCase(t *testing.T) {
	vocab := map[string]int{"male": 0, "female": 1, "unknown": 2}
	for _, in := range []string{"f", "F", "female", "FEMALE", "mujer", "MUJER", "Female", " Mujer "} {
		idx, oneHot, err := EncodeSex(in, vocab)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if idx != 1 {
			t.Fatalf("%q -> %d, want 1", in, idx)
		}
		if !reflect.DeepEqual(oneHot, []float64{0, 1, 0}) {
			t.Fatalf("%q one-hot=%v", in, oneHot)
		}
	}
}

func TestEncodeSex_MaleSynonymsAnyCase(t *testing.T) {
	vocab := map[string]int{"male": 0, "female": 1, "unknown": 2}
	for _, in := range []string{"m", "M", "male", "MALE", "hombre", "HOMBRE"} {
		if idx, _, err := EncodeSex(in, vocab); err != nil || idx != 0 {
			t.Fatalf("%q -> %d err=%v, want 0", in, idx, err)
		}
	}
}

func TestEncodeSex_Male(t *testing.T) {
	idx, oneHot, err := EncodeSex("Male", map[string]int{"male": 0, "female": 1, "unknown": 2})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if idx != 0 || !reflect.DeepEqual(oneHot, []float64{1, 0, 0}) {
		t.Fatalf("got (%d, %v)", idx, oneHot)
	}
}

func TestEncodeSex_UnrecognizedIsUnknown(t *testing.T) {
	vocab := map[string]int{"male": 0, "female": 1, "unknown": 2}
	for _, in := range []any{"", "x", "other", "fem", "males", "unknown", nil, 42, "N/A"} {
		if idx, _, err := EncodeSex(in, vocab); err != nil || idx != 2 {
			t.Fatalf("%v -> %d err=%v, want unknown (2)", in, idx, err)
		}
	}
}

func TestEncodeSex_FallbackToZeroWithoutUnknown(t *testing.T) {
	idx, oneHot, err := EncodeSex("robot", map[string]int{"male": 1, "female": 0})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if idx != 0 || !reflect.DeepEqual(oneHot, []float64{1, 0}) {
		t.Fatalf("got (%d, %v)", idx, oneHot)
	}
}

func TestEncodeSex_EmptyVocabularyIsConfigError(t *testing.T) {
	_, _, err := EncodeSex("f", map[string]int{})
	if err != ErrEmptySexVocabulary || !IsConfigError(err) {
		t.Fatalf("expected empty vocabulary config error, got %v", err)
	}
}

func TestEncodeSex_IndexOutOfRange(t *testing.T) {
	_, _, err := EncodeSex("female", map[string]int{"female": 5})
	if !IsConfigError(err) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestEncodeSite(t *testing.T) {
	vocab := map[string]int{"head/neck": 0, "other": 1}
	if got := EncodeSite("unknown_site", vocab); got != 1 {
		t.Fatalf("unknown_site -> %d, want 1", got)
	}
	if got := EncodeSite("HEAD/NECK", vocab); got != 0 {
		t.Fatalf("HEAD/NECK -> %d, want 0", got)
	}
	if got := EncodeSite(nil, vocab); got != 1 {
		t.Fatalf("nil -> %d, want 1", got)
	}
	if got := EncodeSite("nowhere", map[string]int{"torso": 3}); got != 0 {
		t.Fatalf("no other entry -> %d, want 0", got)
	}
}

func TestEncodeSite_CaseInsensitiveBothWays(t *testing.T) {
	vocab := map[string]int{"anterior torso": 0, "head/neck": 1, "lower extremity": 2, "other": 3, "palms/soles": 4}
	for _, s := range []string{"Anterior Torso", "head/neck", "LOWER EXTREMITY", "Palms/Soles", "something else", "ÜBER"} {
		a, b, c := EncodeSite(s, vocab), EncodeSite(strings.ToLower(s), vocab), EncodeSite(strings.ToUpper(s), vocab)
		if a != b || b != c {
			t.Fatalf("%q: %d %d %d", s, a, b, c)
		}
	}
}

func TestEncodeSite_NoSynonyms(t *testing.T) {
	vocab := map[string]int{"head/neck": 0, "other": 1}
	if got := EncodeSite("head", vocab); got != 1 {
		t.Fatalf("head -> %d, want other", got)
	}
}

func TestNormalizeAge(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{"not-a-number", 0},
		{"", 0},
		{"NaN", 0},
		{"+Inf", 0},
		{math.NaN(), 0},
		{true, 0},
		{76, 1},
		{"76", 1},
		{" 44 ", -1},
		{int64(60), 0},
		{float32(68), 0.5},
		{json.Number("92"), 2},
		{-20, -5},
		{220, 10},
	}
	for _, c := range cases {
		if got := NormalizeAge(c.in, 60, 16); got != c.want {
			t.Fatalf("NormalizeAge(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizeAge_ZeroStd(t *testing.T) {
	if got := NormalizeAge(65, 60, 0); got != 5 {
		t.Fatalf("got %v, want 5", got)
	}
	if got := NormalizeAge("x", 60, 0); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestBundleEncode(t *testing.T) {
	b := mustParse(t, `{"sex2idx":{"male":0,"female":1,"unknown":2},"site2idx":{"head/neck":0,"lower extremity":1,"other":2},"age_mean":50,"age_std":10}`)
	cases := []struct {
		age, sex, site any
		want           EncodedMetadata
	}{
		{65, "MALE", "head/neck", EncodedMetadata{1.5, 0, []float64{1, 0, 0}, 0}},
		{45, "FEMALE", "Lower Extremity", EncodedMetadata{-0.5, 1, []float64{0, 1, 0}, 1}},
		{"?", "", "", EncodedMetadata{0, 2, []float64{0, 0, 1}, 2}},
	}
	for _, c := range cases {
		got, err := b.Encode(c.age, c.sex, c.site)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("Encode(%v,%v,%v) = %+v, want %+v", c.age, c.sex, c.site, got, c.want)
		}
	}
}

func TestBundleEncode_DoesNotMutateVocabulary(t *testing.T) {
	b := mustParse(t, `{}`)
	before := b.SexToIndex()
	for _, s := range []string{"f", "m", "zzz"} {
		if _, err := b.Encode(30, s, "nowhere"); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if !reflect.DeepEqual(before, b.SexToIndex()) || len(b.SiteToIndex()) != 1 {
		t.Fatalf("vocabulary mutated: %v %v", b.SexToIndex(), b.SiteToIndex())
	}
}
