package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EncodedMetadata is the model-ready form of one request's patient metadata.
type EncodedMetadata struct {
	AgeNormalized float64   `json:"age_normalized"`
	SexIndex      int       `json:"sex_index"`
	SexOneHot     []float64 `json:"sex_one_hot"`
	SiteIndex     int       `json:"site_index"`
}

var (
	femaleSynonyms = map[string]struct{}{"f": {}, "female": {}, "mujer": {}}
	maleSynonyms   = map[string]struct{}{"m": {}, "male": {}, "hombre": {}}
)

// NormalizeAge returns (age - mean) / std. Inputs that do not convert to a
// finite number are replaced by mean, so an unknown age encodes as 0.0. A
// zero std divides by 1. Out-of-range ages are not clamped.
func NormalizeAge(input any, mean, std float64) float64 {
	age, ok := toFloat(input)
	if !ok {
		age = mean
	}
	if std == 0 {
		std = 1
	}
	return (age - mean) / std
}

// EncodeSex canonicalizes input to lower case, folds the recognized synonyms
// onto "female"/"male" (everything else is "unknown") and returns the resolved
// index with its one-hot vector. A key missing from sexToIndex resolves to the
// "unknown" entry, then to index 0.
func EncodeSex(input any, sexToIndex map[string]int) (int, []float64, error) {
	if len(sexToIndex) == 0 {
		return 0, nil, ErrEmptySexVocabulary
	}
	key := canonicalSex(canonical(toString(input)))
	idx, ok := sexToIndex[key]
	if !ok {
		idx, ok = sexToIndex[UnknownSex]
		if !ok {
			idx = 0
		}
	}
	if idx < 0 || idx >= len(sexToIndex) {
		return 0, nil, fmt.Errorf("sex %q -> %d: %w", key, idx, ErrSexIndexOutOfRange)
	}
	oneHot := make([]float64, len(sexToIndex))
	oneHot[idx] = 1.0
	return idx, oneHot, nil
}

// EncodeSite lower-cases input and looks it up by exact match, falling back to
// the "other" entry and then to index 0. Sites have no synonyms.
func EncodeSite(input any, siteToIndex map[string]int) int {
	if idx, ok := siteToIndex[canonical(toString(input))]; ok {
		return idx
	}
	if idx, ok := siteToIndex[OtherSite]; ok {
		return idx
	}
	return 0
}

// Encode runs the three encoders against the bundle's vocabularies.
func (b *Bundle) Encode(age, sex, site any) (EncodedMetadata, error) {
	sexIdx, oneHot, err := EncodeSex(sex, b.sexToIndex)
	if err != nil {
		return EncodedMetadata{}, err
	}
	return EncodedMetadata{
		AgeNormalized: NormalizeAge(age, b.ageMean, b.ageStd),
		SexIndex:      sexIdx,
		SexOneHot:     oneHot,
		SiteIndex:     EncodeSite(site, b.siteToIndex),
	}, nil
}

func canonicalSex(s string) string {
	if _, ok := femaleSynonyms[s]; ok {
		return "female"
	}
	if _, ok := maleSynonyms[s]; ok {
		return "male"
	}
	return UnknownSex
}

// canonical is the single case policy for every vocabulary lookup.
func canonical(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case *float64:
		if t == nil {
			return 0, false
		}
		f = *t
	case json.Number:
		p, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
