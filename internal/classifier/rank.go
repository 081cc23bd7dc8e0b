package classifier

import (
	"math"
	"sort"
	"strconv"
)

// Uncertainty thresholds applied to the full output distribution.
const (
	UncertainTopThreshold    = 0.60
	UncertainMarginThreshold = 0.10
)

// ClassProb is one ranked class.
type ClassProb struct {
	Index int
	Class string
	Prob  float64
}

// RankedPrediction is the top-K slice of a distribution plus its confidence flag.
type RankedPrediction struct {
	Results   []ClassProb
	Uncertain bool
	// Fallback is set when the distribution was substituted after a model failure.
	Fallback bool
}

// Rank orders probabilities descending (ties keep the lower output index
// first) and returns the first topK, named through classIndex or by the
// decimal index when a name is missing. Uncertain is computed on the whole
// distribution, not the returned slice. No renormalization is applied.
func Rank(probabilities []float64, classIndex map[int]string, topK int) (RankedPrediction, error) {
	if len(probabilities) == 0 {
		return RankedPrediction{}, ErrEmptyDistribution
	}
	if topK < 1 || topK > len(probabilities) {
		return RankedPrediction{}, ErrInvalidTopK
	}
	for _, p := range probabilities {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return RankedPrediction{}, ErrNonFiniteProbability
		}
	}

	order := make([]int, len(probabilities))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probabilities[order[a]] > probabilities[order[b]]
	})

	out := RankedPrediction{Results: make([]ClassProb, topK)}
	for j := 0; j < topK; j++ {
		i := order[j]
		name, ok := classIndex[i]
		if !ok {
			name = strconv.Itoa(i)
		}
		out.Results[j] = ClassProb{Index: i, Class: name, Prob: probabilities[i]}
	}

	top := probabilities[order[0]]
	out.Uncertain = top < UncertainTopThreshold
	if len(order) > 1 && top-probabilities[order[1]] < UncertainMarginThreshold {
		out.Uncertain = true
	}
	return out, nil
}

// Rank ranks against the bundle's class names.
func (b *Bundle) Rank(probabilities []float64, topK int) (RankedPrediction, error) {
	return Rank(probabilities, b.classNames, topK)
}

// Uniform returns an n-wide uniform distribution, the substitute output when
// the model cannot be invoked.
func Uniform(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	p := 1.0 / float64(n)
	for i := range out {
		out[i] = p
	}
	return out
}

// FallbackPrediction ranks a uniform distribution over the bundle's classes.
// The result is always uncertain and marked as a fallback.
func (b *Bundle) FallbackPrediction(topK int) (RankedPrediction, []float64, error) {
	probs := Uniform(b.NumClasses())
	if topK > len(probs) {
		topK = len(probs)
	}
	r, err := b.Rank(probs, topK)
	if err != nil {
		return RankedPrediction{}, nil, err
	}
	r.Uncertain = true
	r.Fallback = true
	return r, probs, nil
}
