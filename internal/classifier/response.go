package classifier

import (
	"strconv"

	"skinsrv/pkg/types"
)

// TopK formats r as {"topK": [{class, prob}, ...]}.
func TopK(r RankedPrediction) types.TopKResponse {
	out := types.TopKResponse{K: len(r.Results), Results: make([]types.ClassProb, len(r.Results)), Fallback: r.Fallback}
	for i, c := range r.Results {
		out.Results[i] = types.ClassProb{Class: c.Class, Prob: c.Prob}
	}
	return out
}

// Summary formats the two-result response: the top two classes, every class
// probability by name, and the uncertainty flag. r must hold at least two
// results and probabilities must be the distribution r was ranked from.
func (b *Bundle) Summary(r RankedPrediction, probabilities []float64) (types.SummaryResponse, error) {
	if len(r.Results) < 2 {
		return types.SummaryResponse{}, ErrInvalidTopK
	}
	all := make(map[string]float64, len(probabilities))
	for i, p := range probabilities {
		name, ok := b.classNames[i]
		if !ok {
			name = strconv.Itoa(i)
		}
		all[name] = p
	}
	return types.SummaryResponse{
		Top1:      types.ClassProb{Class: r.Results[0].Class, Prob: r.Results[0].Prob},
		Top2:      types.ClassProb{Class: r.Results[1].Class, Prob: r.Results[1].Prob},
		AllProbs:  all,
		Uncertain: r.Uncertain,
		Fallback:  r.Fallback,
	}, nil
}
