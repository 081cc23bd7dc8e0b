package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"skinsrv/internal/cache"
	"skinsrv/internal/classifier"
	"skinsrv/internal/model"
	"skinsrv/pkg/types"
)

// Request is one upload. Metadata values are passed through to the encoder
// unchanged; TopK 0 selects the configured default.
type Request struct {
	AnalysisID string
	Image      []byte
	Age        any
	Sex        any
	Site       any
	TopK       int
}

// FromTypes converts the HTTP form representation.
func FromTypes(analysisID string, r types.PredictRequest) Request {
	return Request{AnalysisID: analysisID, Image: r.Image, Age: r.Age, Sex: r.Sex, Site: r.Site, TopK: r.TopK}
}

// Result is a ranked prediction plus the distribution it was ranked from.
type Result struct {
	Ranked        classifier.RankedPrediction
	Probabilities []float64
	Metadata      classifier.EncodedMetadata
	Cached        bool
}

// Predict runs the full flow for req. Malformed metadata never fails a
// request; an undecodable image does. Model failures are answered with the
// uniform fallback unless FailOnModelError is set.
func (s *Service) Predict(ctx context.Context, req Request) (Result, error) {
	topK, err := s.topK(req.TopK)
	if err != nil {
		return Result{}, err
	}
	if int64(len(req.Image)) > s.cfg.MaxImageBytes {
		return Result{}, imageTooLargeError{limit: s.cfg.MaxImageBytes}
	}
	if len(req.Image) == 0 {
		return Result{}, ErrInvalidRequest("file is required")
	}

	meta, err := s.bundle.Encode(req.Age, req.Sex, req.Site)
	if err != nil {
		// the bundle was validated at load; this is a configuration bug
		return Result{}, fmt.Errorf("encode metadata: %w", err)
	}
	w, h := s.bundle.ImageSize()
	pixels, err := model.Preprocess(req.Image, w, h)
	if err != nil {
		if errors.Is(err, model.ErrInvalidImage) {
			return Result{}, ErrInvalidRequest(err.Error())
		}
		return Result{}, err
	}
	batch := model.Batch{
		Image:     pixels,
		Width:     w,
		Height:    h,
		Age:       float32(meta.AgeNormalized),
		SexOneHot: toFloat32(meta.SexOneHot),
		SiteIndex: int64(meta.SiteIndex),
	}

	key := s.cacheKey(req.Image, meta)
	probs, cached := s.cacheGet(ctx, key)
	if cached {
		s.cacheHits.Add(1)
		s.publish(Event{Name: EventCacheHit, AnalysisID: req.AnalysisID})
	} else {
		release, aerr := s.admit.begin(ctx)
		if aerr != nil {
			if IsTooBusy(aerr) {
				s.rejected.Add(1)
				rejectedTotal.Inc()
			}
			return Result{}, aerr
		}
		probs, err = s.invoke(ctx, key, batch)
		release()
	}

	var ranked classifier.RankedPrediction
	if err == nil {
		ranked, err = s.bundle.Rank(probs, topK)
		if err != nil {
			err = fmt.Errorf("rank model output: %w", err)
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		s.recordModelError(err)
		s.publish(Event{Name: EventModelError, AnalysisID: req.AnalysisID, Fields: map[string]any{
			"backend": s.cfg.Model.Name(), "error": err.Error(),
		}})
		if s.cfg.FailOnModelError {
			return Result{}, modelError{err: err, unavailable: isUnavailable(err)}
		}
		ranked, probs, err = s.bundle.FallbackPrediction(topK)
		if err != nil {
			return Result{}, err
		}
		s.fallbacks.Add(1)
		fallbacksTotal.WithLabelValues(s.cfg.Model.Name()).Inc()
		s.publish(Event{Name: EventFallback, AnalysisID: req.AnalysisID})
	} else if !cached {
		s.cacheSet(ctx, key, probs)
	}

	s.predictions.Add(1)
	predictionsTotal.WithLabelValues(ranked.Results[0].Class).Inc()
	if ranked.Uncertain {
		uncertainTotal.Inc()
	}
	s.publish(Event{Name: EventPrediction, AnalysisID: req.AnalysisID, Fields: map[string]any{
		"class":     ranked.Results[0].Class,
		"prob":      ranked.Results[0].Prob,
		"uncertain": ranked.Uncertain,
		"fallback":  ranked.Fallback,
		"cached":    cached,
	}})
	return Result{Ranked: ranked, Probabilities: probs, Metadata: meta, Cached: cached}, nil
}

// PredictTopK answers POST /predict.
func (s *Service) PredictTopK(ctx context.Context, req Request) (types.TopKResponse, error) {
	res, err := s.Predict(ctx, req)
	if err != nil {
		return types.TopKResponse{}, err
	}
	return classifier.TopK(res.Ranked), nil
}

// PredictSummary answers POST /predict/summary; TopK is ignored.
func (s *Service) PredictSummary(ctx context.Context, req Request) (types.SummaryResponse, error) {
	if s.bundle.NumClasses() < 2 {
		return types.SummaryResponse{}, ErrInvalidRequest("summary needs at least two classes")
	}
	req.TopK = 2
	res, err := s.Predict(ctx, req)
	if err != nil {
		return types.SummaryResponse{}, err
	}
	return s.bundle.Summary(res.Ranked, res.Probabilities)
}

func (s *Service) topK(k int) (int, error) {
	if k == 0 {
		return s.cfg.DefaultTopK, nil
	}
	if n := s.bundle.NumClasses(); k < 1 || k > n {
		return 0, ErrInvalidRequest(fmt.Sprintf("top_k must be between 1 and %d", n))
	}
	return k, nil
}

// invoke calls the model once per key; concurrent identical uploads share
// the call. The call is detached from the caller's cancellation and bounded
// by ModelTimeout so a departing client does not fail the others.
func (s *Service) invoke(ctx context.Context, key string, b model.Batch) ([]float64, error) {
	ch := s.flight.DoChan(key, func() (any, error) {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ModelTimeout)
		defer cancel()
		start := time.Now()
		probs, err := s.cfg.Model.Predict(mctx, b)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		modelLatency.WithLabelValues(s.cfg.Model.Name(), outcome).Observe(time.Since(start).Seconds())
		return probs, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		shared := r.Val.([]float64)
		return append([]float64(nil), shared...), nil
	}
}

// cacheKey digests the model name, the raw image and the encoded metadata.
func (s *Service) cacheKey(image []byte, m classifier.EncodedMetadata) string {
	h := sha256.New()
	h.Write([]byte(s.cfg.Model.Name()))
	h.Write([]byte{0})
	h.Write(image)
	h.Write([]byte{0})
	fmt.Fprintf(h, "%s|%d|%d", strconv.FormatFloat(m.AgeNormalized, 'g', -1, 64), m.SexIndex, m.SiteIndex)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]float64, bool) {
	if s.cfg.Cache == nil {
		return nil, false
	}
	data, err := s.cfg.Cache.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrNotFound):
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	case err != nil:
		cacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	var probs []float64
	if err := json.Unmarshal(data, &probs); err != nil || len(probs) != s.bundle.NumClasses() {
		cacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	cacheLookups.WithLabelValues("hit").Inc()
	return probs, true
}

func (s *Service) cacheSet(ctx context.Context, key string, probs []float64) {
	if s.cfg.Cache == nil {
		return
	}
	data, err := json.Marshal(probs)
	if err != nil {
		return
	}
	// a failed write only costs a future model call
	_ = s.cfg.Cache.Set(ctx, key, data, s.cfg.CacheTTL)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *model.StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusServiceUnavailable || se.Code == http.StatusNotFound
	}
	var ne net.Error
	return errors.As(err, &ne)
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
