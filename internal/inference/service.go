package inference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"skinsrv/internal/classifier"
	"skinsrv/pkg/types"
)

// Service answers prediction requests against one bundle and one model.
// It is safe for concurrent use.
type Service struct {
	cfg    Config
	bundle *classifier.Bundle

	flight singleflight.Group
	admit  *admission

	predictions atomic.Uint64
	fallbacks   atomic.Uint64
	cacheHits   atomic.Uint64
	rejected    atomic.Uint64

	mu        sync.RWMutex
	ready     bool
	lastError string

	startTime time.Time
}

// New validates cfg and returns a Service. The bundle must already be
// validated against the model's output length by the caller.
func New(cfg Config) (*Service, error) {
	if cfg.Bundle == nil {
		return nil, errors.New("inference: bundle is required")
	}
	if cfg.Model == nil {
		return nil, errors.New("inference: model is required")
	}
	cfg = cfg.withDefaults()
	if n := cfg.Bundle.NumClasses(); cfg.DefaultTopK > n {
		cfg.DefaultTopK = n
	}
	return &Service{
		cfg:       cfg,
		bundle:    cfg.Bundle,
		admit:     newAdmission(cfg.MaxConcurrent, cfg.MaxQueue, cfg.QueueWait),
		startTime: time.Now(),
	}, nil
}

// SetEventPublisher replaces the event sink; nil restores the no-op sink.
func (s *Service) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.mu.Lock()
	s.cfg.Publisher = p
	s.mu.Unlock()
}

func (s *Service) publish(e Event) {
	s.mu.RLock()
	p := s.cfg.Publisher
	s.mu.RUnlock()
	p.Publish(e)
}

// Bundle returns the artifact bundle the service encodes and ranks with.
func (s *Service) Bundle() *classifier.Bundle { return s.bundle }

// Ready probes the model backend and remembers the outcome for Status.
func (s *Service) Ready(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ReadyTimeout)
	defer cancel()
	err := s.cfg.Model.Ready(ctx)
	s.mu.Lock()
	s.ready = err == nil
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()
	return err == nil
}

func (s *Service) recordModelError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// Status reports counters and the last known backend state.
func (s *Service) Status() types.StatusResponse {
	s.mu.RLock()
	ready, lastErr := s.ready, s.lastError
	s.mu.RUnlock()
	running, waiting := s.admit.inFlight()
	cacheName := "none"
	if s.cfg.Cache != nil {
		cacheName = s.cfg.Cache.Name()
	}
	return types.StatusResponse{
		Backend:          s.cfg.Model.Name(),
		Ready:            ready,
		Classes:          s.bundle.NumClasses(),
		Cache:            cacheName,
		PredictionsTotal: s.predictions.Load(),
		FallbacksTotal:   s.fallbacks.Load(),
		CacheHitsTotal:   s.cacheHits.Load(),
		InFlight:         running,
		Queued:           waiting,
		RejectedTotal:    s.rejected.Load(),
		LastError:        lastErr,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
}

// Vocabulary lists what the encoder recognizes and what the model outputs.
func (s *Service) Vocabulary() types.VocabularyResponse {
	w, h := s.bundle.ImageSize()
	return types.VocabularyResponse{
		Sexes:       s.bundle.Sexes(),
		Sites:       s.bundle.Sites(),
		Classes:     s.bundle.Classes(),
		ImageWidth:  w,
		ImageHeight: h,
	}
}

// Close releases the model and the cache.
func (s *Service) Close() error {
	var errs []error
	if err := s.cfg.Model.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
