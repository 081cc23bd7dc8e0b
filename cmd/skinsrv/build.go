package main

import (
	"context"
	"fmt"
	"time"

	"skinsrv/internal/cache"
	"skinsrv/internal/classifier"
	"skinsrv/internal/common/fsutil"
	"skinsrv/internal/config"
	"skinsrv/internal/inference"
	"skinsrv/internal/model"
)

// loadBundle reads the artifacts file, or returns the training defaults when
// none is configured.
func loadBundle(cfg config.Config) (*classifier.Bundle, error) {
	if cfg.Artifacts == "" {
		return classifier.FromDocument(classifier.Document{})
	}
	if err := fsutil.RequireFile(cfg.Artifacts); err != nil {
		return nil, fmt.Errorf("artifacts: %w", err)
	}
	return classifier.Load(cfg.Artifacts)
}

// openModel builds the configured backend for bundle.
func openModel(cfg config.Config, bundle *classifier.Bundle) (model.Model, error) {
	w, h := bundle.ImageSize()
	n := bundle.NumClasses()
	switch cfg.Model.Backend {
	case "onnx":
		if err := fsutil.RequireFile(cfg.Model.Path); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		return model.NewONNX(model.ONNXConfig{
			Path:              cfg.Model.Path,
			SharedLibraryPath: cfg.Model.SharedLibrary,
			Inputs:            cfg.Model.Inputs,
			Output:            cfg.Model.Output,
			SiteIndexType:     cfg.Model.SiteIndexType,
			Width:             w,
			Height:            h,
			SexWidth:          len(bundle.SexToIndex()),
			NumClasses:        n,
		})
	case "tfserving":
		tf := cfg.Model.TFServing
		opts := []model.TFServingOption{
			model.WithTFServingInputs(cfg.Model.Inputs),
			model.WithTFServingTimeout(time.Duration(cfg.Inference.TimeoutSeconds) * time.Second),
		}
		if tf.Version != "" {
			opts = append(opts, model.WithTFServingVersion(tf.Version))
		}
		if tf.Signature != "" {
			opts = append(opts, model.WithTFServingSignature(tf.Signature))
		}
		if cfg.Model.Output != "" {
			opts = append(opts, model.WithTFServingOutput(cfg.Model.Output))
		}
		if tf.Token != "" {
			opts = append(opts, model.WithTFServingToken(tf.Token))
		}
		return model.NewTFServing(tf.Endpoint, tf.ModelName, n, opts...), nil
	default:
		return nil, fmt.Errorf("unknown model backend %q", cfg.Model.Backend)
	}
}

// buildService wires bundle, model and cache into an inference.Service.
// Any error here is a configuration error and stops startup.
func buildService(ctx context.Context, a *app) (*inference.Service, error) {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bundle, err := loadBundle(cfg)
	if err != nil {
		return nil, err
	}
	if err := bundle.ValidateOutputs(bundle.NumClasses()); err != nil {
		return nil, err
	}
	m, err := openModel(cfg, bundle)
	if err != nil {
		return nil, err
	}
	c, err := cache.New(ctx, cache.Options{
		Backend:    cfg.Cache.Backend,
		MaxEntries: cfg.Cache.MaxEntries,
		RedisAddr:  cfg.Cache.RedisAddr,
		RedisDB:    cfg.Cache.RedisDB,
		RedisPass:  cfg.Cache.RedisPassword,
		KeyPrefix:  cfg.Cache.KeyPrefix,
	})
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	svc, err := inference.New(inference.Config{
		Bundle:           bundle,
		Model:            m,
		Cache:            c,
		CacheTTL:         time.Duration(cfg.Cache.TTLSeconds) * time.Second,
		DefaultTopK:      cfg.TopK,
		ModelTimeout:     time.Duration(cfg.Inference.TimeoutSeconds) * time.Second,
		ReadyTimeout:     time.Duration(cfg.Inference.ReadyTimeoutSeconds) * time.Second,
		MaxImageBytes:    cfg.MaxUploadBytes(),
		FailOnModelError: !cfg.FallbackOnModelError(),
		MaxConcurrent:    cfg.Inference.MaxConcurrent,
		MaxQueue:         cfg.Inference.MaxQueue,
		QueueWait:        time.Duration(cfg.Inference.QueueWaitMS) * time.Millisecond,
		Publisher:        inference.NewLogPublisher(a.log),
	})
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return svc, nil
}
