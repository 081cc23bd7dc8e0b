package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"skinsrv/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var (
		addr, backend, modelPath, endpoint, cacheBackend string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP prediction server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			if backend != "" {
				a.cfg.Model.Backend = backend
			}
			if modelPath != "" {
				a.cfg.Model.Path = modelPath
			}
			if endpoint != "" {
				a.cfg.Model.TFServing.Endpoint = endpoint
			}
			if cacheBackend != "" {
				a.cfg.Cache.Backend = cacheBackend
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8000")
	f.StringVar(&backend, "model-backend", "", "Model backend: onnx|tfserving")
	f.StringVar(&modelPath, "model", "", "Path to the .onnx model")
	f.StringVar(&endpoint, "tfserving-endpoint", "", "TensorFlow Serving REST base URL, e.g. http://localhost:8501")
	f.StringVar(&cacheBackend, "cache", "", "Result cache: none|memory|redis")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	svc, err := buildService(ctx, a)
	if err != nil {
		return err
	}
	defer svc.Close()

	cfg := a.cfg
	httpapi.SetLogger(a.log)
	httpapi.SetDefaultLogLevel(cfg.Log.Level)
	httpapi.SetMaxBodyBytes(cfg.MaxUploadBytes())
	httpapi.SetPredictTimeoutSeconds(int64(cfg.Inference.TimeoutSeconds) + 5)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)
	httpapi.SetBaseContext(ctx)

	if !svc.Ready(ctx) {
		a.log.Warn().Str("backend", cfg.Model.Backend).Msg("model not ready at startup; requests will use the fallback until it responds")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", cfg.Addr).Str("backend", cfg.Model.Backend).
			Str("cache", cfg.Cache.Backend).Int("classes", svc.Bundle().NumClasses()).
			Msg("skinsrv listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.log.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
