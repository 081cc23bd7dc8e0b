package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"skinsrv/internal/common/fsutil"
	"skinsrv/internal/config"
)

// checkReport describes runtime checks for the files and services the
// configured backend depends on.
type checkReport struct {
	Artifacts     string `json:"artifacts"`
	Classes       int    `json:"classes,omitempty"`
	Backend       string `json:"backend"`
	ModelFound    bool   `json:"model_found"`
	ModelPath     string `json:"model_path,omitempty"`
	SharedLibrary string `json:"shared_library,omitempty"`
	Ready         bool   `json:"ready"`
	Cache         string `json:"cache"`
	Error         string `json:"error,omitempty"`
}

// sanityCheck inspects cfg without starting a server. It never mutates cfg.
func sanityCheck(cfg config.Config) checkReport {
	r := checkReport{Artifacts: cfg.Artifacts, Backend: cfg.Model.Backend, Cache: cfg.Cache.Backend}
	if r.Artifacts == "" {
		r.Artifacts = "(training defaults)"
	}
	bundle, err := loadBundle(cfg)
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.Classes = bundle.NumClasses()

	switch cfg.Model.Backend {
	case "onnx":
		r.ModelPath = cfg.Model.Path
		if err := fsutil.RequireFile(cfg.Model.Path); err != nil {
			r.Error = err.Error()
			return r
		}
		r.ModelFound = true
		if lib := cfg.Model.SharedLibrary; lib != "" {
			r.SharedLibrary = lib
			if err := fsutil.RequireFile(lib); err != nil {
				r.Error = err.Error()
				return r
			}
		}
	case "tfserving":
		r.ModelPath = cfg.Model.TFServing.Endpoint
		r.ModelFound = true
	}
	return r
}

func (a *app) checkCmd() *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether artifacts, model and runtime are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := sanityCheck(a.cfg)
			if r.Error == "" && probe {
				ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
				defer cancel()
				svc, err := buildService(ctx, a)
				if err != nil {
					r.Error = err.Error()
				} else {
					r.Ready = svc.Ready(ctx)
					if !r.Ready {
						r.Error = svc.Status().LastError
					}
					_ = svc.Close()
				}
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Also open the model and run its readiness probe")
	return cmd
}
