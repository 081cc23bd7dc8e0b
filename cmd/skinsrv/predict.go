package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"skinsrv/internal/inference"
)

func (a *app) predictCmd() *cobra.Command {
	var (
		age, sex, site string
		topK           int
		summary        bool
	)
	cmd := &cobra.Command{
		Use:   "predict IMAGE",
		Short: "Classify one image file and print the JSON answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := buildService(ctx, a)
			if err != nil {
				return err
			}
			defer svc.Close()

			req := inference.Request{AnalysisID: uuid.NewString(), Image: img, Age: age, Sex: sex, Site: site, TopK: topK}
			var out any
			if summary {
				out, err = svc.PredictSummary(ctx, req)
			} else {
				out, err = svc.PredictTopK(ctx, req)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&age, "age", "", "Patient age in years")
	f.StringVar(&sex, "sex", "", "Patient sex (male/female and synonyms)")
	f.StringVar(&site, "site", "", "Anatomical site")
	f.IntVar(&topK, "top-k", 0, "Number of classes to return (default from config)")
	f.BoolVar(&summary, "summary", false, "Print top1/top2 with the full distribution")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
