package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) artifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect preprocessing artifacts",
	}
	var outputs int
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load the artifacts and check them against a model output size",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := loadBundle(a.cfg)
			if err != nil {
				return err
			}
			n := outputs
			if n <= 0 {
				n = bundle.NumClasses()
			}
			if err := bundle.ValidateOutputs(n); err != nil {
				return err
			}
			w, h := bundle.ImageSize()
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d classes, image %dx%d, %d sexes, %d sites\n",
				bundle.NumClasses(), w, h, len(bundle.Sexes()), len(bundle.Sites()))
			return nil
		},
	}
	validate.Flags().IntVar(&outputs, "outputs", 0, "Model output width to check against (default: class count)")
	cmd.AddCommand(validate)
	return cmd
}
