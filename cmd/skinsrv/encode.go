package main

import (
	"github.com/spf13/cobra"
)

func (a *app) encodeCmd() *cobra.Command {
	var age, sex, site string
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the encoded metadata the model would receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := loadBundle(a.cfg)
			if err != nil {
				return err
			}
			enc, err := bundle.Encode(age, sex, site)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), enc)
		},
	}
	f := cmd.Flags()
	f.StringVar(&age, "age", "", "Patient age in years")
	f.StringVar(&sex, "sex", "", "Patient sex")
	f.StringVar(&site, "site", "", "Anatomical site")
	return cmd
}
