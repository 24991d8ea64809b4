package main

import (
	"github.com/spf13/cobra"
)

func newReportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "report <file> <pdf>",
		Short: "Analyze a file and write a PDF report with plots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			return app.GenerateReport(cmd.Context(), args[0], args[1])
		},
	}
}
