package main

import (
	"github.com/spf13/cobra"

	"github.com/user/neaspec_go/internal/export"
)

func newReadCmd(flags *globalFlags) *cobra.Command {
	var formatName string
	var output string

	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Read a file and write the assembled table as TSV or JSON",
		Long: `Read a NeaSPEC export and write the assembled table.

Legacy (.nea, .txt), modern v2, multichannel and raw GSF measurements are
supported. For GSF pass either channel file; the other channel and the
HTML report are found next to it.

Without --output the table is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			_, err = app.Convert(args[0], output, format)
			return err
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "tsv", "output format: tsv or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
