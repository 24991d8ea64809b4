package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/neaspec_go/internal/parser"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>...",
		Short: "Print the dialect of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				variant, err := detectFile(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\n", path, variant)
			}
			return nil
		},
	}
}

func detectFile(path string) (parser.Variant, error) {
	switch parser.ReaderFor(path).(type) {
	case parser.GSFReader:
		if _, err := parser.CompanionPaths(path); err != nil {
			return parser.VariantAuto, err
		}
		return parser.VariantGSF, nil
	case parser.TextReader:
		return parser.DetectVariant(path)
	default:
		return parser.VariantAuto, fmt.Errorf("no reader for %s", path)
	}
}
