package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/user/neaspec_go/internal/export"
)

func newBatchCmd(flags *globalFlags) *cobra.Command {
	var formatName string
	var workers int
	var reports bool

	cmd := &cobra.Command{
		Use:   "batch <input-dir> <output-dir>",
		Short: "Convert every measurement under a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			app, err := newApp(cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				app.cfg.WorkerCount = workers
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tasks, err := app.Batch(ctx, args[0], args[1], format, reports)
			if err != nil {
				return err
			}

			failed := 0
			for _, t := range tasks {
				if t.Err != nil {
					failed++
					log.Error().Err(t.Err).Str("file", t.Input.Path).Msg("Conversion failed")
					continue
				}
				log.Info().Str("file", t.Input.Path).Str("output", t.Result.Output).Int("rows", t.Result.Rows).Msg("Converted")
			}
			log.Info().Int("total", len(tasks)).Int("failed", failed).Msg("Batch complete")
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(tasks))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "tsv", "output format: tsv or json")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of parallel workers (default NEASPEC_WORKERS or CPU count)")
	cmd.Flags().BoolVar(&reports, "reports", false, "also write a PDF report per file")
	return cmd
}
