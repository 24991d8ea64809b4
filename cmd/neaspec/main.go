package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/user/neaspec_go/internal/config"
	"github.com/user/neaspec_go/internal/parser"
)

// globalFlags are shared by every subcommand and override the environment.
type globalFlags struct {
	envFile         string
	logLevel        string
	variant         string
	skipUnknown     bool
	requireComplete bool
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "neaspec",
		Short:         "Read NeaSPEC spectral exports into one table",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", "", "load settings from this .env file instead of ./.env")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.variant, "variant", "auto", "force a dialect: auto, v1, v2, multichannel, gsf")
	pf.BoolVar(&flags.skipUnknown, "skip-unknown-channels", false, "drop legacy rows with unknown channel labels")
	pf.BoolVar(&flags.requireComplete, "require-complete", false, "fail when a legacy pixel lacks a run or channel")

	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newReadCmd(flags))
	rootCmd.AddCommand(newReportCmd(flags))
	rootCmd.AddCommand(newBatchCmd(flags))
	return rootCmd
}

// newApp loads the configuration and applies flags set on cmd.
func newApp(cmd *cobra.Command, flags *globalFlags) (*App, error) {
	var cfg *config.Config
	if flags.envFile != "" {
		var err error
		if cfg, err = config.LoadFile(flags.envFile); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Load()
	}

	pf := cmd.Flags()
	if pf.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if pf.Changed("skip-unknown-channels") {
		cfg.SkipUnknownChannels = flags.skipUnknown
	}
	if pf.Changed("require-complete") {
		cfg.RequireCompleteRuns = flags.requireComplete
	}
	zerolog.SetGlobalLevel(cfg.Level())

	app := NewApp(cfg)
	variant, err := parser.ParseVariant(flags.variant)
	if err != nil {
		return nil, err
	}
	app.opts.Variant = variant
	return app, nil
}
