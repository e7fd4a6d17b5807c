package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	wrxengine "github.com/wippyai/wrx-engine"
	"github.com/wippyai/wrx-engine/archive"
	"github.com/wippyai/wrx-engine/engine"
	"github.com/wippyai/wrx-engine/script"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Logger  *zap.Logger
}

// NewRootCommand creates the root command for the wrx CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "wrx",
		Short:         "wrx - scripted application engine",
		Long:          "Runs and inspects wrx applications packaged as a zip archive or a directory.",
		Version:       wrxengine.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(opts.Verbose)
			if err != nil {
				return err
			}
			opts.Logger = log
			engine.SetLogger(log)
			archive.SetLogger(log)
			script.SetLogger(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewLsCommand(opts))
	cmd.AddCommand(NewZ85Command(opts))

	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

func appArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return archive.DefaultName
}
