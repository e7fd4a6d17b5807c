package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wippyai/wrx-engine/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Frames int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [app]",
		Short: "Run an application",
		Long: `Mount an application, boot its script and run the frame loop until
interrupted. Without an argument go.wrx.zip in the working directory is used.

Example:
  wrx run game.zip
  wrx run ./game --frames 60`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts, appArg(args))
		},
	}

	cmd.Flags().IntVar(&opts.Frames, "frames", 0, "stop after this many frames (0 runs until interrupted)")

	return cmd
}

func runApp(cmd *cobra.Command, opts *RunOptions, app string) error {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	eng, err := engine.New(engine.Options{
		Logger: opts.Logger,
		OnEmit: func(msg string) { fmt.Fprintln(out, msg) },
	})
	if err != nil {
		return err
	}
	defer eng.Close(context.Background())

	if err := eng.Start(ctx, app); err != nil {
		return fmt.Errorf("start %s: %w", app, err)
	}

	if opts.Frames > 0 {
		for i := 0; i < opts.Frames; i++ {
			if err := eng.Update(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
		return nil
	}
	return eng.Run(ctx)
}
