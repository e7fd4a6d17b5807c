package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/wrx-engine/archive"
	"github.com/wippyai/wrx-engine/config"
)

// LsOptions holds flags for the ls command.
type LsOptions struct {
	*RootOptions
	Config bool
}

// NewLsCommand creates the ls command.
func NewLsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ls [app]",
		Short: "List the files of an application",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listApp(cmd, opts, appArg(args))
		},
	}

	cmd.Flags().BoolVar(&opts.Config, "config", false, "print the resolved configuration instead")

	return cmd
}

func listApp(cmd *cobra.Command, opts *LsOptions, app string) error {
	arc, err := archive.Open(app)
	if err != nil {
		return err
	}
	defer arc.Close()

	out := cmd.OutOrStdout()
	if opts.Config {
		cfg, err := config.Load(arc.FS())
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	names, err := arc.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(out, name)
	}
	return nil
}
