package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/wrx-engine/z85"
)

// NewZ85Command creates the z85 command group.
func NewZ85Command(_ *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "z85",
		Short: "Z85 encode or decode data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "encode",
		Short: "Encode stdin as Z85 text (length must be a multiple of 4)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			s, err := z85.Encode(data)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "decode [text]",
		Short: "Decode Z85 text from the argument or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}
			b, err := z85.Decode(strings.TrimSpace(text))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	})

	return cmd
}
