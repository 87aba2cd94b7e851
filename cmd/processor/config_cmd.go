package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			heading.Fprintln(out, "App configuration:")
			for _, f := range s.cfg.Fields() {
				fmt.Fprintf(out, "   %s: %s\n", f[0], f[1])
			}
			return nil
		},
	}
}
