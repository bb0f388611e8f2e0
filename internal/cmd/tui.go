package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"taskview/internal/tui"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse and edit tasks in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stderr belongs to the alternate screen; only log.dir receives logs
			a, err := openApp(cmd.Context(), opts.cfg, io.Discard)
			if err != nil {
				return err
			}
			defer a.Close()
			return tui.Run(cmd.Context(), a.comp)
		},
	}
}
