package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskview/internal/collector"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <todos.json>",
		Short: "Import tasks from a todos.json file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := collector.NewJSONFileCollector().Collect(cmd.Context(), a.store, args[0])
			if err != nil {
				return fmt.Errorf("import %s (%d imported): %w", args[0], n, err)
			}
			a.log.Info("import done", "path", args[0], "count", n)
			ok(cmd.OutOrStdout(), fmt.Sprintf("imported %d tasks", n))
			return nil
		},
	}
}
