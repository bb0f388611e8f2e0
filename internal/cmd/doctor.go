package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskview/internal/matcher"
	"taskview/internal/scanner"
)

func newDoctorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the configured store backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := scanner.Scan(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			n, err := a.store.CountTasks(cmd.Context())
			if err != nil {
				return err
			}
			res := matcher.Match(b)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend: %s %s (%s)\n", b.Vendor, b.Product, b.Dialect)
			fmt.Fprintf(out, "Version: %s\n", b.Version)
			fmt.Fprintf(out, "Tasks: %d\n", n)
			if !res.Supported {
				return fmt.Errorf("%s %s is older than the supported minimum %s", b.Product, b.Version, res.Minimum)
			}
			ok(out, "store backend supported")
			return nil
		},
	}
}
