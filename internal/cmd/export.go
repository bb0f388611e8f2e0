package cmd

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"taskview/internal/result"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, out string
	c := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as json, csv or pdf",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if !slices.Contains(result.Formats, format) {
				return fmt.Errorf("unknown format %s (want one of %s)", format, strings.Join(result.Formats, ", "))
			}
			a, err := openApp(cmd.Context(), opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := result.NewExporter(a.store).Export(cmd.Context(), format)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if out == "-" {
				_, err := cmd.OutOrStdout().Write(b)
				return err
			}
			if out == "" {
				out = "tasks." + format
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			ok(cmd.OutOrStdout(), "exported -> "+out)
			return nil
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "json", "export format: json|csv|pdf")
	c.Flags().StringVarP(&out, "out", "o", "", "output path, - for stdout (default tasks.<format>)")
	return c
}
