package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskview/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task list over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, opts.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.store, a.comp, server.Options{
				Logger:    a.log,
				ExportTTL: a.cfg.Export.CacheTTL,
			})
			if err := srv.Watch(a.bus); err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.HTTP.Addr
			}
			a.log.Info("starting server", "driver", a.store.Dialect(), "notices", a.cfg.Notify.Enabled)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	c.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return c
}
