package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"qrprompt/internal/config"
	"qrprompt/internal/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API and websocket until interrupted",
		Long: `Serves the REST API and the websocket feed of one session.

With --watch, edits to the configuration file update the target catalog,
the score threshold and the compile options of the running session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Server
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl := newController(a)
			srv := server.New(cfg, ctrl, a.tr)

			g, gctx := errgroup.WithContext(ctx)
			if watch {
				w, err := config.NewWatcher(a.cfgPath, func(c *config.Config) {
					ctrl.UpdateConfig(sessionConfigFor(c))
				})
				if err != nil {
					return err
				}
				g.Go(func() error { return w.Run(gctx) })
			}
			g.Go(func() error { return srv.Run(gctx) })

			fmt.Fprintf(cmd.OutOrStdout(), "qrprompt listening on http://%s\n", strings.TrimPrefix(cfg.Addr, "http://"))
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload targets and compile options when the config file changes")
	return cmd
}
