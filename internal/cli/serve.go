package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/virti1331/cc-statement-parser/internal/api"
)

func newServeCommand(root *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.open()
			if err != nil {
				return err
			}
			defer s.close()

			if addr == "" {
				addr = s.cfg.Server.Addr
			}
			app := api.NewApp(
				&api.Handler{Pipeline: s.pipe, Log: s.log, Version: Version},
				api.Options{
					MaxUploadMB:  s.cfg.Server.MaxUploadMB,
					AllowOrigins: s.cfg.Server.AllowOrigins,
				},
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() { errc <- app.Listen(addr) }()

			infoColor.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", addr)
			s.log.Info("server started", zap.String("addr", addr))

			select {
			case err := <-errc:
				if err != nil {
					return WrapExitError(ExitFailure, "server stopped", err)
				}
				return nil
			case <-ctx.Done():
			}

			s.log.Info("shutting down")
			if err := app.ShutdownWithContext(context.Background()); err != nil {
				return WrapExitError(ExitFailure, "shutdown", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from server.addr)")
	return cmd
}
