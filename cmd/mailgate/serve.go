package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/mailgate/internal/web"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = e.close()
			}()

			if listen != "" {
				e.cfg.Server.Listen = listen
			}

			renderer, err := newRenderer(e.cfg.Display)
			if err != nil {
				return err
			}

			oauth := web.NewOAuth(e.cfg.OAuth, e.cfg.Server.PublicURL)
			if oauth == nil {
				e.logger.Warn("oauth client not configured, sign-in disabled")
			}

			srv, err := web.NewServer(web.Deps{
				Repo:     e.repo(),
				Fetcher:  e.apiClient(),
				Renderer: renderer,
				OAuth:    oauth,
				Logger:   e.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e.logger.Info("starting mailgate",
				"listen", e.cfg.Server.Listen,
				"api", e.cfg.API.BaseURL,
				"storage", e.cfg.Storage.Backend,
			)
			return serve(ctx, &http.Server{
				Addr:              e.cfg.Server.Listen,
				Handler:           srv,
				ReadHeaderTimeout: 10 * time.Second,
			}, e)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "override server.listen")
	return cmd
}

// serve runs hs until ctx is done, then shuts it down.
func serve(ctx context.Context, hs *http.Server, e *env) error {
	errc := make(chan error, 1)
	go func() {
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	e.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
