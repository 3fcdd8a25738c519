package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/lease-desk/internal/handler"
	"github.com/zhouzirui/lease-desk/internal/model/quickaction"
	"github.com/zhouzirui/lease-desk/internal/service/requests"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console API for a browser front end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(addr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := newApp(cfg)
			defer a.Close()

			deps := handler.Deps{
				Coordinator:  a.coord,
				QuickActions: quickaction.NewMemoryStore(quickaction.Seed()),
				Board:        a.board,
				Requests:     a.listings,
				Session: requests.Query{
					TenantEmail: cfg.Session.TenantEmail,
					LeaseID:     cfg.Session.LeaseID,
				},
				Hub:         a.hub,
				WaitTimeout: cfg.Assistant.RequestTimeout,
			}
			if a.speech != nil {
				deps.Speech = a.speech
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           handler.NewRouter(deps),
				ReadHeaderTimeout: 5 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			log.Info().Str("addr", srv.Addr).Msg("Lease Desk console listening")
			return runServer(ctx, srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address or port (overrides DESK_PORT)")
	return cmd
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
