package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/lease-desk/internal/service/requests"
)

func requestsCmd() *cobra.Command {
	var (
		scope string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List maintenance requests known to the assistant service",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := requests.ParseScope(scope)
			if err != nil {
				return err
			}
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := requests.NewClient(cfg.Assistant.BaseURL, cfg.Session.BearerToken, cfg.Assistant.RequestTimeout, nil)
			records, err := client.Fetch(ctx, parsed, requests.Query{
				TenantEmail: cfg.Session.TenantEmail,
				LeaseID:     cfg.Session.LeaseID,
				Limit:       limit,
			})
			if err != nil {
				return err
			}

			board := requests.NewBoard()
			board.Replace(records)
			printBoard(cmd.OutOrStdout(), board.List())
			stats := board.Stats()
			fmt.Fprintln(cmd.OutOrStdout(), dimColor(fmt.Sprintf("total %d, open %d, in progress %d, resolved %d",
				stats.Total, stats.Open, stats.InProgress, stats.Resolved)))
			return nil
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "tenant", "listing scope: tenant or landlord")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of requests (0 for server default)")
	return cmd
}
