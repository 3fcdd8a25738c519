package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/lease-desk/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist local settings",
	}
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configSetBaseCmd())
	cmd.AddCommand(configSetSessionCmd())
	return cmd
}

func settingsPath() string {
	if strings.TrimSpace(settingsFlag) != "" {
		return settingsFlag
	}
	if env := strings.TrimSpace(os.Getenv("DESK_SETTINGS_FILE")); env != "" {
		return env
	}
	return config.DefaultSettingsPath()
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			cred := config.InspectCredential(cfg.Session.BearerToken)
			fmt.Fprintf(out, "settings:     %s\n", cfg.SettingsPath)
			fmt.Fprintf(out, "assistant:    %s\n", cfg.Assistant.BaseURL)
			fmt.Fprintf(out, "tenant:       %s\n", cfg.Session.TenantEmail)
			fmt.Fprintf(out, "lease:        %d\n", cfg.Session.LeaseID)
			fmt.Fprintf(out, "credential:   present=%t jwt=%t\n", cred.Present, cred.JWT)
			fmt.Fprintf(out, "tts:          enabled=%t format=%s player=%q\n", cfg.Speech.Enabled, cfg.Speech.Format, strings.Join(cfg.Speech.PlayerCommand, " "))
			fmt.Fprintf(out, "console addr: %s\n", cfg.Server.Addr)
			return nil
		},
	}
}

func configSetBaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-base <url>",
		Short: "Persist the assistant service base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settingsPath()
			s, err := config.LoadSettings(path)
			if err != nil {
				return err
			}
			s.BaseURL = args[0]
			if err := config.SaveSettings(path, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "base URL saved to %s\n", path)
			return nil
		},
	}
}

func configSetSessionCmd() *cobra.Command {
	var (
		email string
		lease int
	)
	cmd := &cobra.Command{
		Use:   "set-session",
		Short: "Persist the tenant email and lease id",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := settingsPath()
			s, err := config.LoadSettings(path)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("email") {
				s.TenantEmail = strings.TrimSpace(email)
			}
			if cmd.Flags().Changed("lease") {
				if lease <= 0 {
					return fmt.Errorf("--lease must be positive")
				}
				s.LeaseID = lease
			}
			if err := config.SaveSettings(path, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "tenant email")
	cmd.Flags().IntVar(&lease, "lease", 0, "lease id")
	return cmd
}
