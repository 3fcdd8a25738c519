package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/lease-desk/internal/config"
	"github.com/zhouzirui/lease-desk/internal/logger"
)

var (
	baseURLFlag  string
	settingsFlag string
)

func main() {
	root := &cobra.Command{
		Use:           "desk",
		Short:         "Lease Desk: tenant maintenance assistant console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "assistant service base URL (overrides MASTER_SERVER_BASE and settings)")
	root.PersistentFlags().StringVar(&settingsFlag, "settings", "", "path to settings.yaml (default: ~/.lease-desk/settings.yaml)")

	root.AddCommand(chatCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(speakCmd())
	root.AddCommand(requestsCmd())
	root.AddCommand(configCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig 加载 .env、环境变量与本地设置，并初始化日志
func loadConfig(addr string) (*config.Config, error) {
	logger.Init("info", nil)

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("未加载 .env，改用系统环境变量")
	}

	cfg, err := config.Load(config.Overrides{
		BaseURL:      baseURLFlag,
		SettingsPath: settingsFlag,
		Addr:         addr,
	})
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(cfg.LogLevel, nil)

	cred := config.InspectCredential(cfg.Session.BearerToken)
	switch {
	case !cred.Present:
		log.Warn().Msg("AUTH_TOKEN 未配置，请求将不携带凭证")
	case cred.Expired(time.Now()):
		log.Warn().Time("expiresAt", cred.ExpiresAt).Msg("AUTH_TOKEN 已过期，助手服务可能拒绝请求")
	case cred.JWT:
		log.Debug().Str("subject", cred.Subject).Time("expiresAt", cred.ExpiresAt).Msg("credential loaded")
	}
	return cfg, nil
}
