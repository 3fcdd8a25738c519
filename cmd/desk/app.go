package main

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/zhouzirui/lease-desk/internal/config"
	"github.com/zhouzirui/lease-desk/internal/handler/live"
	speechmodel "github.com/zhouzirui/lease-desk/internal/model/speech"
	"github.com/zhouzirui/lease-desk/internal/service/assistant"
	"github.com/zhouzirui/lease-desk/internal/service/attachment"
	"github.com/zhouzirui/lease-desk/internal/service/coordinator"
	"github.com/zhouzirui/lease-desk/internal/service/playback"
	"github.com/zhouzirui/lease-desk/internal/service/requests"
	"github.com/zhouzirui/lease-desk/internal/service/speech"
)

// app holds the wired services shared by the chat and serve commands.
type app struct {
	cfg      *config.Config
	board    *requests.Board
	hub      *live.Hub
	coord    *coordinator.Coordinator
	speech   *speech.Client
	listings *requests.Client
}

func newApp(cfg *config.Config, extra ...coordinator.Observer) *app {
	board := requests.NewBoard()
	hub := live.NewHub()
	observers := append(coordinator.Observers{board, hub}, extra...)

	transport := assistant.NewClient(assistant.Options{
		BaseURL:     cfg.Assistant.BaseURL,
		BearerToken: cfg.Session.BearerToken,
		Timeout:     cfg.Assistant.RequestTimeout,
	})

	a := &app{
		cfg:      cfg,
		board:    board,
		hub:      hub,
		listings: requests.NewClient(cfg.Assistant.BaseURL, cfg.Session.BearerToken, cfg.Assistant.RequestTimeout, nil),
	}

	var speaker coordinator.Speaker
	if cfg.Speech.Enabled {
		a.speech = newSpeechClient(cfg)
		speaker = playback.NewController(a.speech, newPlayer(cfg.Speech.PlayerCommand), observers)
	} else {
		log.Info().Msg("TTS 已禁用，跳过语音播放初始化")
	}

	a.coord = coordinator.New(coordinator.Deps{
		Attachments: attachment.NewManager(attachment.NewMemoryRefStore(), attachment.Options{
			MaxBytes: cfg.Attachments.MaxBytes,
		}),
		Transport: transport,
		Speaker:   speaker,
		Observer:  observers,
		Session: coordinator.Session{
			TenantEmail: cfg.Session.TenantEmail,
			LeaseID:     cfg.Session.LeaseID,
		},
		Welcome: coordinator.WelcomeText,
	})

	log.Info().
		Str("assistant", transport.BaseURL()).
		Str("tenant", cfg.Session.TenantEmail).
		Int("lease", cfg.Session.LeaseID).
		Msg("lease desk initialized")
	return a
}

func (a *app) Close() error {
	err := a.coord.Close()
	a.hub.CloseAll()
	return err
}

func newSpeechClient(cfg *config.Config) *speech.Client {
	return speech.NewClient(speech.Options{
		BaseURL:     cfg.Assistant.BaseURL,
		BearerToken: cfg.Session.BearerToken,
		Voice: speechmodel.VoiceConfig{
			Voice:     cfg.Speech.Voice,
			VoiceName: cfg.Speech.VoiceName,
			VoiceID:   cfg.Speech.VoiceID,
			Model:     cfg.Speech.Model,
			Format:    cfg.Speech.Format,
		},
		Timeout: cfg.Assistant.RequestTimeout,
	})
}

// newPlayer 构建本地播放器，命令不可用时退回静音播放
func newPlayer(command []string) playback.Player {
	if len(command) == 0 {
		log.Info().Msg("未配置播放器，音频将被静默丢弃")
		return playback.NullPlayer{}
	}
	player, err := playback.NewExecPlayer(command)
	if err != nil {
		log.Warn().Err(err).Strs("command", command).Msg("播放器不可用，音频将被静默丢弃")
		return playback.NullPlayer{}
	}
	return player
}

var errSpeechDisabled = errors.New("speech is disabled (TTS_ENABLED=false)")
