package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func speakCmd() *cobra.Command {
	var (
		text    string
		out     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Synthesize text through the assistant TTS endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text is required")
			}
			cfg, err := loadConfig("")
			if err != nil {
				return err
			}
			if !cfg.Speech.Enabled {
				return errSpeechDisabled
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			resp, err := newSpeechClient(cfg).Synthesize(ctx, text)
			if err != nil {
				return err
			}
			log.Info().Int("bytes", len(resp.AudioData)).Str("format", resp.Format).Msg("TTS 合成成功")

			if out != "" {
				if err := os.WriteFile(out, resp.AudioData, 0o644); err != nil {
					return fmt.Errorf("write audio: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "audio written to %s\n", out)
				return nil
			}

			handle, err := newPlayer(cfg.Speech.PlayerCommand).Play(resp.AudioData, resp.Format)
			if err != nil {
				return fmt.Errorf("play audio: %w", err)
			}
			select {
			case <-handle.Done():
			case <-ctx.Done():
				_ = handle.Stop()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "text to synthesize")
	cmd.Flags().StringVar(&out, "out", "", "write audio to this file instead of playing it")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout for synthesis and playback")
	return cmd
}
