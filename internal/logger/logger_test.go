package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want zerolog.Level
	}{
		{"Debug level", "DEBUG", zerolog.DebugLevel},
		{"Warn alias", "warning", zerolog.WarnLevel},
		{"Error level", "error", zerolog.ErrorLevel},
		{"Disabled", "off", zerolog.Disabled},
		{"Empty defaults to Info", "", zerolog.InfoLevel},
		{"Invalid defaults to Info", "INVALID", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.raw); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestForTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	l := For(Transport)
	l.Info().Str("path", "/chat").Msg("request sent")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if line["component"] != Transport {
		t.Fatalf("expected component %q, got %v", Transport, line["component"])
	}
	if line["message"] != "request sent" {
		t.Fatalf("unexpected message: %v", line["message"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init("error", &buf)
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	l := For(App)
	l.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at error level, got %q", buf.String())
	}

	l.Error().Msg("shown")
	if buf.Len() == 0 {
		t.Fatal("expected error line to be written")
	}
}
