package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	speechmodel "github.com/zhouzirui/lease-desk/internal/model/speech"
)

func TestSynthesizeSendsVoiceAliases(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake"))
	}))
	defer srv.Close()

	client := NewClient(Options{
		BaseURL: srv.URL,
		Voice:   speechmodel.VoiceConfig{Voice: "alloy", VoiceID: "clone-9", Model: "tts-1"},
	})

	resp, err := client.Synthesize(context.Background(), "Your request is logged")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(resp.AudioData) != "ID3fake" || resp.Format != "mp3" || resp.ContentType != "audio/mpeg" {
		t.Fatalf("unexpected response %+v", resp)
	}

	want := map[string]any{
		"text":           "Your request is logged",
		"format":         "mp3",
		"voice":          "alloy",
		"voiceId":        "clone-9",
		"voice_id":       "clone-9",
		"voiceCloneId":   "clone-9",
		"voice_clone_id": "clone-9",
		"model":          "tts-1",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %s = %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["voiceName"]; ok {
		t.Error("empty voiceName must be omitted")
	}
}

func TestSynthesizeErrorDetail(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail", http.StatusBadRequest, `{"detail":"voice not found"}`, "voice not found"},
		{"no detail", http.StatusInternalServerError, `oops`, "TTS failed (HTTP 500)"},
		{"empty detail", http.StatusBadGateway, `{"detail":"  "}`, "TTS failed (HTTP 502)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(Options{BaseURL: srv.URL}).Synthesize(context.Background(), "hi")
			var synthErr *SynthesisError
			if !errors.As(err, &synthErr) {
				t.Fatalf("expected SynthesisError, got %v", err)
			}
			if synthErr.StatusCode != tt.status || err.Error() != tt.wantMsg {
				t.Fatalf("got %d %q, want %d %q", synthErr.StatusCode, err.Error(), tt.status, tt.wantMsg)
			}
		})
	}
}

func TestSynthesizeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{BaseURL: url}).Synthesize(context.Background(), "hi")
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
}

func TestSynthesizeEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).Synthesize(context.Background(), "hi")
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
}

func TestSynthesizeForwardsCredential(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte{1, 2, 3})
	}))
	defer srv.Close()

	if _, err := NewClient(Options{BaseURL: srv.URL, BearerToken: "tok"}).Synthesize(context.Background(), "hi"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if auth != "Bearer tok" {
		t.Fatalf("unexpected Authorization header %q", auth)
	}
}
