package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	speechmodel "github.com/zhouzirui/lease-desk/internal/model/speech"
	speechsvc "github.com/zhouzirui/lease-desk/internal/service/speech"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

// Synthesizer 抽象语音合成，便于测试与替换实现
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*speechmodel.TTSResponse, error)
}

// Handler 语音服务的HTTP处理器，浏览器可直接取回音频自行播放
type Handler struct {
	synth Synthesizer
	log   zerolog.Logger
}

// New 创建语音处理器
func New(synth Synthesizer) *Handler {
	return &Handler{
		synth: synth,
		log:   logger.For(logger.Speech),
	}
}

// RegisterRoutes 注册语音相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/speech", func(speechRouter chi.Router) {
		speechRouter.Post("/synthesize", h.handleSynthesize)
		speechRouter.Get("/health", h.handleHealth)
	})
}

// handleSynthesize 文字转语音，直接返回音频字节
func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	resp, err := h.synth.Synthesize(r.Context(), req.Text)
	if err != nil {
		h.log.Warn().Err(err).Msg("TTS error")
		var synthErr *speechsvc.SynthesisError
		if errors.As(err, &synthErr) || errors.Is(err, speechsvc.ErrSynthesisFailed) {
			utils.RespondError(w, http.StatusBadGateway, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "speech synthesis failed")
		return
	}

	contentType := resp.ContentType
	if contentType == "" {
		contentType = audioContentType(resp.Format)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.AudioData)))
	w.Header().Set("Content-Disposition", "inline; filename=speech."+resp.Format)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.AudioData); err != nil {
		h.log.Debug().Err(err).Msg("failed to write audio response")
	}
}

// handleHealth 健康检查端点
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "speech",
	})
}

// audioContentType 从格式推断 Content-Type
func audioContentType(format string) string {
	switch strings.ToLower(format) {
	case "mp3", "":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "ogg", "opus":
		return "audio/ogg"
	case "aac":
		return "audio/aac"
	case "webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}
