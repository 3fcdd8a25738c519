package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/lease-desk/internal/service/coordinator"
	chatservice "github.com/zhouzirui/lease-desk/internal/service/chat"
	"github.com/zhouzirui/lease-desk/internal/service/playback"
	"github.com/zhouzirui/lease-desk/internal/service/speech"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	coord       *coordinator.Coordinator
	waitTimeout time.Duration
}

// New 创建聊天处理器
func New(coord *coordinator.Coordinator, waitTimeout time.Duration) *Handler {
	if waitTimeout <= 0 {
		waitTimeout = 90 * time.Second
	}
	return &Handler{
		coord:       coord,
		waitTimeout: waitTimeout,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/messages", h.handleListMessages)
	r.Post("/messages", h.handleSubmit)
	r.Get("/messages/{messageID}", h.handleGetMessage)
	r.Post("/messages/{messageID}/speak", h.handleSpeak)
	r.Delete("/playback", h.handleStopPlayback)
}

type submitResponse struct {
	UserMessageID      string      `json:"userMessageId"`
	AssistantMessageID string      `json:"assistantMessageId"`
	Request            interface{} `json:"request,omitempty"`
	Text               string      `json:"text,omitempty"`
	Streamed           bool        `json:"streamed,omitempty"`
	Error              string      `json:"error,omitempty"`
}

// handleListMessages 返回完整会话记录
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.coord.Messages())
}

// handleGetMessage 返回单条消息
func (h *Handler) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.coord.Message(chi.URLParam(r, "messageID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, msg)
}

// handleSubmit 提交用户消息，?wait=true 时等待助手回复结束
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, ok := h.coord.Submit(payload.Text)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "message text or attachments required")
		return
	}

	resp := submitResponse{
		UserMessageID:      sub.UserMessageID,
		AssistantMessageID: sub.AssistantMessageID,
	}
	if sub.Draft != nil {
		resp.Request = sub.Draft
	}

	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	if !wait {
		utils.RespondJSON(w, http.StatusAccepted, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.waitTimeout)
	defer cancel()

	result, err := sub.Wait(ctx)
	if err != nil {
		utils.RespondJSON(w, http.StatusAccepted, resp)
		return
	}
	resp.Text = result.Text
	resp.Streamed = result.Streamed
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}

// handleSpeak 朗读一条已完成的助手消息
func (h *Handler) handleSpeak(w http.ResponseWriter, r *http.Request) {
	err := h.coord.Speak(r.Context(), chi.URLParam(r, "messageID"))
	if err == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var synthErr *speech.SynthesisError
	switch {
	case errors.Is(err, chatservice.ErrMessageNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, coordinator.ErrNothingToSay):
		utils.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, coordinator.ErrPlaybackDisabled):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, playback.ErrSuperseded):
		utils.RespondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &synthErr), errors.Is(err, speech.ErrSynthesisFailed):
		utils.RespondError(w, http.StatusBadGateway, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleStopPlayback 停止当前播放
func (h *Handler) handleStopPlayback(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"stopped": h.coord.StopPlayback()})
}
