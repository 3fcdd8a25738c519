package requests

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	"github.com/zhouzirui/lease-desk/internal/model/request"
	requestsvc "github.com/zhouzirui/lease-desk/internal/service/requests"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

// Fetcher 从助手服务拉取工单列表
type Fetcher interface {
	Fetch(ctx context.Context, scope requestsvc.Scope, q requestsvc.Query) ([]request.Record, error)
}

// Handler 工单看板的HTTP处理器
type Handler struct {
	board   *requestsvc.Board
	fetcher Fetcher
	session requestsvc.Query
	log     zerolog.Logger
}

// New 创建工单处理器，fetcher 为空时不提供远端同步
func New(board *requestsvc.Board, fetcher Fetcher, session requestsvc.Query) *Handler {
	return &Handler{
		board:   board,
		fetcher: fetcher,
		session: session,
		log:     logger.For(logger.Requests),
	}
}

// RegisterRoutes 注册工单相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/requests", func(rr chi.Router) {
		rr.Get("/", h.handleList)
		rr.Get("/remote", h.handleRemote)
		rr.Patch("/{requestID}", h.handleSetStatus)
	})
}

type listResponse struct {
	Items []request.Record `json:"items"`
	Stats requestsvc.Stats `json:"stats"`
}

func (h *Handler) respondBoard(w http.ResponseWriter) {
	items := h.board.List()
	if items == nil {
		items = []request.Record{}
	}
	utils.RespondJSON(w, http.StatusOK, listResponse{Items: items, Stats: h.board.Stats()})
}

// handleList 返回本地看板与统计
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.respondBoard(w)
}

// handleRemote 从助手服务同步列表后返回合并结果
func (h *Handler) handleRemote(w http.ResponseWriter, r *http.Request) {
	if h.fetcher == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "request listing unavailable")
		return
	}

	scope, err := requestsvc.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := h.session
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		q.Limit = limit
	}

	records, err := h.fetcher.Fetch(r.Context(), scope, q)
	if err != nil {
		h.log.Warn().Err(err).Str("scope", string(scope)).Msg("failed to fetch requests")
		utils.RespondError(w, http.StatusBadGateway, "failed to fetch requests")
		return
	}

	h.board.Replace(records)
	h.respondBoard(w)
}

// handleSetStatus 修改单个工单状态
func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status request.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch body.Status {
	case request.StatusOpen, request.StatusInProgress, request.StatusResolved:
	default:
		utils.RespondError(w, http.StatusBadRequest, "status must be open, in-progress or resolved")
		return
	}

	record, err := h.board.SetStatus(chi.URLParam(r, "requestID"), body.Status)
	if err != nil {
		if errors.Is(err, requestsvc.ErrRequestNotFound) {
			utils.RespondError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "failed to update request")
		return
	}
	utils.RespondJSON(w, http.StatusOK, record)
}
