package quickaction

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/lease-desk/internal/model/quickaction"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

// Handler 快捷操作的HTTP处理器
type Handler struct {
	actions quickaction.Store
}

// New 创建快捷操作处理器
func New(actions quickaction.Store) *Handler {
	return &Handler{
		actions: actions,
	}
}

// RegisterRoutes 注册快捷操作相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/quick-actions", h.handleListActions)
	r.Get("/quick-actions/{actionID}", h.handleGetAction)
}

// handleListActions 列出所有快捷操作
func (h *Handler) handleListActions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.actions.List())
}

// handleGetAction 按 ID 或序号查询快捷操作
func (h *Handler) handleGetAction(w http.ResponseWriter, r *http.Request) {
	action, ok := h.actions.FindByID(chi.URLParam(r, "actionID"))
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "quick action not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, action)
}
