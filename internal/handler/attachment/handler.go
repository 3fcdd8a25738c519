package attachment

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	"github.com/zhouzirui/lease-desk/internal/model/chat"
	attachmentsvc "github.com/zhouzirui/lease-desk/internal/service/attachment"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

// 单次上传的内存上限，超出部分由 multipart 落盘
const maxMemory = 32 << 20

// Handler 待发送附件的HTTP处理器
type Handler struct {
	manager *attachmentsvc.Manager
	log     zerolog.Logger
}

// New 创建附件处理器
func New(manager *attachmentsvc.Manager) *Handler {
	return &Handler{
		manager: manager,
		log:     logger.For(logger.Attachments),
	}
}

// RegisterRoutes 注册附件相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attachments", func(ar chi.Router) {
		ar.Get("/", h.handleList)
		ar.Post("/", h.handleUpload)
		ar.Delete("/", h.handleClear)
		ar.Delete("/{attachmentID}", h.handleRemove)
	})
}

// handleList 列出当前待发送的附件
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	pending := h.manager.Pending()
	if pending == nil {
		pending = []chat.Attachment{}
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"items": pending})
}

// handleUpload 接收 multipart 表单中的一个或多个 file 字段
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "file field is required")
		return
	}

	maxBytes := h.manager.MaxBytes()
	for _, fh := range headers {
		if maxBytes > 0 && fh.Size > maxBytes {
			utils.RespondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("%s (%d bytes): %s", fh.Filename, fh.Size, attachmentsvc.ErrAttachmentTooLarge))
			return
		}
	}

	files := make([]attachmentsvc.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh, maxBytes)
		if err != nil {
			h.log.Warn().Err(err).Str("file", fh.Filename).Msg("failed to read upload")
			utils.RespondError(w, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		files = append(files, attachmentsvc.File{
			Name:      fh.Filename,
			Size:      int64(len(data)),
			MediaType: fh.Header.Get("Content-Type"),
			Source:    attachmentsvc.BytesSource(data),
		})
	}

	added, err := h.manager.Add(files...)
	if err != nil {
		if errors.Is(err, attachmentsvc.ErrAttachmentTooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("failed to add attachments")
		utils.RespondError(w, http.StatusInternalServerError, "failed to store attachments")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{"items": added})
}

// handleRemove 移除单个附件，未知 ID 返回 removed=false
func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	removed := h.manager.Remove(chi.URLParam(r, "attachmentID"))
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// handleClear 清空全部附件
func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	cleared := h.manager.Clear()
	utils.RespondJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}

// readPart 读取上传内容，超出 maxBytes 的部分不会读入内存
func readPart(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open part: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	return io.ReadAll(r)
}
