package live

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	"github.com/zhouzirui/lease-desk/pkg/utils"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Submitter 处理客户端通过 WebSocket 发来的操作
type Submitter interface {
	SubmitText(text string) (bool, error)
	SpeakMessage(ctx context.Context, messageID string) error
}

// Handler 实时事件的 WebSocket 与 SSE 入口
type Handler struct {
	hub       *Hub
	submitter Submitter
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

// New 创建实时事件处理器，submitter 可为空（只读推送）
func New(hub *Hub, submitter Submitter) *Handler {
	return &Handler{
		hub:       hub,
		submitter: submitter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logger.For(logger.Handler),
	}
}

// RegisterRoutes 注册实时事件路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
	r.Get("/events", h.handleEvents)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket connected")

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	replies := make(chan Event, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, events, replies)
		cancel()
		// 写协程退出后关闭连接，让阻塞的读循环返回
		conn.Close()
	}()

	send := func(evt Event) {
		select {
		case replies <- evt:
		case <-ctx.Done():
		}
	}
	// 朗读在后台执行，读循环需要继续处理 pong 与后续消息
	var speaking sync.WaitGroup

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Msg("websocket read error")
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		h.handleInbound(ctx, msg, send, &speaking)
	}

	cancel()
	speaking.Wait()
	<-writerDone
}

// writeLoop 是唯一的写协程：转发广播事件、回复与心跳
func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan Event, replies <-chan Event) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	write := func(evt Event) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(evt); err != nil {
			h.log.Debug().Err(err).Msg("websocket write failed")
			return false
		}
		return true
	}

	if !write(Event{Type: "connected", Timestamp: time.Now().Unix()}) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case evt, ok := <-events:
			if !ok || !write(evt) {
				return
			}
		case evt := <-replies:
			if !write(evt) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) handleInbound(ctx context.Context, msg inboundMessage, send func(Event), speaking *sync.WaitGroup) {
	if h.submitter == nil {
		send(errorEvent("console is read-only"))
		return
	}

	switch msg.Type {
	case "submit":
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			send(errorEvent("invalid submit payload"))
			return
		}
		accepted, err := h.submitter.SubmitText(payload.Text)
		if err != nil {
			send(errorEvent(err.Error()))
			return
		}
		if !accepted {
			send(errorEvent("nothing to send"))
		}
	case "speak":
		var payload struct {
			MessageID string `json:"messageId"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || strings.TrimSpace(payload.MessageID) == "" {
			send(errorEvent("messageId is required"))
			return
		}
		speaking.Add(1)
		go func() {
			defer speaking.Done()
			if err := h.submitter.SpeakMessage(ctx, payload.MessageID); err != nil {
				send(errorEvent(err.Error()))
			}
		}()
	default:
		send(errorEvent("unsupported message type: " + msg.Type))
	}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Data: map[string]string{"message": message}, Timestamp: time.Now().Unix()}
}

// handleEvents 以 SSE 推送同样的事件，供不支持 WebSocket 的客户端使用
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	utils.SendSSEChunk(w, flusher, Event{Type: "connected", Timestamp: time.Now().Unix()})

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			utils.SendSSEEvent(w, flusher, evt.Type, evt)
		case <-ticker.C:
			utils.SendSSEComment(w, flusher, "heartbeat")
		}
	}
}
