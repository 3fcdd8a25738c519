package live

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	"github.com/zhouzirui/lease-desk/internal/model/chat"
	"github.com/zhouzirui/lease-desk/internal/model/request"
)

// Event types pushed to live clients.
const (
	EventMessage   = "message"
	EventRequest   = "request"
	EventAssistant = "assistant"
	EventError     = "error"
)

// Event 推送给浏览器的实时事件
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// AssistantReply is the payload of an assistant event.
type AssistantReply struct {
	Text  string         `json:"text"`
	Draft *request.Draft `json:"draft,omitempty"`
}

const subscriberBuffer = 64

// Hub 将协调器的生命周期通知广播给所有订阅者
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
	log         zerolog.Logger
}

// NewHub 创建空的广播中心
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]chan Event),
		log:         logger.For(logger.Handler),
	}
}

// Subscribe 注册订阅者，返回事件通道与取消函数
func (h *Hub) Subscribe() (<-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if existing, ok := h.subscribers[id]; ok {
				delete(h.subscribers, id)
				close(existing)
			}
			h.mu.Unlock()
		})
	}
}

// Count 当前订阅者数量
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// CloseAll 关闭所有订阅
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Publish 非阻塞广播，慢订阅者的事件会被丢弃
func (h *Hub) Publish(eventType string, data interface{}) {
	evt := Event{Type: eventType, Data: data, Timestamp: time.Now().Unix()}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
			h.log.Warn().Str("subscriber", id).Str("event", eventType).Msg("subscriber lagging, event dropped")
		}
	}
}

func (h *Hub) RequestObserved(draft request.Draft) {
	h.Publish(EventRequest, draft)
}

func (h *Hub) AssistantResponded(text string, draft *request.Draft) {
	h.Publish(EventAssistant, AssistantReply{Text: text, Draft: draft})
}

func (h *Hub) MessageUpdated(msg chat.Message) {
	h.Publish(EventMessage, msg)
}

func (h *Hub) NotifyError(err error) {
	if err == nil {
		return
	}
	h.Publish(EventError, map[string]string{"message": err.Error()})
}
