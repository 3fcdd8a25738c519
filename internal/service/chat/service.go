package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/lease-desk/internal/model/chat"
)

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrMessageFinalized = errors.New("message already finalized")
	ErrOriginRequired   = errors.New("message origin is required")
)

// Service keeps the ordered transcript of the current session in memory.
// Messages are never deleted; finalized messages are immutable.
type Service struct {
	mu       sync.RWMutex
	messages []chat.Message
	index    map[string]int
}

// NewService bootstraps an empty transcript.
func NewService() *Service {
	return &Service{
		messages: make([]chat.Message, 0, 16),
		index:    make(map[string]int),
	}
}

// Append adds a message to the end of the transcript, assigning its id and
// timestamp when missing.
func (s *Service) Append(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.Origin == "" {
		return chat.Message{}, ErrOriginRequired
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	if len(message.Attachments) > 0 {
		message.Attachments = append([]chat.Attachment(nil), message.Attachments...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[message.ID]; exists {
		return chat.Message{}, errors.New("duplicate message id " + message.ID)
	}
	s.index[message.ID] = len(s.messages)
	s.messages = append(s.messages, message)
	return message, nil
}

// UpdateContent replaces the text of a message that is still streaming.
func (s *Service) UpdateContent(_ context.Context, id, content string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return chat.Message{}, ErrMessageNotFound
	}
	if s.messages[pos].Finalized {
		return chat.Message{}, ErrMessageFinalized
	}
	s.messages[pos].Content = content
	return s.messages[pos], nil
}

// Finalize sets the final text and freezes the message.
func (s *Service) Finalize(_ context.Context, id, content string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return chat.Message{}, ErrMessageNotFound
	}
	if s.messages[pos].Finalized {
		return chat.Message{}, ErrMessageFinalized
	}
	s.messages[pos].Content = content
	s.messages[pos].Finalized = true
	return s.messages[pos], nil
}

// Get returns a message by id.
func (s *Service) Get(_ context.Context, id string) (chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return chat.Message{}, ErrMessageNotFound
	}
	return s.messages[pos], nil
}

// Transcript returns a copy of all messages in append order.
func (s *Service) Transcript(_ context.Context) []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Len reports the number of messages.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
