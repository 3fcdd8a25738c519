package chat

import "time"

// Origin identifies who authored a message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Attachment is the metadata snapshot of a user-selected file. Ref points at the
// revocable byte reference owned by the attachment manager; it stops resolving
// once the attachment is released.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MediaType string `json:"type"`
	Ref       string `json:"url,omitempty"`
}

// Message is one entry of the session transcript.
type Message struct {
	ID          string       `json:"id"`
	Origin      Origin       `json:"origin"`
	Content     string       `json:"content"`
	Finalized   bool         `json:"finalized"`
	Attachments []Attachment `json:"files,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// IsAssistant reports whether the message was produced by the assistant.
func (m Message) IsAssistant() bool {
	return m.Origin == OriginAssistant
}
