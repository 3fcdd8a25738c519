package assistant

import (
	"fmt"
	"strings"
)

// Request is the payload shared by the streaming and fallback endpoints.
type Request struct {
	Prompt      string `json:"prompt"`
	TenantEmail string `json:"tenantEmail,omitempty"`
	LeaseID     int    `json:"leaseId"`
	Meta        *Meta  `json:"meta,omitempty"`
}

// Meta carries the id of a locally observed maintenance draft.
type Meta struct {
	RequestID string `json:"requestId,omitempty"`
}

// DraftID returns the observed draft id, or "" when none was attached.
func (r Request) DraftID() string {
	if r.Meta == nil {
		return ""
	}
	return r.Meta.RequestID
}

// Sink receives the progress of one Send. OnFinalText is called exactly once.
type Sink interface {
	OnIncrementalText(text string)
	OnFinalText(text string)
	OnError(err error)
}

// SinkFuncs adapts plain functions to Sink. Nil fields are skipped.
type SinkFuncs struct {
	Incremental func(text string)
	Final       func(text string)
	Error       func(err error)
}

func (s SinkFuncs) OnIncrementalText(text string) {
	if s.Incremental != nil {
		s.Incremental(text)
	}
}

func (s SinkFuncs) OnFinalText(text string) {
	if s.Final != nil {
		s.Final(text)
	}
}

func (s SinkFuncs) OnError(err error) {
	if s.Error != nil {
		s.Error(err)
	}
}

// StatusError is returned when an endpoint answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// UnreachableText is the degraded reply shown when neither endpoint answered.
func UnreachableText(draftID string) string {
	if draftID != "" {
		return fmt.Sprintf("I noted your request (%s). Unable to reach assistant right now.", draftID)
	}
	return "Unable to reach assistant right now."
}

// EmptyReplyText replaces a successful but blank reply.
func EmptyReplyText(draftID string) string {
	if draftID != "" {
		return "Request received. ID: " + draftID
	}
	return "Got it, processing your message."
}

func finalText(text, draftID string) string {
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		return trimmed
	}
	return EmptyReplyText(draftID)
}
