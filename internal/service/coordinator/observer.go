package coordinator

import (
	"github.com/zhouzirui/lease-desk/internal/model/chat"
	"github.com/zhouzirui/lease-desk/internal/model/request"
)

// Observer receives lifecycle notifications from the coordinator. Calls for
// one submission arrive in order; calls for different submissions may
// interleave.
type Observer interface {
	// RequestObserved fires before the remote call when the outgoing text
	// classified as a maintenance request.
	RequestObserved(draft request.Draft)
	// AssistantResponded fires once per submission with the final text.
	AssistantResponded(text string, draft *request.Draft)
	// MessageUpdated fires whenever a transcript message is appended or changed.
	MessageUpdated(msg chat.Message)
	// NotifyError reports side-channel failures (assistant unreachable, TTS).
	NotifyError(err error)
}

// Nop ignores every notification. Embed it to implement a subset.
type Nop struct{}

func (Nop) RequestObserved(request.Draft)             {}
func (Nop) AssistantResponded(string, *request.Draft) {}
func (Nop) MessageUpdated(chat.Message)               {}
func (Nop) NotifyError(error)                         {}

// Observers fans notifications out in slice order.
type Observers []Observer

func (o Observers) RequestObserved(draft request.Draft) {
	for _, obs := range o {
		obs.RequestObserved(draft)
	}
}

func (o Observers) AssistantResponded(text string, draft *request.Draft) {
	for _, obs := range o {
		obs.AssistantResponded(text, draft)
	}
}

func (o Observers) MessageUpdated(msg chat.Message) {
	for _, obs := range o {
		obs.MessageUpdated(msg)
	}
}

func (o Observers) NotifyError(err error) {
	for _, obs := range o {
		obs.NotifyError(err)
	}
}
