package request

import "github.com/zhouzirui/lease-desk/internal/model/chat"

// Urgency of a maintenance request.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// Category of a maintenance request.
type Category string

const (
	CategoryPlumbing   Category = "plumbing"
	CategoryHVAC       Category = "hvac"
	CategoryElectrical Category = "electrical"
	CategoryAppliances Category = "appliances"
	CategoryStructural Category = "structural"
	CategoryOther      Category = "other"
)

// Status of a maintenance request.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

// Draft is the locally detected maintenance request derived from outgoing text.
// It is never mutated after creation.
type Draft struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Urgency     Urgency           `json:"urgency"`
	Category    Category          `json:"category"`
	Status      Status            `json:"status"`
	Date        string            `json:"date"`
	Attachments []chat.Attachment `json:"files,omitempty"`
}

// Record is a maintenance request as listed by the assistant service.
type Record struct {
	ID          string   `json:"id"`
	Tenant      string   `json:"tenant,omitempty"`
	Description string   `json:"description"`
	Urgency     Urgency  `json:"urgency"`
	Category    Category `json:"category"`
	Status      Status   `json:"status"`
	Date        string   `json:"date"`
}

// FromDraft converts a locally observed draft into a board record.
func FromDraft(d Draft) Record {
	return Record{
		ID:          d.ID,
		Description: d.Description,
		Urgency:     d.Urgency,
		Category:    d.Category,
		Status:      d.Status,
		Date:        d.Date,
	}
}
