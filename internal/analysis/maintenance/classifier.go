package maintenance

import (
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/lease-desk/internal/model/chat"
	"github.com/zhouzirui/lease-desk/internal/model/request"
)

// triggerKeywords mark text as a maintenance request at all.
var triggerKeywords = []string{
	"leak", "broken", "not working", "repair", "fix", "issue", "problem", "maintenance",
	"heating", "plumbing", "electrical", "hvac", "light", "outlet", "appliance",
	"dishwasher", "washer", "dryer",
}

type urgencyTier struct {
	urgency  request.Urgency
	keywords []string
}

// Evaluated top to bottom; the first tier with any hit wins.
var urgencyTiers = []urgencyTier{
	{request.UrgencyUrgent, []string{"urgent", "emergency", "immediately"}},
	{request.UrgencyHigh, []string{"high", "asap", "quickly"}},
	{request.UrgencyLow, []string{"low", "when possible", "eventually"}},
}

type categoryGroup struct {
	category request.Category
	keywords []string
}

// Evaluated top to bottom; the first group with any hit wins.
var categoryGroups = []categoryGroup{
	{request.CategoryPlumbing, []string{"leak", "plumb", "water", "sink", "toilet", "faucet"}},
	{request.CategoryHVAC, []string{"heat", "hvac", "air", "temperature"}},
	{request.CategoryElectrical, []string{"light", "electrical", "power", "outlet"}},
	{request.CategoryAppliances, []string{"appliance", "refrigerator", "stove", "washer", "dryer", "dishwasher"}},
	{request.CategoryStructural, []string{"wall", "ceiling", "floor", "door", "window"}},
}

// now is swapped in tests for deterministic ids.
var now = time.Now

// Classify inspects outgoing text and returns a maintenance draft, or nil when
// the text does not look like a maintenance request.
func Classify(text string, attachments []chat.Attachment) *request.Draft {
	normalized := strings.ToLower(text)
	if !containsAny(normalized, triggerKeywords) {
		return nil
	}

	created := now()
	draft := &request.Draft{
		ID:          "REQ" + strconv.FormatInt(created.UnixMilli(), 10),
		Description: text,
		Urgency:     Urgency(normalized),
		Category:    Category(normalized),
		Status:      request.StatusOpen,
		Date:        created.UTC().Format("2006-01-02"),
	}
	if len(attachments) > 0 {
		draft.Attachments = append([]chat.Attachment(nil), attachments...)
	}
	return draft
}

// Urgency resolves the urgency tier for already lower-cased text.
func Urgency(normalized string) request.Urgency {
	for _, tier := range urgencyTiers {
		if containsAny(normalized, tier.keywords) {
			return tier.urgency
		}
	}
	return request.UrgencyMedium
}

// Category resolves the category group for already lower-cased text.
func Category(normalized string) request.Category {
	for _, group := range categoryGroups {
		if containsAny(normalized, group.keywords) {
			return group.category
		}
	}
	return request.CategoryOther
}

func containsAny(normalized string, keywords []string) bool {
	for _, word := range keywords {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}
