package quickaction

// QuickAction is a canned prompt offered next to the input box.
type QuickAction struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt"`
}

// Seed provides the default quick actions shown to tenants.
func Seed() []QuickAction {
	return []QuickAction{
		{
			ID:     "maintenance",
			Label:  "Create maintenance request",
			Prompt: "I need to create a maintenance request for...",
		},
		{
			ID:     "lease-document",
			Label:  "Generate lease document",
			Prompt: "Please generate a lease document for...",
		},
		{
			ID:     "rooms",
			Label:  "View my rooms",
			Prompt: "Show me my rooms and their details",
		},
		{
			ID:     "payments",
			Label:  "Payment information",
			Prompt: "I need help with payment information",
		},
	}
}
