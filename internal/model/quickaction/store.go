package quickaction

import "strconv"

// Store exposes quick action retrieval for the console surfaces.
type Store interface {
	List() []QuickAction
	FindByID(id string) (QuickAction, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []QuickAction
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied actions.
func NewMemoryStore(items []QuickAction) *MemoryStore {
	return &MemoryStore{items: append([]QuickAction(nil), items...)}
}

// List returns the configured quick actions.
func (s *MemoryStore) List() []QuickAction {
	return append([]QuickAction(nil), s.items...)
}

// FindByID looks up an action by identifier or by its 1-based position.
func (s *MemoryStore) FindByID(id string) (QuickAction, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	if n, err := strconv.Atoi(id); err == nil && n >= 1 && n <= len(s.items) {
		return s.items[n-1], true
	}
	return QuickAction{}, false
}
