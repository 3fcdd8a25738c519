package requests

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	"github.com/zhouzirui/lease-desk/internal/model/request"
	"github.com/zhouzirui/lease-desk/internal/service/coordinator"
)

// ErrRequestNotFound is returned when a board entry does not exist.
var ErrRequestNotFound = errors.New("maintenance request not found")

// Stats summarizes the board.
type Stats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
}

// Board collects maintenance requests: drafts observed locally, newest first,
// plus whatever was loaded from the assistant service.
type Board struct {
	coordinator.Nop

	mu      sync.RWMutex
	records []request.Record
	local   map[string]struct{}
	log     zerolog.Logger
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		local: make(map[string]struct{}),
		log:   logger.For(logger.Requests),
	}
}

// RequestObserved prepends a freshly classified draft.
func (b *Board) RequestObserved(draft request.Draft) {
	b.mu.Lock()
	b.records = append([]request.Record{request.FromDraft(draft)}, b.records...)
	b.local[draft.ID] = struct{}{}
	b.mu.Unlock()

	b.log.Info().Str("request", draft.ID).Str("category", string(draft.Category)).Msg("request added to board")
}

// Replace swaps in a remote listing, keeping locally observed drafts the
// remote side does not know yet in front.
func (b *Board) Replace(remote []request.Record) {
	known := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		known[r.ID] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	merged := make([]request.Record, 0, len(b.records)+len(remote))
	for _, r := range b.records {
		if _, synced := known[r.ID]; synced {
			delete(b.local, r.ID)
			continue
		}
		if _, ok := b.local[r.ID]; ok {
			merged = append(merged, r)
		}
	}
	b.records = append(merged, remote...)
}

// SetStatus updates the status of one request.
func (b *Board) SetStatus(id string, status request.Status) (request.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.records {
		if b.records[i].ID == id {
			b.records[i].Status = status
			return b.records[i], nil
		}
	}
	return request.Record{}, ErrRequestNotFound
}

// List returns a copy of the board, newest observed first.
func (b *Board) List() []request.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]request.Record(nil), b.records...)
}

// Stats counts requests per status.
func (b *Board) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Stats{Total: len(b.records)}
	for _, r := range b.records {
		switch r.Status {
		case request.StatusOpen:
			s.Open++
		case request.StatusInProgress:
			s.InProgress++
		case request.StatusResolved:
			s.Resolved++
		}
	}
	return s
}
