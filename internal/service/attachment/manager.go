package attachment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/lease-desk/internal/logger"
	"github.com/zhouzirui/lease-desk/internal/model/chat"
)

// ErrAttachmentTooLarge is returned by Add when a file exceeds the configured limit.
var ErrAttachmentTooLarge = errors.New("attachment exceeds size limit")

// File is a user-selected or dropped file handed to the manager.
type File struct {
	Name      string
	Size      int64
	MediaType string
	Source    Source
}

// FileFromPath describes a file on disk without reading it.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("attachment %s is a directory", path)
	}
	return File{
		Name:   filepath.Base(path),
		Size:   info.Size(),
		Source: PathSource(path),
	}, nil
}

// Options tune the manager. MaxBytes of zero disables the size check.
type Options struct {
	MaxBytes int64
}

// Manager owns the pending attachments of the message being composed. Every
// reference it acquires is released exactly once, by Remove, Clear or Close.
type Manager struct {
	mu       sync.Mutex
	refs     RefStore
	maxBytes int64
	pending  []chat.Attachment
	log      zerolog.Logger
}

// NewManager creates a manager backed by refs.
func NewManager(refs RefStore, opts Options) *Manager {
	return &Manager{
		refs:     refs,
		maxBytes: opts.MaxBytes,
		log:      logger.For(logger.Attachments),
	}
}

// Add registers files as pending attachments and returns their snapshots.
// Nothing is acquired when any file fails validation.
func (m *Manager) Add(files ...File) ([]chat.Attachment, error) {
	if m.maxBytes > 0 {
		for _, f := range files {
			if f.Size > m.maxBytes {
				return nil, fmt.Errorf("%s (%d bytes): %w", f.Name, f.Size, ErrAttachmentTooLarge)
			}
		}
	}

	added := make([]chat.Attachment, 0, len(files))
	for _, f := range files {
		ref, err := m.refs.Acquire(f.Source)
		if err != nil {
			for _, a := range added {
				m.refs.Release(a.Ref)
			}
			return nil, fmt.Errorf("acquire %s: %w", f.Name, err)
		}

		added = append(added, chat.Attachment{
			ID:        uuid.NewString(),
			Name:      f.Name,
			Size:      f.Size,
			MediaType: detectMediaType(f),
			Ref:       ref,
		})
	}

	m.mu.Lock()
	m.pending = append(m.pending, added...)
	total := len(m.pending)
	m.mu.Unlock()

	m.log.Debug().Int("added", len(added)).Int("pending", total).Msg("attachments added")
	return added, nil
}

// Remove drops one pending attachment and releases its reference. Unknown ids
// are ignored.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	var removed *chat.Attachment
	for i := range m.pending {
		if m.pending[i].ID == id {
			a := m.pending[i]
			removed = &a
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if removed == nil {
		return false
	}
	m.refs.Release(removed.Ref)
	m.log.Debug().Str("attachment", id).Msg("attachment removed")
	return true
}

// Clear releases every pending attachment and empties the set.
func (m *Manager) Clear() int {
	m.mu.Lock()
	drained := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, a := range drained {
		m.refs.Release(a.Ref)
	}
	if len(drained) > 0 {
		m.log.Debug().Int("released", len(drained)).Msg("attachments cleared")
	}
	return len(drained)
}

// Take removes every pending attachment and hands it to the caller, who
// becomes responsible for releasing it with Release.
func (m *Manager) Take() []chat.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	taken := m.pending
	m.pending = nil
	return taken
}

// Release frees the references of attachments previously returned by Take.
func (m *Manager) Release(items []chat.Attachment) int {
	n := 0
	for _, a := range items {
		if m.refs.Release(a.Ref) {
			n++
		}
	}
	if n > 0 {
		m.log.Debug().Int("released", n).Msg("attachments released")
	}
	return n
}

// MaxBytes reports the per-file size limit, zero when unlimited.
func (m *Manager) MaxBytes() int64 {
	return m.maxBytes
}

// Pending returns a copy of the pending attachments in selection order.
func (m *Manager) Pending() []chat.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil
	}
	return append([]chat.Attachment(nil), m.pending...)
}

// Len reports how many attachments are pending.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close releases everything still pending; used on teardown.
func (m *Manager) Close() error {
	m.Clear()
	return nil
}

func detectMediaType(f File) string {
	if f.MediaType != "" || f.Source == nil {
		return f.MediaType
	}

	r, err := f.Source.Open()
	if err != nil {
		return "application/octet-stream"
	}
	defer r.Close()

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}
