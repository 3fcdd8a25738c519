package attachment

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
)

// ErrRevoked is returned when resolving a reference that was already released.
var ErrRevoked = errors.New("attachment reference revoked")

// Source yields the underlying file bytes on demand. Sources are referenced,
// never copied.
type Source interface {
	Open() (io.ReadCloser, error)
}

// PathSource reads a file from disk.
type PathSource string

// Open opens the file at the path.
func (p PathSource) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

// BytesSource serves bytes already held in memory, e.g. an uploaded form file.
type BytesSource []byte

// Open returns a reader over the bytes.
func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// RefStore issues revocable references to attachment bytes.
type RefStore interface {
	Acquire(src Source) (string, error)
	Release(ref string) bool
}

// MemoryRefStore keeps references in a map, similar to browser object URLs.
type MemoryRefStore struct {
	mu       sync.Mutex
	refs     map[string]Source
	acquired int
	released int
}

// NewMemoryRefStore creates an empty store.
func NewMemoryRefStore() *MemoryRefStore {
	return &MemoryRefStore{refs: make(map[string]Source)}
}

// Acquire registers src and returns its reference.
func (s *MemoryRefStore) Acquire(src Source) (string, error) {
	if src == nil {
		return "", errors.New("attachment source is nil")
	}

	ref := "blob:" + uuid.NewString()
	s.mu.Lock()
	s.refs[ref] = src
	s.acquired++
	s.mu.Unlock()
	return ref, nil
}

// Release revokes ref. It reports false when ref was unknown or already revoked.
func (s *MemoryRefStore) Release(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.refs[ref]; !ok {
		return false
	}
	delete(s.refs, ref)
	s.released++
	return true
}

// Resolve returns the source behind a live reference.
func (s *MemoryRefStore) Resolve(ref string) (Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.refs[ref]
	if !ok {
		return nil, ErrRevoked
	}
	return src, nil
}

// Live reports how many references are still outstanding.
func (s *MemoryRefStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// Counts reports lifetime acquire and release totals.
func (s *MemoryRefStore) Counts() (acquired, released int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquired, s.released
}
