// Package blob keeps imported file contents in memory behind opaque handles,
// so tracks and cover images can be addressed by URL until they are released.
package blob

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Scheme prefixes every handle issued by the store.
const Scheme = "blob:"

// ErrNotFound is returned for unknown or released handles.
var ErrNotFound = errors.New("blob not found")

// Blob is a stored resource.
type Blob struct {
	Name      string
	MimeType  string
	Data      []byte
	CreatedAt time.Time
}

// Store is a concurrency safe in-memory blob registry.
type Store struct {
	mu    sync.RWMutex
	blobs map[string]*Blob
	size  int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		blobs: make(map[string]*Blob),
	}
}

// Put stores data and returns its handle.
func (s *Store) Put(name, mimeType string, data []byte) string {
	handle := Scheme + uuid.New().String()

	s.mu.Lock()
	s.blobs[handle] = &Blob{
		Name:      name,
		MimeType:  mimeType,
		Data:      data,
		CreatedAt: time.Now(),
	}
	s.size += int64(len(data))
	s.mu.Unlock()

	log.Debug().Str("handle", handle).Str("name", name).Int("bytes", len(data)).Msg("Blob stored")
	return handle
}

// Get returns the blob behind handle.
func (s *Store) Get(handle string) (*Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// Release frees the blob behind handle. Releasing an unknown handle is a no-op.
func (s *Store) Release(handle string) {
	s.mu.Lock()
	b, ok := s.blobs[handle]
	if ok {
		delete(s.blobs, handle)
		s.size -= int64(len(b.Data))
	}
	s.mu.Unlock()

	if ok {
		log.Debug().Str("handle", handle).Msg("Blob released")
	}
}

// Len returns the number of live blobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// Size returns the total bytes held.
func (s *Store) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// ID returns the identifier part of a handle, or "" if handle was not issued
// by a store.
func ID(handle string) string {
	id, ok := strings.CutPrefix(handle, Scheme)
	if !ok {
		return ""
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

// Path returns the HTTP path serving handle, or "" for foreign handles.
func Path(handle string) string {
	id := ID(handle)
	if id == "" {
		return ""
	}
	return "/blob/" + id
}

// Handle rebuilds a handle from its identifier.
func Handle(id string) string {
	return Scheme + id
}
