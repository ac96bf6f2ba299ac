package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
)

// Ensure FrameStore implements the interface.
var _ driven.FrameStore = (*FrameStore)(nil)

// FrameStore keeps transient frames in memory.
type FrameStore struct {
	mu      sync.RWMutex
	frames  map[domain.ImageRef][]byte
	deleted int
}

// NewFrameStore creates an empty frame store.
func NewFrameStore() *FrameStore {
	return &FrameStore{
		frames: make(map[domain.ImageRef][]byte),
	}
}

// Put stores an image and returns its reference.
func (s *FrameStore) Put(img []byte) domain.ImageRef {
	ref := domain.ImageRef("mem:" + uuid.NewString())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[ref] = slices.Clone(img)
	return ref
}

// Load returns the image for ref.
func (s *FrameStore) Load(_ context.Context, ref domain.ImageRef) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.frames[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return slices.Clone(img), nil
}

// Delete removes the image. Missing refs are ignored.
func (s *FrameStore) Delete(_ context.Context, ref domain.ImageRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.frames[ref]; ok {
		delete(s.frames, ref)
		s.deleted++
	}
	return nil
}

// Len returns how many frames are held.
func (s *FrameStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// Deleted returns how many frames have been deleted.
func (s *FrameStore) Deleted() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted
}
