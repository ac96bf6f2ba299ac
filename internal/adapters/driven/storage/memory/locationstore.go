package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
)

// Ensure LocationStore implements the interface.
var _ driven.LocationStore = (*LocationStore)(nil)

// LocationStore is an in-memory implementation of driven.LocationStore.
type LocationStore struct {
	mu         sync.RWMutex
	locations  map[string]domain.Location
	embeddings map[string][][]float32
}

// NewLocationStore creates a new in-memory location store.
func NewLocationStore() *LocationStore {
	return &LocationStore{
		locations:  make(map[string]domain.Location),
		embeddings: make(map[string][][]float32),
	}
}

// SaveLocation creates or renames a node.
func (s *LocationStore) SaveLocation(_ context.Context, loc domain.Location) error {
	if loc.NodeID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.NodeID] = loc
	return nil
}

// AddEmbedding appends a reference view for a node.
func (s *LocationStore) AddEmbedding(_ context.Context, nodeID string, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[nodeID]; !ok {
		return domain.ErrNotFound
	}
	s.embeddings[nodeID] = append(s.embeddings[nodeID], slices.Clone(embedding))
	return nil
}

// ListLocations returns all nodes ordered by ID.
func (s *LocationStore) ListLocations(_ context.Context) ([]domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Location, 0, len(s.locations))
	for _, loc := range s.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID < out[j].NodeID })
	return out, nil
}

// LoadLocationEmbeddings returns every reference view for a node.
func (s *LocationStore) LoadLocationEmbeddings(_ context.Context, nodeID string) ([]domain.LocationEmbedding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	embs := s.embeddings[nodeID]
	out := make([]domain.LocationEmbedding, len(embs))
	for i, e := range embs {
		out[i] = domain.LocationEmbedding{NodeID: nodeID, Embedding: slices.Clone(e)}
	}
	return out, nil
}
