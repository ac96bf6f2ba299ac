package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/sightline/internal/core/domain"
	"github.com/custodia-labs/sightline/internal/core/ports/driven"
)

// Ensure PathStore implements the interface.
var _ driven.PathStore = (*PathStore)(nil)

// PathStore is an in-memory implementation of driven.PathStore.
// Paths are deep-copied on the way in and out.
type PathStore struct {
	mu    sync.RWMutex
	paths map[string]*domain.NavigationPath
}

// NewPathStore creates a new in-memory path store.
func NewPathStore() *PathStore {
	return &PathStore{
		paths: make(map[string]*domain.NavigationPath),
	}
}

// Save stores a path.
func (s *PathStore) Save(_ context.Context, path *domain.NavigationPath) error {
	if path == nil || path.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[path.ID] = clonePath(path)
	return nil
}

// Get retrieves a path by ID.
func (s *PathStore) Get(_ context.Context, id string) (*domain.NavigationPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.paths[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clonePath(p), nil
}

// List returns summaries of all paths, newest first.
func (s *PathStore) List(_ context.Context) ([]domain.PathSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PathSummary, 0, len(s.paths))
	for _, p := range s.paths {
		out = append(out, p.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// FindByNodes returns the newest path from start to end.
func (s *PathStore) FindByNodes(_ context.Context, startNodeID, endNodeID string) (*domain.NavigationPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *domain.NavigationPath
	for _, p := range s.paths {
		if p.StartNodeID != startNodeID || p.EndNodeID != endNodeID {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return clonePath(best), nil
}

// Delete removes a path.
func (s *PathStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.paths, id)
	return nil
}

func clonePath(p *domain.NavigationPath) *domain.NavigationPath {
	c := *p
	c.Waypoints = make([]domain.Waypoint, len(p.Waypoints))
	for i, w := range p.Waypoints {
		w.Embedding = slices.Clone(w.Embedding)
		c.Waypoints[i] = w
	}
	return &c
}
