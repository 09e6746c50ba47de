package imagestore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps uploads in a map and mints fake URLs. It backs dev runs
// and tests; Err forces every upload to fail, for exercising the
// upstream-failure path.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]Image

	Err error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Image)}
}

func (s *MemoryStore) Upload(_ context.Context, img Image, folder string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	key := folder + "/" + uuid.New().String()
	s.mu.Lock()
	s.objects[key] = img
	s.mu.Unlock()
	return "https://images.invalid/" + key, nil
}

// Len reports how many objects were stored.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
