package storage

import (
	"sort"
	"sync"

	"github.com/lookbook-app/lookbook/internal/models"
)

// BatchStore keeps completed generations for the web history, newest first
type BatchStore struct {
	batches map[string]*models.BatchRecord
	limit   int
	mu      sync.RWMutex
}

// New returns a store that keeps at most limit batches; limit <= 0 means unbounded
func New(limit int) *BatchStore {
	return &BatchStore{
		batches: make(map[string]*models.BatchRecord),
		limit:   limit,
	}
}

func (s *BatchStore) Get(batchID string) (*models.BatchRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, exists := s.batches[batchID]
	return batch, exists
}

func (s *BatchStore) Set(batch *models.BatchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = batch

	if s.limit > 0 && len(s.batches) > s.limit {
		oldest := s.sortedLocked()[len(s.batches)-1]
		delete(s.batches, oldest.ID)
	}
}

// List returns all batches, newest first
func (s *BatchStore) List() []*models.BatchRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *BatchStore) Delete(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, batchID)
}

func (s *BatchStore) sortedLocked() []*models.BatchRecord {
	result := make([]*models.BatchRecord, 0, len(s.batches))
	for _, b := range s.batches {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
