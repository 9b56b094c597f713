package storage

import (
	"context"
	"sync"
	"time"

	"github.com/MostProject/wslistener/internal/models"
)

// MemoryStore provides in-memory storage for local testing.
// Expired records are ignored by ExistsAny and dropped lazily, the way
// DynamoDB TTL eviction eventually would.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.ConnectionRecord
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]models.ConnectionRecord),
		now:     time.Now,
	}
}

// Put saves a connection record
func (s *MemoryStore) Put(ctx context.Context, rec models.ConnectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	return nil
}

// Delete removes a connection record
func (s *MemoryStore) Delete(ctx context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, connectionID)
	return nil
}

// ExistsAny reports whether any non-expired record is stored
func (s *MemoryStore) ExistsAny(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, id)
			continue
		}
		return true, nil
	}
	return false, nil
}

// Len returns the number of stored records, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
