package polls

import (
	"context"
	"sort"
	"sync"

	"github.com/classpulse/livepoll/internal/models"
)

// Store is the append-only history of finished polls.
type Store interface {
	Save(ctx context.Context, rec models.PollRecord) error
	ListRecent(ctx context.Context, limit int) ([]models.PollRecord, error)
}

// MemoryStore keeps history in process. Used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.PollRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save appends rec.
func (s *MemoryStore) Save(_ context.Context, rec models.PollRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// ListRecent returns up to limit records, newest first.
func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]models.PollRecord, error) {
	s.mu.RLock()
	out := make([]models.PollRecord, len(s.records))
	copy(out, s.records)
	s.mu.RUnlock()

	// Insertion order breaks ties so equal timestamps still come back newest-first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
