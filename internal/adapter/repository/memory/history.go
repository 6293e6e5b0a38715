// Package memory provides repository implementations that live only for the process lifetime.
// They back ephemeral sessions and tests.
package memory

import (
	"slices"
	"sync"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// HistoryRepository implements ports.HistoryRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type HistoryRepository struct {
	queue     []domain.Track
	context   string
	currentID string
	mu        sync.RWMutex
}

// NewHistoryRepository creates an empty history repository.
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

// SaveQueue stores a copy of tracks.
func (r *HistoryRepository) SaveQueue(tracks []domain.Track, context string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queue = slices.Clone(tracks)
	r.context = context
	return nil
}

// LoadQueue returns a copy of the last saved queue.
func (r *HistoryRepository) LoadQueue() ([]domain.Track, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.queue == nil {
		return []domain.Track{}, "", nil
	}
	return slices.Clone(r.queue), r.context, nil
}

// SaveCurrentTrack stores the current track ID.
func (r *HistoryRepository) SaveCurrentTrack(trackID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentID = trackID
	return nil
}

// LoadCurrentTrack returns the saved track ID.
func (r *HistoryRepository) LoadCurrentTrack() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.currentID, nil
}

// Clear removes all saved history data.
func (r *HistoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queue = nil
	r.context = ""
	r.currentID = ""
	return nil
}

// Verify interface implementation
var _ ports.HistoryRepository = (*HistoryRepository)(nil)
