package badgerstore

import (
	"sync"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

const (
	keyQueue   = historyPrefix + "queue"
	keyCurrent = historyPrefix + "current"
)

// savedQueue is the stored form of a queue.
type savedQueue struct {
	Context string         `json:"context"`
	Tracks  []domain.Track `json:"tracks"`
}

// HistoryRepository implements ports.HistoryRepository on a Store.
//
// Thread-safe: All operations protected by sync.RWMutex.
type HistoryRepository struct {
	store *Store
	mu    sync.RWMutex
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(store *Store) *HistoryRepository {
	return &HistoryRepository{store: store}
}

// SaveQueue persists the original queue order and its context label.
func (r *HistoryRepository) SaveQueue(tracks []domain.Track, context string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.set(keyQueue, savedQueue{Context: context, Tracks: tracks}); err != nil {
		return domain.NewRepositoryError("SaveQueue", "history", "failed to save queue", err)
	}
	return nil
}

// LoadQueue retrieves the last saved queue. Nothing saved yields an empty slice.
func (r *HistoryRepository) LoadQueue() ([]domain.Track, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var saved savedQueue
	found, err := r.store.get(keyQueue, &saved)
	if err != nil {
		return nil, "", domain.NewRepositoryError("LoadQueue", "history", "failed to load queue", err)
	}
	if !found || saved.Tracks == nil {
		return []domain.Track{}, "", nil
	}
	return saved.Tracks, saved.Context, nil
}

// SaveCurrentTrack persists the ID of the current track. An empty ID clears it.
func (r *HistoryRepository) SaveCurrentTrack(trackID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.set(keyCurrent, trackID); err != nil {
		return domain.NewRepositoryError("SaveCurrentTrack", "history", "failed to save current track", err)
	}
	return nil
}

// LoadCurrentTrack retrieves the saved current track ID, "" when none.
func (r *HistoryRepository) LoadCurrentTrack() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var id string
	if _, err := r.store.get(keyCurrent, &id); err != nil {
		return "", domain.NewRepositoryError("LoadCurrentTrack", "history", "failed to load current track", err)
	}
	return id, nil
}

// Clear removes all saved history data.
func (r *HistoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.dropPrefix(historyPrefix); err != nil {
		return domain.NewRepositoryError("Clear", "history", "failed to clear history", err)
	}
	return nil
}

// Verify interface compliance at compile time
var _ ports.HistoryRepository = (*HistoryRepository)(nil)
