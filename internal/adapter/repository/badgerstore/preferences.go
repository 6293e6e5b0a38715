package badgerstore

import (
	"sync"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

const (
	keyRepeat  = preferencesPrefix + "repeat"
	keyShuffle = preferencesPrefix + "shuffle"
)

// PreferencesRepository implements ports.PreferencesRepository on a Store.
// Repeat modes are stored by name so the numeric values may change.
type PreferencesRepository struct {
	store *Store
	mu    sync.RWMutex
}

// NewPreferencesRepository creates a new preferences repository.
func NewPreferencesRepository(store *Store) *PreferencesRepository {
	return &PreferencesRepository{store: store}
}

// SaveRepeatMode persists the repeat mode.
func (r *PreferencesRepository) SaveRepeatMode(mode domain.RepeatMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.set(keyRepeat, mode.String()); err != nil {
		return domain.NewRepositoryError("SaveRepeatMode", "preferences", "failed to save repeat mode", err)
	}
	return nil
}

// LoadRepeatMode returns the saved repeat mode, RepeatOff when unset.
func (r *PreferencesRepository) LoadRepeatMode() (domain.RepeatMode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var name string
	if _, err := r.store.get(keyRepeat, &name); err != nil {
		return domain.RepeatOff, domain.NewRepositoryError("LoadRepeatMode", "preferences", "failed to load repeat mode", err)
	}
	return domain.ParseRepeatMode(name), nil
}

// SaveShuffle persists the shuffle flag.
func (r *PreferencesRepository) SaveShuffle(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.set(keyShuffle, enabled); err != nil {
		return domain.NewRepositoryError("SaveShuffle", "preferences", "failed to save shuffle", err)
	}
	return nil
}

// LoadShuffle returns the saved shuffle flag, false when unset.
func (r *PreferencesRepository) LoadShuffle() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var enabled bool
	if _, err := r.store.get(keyShuffle, &enabled); err != nil {
		return false, domain.NewRepositoryError("LoadShuffle", "preferences", "failed to load shuffle", err)
	}
	return enabled, nil
}

// Clear removes all saved preferences.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.dropPrefix(preferencesPrefix); err != nil {
		return domain.NewRepositoryError("Clear", "preferences", "failed to clear preferences", err)
	}
	return nil
}

// Verify interface compliance at compile time
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
