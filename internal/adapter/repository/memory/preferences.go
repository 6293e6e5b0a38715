package memory

import (
	"sync"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// PreferencesRepository implements ports.PreferencesRepository in memory.
//
// Thread-safe: All operations protected by sync.RWMutex.
type PreferencesRepository struct {
	repeat  domain.RepeatMode
	shuffle bool
	mu      sync.RWMutex
}

// NewPreferencesRepository creates a repository holding the defaults.
func NewPreferencesRepository() *PreferencesRepository {
	return &PreferencesRepository{}
}

// SaveRepeatMode persists the repeat mode.
func (r *PreferencesRepository) SaveRepeatMode(mode domain.RepeatMode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.repeat = mode
	return nil
}

// LoadRepeatMode retrieves the saved repeat mode.
func (r *PreferencesRepository) LoadRepeatMode() (domain.RepeatMode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.repeat, nil
}

// SaveShuffle persists the shuffle flag.
func (r *PreferencesRepository) SaveShuffle(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shuffle = enabled
	return nil
}

// LoadShuffle retrieves the saved shuffle flag.
func (r *PreferencesRepository) LoadShuffle() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.shuffle, nil
}

// Clear restores the defaults.
func (r *PreferencesRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.repeat = domain.RepeatOff
	r.shuffle = false
	return nil
}

// Verify interface implementation
var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)
