package ports

import (
	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

// HistoryRepository persists the playback queue between runs.
//
// Thread-safety: Implementations must be thread-safe.
type HistoryRepository interface {
	// SaveQueue persists the original (unshuffled) queue and its context label.
	SaveQueue(tracks []domain.Track, context string) error

	// LoadQueue retrieves the last saved queue.
	// If no queue was saved, returns an empty slice (not an error).
	LoadQueue() ([]domain.Track, string, error)

	// SaveCurrentTrack persists the identity of the current track.
	SaveCurrentTrack(trackID string) error

	// LoadCurrentTrack retrieves the saved current track ID ("" if none).
	LoadCurrentTrack() (string, error)

	// Clear removes all saved history data.
	Clear() error
}

// PreferencesRepository persists playback mode preferences.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// SaveRepeatMode persists the repeat mode.
	SaveRepeatMode(mode domain.RepeatMode) error

	// LoadRepeatMode retrieves the saved repeat mode (RepeatOff by default).
	LoadRepeatMode() (domain.RepeatMode, error)

	// SaveShuffle persists the shuffle flag.
	SaveShuffle(enabled bool) error

	// LoadShuffle retrieves the saved shuffle flag (false by default).
	LoadShuffle() (bool, error)

	// Clear removes all saved preferences.
	Clear() error
}
