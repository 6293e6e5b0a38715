package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

func TestHistoryRepository(t *testing.T) {
	repo := NewHistoryRepository()

	tracks, label, err := repo.LoadQueue()
	require.NoError(t, err)
	assert.Empty(t, tracks)
	assert.NotNil(t, tracks)
	assert.Empty(t, label)

	saved := []domain.Track{{ID: "a", Title: "A"}, {ID: "b", Title: "B"}}
	require.NoError(t, repo.SaveQueue(saved, "Album"))
	require.NoError(t, repo.SaveCurrentTrack("b"))

	// Mutating the caller's slice must not leak into the store.
	saved[0].Title = "changed"

	tracks, label, err = repo.LoadQueue()
	require.NoError(t, err)
	assert.Equal(t, "A", tracks[0].Title)
	assert.Equal(t, "Album", label)

	id, err := repo.LoadCurrentTrack()
	require.NoError(t, err)
	assert.Equal(t, "b", id)

	require.NoError(t, repo.Clear())
	tracks, _, _ = repo.LoadQueue()
	assert.Empty(t, tracks)
	id, _ = repo.LoadCurrentTrack()
	assert.Empty(t, id)
}

func TestPreferencesRepository(t *testing.T) {
	repo := NewPreferencesRepository()

	mode, err := repo.LoadRepeatMode()
	require.NoError(t, err)
	assert.Equal(t, domain.RepeatOff, mode)

	require.NoError(t, repo.SaveRepeatMode(domain.RepeatOne))
	require.NoError(t, repo.SaveShuffle(true))

	mode, _ = repo.LoadRepeatMode()
	shuffle, _ := repo.LoadShuffle()
	assert.Equal(t, domain.RepeatOne, mode)
	assert.True(t, shuffle)

	require.NoError(t, repo.Clear())
	mode, _ = repo.LoadRepeatMode()
	shuffle, _ = repo.LoadShuffle()
	assert.Equal(t, domain.RepeatOff, mode)
	assert.False(t, shuffle)
}
