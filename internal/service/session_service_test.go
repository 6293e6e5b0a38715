package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/playqueue/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/logger"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

type failingHistory struct {
	ports.HistoryRepository
}

func (failingHistory) SaveQueue([]domain.Track, string) error {
	return errors.New("disk full")
}

func newTestSession(h *controllerHarness, history ports.HistoryRepository, prefs ports.PreferencesRepository) *SessionService {
	s := NewSessionService(logger.NewTestLogger(), history, prefs, h.bus)
	s.Start()
	return s
}

func TestSessionService_RecordsChanges(t *testing.T) {
	h := newTestController(t)
	history := memory.NewHistoryRepository()
	prefs := memory.NewPreferencesRepository()
	session := newTestSession(h, history, prefs)
	defer session.Shutdown()

	tracks := uniformTracks(4)
	require.NoError(t, h.ctrl.Play(tracks[2], tracks, "Album"))

	saved, label, err := history.LoadQueue()
	require.NoError(t, err)
	assert.Equal(t, tracks, saved)
	assert.Equal(t, "Album", label)

	id, _ := history.LoadCurrentTrack()
	assert.Equal(t, "t2", id)

	require.NoError(t, h.ctrl.SkipForward())
	id, _ = history.LoadCurrentTrack()
	assert.Equal(t, "t3", id)

	h.ctrl.ToggleShuffle()
	h.ctrl.ToggleRepeatMode()

	shuffle, _ := prefs.LoadShuffle()
	repeat, _ := prefs.LoadRepeatMode()
	assert.True(t, shuffle)
	assert.Equal(t, domain.RepeatAll, repeat)

	// Shuffling never changes the saved order.
	saved, _, _ = history.LoadQueue()
	assert.Equal(t, tracks, saved)

	h.ctrl.Stop(true)
	id, _ = history.LoadCurrentTrack()
	assert.Empty(t, id)
	assert.Zero(t, session.SaveErrors())
}

func TestSessionService_RecordsNewContextForSameQueue(t *testing.T) {
	h := newTestController(t)
	history := memory.NewHistoryRepository()
	session := newTestSession(h, history, memory.NewPreferencesRepository())
	defer session.Shutdown()

	tracks := uniformTracks(3)
	require.NoError(t, h.ctrl.Play(tracks[0], tracks, "Album"))
	require.NoError(t, h.ctrl.Play(tracks[1], tracks, "Playlist"))

	saved, label, err := history.LoadQueue()
	require.NoError(t, err)
	assert.Equal(t, tracks, saved)
	assert.Equal(t, "Playlist", label)
	assert.Zero(t, session.SaveErrors())
}

func TestSessionService_StopWithoutClearKeepsTrack(t *testing.T) {
	h := newTestController(t)
	history := memory.NewHistoryRepository()
	session := newTestSession(h, history, memory.NewPreferencesRepository())
	defer session.Shutdown()

	tracks := uniformTracks(2)
	require.NoError(t, h.ctrl.Play(tracks[1], tracks, ""))
	h.ctrl.Stop(false)

	id, _ := history.LoadCurrentTrack()
	assert.Equal(t, "t1", id)
}

func TestSessionService_RestoreCuesWithoutPlaying(t *testing.T) {
	history := memory.NewHistoryRepository()
	prefs := memory.NewPreferencesRepository()
	tracks := uniformTracks(5)

	first := newTestController(t)
	recorder := newTestSession(first, history, prefs)
	require.NoError(t, first.ctrl.Play(tracks[3], tracks, "Mix"))
	first.ctrl.ToggleShuffle()
	first.ctrl.ToggleRepeatMode()
	first.ctrl.ToggleRepeatMode()
	require.NoError(t, recorder.Shutdown())

	second := newTestController(t)
	restorer := NewSessionService(logger.NewTestLogger(), history, prefs, second.bus)

	found, err := restorer.Restore(second.ctrl)
	require.NoError(t, err)
	assert.True(t, found)

	state := second.ctrl.State()
	require.NotNil(t, state.CurrentTrack)
	assert.Equal(t, "t3", state.CurrentTrack.ID)
	assert.False(t, state.IsPlaying)
	assert.True(t, state.Shuffle)
	assert.Equal(t, domain.RepeatOne, state.RepeatMode)
	assert.Equal(t, "Mix", state.Context)
	assert.Equal(t, "t3", state.Queue[0].ID)
	assert.ElementsMatch(t, tracks, state.Queue)
	assert.Zero(t, second.engine.CountCalls("play"))

	// Resuming after a restore starts the cued track.
	require.NoError(t, second.ctrl.TogglePlayPause())
	assert.Equal(t, tracks[3].Location, second.engine.ActiveLocation())
}

func TestSessionService_RestoreEmpty(t *testing.T) {
	h := newTestController(t)
	session := NewSessionService(logger.NewTestLogger(),
		memory.NewHistoryRepository(), memory.NewPreferencesRepository(), h.bus)

	found, err := session.Restore(h.ctrl)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, h.ctrl.State().CurrentTrack)
}

func TestSessionService_SaveFailureIsCounted(t *testing.T) {
	h := newTestController(t)
	history := failingHistory{HistoryRepository: memory.NewHistoryRepository()}
	session := newTestSession(h, history, memory.NewPreferencesRepository())
	defer session.Shutdown()

	tracks := uniformTracks(2)
	require.NoError(t, h.ctrl.Play(tracks[0], tracks, ""))

	assert.Equal(t, 1, session.SaveErrors())
}

func TestSessionService_ShutdownStopsRecording(t *testing.T) {
	h := newTestController(t)
	prefs := memory.NewPreferencesRepository()
	session := newTestSession(h, memory.NewHistoryRepository(), prefs)
	session.Start()

	require.NoError(t, session.Shutdown())
	h.ctrl.ToggleShuffle()

	shuffle, _ := prefs.LoadShuffle()
	assert.False(t, shuffle)
	assert.False(t, h.bus.HasSubscribers(domain.EventShuffleToggled))
}

func TestSessionService_Clear(t *testing.T) {
	history := memory.NewHistoryRepository()
	prefs := memory.NewPreferencesRepository()
	require.NoError(t, history.SaveQueue(uniformTracks(1), "x"))
	require.NoError(t, prefs.SaveShuffle(true))

	session := NewSessionService(logger.NewTestLogger(), history, prefs, nil)
	require.NoError(t, session.Clear())

	tracks, _, _ := history.LoadQueue()
	shuffle, _ := prefs.LoadShuffle()
	assert.Empty(t, tracks)
	assert.False(t, shuffle)
}
