package service

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// SessionTarget receives a restored session.
type SessionTarget interface {
	Restore(queue []domain.Track, currentID, context string, repeat domain.RepeatMode, shuffle bool)
}

// SessionService keeps the playback session on disk.
// It listens to controller events and writes each change through to the repositories,
// and cues the last session back into the controller at startup.
type SessionService struct {
	// Dependencies (injected)
	logger  *slog.Logger
	history ports.HistoryRepository
	prefs   ports.PreferencesRepository
	bus     ports.EventBus

	subscriptions []domain.SubscriptionID
	saveErrors    int

	mu sync.Mutex
}

// NewSessionService creates a session service. Call Start to begin recording.
func NewSessionService(
	logger *slog.Logger,
	history ports.HistoryRepository,
	prefs ports.PreferencesRepository,
	bus ports.EventBus,
) *SessionService {
	return &SessionService{
		logger:  logger.With(slog.String("service", "session")),
		history: history,
		prefs:   prefs,
		bus:     bus,
	}
}

// Start subscribes to the events that change the persisted session.
// Calling Start twice is a no-op.
func (s *SessionService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscriptions != nil {
		return
	}

	s.subscriptions = s.bus.SubscribeMany([]domain.EventType{
		domain.EventQueueChanged,
		domain.EventTrackStarted,
		domain.EventTrackStopped,
		domain.EventShuffleToggled,
		domain.EventRepeatModeChanged,
	}, s.handleEvent)
}

// Restore loads the saved session into target without starting playback.
// It reports whether a queue was found.
func (s *SessionService) Restore(target SessionTarget) (bool, error) {
	queue, label, err := s.history.LoadQueue()
	if err != nil {
		return false, domain.NewServiceError("SessionService", "Restore", "failed to load queue", err)
	}
	currentID, err := s.history.LoadCurrentTrack()
	if err != nil {
		return false, domain.NewServiceError("SessionService", "Restore", "failed to load current track", err)
	}
	repeat, err := s.prefs.LoadRepeatMode()
	if err != nil {
		return false, domain.NewServiceError("SessionService", "Restore", "failed to load repeat mode", err)
	}
	shuffle, err := s.prefs.LoadShuffle()
	if err != nil {
		return false, domain.NewServiceError("SessionService", "Restore", "failed to load shuffle", err)
	}

	target.Restore(queue, currentID, label, repeat, shuffle)

	s.logger.Info("session restored",
		slog.Int("tracks", len(queue)),
		slog.String("context", label),
		slog.String("repeat", repeat.String()),
		slog.Bool("shuffle", shuffle))

	return len(queue) > 0, nil
}

// Clear forgets the saved session.
func (s *SessionService) Clear() error {
	return errors.Join(s.history.Clear(), s.prefs.Clear())
}

// SaveErrors returns how many writes have failed since construction.
func (s *SessionService) SaveErrors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErrors
}

// Shutdown stops recording.
func (s *SessionService) Shutdown() error {
	s.mu.Lock()
	subs := s.subscriptions
	s.subscriptions = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}

func (s *SessionService) handleEvent(event domain.Event) {
	var err error

	switch e := event.(type) {
	case domain.QueueChangedEvent:
		err = s.history.SaveQueue(e.Original, e.Context)
	case domain.TrackStartedEvent:
		err = s.history.SaveCurrentTrack(e.Track.ID)
	case domain.TrackStoppedEvent:
		if e.Cleared {
			err = s.history.SaveCurrentTrack("")
		}
	case domain.ShuffleToggledEvent:
		err = s.prefs.SaveShuffle(e.Enabled)
	case domain.RepeatModeChangedEvent:
		err = s.prefs.SaveRepeatMode(e.Mode)
	}

	if err != nil {
		s.mu.Lock()
		s.saveErrors++
		s.mu.Unlock()

		s.logger.Warn("failed to persist session",
			slog.String("event", string(event.Type())),
			slog.Any("error", err))
	}
}

// Verify that SessionService implements the expected interface patterns
var _ interface {
	Start()
	Restore(SessionTarget) (bool, error)
	Clear() error
	Shutdown() error
} = (*SessionService)(nil)
