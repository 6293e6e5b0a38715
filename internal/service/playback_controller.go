// Package service provides the playback business logic for playqueue.
package service

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// ControllerConfig holds the tunable timings of the playback controller.
type ControllerConfig struct {
	// TailGuard is the unplayable margin before the end of a track.
	// Seeks into it are treated as the track finishing.
	TailGuard time.Duration

	// SeekGrace is how long after a seek engine completions are ignored.
	SeekGrace time.Duration

	// StartGrace is how long after a play start engine completions are ignored.
	StartGrace time.Duration

	// SkipDelay is the pause between stopping the old item and loading the next
	// one during skips. Zero loads immediately.
	SkipDelay time.Duration

	// RestartThreshold is the elapsed time after which skipping backward
	// restarts the current track instead of moving to the previous one.
	RestartThreshold time.Duration

	// UpdateInterval is how often the elapsed position is sampled.
	UpdateInterval time.Duration

	// NowPlayingInterval is the minimum spacing of tick-driven now-playing pushes.
	NowPlayingInterval time.Duration

	// NowPlayingDrift is how far elapsed time may drift from what the media
	// center extrapolates before a correction is pushed.
	NowPlayingDrift time.Duration
}

// DefaultControllerConfig returns the default controller timings.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		TailGuard:          1200 * time.Millisecond,
		SeekGrace:          time.Second,
		StartGrace:         500 * time.Millisecond,
		SkipDelay:          0,
		RestartThreshold:   3 * time.Second,
		UpdateInterval:     333 * time.Millisecond, // 3 times per second
		NowPlayingInterval: time.Second,
		NowPlayingDrift:    time.Second,
	}
}

// ControllerOption customizes a PlaybackController.
type ControllerOption func(*PlaybackController)

// WithClock replaces the wall clock used for grace windows and position tracking.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *PlaybackController) {
		c.now = now
	}
}

// WithRand replaces the random source used for shuffling.
func WithRand(rng *rand.Rand) ControllerOption {
	return func(c *PlaybackController) {
		c.queue = NewQueue(rng)
	}
}

// PlaybackController owns the playback session: the current track, the queue
// and its shuffled view, repeat/shuffle modes and the live play token.
//
// All state is guarded by one mutex. Engine callbacks enter through
// DeliverCompletion and are serialized with user commands. Events and
// now-playing pushes are queued while the lock is held and delivered after
// it is released.
type PlaybackController struct {
	// Dependencies (injected)
	logger    *slog.Logger
	engine    ports.AudioEngine
	bus       ports.EventBus
	scopes    ports.SecurityScopeProvider
	presenter ports.NowPlayingPresenter
	cfg       ControllerConfig
	now       func() time.Time

	// Queue
	queue   *Queue
	current *domain.Track
	index   int
	context string

	// Session
	isPlaying   bool
	loaded      bool // engine holds an active item
	currentTime time.Duration
	duration    time.Duration
	baseline    time.Time     // wall time at which baselinePos was valid
	baselinePos time.Duration // position at baseline
	repeat      domain.RepeatMode
	shuffle     bool
	token       domain.PlayToken
	startedAt   time.Time
	lastSeek    time.Time
	scoped      string // location holding a security scope, "" if none

	// Now playing dedup/throttle
	lastInfo   *domain.NowPlayingInfo
	lastInfoAt time.Time
	limiter    *rate.Limiter

	// Delayed skips
	skipGen   uint64
	skipTimer *time.Timer

	// Concurrency control
	mu            sync.Mutex
	outbox        []func()
	stopUpdate    chan struct{}
	updateRunning bool
	updateWg      sync.WaitGroup
	closed        bool
}

// NewPlaybackController creates a playback controller and starts its position tracker.
// scopes and presenter may be nil when the platform has no such facility.
func NewPlaybackController(
	logger *slog.Logger,
	engine ports.AudioEngine,
	bus ports.EventBus,
	scopes ports.SecurityScopeProvider,
	presenter ports.NowPlayingPresenter,
	cfg ControllerConfig,
	opts ...ControllerOption,
) *PlaybackController {
	if scopes == nil {
		scopes = noScopes{}
	}
	if presenter == nil {
		presenter = noNowPlaying{}
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultControllerConfig().UpdateInterval
	}

	c := &PlaybackController{
		logger:     logger,
		engine:     engine,
		bus:        bus,
		scopes:     scopes,
		presenter:  presenter,
		cfg:        cfg,
		now:        time.Now,
		queue:      NewQueue(nil),
		index:      -1,
		limiter:    rate.NewLimiter(rate.Every(cfg.NowPlayingInterval), 1),
		stopUpdate: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	logger.Debug("playback controller initialized")

	c.startUpdateRoutine()

	return c
}

// unlock releases the lock and then runs the side effects queued while it was held.
func (c *PlaybackController) unlock() {
	pending := c.outbox
	c.outbox = nil
	c.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// emit queues an event for delivery after the lock is released.
func (c *PlaybackController) emit(event domain.Event) {
	c.outbox = append(c.outbox, func() {
		c.bus.Publish(event)
	})
}

// Play starts track from queue. An empty queue plays track alone.
// Passing the same ordered queue again keeps the existing shuffle order.
func (c *PlaybackController) Play(track domain.Track, queue []domain.Track, context string) error {
	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return domain.ErrShutdown
	}
	c.cancelPendingSkipLocked()

	incoming := queue
	if len(incoming) == 0 {
		incoming = []domain.Track{track}
	}

	if !c.queue.Matches(incoming) {
		var lead *domain.Track
		if c.shuffle {
			lead = &track
		}
		c.queue.Replace(incoming, lead)
		c.logger.Debug("queue replaced", slog.Int("tracks", len(incoming)), slog.String("context", context))
		c.emit(domain.NewQueueChangedEvent(c.queue.Original(), context))
	} else if context != c.context {
		c.emit(domain.NewQueueChangedEvent(c.queue.Original(), context))
	}
	c.context = context

	index := c.queue.IndexOf(track, c.shuffle)
	if index < 0 {
		c.logger.Warn("track not found in queue, starting from first entry",
			slog.String("track_id", track.ID),
			slog.String("location", track.Location))
		index = 0
	}

	return c.startIndexLocked(index)
}

// startIndexLocked loads and plays the track at index in the active view.
func (c *PlaybackController) startIndexLocked(index int) error {
	resolved, ok := c.queue.At(index, c.shuffle)
	if !ok {
		c.logger.Error("play index out of range", slog.Int("index", index), slog.Int("queue_len", c.queue.Len()))
		return domain.ErrInvalidIndex
	}

	// Never let two items overlap.
	if c.loaded && c.current != nil && c.current.Location != resolved.Location {
		if err := c.engine.Stop(); err != nil && !errors.Is(err, domain.ErrNothingPlaying) {
			c.logger.Warn("failed to stop previous track", slog.Any("error", err))
		}
		c.loaded = false
	}
	c.releaseScopeLocked()

	c.index = index
	c.current = &resolved
	c.acquireScopeLocked(resolved.Location)

	c.currentTime = 0
	c.duration = resolved.Duration
	c.isPlaying = true

	token := c.mintTokenLocked()
	now := c.now()
	c.startedAt = now
	c.lastSeek = time.Time{}

	c.logger.Debug("starting track",
		slog.String("location", resolved.Location),
		slog.Int("index", index),
		slog.Uint64("token", uint64(token)))

	if err := c.engine.Play(resolved.Location, token, c.handleEngineCompletion); err != nil {
		c.logger.Warn("engine failed to start track",
			slog.String("location", resolved.Location),
			slog.Any("error", err))
		wrapped := domain.NewServiceError("PlaybackController", "Play", "engine failed to start", err)
		c.emit(domain.NewTrackErrorEvent(resolved, wrapped))
		c.stopLocked(false)
		return wrapped
	}
	c.loaded = true

	if c.duration == 0 {
		if reporter, ok := c.engine.(ports.DurationReporter); ok {
			c.duration = reporter.Duration()
		}
	}

	c.baseline = now
	c.baselinePos = 0

	c.emit(domain.NewTrackStartedEvent(resolved, index, token))
	c.pushNowPlayingLocked(true)
	c.emitStateLocked()

	return nil
}

// mintTokenLocked makes a new token live, invalidating every earlier one.
func (c *PlaybackController) mintTokenLocked() domain.PlayToken {
	c.token++
	return c.token
}

// TogglePlayPause pauses a playing track or resumes a paused one.
// A track kept after a stop is started again from the beginning.
func (c *PlaybackController) TogglePlayPause() error {
	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return domain.ErrShutdown
	}
	if c.current == nil {
		return domain.ErrNoTrackLoaded
	}
	c.cancelPendingSkipLocked()

	now := c.now()

	switch {
	case c.isPlaying:
		c.currentTime = c.elapsedLocked(now)
		if err := c.engine.Pause(); err != nil {
			c.logger.Warn("failed to pause", slog.Any("error", err))
			return domain.NewServiceError("PlaybackController", "Pause", "engine pause failed", err)
		}
		c.isPlaying = false
		c.emit(domain.NewTrackPausedEvent(*c.current, c.currentTime))

	case !c.loaded:
		return c.startIndexLocked(c.index)

	default:
		if err := c.engine.Resume(); err != nil {
			c.logger.Warn("failed to resume", slog.Any("error", err))
			return domain.NewServiceError("PlaybackController", "Resume", "engine resume failed", err)
		}
		c.baseline = now
		c.baselinePos = c.currentTime
		c.isPlaying = true
		c.emit(domain.NewTrackResumedEvent(*c.current, c.currentTime))
	}

	c.pushNowPlayingLocked(true)
	c.emitStateLocked()
	return nil
}

// Stop stops playback. With clearTrack the current track and context are dropped too.
func (c *PlaybackController) Stop(clearTrack bool) {
	c.mu.Lock()
	defer c.unlock()

	c.cancelPendingSkipLocked()
	c.stopLocked(clearTrack)
}

// stopLocked invalidates the live token before touching the engine so that a
// late completion from the stopped item can never be taken for a new one.
func (c *PlaybackController) stopLocked(clearTrack bool) {
	c.mintTokenLocked()

	if err := c.engine.Stop(); err != nil && !errors.Is(err, domain.ErrNothingPlaying) {
		c.logger.Warn("failed to stop engine", slog.Any("error", err))
	}
	c.loaded = false
	c.releaseScopeLocked()

	c.isPlaying = false
	c.currentTime = 0
	c.duration = 0

	if c.current != nil {
		c.emit(domain.NewTrackStoppedEvent(*c.current, clearTrack))
	}

	if clearTrack {
		c.current = nil
		c.context = ""
		c.index = -1
		c.clearNowPlayingLocked()
	} else {
		c.pushNowPlayingLocked(true)
	}

	c.emitStateLocked()
}

// Seek moves playback to position. Seeking into the tail guard finishes the track.
// Without a current track this is a no-op.
func (c *PlaybackController) Seek(position time.Duration) error {
	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return domain.ErrShutdown
	}
	c.cancelPendingSkipLocked()

	return c.seekLocked(position)
}

func (c *PlaybackController) seekLocked(position time.Duration) error {
	if c.current == nil {
		return nil
	}
	if position < 0 {
		position = 0
	}

	duration := c.duration
	if duration <= 0 {
		duration = c.current.Duration
	}
	if duration > 0 {
		safeEnd := max(duration-c.cfg.TailGuard, 0)
		if position > 0 && position >= safeEnd {
			c.logger.Debug("seek into tail guard, finishing track",
				slog.Duration("position", position),
				slog.Duration("duration", duration))
			c.finishTrackLocked(c.token)
			return nil
		}
	}

	if !c.loaded {
		if err := c.startIndexLocked(c.index); err != nil {
			return err
		}
	}

	now := c.now()
	c.lastSeek = now

	token := c.token
	if err := c.engine.Seek(position, func() { c.onSeekApplied(token, position) }); err != nil {
		c.logger.Warn("seek failed", slog.Duration("position", position), slog.Any("error", err))
		return domain.NewServiceError("PlaybackController", "Seek", "engine seek failed", err)
	}

	c.currentTime = position
	c.baseline = now
	c.baselinePos = position

	if !c.isPlaying {
		if err := c.engine.Resume(); err != nil {
			c.logger.Warn("failed to resume after seek", slog.Any("error", err))
		} else {
			c.isPlaying = true
		}
	}

	c.emit(domain.NewTrackSeekedEvent(position))
	c.pushNowPlayingLocked(true)
	c.emitStateLocked()
	return nil
}

// onSeekApplied re-anchors position tracking and the seek grace window to the
// moment the engine actually applied the seek.
func (c *PlaybackController) onSeekApplied(token domain.PlayToken, position time.Duration) {
	c.mu.Lock()
	defer c.unlock()

	if token != c.token || !c.isPlaying {
		return
	}
	now := c.now()
	c.lastSeek = now
	c.baseline = now
	c.baselinePos = position
}

// SkipForward moves to the next track. At the end of the queue it wraps when
// a repeat mode is active and stops otherwise.
func (c *PlaybackController) SkipForward() error {
	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return domain.ErrShutdown
	}
	if c.current == nil {
		return domain.ErrNoTrackLoaded
	}

	next := c.index + 1
	if next >= c.queue.Len() {
		if c.repeat == domain.RepeatOff {
			c.cancelPendingSkipLocked()
			c.stopLocked(false)
			return nil
		}
		next = 0
	}

	return c.skipToLocked(next)
}

// SkipBackward restarts the current track when more than RestartThreshold has
// elapsed, otherwise moves to the previous track.
func (c *PlaybackController) SkipBackward() error {
	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return domain.ErrShutdown
	}
	if c.current == nil {
		return domain.ErrNoTrackLoaded
	}

	if c.loaded && c.elapsedLocked(c.now()) > c.cfg.RestartThreshold {
		c.cancelPendingSkipLocked()
		return c.seekLocked(0)
	}

	prev := c.index - 1
	if prev < 0 {
		if c.repeat != domain.RepeatOff {
			prev = c.queue.Len() - 1
		} else {
			prev = 0
		}
	}

	return c.skipToLocked(prev)
}

// skipToLocked stops the current item, moves the index and plays the target,
// either immediately or after SkipDelay. Only the latest pending skip loads audio.
func (c *PlaybackController) skipToLocked(index int) error {
	target, ok := c.queue.At(index, c.shuffle)
	if !ok {
		return domain.ErrInvalidIndex
	}

	c.cancelPendingSkipLocked()
	c.stopLocked(false)

	c.index = index
	c.current = &target

	if c.cfg.SkipDelay <= 0 {
		return c.startIndexLocked(index)
	}

	gen := c.skipGen
	c.skipTimer = time.AfterFunc(c.cfg.SkipDelay, func() {
		c.mu.Lock()
		defer c.unlock()

		if c.closed || gen != c.skipGen {
			return
		}
		c.skipTimer = nil
		// The view may have been reshuffled while the skip was pending.
		at := c.queue.IndexOf(target, c.shuffle)
		if at < 0 {
			c.logger.Warn("delayed skip target left the queue", slog.String("track_id", target.ID))
			return
		}
		if err := c.startIndexLocked(at); err != nil {
			c.logger.Warn("delayed skip failed", slog.Int("index", at), slog.Any("error", err))
		}
	})
	c.emitStateLocked()

	return nil
}

// cancelPendingSkipLocked invalidates any delayed skip that has not fired yet.
func (c *PlaybackController) cancelPendingSkipLocked() {
	c.skipGen++
	if c.skipTimer != nil {
		c.skipTimer.Stop()
		c.skipTimer = nil
	}
}

// ToggleShuffle switches between the original and shuffled views without
// interrupting the current track. Returns the new shuffle state.
func (c *PlaybackController) ToggleShuffle() bool {
	c.mu.Lock()
	defer c.unlock()

	c.shuffle = !c.shuffle

	if c.shuffle {
		c.queue.Reshuffle(c.current)
		if c.current != nil {
			c.index = 0
		}
	} else if c.current != nil {
		c.index = c.queue.IndexOf(*c.current, false)
		if c.index < 0 {
			c.logger.Error("current track missing from original queue", slog.String("track_id", c.current.ID))
			c.index = 0
		}
	}

	c.emit(domain.NewShuffleToggledEvent(c.shuffle))
	c.emitStateLocked()

	return c.shuffle
}

// ToggleRepeatMode cycles off → all → one → off and returns the new mode.
func (c *PlaybackController) ToggleRepeatMode() domain.RepeatMode {
	c.mu.Lock()
	defer c.unlock()

	c.repeat = c.repeat.Next()

	c.emit(domain.NewRepeatModeChangedEvent(c.repeat))
	c.emitStateLocked()

	return c.repeat
}

// Restore cues a saved session without starting playback.
// currentID selects the current track; empty or unknown IDs leave nothing loaded.
// Anything already playing is halted and its token retired.
func (c *PlaybackController) Restore(queue []domain.Track, currentID, context string, repeat domain.RepeatMode, shuffle bool) {
	c.mu.Lock()
	defer c.unlock()

	c.cancelPendingSkipLocked()
	c.mintTokenLocked()
	if c.loaded {
		if err := c.engine.Stop(); err != nil && !errors.Is(err, domain.ErrNothingPlaying) {
			c.logger.Warn("failed to stop engine before restore", slog.Any("error", err))
		}
	}
	c.loaded = false
	c.releaseScopeLocked()
	c.isPlaying = false
	c.currentTime = 0
	c.duration = 0
	if c.current != nil {
		c.clearNowPlayingLocked()
	}

	c.repeat = repeat
	c.shuffle = shuffle
	c.context = context
	c.current = nil
	c.index = -1

	var lead *domain.Track
	for i := range queue {
		if queue[i].ID != "" && queue[i].ID == currentID {
			lead = &queue[i]
			break
		}
	}
	c.queue.Replace(queue, lead)

	if lead != nil {
		c.index = c.queue.IndexOf(*lead, c.shuffle)
		track, _ := c.queue.At(c.index, c.shuffle)
		c.current = &track
		c.duration = track.Duration
	}

	c.logger.Debug("session restored",
		slog.Int("tracks", len(queue)),
		slog.Int("index", c.index),
		slog.String("repeat", repeat.String()),
		slog.Bool("shuffle", shuffle))

	c.emitStateLocked()
}

// DeliverCompletion is the single entry point for end-of-track signals.
// It reports whether the completion was honored.
func (c *PlaybackController) DeliverCompletion(token domain.PlayToken) bool {
	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return false
	}

	if reason, discard := c.shouldDiscardLocked(token); discard {
		c.logger.Debug("completion discarded",
			slog.Uint64("token", uint64(token)),
			slog.Uint64("live_token", uint64(c.token)),
			slog.String("reason", string(reason)))
		c.emit(domain.NewCompletionDiscardedEvent(token, reason))
		return false
	}

	// The engine has released the finished item.
	c.loaded = false
	c.finishTrackLocked(token)
	return true
}

// handleEngineCompletion is the callback handed to the engine with every play.
func (c *PlaybackController) handleEngineCompletion(token domain.PlayToken) {
	c.DeliverCompletion(token)
}

func (c *PlaybackController) shouldDiscardLocked(token domain.PlayToken) (domain.DiscardReason, bool) {
	if token != c.token {
		return domain.DiscardStaleToken, true
	}
	if !c.isPlaying {
		return domain.DiscardNotPlaying, true
	}

	now := c.now()
	if now.Sub(c.startedAt) < c.cfg.StartGrace {
		return domain.DiscardStartWindow, true
	}
	if !c.lastSeek.IsZero() && now.Sub(c.lastSeek) < c.cfg.SeekGrace {
		return domain.DiscardSeekWindow, true
	}
	return "", false
}

// finishTrackLocked applies the end-of-track policy:
// repeat-one replays, otherwise advance; at the end wrap for repeat-all or stop.
func (c *PlaybackController) finishTrackLocked(token domain.PlayToken) {
	length := c.queue.Len()
	if c.current == nil || c.index < 0 || c.index >= length {
		c.logger.Error("current index out of bounds at end of track",
			slog.Int("index", c.index),
			slog.Int("queue_len", length))
		c.stopLocked(false)
		return
	}

	c.emit(domain.NewTrackCompletedEvent(*c.current, token))

	var next int
	switch {
	case c.repeat == domain.RepeatOne:
		next = c.index
	case c.index < length-1:
		next = c.index + 1
	case c.repeat == domain.RepeatAll:
		next = 0
	default:
		c.logger.Debug("end of queue reached")
		c.stopLocked(false)
		return
	}

	// startIndexLocked logs and stops on failure.
	_ = c.startIndexLocked(next)
}

// acquireScopeLocked starts sandboxed access for location when required.
// Failure is reported but playback is still attempted.
func (c *PlaybackController) acquireScopeLocked(location string) {
	if !c.scopes.RequiresScope(location) {
		return
	}
	if !c.scopes.BeginScope(location) {
		c.logger.Warn("security scope not granted, attempting playback anyway", slog.String("location", location))
		c.emit(domain.NewScopeDeniedEvent(location))
		return
	}
	c.scoped = location
}

func (c *PlaybackController) releaseScopeLocked() {
	if c.scoped == "" {
		return
	}
	c.scopes.EndScope(c.scoped)
	c.scoped = ""
}

// elapsedLocked returns the playback position at now, clamped to the duration.
func (c *PlaybackController) elapsedLocked(now time.Time) time.Duration {
	if !c.isPlaying {
		return c.currentTime
	}
	position := c.baselinePos + now.Sub(c.baseline)
	if position < 0 {
		position = 0
	}
	if c.duration > 0 && position > c.duration {
		position = c.duration
	}
	return position
}

// State returns a snapshot of the playback session.
func (c *PlaybackController) State() domain.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

func (c *PlaybackController) snapshotLocked() domain.PlaybackState {
	state := domain.PlaybackState{
		CurrentIndex: c.index,
		Queue:        c.queue.Snapshot(c.shuffle),
		Context:      c.context,
		IsPlaying:    c.isPlaying,
		CurrentTime:  c.elapsedLocked(c.now()),
		Duration:     c.duration,
		RepeatMode:   c.repeat,
		Shuffle:      c.shuffle,
		Token:        c.token,
	}
	if c.current != nil {
		track := *c.current
		state.CurrentTrack = &track
	}
	return state
}

func (c *PlaybackController) emitStateLocked() {
	c.emit(domain.NewStateChangedEvent(c.snapshotLocked()))
}

// pushNowPlayingLocked queues a now-playing update when something material changed.
// Unforced pushes that only correct elapsed time are rate limited.
func (c *PlaybackController) pushNowPlayingLocked(force bool) {
	if c.current == nil {
		return
	}

	now := c.now()
	info := domain.NowPlayingInfo{
		Title:    c.current.Title,
		Artist:   c.current.Artist,
		Album:    c.current.Album,
		Artwork:  c.current.Artwork,
		Duration: c.duration,
		Elapsed:  c.elapsedLocked(now),
	}
	if c.isPlaying {
		info.Rate = 1.0
	}

	if last := c.lastInfo; last != nil && sameNowPlaying(*last, info) {
		expected := last.Elapsed + time.Duration(last.Rate*float64(now.Sub(c.lastInfoAt)))
		drift := info.Elapsed - expected
		if drift < 0 {
			drift = -drift
		}
		if drift < c.cfg.NowPlayingDrift {
			return
		}
		if !force && !c.limiter.Allow() {
			return
		}
	}

	c.lastInfo = &info
	c.lastInfoAt = now
	c.outbox = append(c.outbox, func() {
		c.presenter.Update(info)
	})
}

func (c *PlaybackController) clearNowPlayingLocked() {
	c.lastInfo = nil
	c.outbox = append(c.outbox, c.presenter.Clear)
}

// sameNowPlaying compares everything except elapsed time.
func sameNowPlaying(a, b domain.NowPlayingInfo) bool {
	return a.Title == b.Title &&
		a.Artist == b.Artist &&
		a.Album == b.Album &&
		a.Duration == b.Duration &&
		a.Rate == b.Rate &&
		bytes.Equal(a.Artwork, b.Artwork)
}

// Shutdown stops the position tracker and playback and releases held resources.
func (c *PlaybackController) Shutdown() error {
	c.mu.Lock()

	// Stop update routine
	if c.updateRunning {
		close(c.stopUpdate)
		c.updateRunning = false
	}

	// Release lock before waiting for goroutine to exit (to avoid deadlock)
	c.mu.Unlock()

	c.updateWg.Wait()

	c.mu.Lock()
	defer c.unlock()

	if c.closed {
		return nil
	}
	c.cancelPendingSkipLocked()
	c.stopLocked(true)
	c.closed = true

	return nil
}

// startUpdateRoutine starts the goroutine that samples the playback position.
func (c *PlaybackController) startUpdateRoutine() {
	c.mu.Lock()
	if c.updateRunning {
		c.mu.Unlock()
		return
	}
	c.updateRunning = true
	c.updateWg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.updateWg.Done()
		ticker := time.NewTicker(c.cfg.UpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.stopUpdate:
				return

			case <-ticker.C:
				c.publishProgressUpdate()
			}
		}
	}()
}

// publishProgressUpdate samples elapsed time while a track is playing.
func (c *PlaybackController) publishProgressUpdate() {
	c.mu.Lock()
	defer c.unlock()

	if c.closed || !c.isPlaying || c.current == nil {
		return
	}

	now := c.now()
	c.currentTime = c.elapsedLocked(now)
	c.baseline = now
	c.baselinePos = c.currentTime

	c.emit(domain.NewTrackProgressEvent(c.currentTime, c.duration))
	c.pushNowPlayingLocked(false)
}

// noScopes is used when the platform has no sandbox.
type noScopes struct{}

func (noScopes) RequiresScope(string) bool { return false }
func (noScopes) BeginScope(string) bool    { return true }
func (noScopes) EndScope(string)           {}

// noNowPlaying is used when no media center is available.
type noNowPlaying struct{}

func (noNowPlaying) Update(domain.NowPlayingInfo) {}
func (noNowPlaying) Clear()                       {}

// Verify that PlaybackController implements the expected interface patterns
var _ interface {
	Play(domain.Track, []domain.Track, string) error
	TogglePlayPause() error
	Stop(bool)
	Seek(time.Duration) error
	SkipForward() error
	SkipBackward() error
	ToggleShuffle() bool
	ToggleRepeatMode() domain.RepeatMode
	DeliverCompletion(domain.PlayToken) bool
	State() domain.PlaybackState
	Shutdown() error
} = (*PlaybackController)(nil)
