// Package mock provides a mock implementation of the AudioEngine interface.
// This is used for testing services without an audio device.
package mock

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// Call records one command received by the engine.
type Call struct {
	Op       string
	Location string
	Token    domain.PlayToken
	Position time.Duration
}

// Engine is a mock implementation of the AudioEngine interface.
// It simulates one active item in memory without playing audio.
// Completions never fire on their own; tests trigger them with Complete.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	// Dependencies
	logger *slog.Logger

	initialized bool
	sampleRate  int

	// Active item
	location     string
	token        domain.PlayToken
	onCompletion ports.CompletionFunc
	position     time.Duration
	paused       bool
	duration     time.Duration

	pendingSeeks []func()
	calls        []Call
	mu           sync.RWMutex

	// Behavior configuration (for testing error scenarios)
	failInitialize bool
	failPlay       bool
}

// NewEngine creates a new mock audio engine.
func NewEngine() *Engine {
	return &Engine{}
}

// SetLogger sets the logger for this engine.
// This should be called after construction before using the engine.
func (m *Engine) SetLogger(logger *slog.Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetFailInitialize configures the mock to fail initialization (for testing).
func (m *Engine) SetFailInitialize(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failInitialize = fail
}

// SetFailPlay configures the mock to fail playback (for testing).
func (m *Engine) SetFailPlay(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPlay = fail
}

// SetDuration sets the length reported for every item opened afterwards.
func (m *Engine) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
}

// Initialize initializes the mock audio engine.
func (m *Engine) Initialize(sampleRate int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failInitialize {
		return domain.NewAudioEngineError("initialize", "", "mock initialization failed", nil)
	}

	if m.initialized {
		return domain.ErrAlreadyInitialized
	}

	m.initialized = true
	m.sampleRate = sampleRate
	m.record(Call{Op: "initialize"})

	return nil
}

// Shutdown shuts down the mock audio engine.
func (m *Engine) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	m.initialized = false
	m.clearActive()
	m.record(Call{Op: "shutdown"})

	return nil
}

// IsInitialized returns true if the engine is initialized.
func (m *Engine) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Play replaces the active item.
func (m *Engine) Play(location string, token domain.PlayToken, onCompletion ports.CompletionFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: "play", Location: location, Token: token})

	if !m.initialized {
		return domain.ErrNotInitialized
	}

	if location == "" {
		return domain.ErrInvalidFilePath
	}

	if m.failPlay {
		return domain.NewAudioEngineError("play", location, "mock play failed", domain.ErrPlaybackFailed)
	}

	m.location = location
	m.token = token
	m.onCompletion = onCompletion
	m.position = 0
	m.paused = false

	if m.logger != nil {
		m.logger.Debug("mock play", slog.String("location", location), slog.Uint64("token", uint64(token)))
	}

	return nil
}

// Pause pauses the active item.
func (m *Engine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: "pause"})

	if m.location == "" {
		return domain.ErrNothingPlaying
	}
	m.paused = true
	return nil
}

// Resume resumes the active item.
func (m *Engine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: "resume"})

	if m.location == "" {
		return domain.ErrNothingPlaying
	}
	m.paused = false
	return nil
}

// Stop releases the active item. Its completion will not be delivered by Complete.
func (m *Engine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: "stop"})

	if m.location == "" {
		return domain.ErrNothingPlaying
	}
	m.clearActive()
	return nil
}

// Seek sets the position of the active item. onComplete is held until FlushSeeks.
func (m *Engine) Seek(position time.Duration, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record(Call{Op: "seek", Position: position})

	if m.location == "" {
		return domain.ErrNothingPlaying
	}
	if position < 0 || (m.duration > 0 && position > m.duration) {
		return domain.ErrInvalidPosition
	}

	m.position = position
	if onComplete != nil {
		m.pendingSeeks = append(m.pendingSeeks, onComplete)
	}
	return nil
}

// Duration returns the configured item length.
func (m *Engine) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duration
}

// Complete simulates the active item reaching its end. The completion callback
// runs on the calling goroutine after the engine lock is released.
// Returns false when no item is active.
func (m *Engine) Complete() bool {
	m.mu.Lock()
	cb, token := m.onCompletion, m.token
	active := m.location != ""
	m.clearActive()
	m.mu.Unlock()

	if !active || cb == nil {
		return false
	}
	cb(token)
	return true
}

// LastCompletion returns the completion callback and token of the most recent
// Play, even after the item was stopped. Tests use it to deliver late callbacks.
func (m *Engine) LastCompletion() (ports.CompletionFunc, domain.PlayToken) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.onCompletion, m.token
}

// FlushSeeks runs the pending seek callbacks.
func (m *Engine) FlushSeeks() int {
	m.mu.Lock()
	pending := m.pendingSeeks
	m.pendingSeeks = nil
	m.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
	return len(pending)
}

// ActiveLocation returns the location of the active item, "" when idle.
func (m *Engine) ActiveLocation() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.location
}

// IsPaused reports whether the active item is paused.
func (m *Engine) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Position returns the position of the active item.
func (m *Engine) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// Calls returns a copy of the recorded command log.
func (m *Engine) Calls() []Call {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CountCalls returns how many times op was received.
func (m *Engine) CountCalls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// ResetCalls clears the recorded command log.
func (m *Engine) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Engine) record(c Call) {
	m.calls = append(m.calls, c)
}

// clearActive keeps onCompletion and token for LastCompletion.
func (m *Engine) clearActive() {
	m.location = ""
	m.position = 0
	m.paused = false
	m.pendingSeeks = nil
}

// Verify interface compliance at compile time
var (
	_ ports.AudioEngine      = (*Engine)(nil)
	_ ports.DurationReporter = (*Engine)(nil)
)
