//go:build (linux && cgo) || windows || darwin

package beepaudio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// Available indicates whether speaker output is compiled in.
const Available = true

// Engine plays one item at a time through the beep speaker.
//
// Thread-safety: e.mu guards the active item; fields read by the speaker
// goroutine are only touched under speaker.Lock.
type Engine struct {
	logger *slog.Logger
	config ports.AudioEngineConfig

	initialized bool
	sampleRate  beep.SampleRate
	active      *item
	mu          sync.Mutex
}

// item is the currently loaded stream.
type item struct {
	location string
	token    domain.PlayToken
	stream   beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
}

// NewEngine creates a beep engine. Call Initialize before playing.
func NewEngine(logger *slog.Logger, config ports.AudioEngineConfig) *Engine {
	if config.SampleRate <= 0 {
		config.SampleRate = 44100
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100 * time.Millisecond
	}
	return &Engine{
		logger: logger,
		config: config,
	}
}

// Initialize opens the speaker at sampleRate, or the configured rate when zero.
func (e *Engine) Initialize(sampleRate int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return domain.ErrAlreadyInitialized
	}
	if sampleRate <= 0 {
		sampleRate = e.config.SampleRate
	}

	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(e.config.BufferSize)); err != nil {
		return domain.NewAudioEngineError("initialize", "", "speaker init failed", err)
	}

	e.sampleRate = sr
	e.initialized = true
	e.logger.Debug("speaker initialized",
		slog.Int("sample_rate", sampleRate),
		slog.Duration("buffer", e.config.BufferSize))

	return nil
}

// Shutdown stops playback and closes the speaker.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}

	e.releaseLocked()
	speaker.Close()
	e.initialized = false

	return nil
}

// IsInitialized returns true if the speaker is open.
func (e *Engine) IsInitialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Play replaces the active item with location.
func (e *Engine) Play(location string, token domain.PlayToken, onCompletion ports.CompletionFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return domain.ErrNotInitialized
	}

	e.releaseLocked()

	stream, format, err := openStream(location)
	if err != nil {
		return err
	}

	resampled := beep.Resample(4, format.SampleRate, e.sampleRate, stream)
	ctrl := &beep.Ctrl{Streamer: resampled}

	e.active = &item{
		location: location,
		token:    token,
		stream:   stream,
		format:   format,
		ctrl:     ctrl,
	}

	// The callback runs on the speaker goroutine with the speaker locked,
	// so the completion is handed off.
	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		if onCompletion != nil {
			go onCompletion(token)
		}
	})))

	e.logger.Debug("playing",
		slog.String("location", location),
		slog.Uint64("token", uint64(token)),
		slog.Duration("duration", format.SampleRate.D(stream.Len())))

	return nil
}

// Pause pauses the active item.
func (e *Engine) Pause() error {
	return e.setPaused(true)
}

// Resume resumes the active item.
func (e *Engine) Resume() error {
	return e.setPaused(false)
}

func (e *Engine) setPaused(paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return domain.ErrNothingPlaying
	}

	speaker.Lock()
	e.active.ctrl.Paused = paused
	speaker.Unlock()

	return nil
}

// Stop removes the active item from the speaker and closes its file.
// When Stop returns the item's completion can no longer fire.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return domain.ErrNothingPlaying
	}
	e.releaseLocked()
	return nil
}

func (e *Engine) releaseLocked() {
	if e.active == nil {
		return
	}
	speaker.Clear()
	if err := e.active.stream.Close(); err != nil {
		e.logger.Warn("failed to close stream",
			slog.String("location", e.active.location),
			slog.Any("error", err))
	}
	e.active = nil
}

// Seek moves the active item to position; onComplete runs once applied.
func (e *Engine) Seek(position time.Duration, onComplete func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return domain.ErrNothingPlaying
	}

	stream := e.active.stream
	sample := e.active.format.SampleRate.N(position)
	if sample < 0 || sample >= stream.Len() {
		return domain.ErrInvalidPosition
	}

	speaker.Lock()
	err := stream.Seek(sample)
	speaker.Unlock()
	if err != nil {
		return domain.NewAudioEngineError("seek", e.active.location, "seek failed", err)
	}

	if onComplete != nil {
		go onComplete()
	}
	return nil
}

// Duration returns the length of the active item.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return 0
	}
	return e.active.format.SampleRate.D(e.active.stream.Len())
}

// Position returns the decoder position of the active item.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return 0
	}

	speaker.Lock()
	pos := e.active.stream.Position()
	speaker.Unlock()

	return e.active.format.SampleRate.D(pos)
}

// Verify interface compliance at compile time
var (
	_ ports.AudioEngine      = (*Engine)(nil)
	_ ports.DurationReporter = (*Engine)(nil)
)
