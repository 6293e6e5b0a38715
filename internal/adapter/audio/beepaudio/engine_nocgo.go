//go:build !((linux && cgo) || windows || darwin)

package beepaudio

import (
	"log/slog"
	"time"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// Available indicates whether speaker output is compiled in.
// Linux speaker output needs cgo.
const Available = false

// Engine is a stand-in that refuses to initialize when speaker output is
// not compiled in. Use the mock engine instead.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates an engine that cannot play.
func NewEngine(logger *slog.Logger, _ ports.AudioEngineConfig) *Engine {
	return &Engine{logger: logger}
}

// Initialize always fails.
func (e *Engine) Initialize(int) error {
	return domain.NewAudioEngineError("initialize", "", "speaker output requires cgo on this platform", domain.ErrNotInitialized)
}

func (e *Engine) Shutdown() error     { return domain.ErrNotInitialized }
func (e *Engine) IsInitialized() bool { return false }

func (e *Engine) Play(string, domain.PlayToken, ports.CompletionFunc) error {
	return domain.ErrNotInitialized
}

func (e *Engine) Pause() error                     { return domain.ErrNothingPlaying }
func (e *Engine) Resume() error                    { return domain.ErrNothingPlaying }
func (e *Engine) Stop() error                      { return domain.ErrNothingPlaying }
func (e *Engine) Seek(time.Duration, func()) error { return domain.ErrNothingPlaying }
func (e *Engine) Duration() time.Duration          { return 0 }
func (e *Engine) Position() time.Duration          { return 0 }

var _ ports.AudioEngine = (*Engine)(nil)
