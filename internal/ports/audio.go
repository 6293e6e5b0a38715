// Package ports define interfaces for dependency inversion.
// These interfaces keep the playback controller independent of audio, OS and storage adapters.
package ports

import (
	"time"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

// CompletionFunc is invoked by an engine when the item started with token
// reaches its natural end.
type CompletionFunc func(token domain.PlayToken)

// AudioEngine is the interface for audio rendering backends.
// The engine owns exactly one active item at a time; Play replaces it.
//
// Implementations must be thread-safe. Callbacks (onCompletion, onComplete) are
// delivered asynchronously and must never be invoked from inside the engine
// call that registered them, since the controller holds its lock while calling in.
type AudioEngine interface {
	// Initialize prepares the output device.
	// sampleRate: output sample rate in Hz (e.g., 44100)
	Initialize(sampleRate int) error

	// Shutdown releases all engine resources.
	Shutdown() error

	// IsInitialized returns true if the engine has been successfully initialized.
	IsInitialized() bool

	// Play opens location and starts playback, replacing any active item.
	// onCompletion is called with token when the item ends naturally.
	//
	// Returns an error if the file cannot be opened or decoded.
	Play(location string, token domain.PlayToken, onCompletion CompletionFunc) error

	// Pause pauses the active item, keeping its position.
	Pause() error

	// Resume continues a paused item.
	Resume() error

	// Stop stops and releases the active item. It is synchronous: when it
	// returns the previous resource has been released.
	Stop() error

	// Seek moves the active item to position. onComplete, if non-nil, is
	// called once the engine has applied the seek.
	Seek(position time.Duration, onComplete func()) error
}

// DurationReporter is implemented by engines that can report the real length
// of the active item once it is open.
type DurationReporter interface {
	Duration() time.Duration
}

// AudioEngineConfig contains configuration for creating an audio engine.
type AudioEngineConfig struct {
	// SampleRate is the output sample rate in Hz
	SampleRate int

	// BufferSize is the speaker buffer length
	BufferSize time.Duration
}
