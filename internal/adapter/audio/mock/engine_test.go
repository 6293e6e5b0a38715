package mock

import (
	"errors"
	"testing"
	"time"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

// TestNewMockEngine tests creating a new mock engine.
func TestNewMockEngine(t *testing.T) {
	engine := NewEngine()

	if engine == nil {
		t.Fatal("NewEngine returned nil")
	}

	if engine.IsInitialized() {
		t.Error("New engine should not be initialized")
	}

	if engine.ActiveLocation() != "" {
		t.Errorf("Expected no active item, got %q", engine.ActiveLocation())
	}
}

// TestInitializeAlreadyInitialized tests initializing an already initialized engine.
func TestInitializeAlreadyInitialized(t *testing.T) {
	engine := NewEngine()

	if err := engine.Initialize(44100); err != nil {
		t.Fatalf("First Initialize failed: %v", err)
	}

	err := engine.Initialize(44100)
	if !errors.Is(err, domain.ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized, got %v", err)
	}
}

// TestPlayWithoutInitialize tests playing before initialization.
func TestPlayWithoutInitialize(t *testing.T) {
	engine := NewEngine()

	err := engine.Play("/music/a.mp3", 1, nil)
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}

// TestPlayReplacesActiveItem tests that Play swaps the active item.
func TestPlayReplacesActiveItem(t *testing.T) {
	engine := NewEngine()
	_ = engine.Initialize(44100)

	if err := engine.Play("/music/a.mp3", 1, nil); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := engine.Play("/music/b.mp3", 2, nil); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if got := engine.ActiveLocation(); got != "/music/b.mp3" {
		t.Errorf("Expected /music/b.mp3 active, got %q", got)
	}
	if n := engine.CountCalls("play"); n != 2 {
		t.Errorf("Expected 2 play calls, got %d", n)
	}
}

// TestFailPlay tests the configured play failure.
func TestFailPlay(t *testing.T) {
	engine := NewEngine()
	_ = engine.Initialize(44100)
	engine.SetFailPlay(true)

	err := engine.Play("/music/a.mp3", 1, nil)
	if !errors.Is(err, domain.ErrPlaybackFailed) {
		t.Errorf("Expected ErrPlaybackFailed, got %v", err)
	}

	var engineErr *domain.AudioEngineError
	if !errors.As(err, &engineErr) {
		t.Errorf("Expected AudioEngineError, got %T", err)
	}
}

// TestCompleteDeliversToken tests that Complete hands back the play token.
func TestCompleteDeliversToken(t *testing.T) {
	engine := NewEngine()
	_ = engine.Initialize(44100)

	var got domain.PlayToken
	_ = engine.Play("/music/a.mp3", 7, func(token domain.PlayToken) {
		got = token
	})

	if !engine.Complete() {
		t.Fatal("Complete returned false with an active item")
	}
	if got != 7 {
		t.Errorf("Expected token 7, got %d", got)
	}
	if engine.ActiveLocation() != "" {
		t.Error("Active item should be released after completion")
	}
	if engine.Complete() {
		t.Error("Second Complete should report no active item")
	}
}

// TestStopKeepsLastCompletion tests that a stopped item's callback stays reachable.
func TestStopKeepsLastCompletion(t *testing.T) {
	engine := NewEngine()
	_ = engine.Initialize(44100)

	calls := 0
	_ = engine.Play("/music/a.mp3", 3, func(domain.PlayToken) { calls++ })

	if err := engine.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !errors.Is(engine.Stop(), domain.ErrNothingPlaying) {
		t.Error("Expected ErrNothingPlaying on second Stop")
	}

	cb, token := engine.LastCompletion()
	if cb == nil || token != 3 {
		t.Fatalf("Expected last completion with token 3, got %v", token)
	}
	cb(token)
	if calls != 1 {
		t.Errorf("Expected callback to run once, ran %d times", calls)
	}
}

// TestPauseResume tests pausing and resuming the active item.
func TestPauseResume(t *testing.T) {
	engine := NewEngine()
	_ = engine.Initialize(44100)

	if !errors.Is(engine.Pause(), domain.ErrNothingPlaying) {
		t.Error("Expected ErrNothingPlaying when pausing idle engine")
	}

	_ = engine.Play("/music/a.mp3", 1, nil)
	_ = engine.Pause()
	if !engine.IsPaused() {
		t.Error("Engine should be paused")
	}
	_ = engine.Resume()
	if engine.IsPaused() {
		t.Error("Engine should not be paused after resume")
	}
}

// TestSeek tests seeking and deferred seek callbacks.
func TestSeek(t *testing.T) {
	engine := NewEngine()
	_ = engine.Initialize(44100)
	engine.SetDuration(3 * time.Minute)
	_ = engine.Play("/music/a.mp3", 1, nil)

	applied := false
	if err := engine.Seek(30*time.Second, func() { applied = true }); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if applied {
		t.Error("Seek callback must not run synchronously")
	}
	if engine.Position() != 30*time.Second {
		t.Errorf("Expected position 30s, got %v", engine.Position())
	}
	if n := engine.FlushSeeks(); n != 1 || !applied {
		t.Errorf("Expected one applied seek callback, got %d", n)
	}

	if !errors.Is(engine.Seek(4*time.Minute, nil), domain.ErrInvalidPosition) {
		t.Error("Expected ErrInvalidPosition past the end")
	}
}
