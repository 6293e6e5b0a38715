// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tejashwikalptaru/playqueue/internal/adapter/audio/beepaudio"
	"github.com/tejashwikalptaru/playqueue/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/playqueue/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/playqueue/internal/adapter/metadata"
	"github.com/tejashwikalptaru/playqueue/internal/adapter/nowplaying"
	"github.com/tejashwikalptaru/playqueue/internal/adapter/repository/badgerstore"
	"github.com/tejashwikalptaru/playqueue/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/playqueue/internal/adapter/scope"
	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/logger"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
	"github.com/tejashwikalptaru/playqueue/internal/service"
)

// Engine names accepted in Config.Engine.
const (
	EngineBeep = "beep"
	EngineMock = "mock"
)

// Application is the root structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
type Application struct {
	config Config
	logger *slog.Logger

	// Infrastructure
	eventBus    *eventbus.SyncEventBus
	audioEngine ports.AudioEngine
	scopes      *scope.FolderProvider
	mpris       *nowplaying.MPRISPresenter
	store       *badgerstore.Store

	// Services
	controller *service.PlaybackController
	library    *service.LibraryService
	session    *service.SessionService

	shutdownOnce sync.Once
	shutdownErr  error
}

// Config holds application configuration.
type Config struct {
	// AppName is used for the data directory and the MPRIS bus name
	AppName string

	// DataDir holds the session database. Ignored when Ephemeral is set.
	DataDir string

	// Ephemeral keeps the session in memory only
	Ephemeral bool

	// SandboxRoots are folders whose files need a scope grant before playing
	SandboxRoots []string

	// LogLevel controls logging verbosity
	LogLevel slog.Level

	// LogFormat is "text" or "json"
	LogFormat string

	// LogOutput defaults to stderr
	LogOutput io.Writer

	// Engine selects the audio backend: "beep" or "mock"
	Engine string

	// SampleRate is the speaker sample rate
	SampleRate int

	// BufferSize is the speaker buffer length
	BufferSize time.Duration

	// MPRIS publishes now-playing info on the D-Bus session bus
	MPRIS bool

	// Controller holds the playback timing windows
	Controller service.ControllerConfig
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()

	dataDir := ""
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "playqueue")
	}

	return Config{
		AppName:    "playqueue",
		DataDir:    dataDir,
		Ephemeral:  dataDir == "",
		LogLevel:   loggerCfg.Level,
		LogFormat:  loggerCfg.Format,
		Engine:     EngineBeep,
		SampleRate: 44100,
		BufferSize: 100 * time.Millisecond,
		MPRIS:      false,
		Controller: service.DefaultControllerConfig(),
	}
}

// Validate checks the configuration for values NewApplication cannot use.
func (c Config) Validate() error {
	if c.Engine != EngineBeep && c.Engine != EngineMock {
		return domain.NewValidationError("engine", c.Engine, "must be beep or mock")
	}
	if c.SampleRate <= 0 {
		return domain.NewValidationError("sample_rate", c.SampleRate, "must be positive")
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return domain.NewValidationError("log_format", c.LogFormat, "must be text or json")
	}
	if !c.Ephemeral && c.DataDir == "" {
		return domain.NewValidationError("data_dir", c.DataDir, "required unless ephemeral")
	}
	if c.Controller.UpdateInterval <= 0 {
		return domain.NewValidationError("update_interval", c.Controller.UpdateInterval, "must be positive")
	}
	timings := []struct {
		field string
		value time.Duration
	}{
		{"tail_guard", c.Controller.TailGuard},
		{"seek_grace", c.Controller.SeekGrace},
		{"start_grace", c.Controller.StartGrace},
		{"skip_delay", c.Controller.SkipDelay},
		{"restart_threshold", c.Controller.RestartThreshold},
	}
	for _, t := range timings {
		if t.value < 0 {
			return domain.NewValidationError(t.field, t.value, "must not be negative")
		}
	}
	if c.Controller.TailGuard > 0 && c.Controller.SeekGrace >= c.Controller.TailGuard {
		return domain.NewValidationError("seek_grace", c.Controller.SeekGrace, "must be shorter than tail_guard")
	}
	return nil
}

// NewApplication creates a new application with all dependencies wired.
// On error, everything created so far is released.
func NewApplication(config Config) (_ *Application, err error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	app := &Application{config: config}
	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: config.LogFormat,
		Output: config.LogOutput,
	})
	app.logger.Info("initializing application",
		slog.String("app_name", config.AppName),
		slog.String("version", GetVersionInfo().Version),
		slog.String("engine", config.Engine))

	defer func() {
		if err != nil {
			_ = app.Shutdown()
		}
	}()

	// Step 1: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 2: Create an audio engine
	if app.audioEngine, err = app.createEngine(); err != nil {
		return nil, err
	}

	// Step 3: Create the sandbox scope provider
	app.scopes, err = scope.NewFolderProvider(app.logger.With(slog.String("component", "scope")), config.SandboxRoots)
	if err != nil {
		return nil, fmt.Errorf("failed to create scope provider: %w", err)
	}

	// Step 4: Create now-playing presenters
	controls := &controllerRef{}
	presenters := nowplaying.Fanout{nowplaying.NewLogPresenter(app.logger.With(slog.String("component", "nowplaying")))}
	if config.MPRIS {
		mpris, mprisErr := nowplaying.ConnectMPRIS(app.logger.With(slog.String("component", "mpris")),
			config.AppName, controls, app.artworkDir())
		if mprisErr != nil {
			// Non-fatal - continue without media keys
			app.logger.Warn("MPRIS unavailable", slog.Any("error", mprisErr))
		} else {
			app.mpris = mpris
			presenters = append(presenters, mpris)
		}
	}

	// Step 5: Create repositories
	history, prefs, err := app.createRepositories()
	if err != nil {
		return nil, err
	}

	// Step 6: Create services
	app.controller = service.NewPlaybackController(
		app.logger.With(slog.String("service", "playback")),
		app.audioEngine,
		app.eventBus,
		app.scopes,
		presenters,
		config.Controller,
	)
	controls.set(app.controller)

	app.scopes.SetRevokeHandler(app.handleScopeRevoked)

	app.library = service.NewLibraryService(
		app.logger,
		metadata.NewTagReader(app.logger.With(slog.String("component", "metadata")), beepaudio.ProbeDuration),
		app.eventBus,
		beepaudio.SupportedExtensions,
	)

	app.session = service.NewSessionService(app.logger, history, prefs, app.eventBus)

	return app, nil
}

func (a *Application) createEngine() (ports.AudioEngine, error) {
	switch a.config.Engine {
	case EngineMock:
		engine := mock.NewEngine()
		engine.SetLogger(a.logger.With(slog.String("engine", "mock")))
		if err := engine.Initialize(a.config.SampleRate); err != nil {
			return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
		}
		return engine, nil

	default:
		engine := beepaudio.NewEngine(a.logger.With(slog.String("engine", "beep")), ports.AudioEngineConfig{
			SampleRate: a.config.SampleRate,
			BufferSize: a.config.BufferSize,
		})
		if err := engine.Initialize(a.config.SampleRate); err != nil {
			return nil, fmt.Errorf("failed to initialize audio engine: %w", err)
		}
		return engine, nil
	}
}

func (a *Application) createRepositories() (ports.HistoryRepository, ports.PreferencesRepository, error) {
	if a.config.Ephemeral {
		return memory.NewHistoryRepository(), memory.NewPreferencesRepository(), nil
	}

	store, err := badgerstore.Open(filepath.Join(a.config.DataDir, "session"), a.logger.With(slog.String("component", "store")))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}
	a.store = store

	return badgerstore.NewHistoryRepository(store), badgerstore.NewPreferencesRepository(store), nil
}

func (a *Application) artworkDir() string {
	if a.config.Ephemeral {
		return os.TempDir()
	}
	return filepath.Join(a.config.DataDir, "artwork")
}

// handleScopeRevoked stops playback when the folder of the current track disappears.
func (a *Application) handleScopeRevoked(folder string) {
	state := a.controller.State()
	if state.CurrentTrack == nil {
		return
	}
	if filepath.Dir(state.CurrentTrack.Location) != folder &&
		!strings.HasPrefix(state.CurrentTrack.Location, folder+string(filepath.Separator)) {
		return
	}

	a.logger.Warn("current track folder revoked, stopping", slog.String("folder", folder))
	a.controller.Stop(false)
}

// Start restores the previous session and begins recording changes.
// It reports whether a saved queue was cued.
func (a *Application) Start() (bool, error) {
	restored, err := a.session.Restore(a.controller)
	if err != nil {
		// Non-fatal - start with an empty session
		a.logger.Warn("failed to restore session", slog.Any("error", err))
	}
	a.session.Start()

	a.logger.Info("playqueue started", slog.Bool("restored", restored))
	return restored, nil
}

// Controller returns the playback controller.
func (a *Application) Controller() *service.PlaybackController { return a.controller }

// Library returns the library service.
func (a *Application) Library() *service.LibraryService { return a.library }

// Session returns the session service.
func (a *Application) Session() *service.SessionService { return a.session }

// EventBus returns the event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// Engine returns the audio engine.
func (a *Application) Engine() ports.AudioEngine { return a.audioEngine }

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Shutdown releases everything in reverse order of creation.
// It is safe to call more than once.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		var errs []error
		collect := func(what string, err error) {
			if err != nil {
				a.logger.Warn("shutdown step failed", slog.String("component", what), slog.Any("error", err))
				errs = append(errs, fmt.Errorf("%s: %w", what, err))
			}
		}

		if a.session != nil {
			collect("session", a.session.Shutdown())
		}
		if a.library != nil {
			collect("library", a.library.Shutdown())
		}
		if a.controller != nil {
			collect("controller", a.controller.Shutdown())
		}
		if a.mpris != nil {
			collect("mpris", a.mpris.Close())
		}
		if a.scopes != nil {
			collect("scope", a.scopes.Close())
		}
		if a.audioEngine != nil && a.audioEngine.IsInitialized() {
			collect("audio engine", a.audioEngine.Shutdown())
		}
		if a.store != nil {
			collect("store", a.store.Close())
		}
		if a.eventBus != nil {
			collect("event bus", a.eventBus.Close())
		}

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}

// controllerRef lets the MPRIS presenter exist before the controller it drives.
type controllerRef struct {
	ctrl atomic.Pointer[service.PlaybackController]
}

func (r *controllerRef) set(c *service.PlaybackController) { r.ctrl.Store(c) }

func (r *controllerRef) get() (*service.PlaybackController, error) {
	c := r.ctrl.Load()
	if c == nil {
		return nil, domain.ErrNotInitialized
	}
	return c, nil
}

func (r *controllerRef) TogglePlayPause() error {
	c, err := r.get()
	if err != nil {
		return err
	}
	return c.TogglePlayPause()
}

func (r *controllerRef) SkipForward() error {
	c, err := r.get()
	if err != nil {
		return err
	}
	return c.SkipForward()
}

func (r *controllerRef) SkipBackward() error {
	c, err := r.get()
	if err != nil {
		return err
	}
	return c.SkipBackward()
}

func (r *controllerRef) Stop(clearTrack bool) {
	if c, err := r.get(); err == nil {
		c.Stop(clearTrack)
	}
}

func (r *controllerRef) Seek(position time.Duration) error {
	c, err := r.get()
	if err != nil {
		return err
	}
	return c.Seek(position)
}

var _ nowplaying.Controls = (*controllerRef)(nil)
