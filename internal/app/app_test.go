package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/playqueue/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	config := DefaultConfig()
	config.Engine = EngineMock
	config.Ephemeral = true
	config.LogOutput = &bytes.Buffer{}
	config.Controller.UpdateInterval = time.Hour
	return config
}

// writeSilence writes a short valid WAV file.
func writeSilence(t *testing.T, path string, length time.Duration) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(format.SampleRate.N(length)), format))
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "playqueue", config.AppName)
	assert.Equal(t, EngineBeep, config.Engine)
	assert.Equal(t, 44100, config.SampleRate)
	assert.False(t, config.MPRIS)
	assert.Equal(t, 1200*time.Millisecond, config.Controller.TailGuard)
	assert.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown engine", func(c *Config) { c.Engine = "bass" }},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
		{"no data dir", func(c *Config) { c.Ephemeral = false; c.DataDir = "" }},
		{"zero update interval", func(c *Config) { c.Controller.UpdateInterval = 0 }},
		{"negative tail guard", func(c *Config) { c.Controller.TailGuard = -time.Second }},
		{"negative seek grace", func(c *Config) { c.Controller.SeekGrace = -time.Second }},
		{"negative start grace", func(c *Config) { c.Controller.StartGrace = -time.Millisecond }},
		{"negative skip delay", func(c *Config) { c.Controller.SkipDelay = -time.Millisecond }},
		{"negative restart threshold", func(c *Config) { c.Controller.RestartThreshold = -time.Second }},
		{"seek grace outlasts tail guard", func(c *Config) {
			c.Controller.TailGuard = time.Second
			c.Controller.SeekGrace = 2 * time.Second
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(t)
			tt.modify(&config)

			var verr *domain.ValidationError
			assert.ErrorAs(t, config.Validate(), &verr)

			_, err := NewApplication(config)
			assert.Error(t, err)
		})
	}
}

func TestApplicationLifecycle(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.NotNil(t, app.Controller())
	assert.NotNil(t, app.Library())
	assert.NotNil(t, app.Session())
	assert.NotNil(t, app.EventBus())
	assert.IsType(t, &mock.Engine{}, app.Engine())

	restored, err := app.Start()
	require.NoError(t, err)
	assert.False(t, restored)

	assert.NoError(t, app.Shutdown())
	// Shutdown again should not panic
	assert.NoError(t, app.Shutdown())
	assert.False(t, app.Engine().IsInitialized())
}

func TestApplicationScanAndPlay(t *testing.T) {
	dir := t.TempDir()
	writeSilence(t, filepath.Join(dir, "b.wav"), time.Second)
	writeSilence(t, filepath.Join(dir, "a.wav"), 2*time.Second)

	app, err := NewApplication(testConfig(t))
	require.NoError(t, err)
	defer app.Shutdown()

	tracks, err := app.Library().ScanFolder(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "a", tracks[0].Title)
	assert.Equal(t, 2*time.Second, tracks[0].Duration)

	require.NoError(t, app.Controller().Play(tracks[0], tracks, filepath.Base(dir)))

	engine := app.Engine().(*mock.Engine)
	assert.Equal(t, tracks[0].Location, engine.ActiveLocation())
	assert.True(t, app.Controller().State().IsPlaying)
}

func TestApplicationPersistsAcrossRestarts(t *testing.T) {
	config := testConfig(t)
	config.Ephemeral = false
	config.DataDir = t.TempDir()

	tracks := []domain.Track{
		{ID: "one", Title: "One", Location: "/music/1.mp3", Duration: time.Minute},
		{ID: "two", Title: "Two", Location: "/music/2.mp3", Duration: time.Minute},
		{ID: "three", Title: "Three", Location: "/music/3.mp3", Duration: time.Minute},
	}

	first, err := NewApplication(config)
	require.NoError(t, err)
	_, err = first.Start()
	require.NoError(t, err)

	require.NoError(t, first.Controller().Play(tracks[1], tracks, "Favourites"))
	first.Controller().ToggleRepeatMode()
	require.NoError(t, first.Shutdown())

	second, err := NewApplication(config)
	require.NoError(t, err)
	defer second.Shutdown()

	restored, err := second.Start()
	require.NoError(t, err)
	assert.True(t, restored)

	state := second.Controller().State()
	require.NotNil(t, state.CurrentTrack)
	assert.Equal(t, "two", state.CurrentTrack.ID)
	assert.Equal(t, "Favourites", state.Context)
	assert.Equal(t, domain.RepeatAll, state.RepeatMode)
	assert.False(t, state.IsPlaying)
	assert.Len(t, state.Queue, 3)
}

func TestScopeRevocationStopsCurrentTrack(t *testing.T) {
	root := t.TempDir()
	album := filepath.Join(root, "album")
	require.NoError(t, os.Mkdir(album, 0o755))

	config := testConfig(t)
	config.SandboxRoots = []string{root}

	app, err := NewApplication(config)
	require.NoError(t, err)
	defer app.Shutdown()

	track := domain.Track{ID: "x", Title: "X", Location: filepath.Join(album, "x.mp3"), Duration: time.Minute}
	require.NoError(t, app.Controller().Play(track, nil, ""))
	require.True(t, app.Controller().State().IsPlaying)

	app.handleScopeRevoked(filepath.Join(root, "elsewhere"))
	assert.True(t, app.Controller().State().IsPlaying)

	app.handleScopeRevoked(album)
	state := app.Controller().State()
	assert.False(t, state.IsPlaying)
	require.NotNil(t, state.CurrentTrack)
}

func TestVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.Equal(t, Version, info.Version)
	assert.Contains(t, info.FullString(), "playqueue")

	info.GitTag = "v1.2.3"
	assert.Contains(t, info.FullString(), "v1.2.3")
}
