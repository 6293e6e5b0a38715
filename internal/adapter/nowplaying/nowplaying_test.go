package nowplaying

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

type recordingControls struct {
	calls []string
	seeks []time.Duration
	err   error
}

func (c *recordingControls) TogglePlayPause() error {
	c.calls = append(c.calls, "toggle")
	return c.err
}

func (c *recordingControls) SkipForward() error {
	c.calls = append(c.calls, "next")
	return c.err
}

func (c *recordingControls) SkipBackward() error {
	c.calls = append(c.calls, "previous")
	return c.err
}

func (c *recordingControls) Stop(bool) { c.calls = append(c.calls, "stop") }

func (c *recordingControls) Seek(position time.Duration) error {
	c.seeks = append(c.seeks, position)
	return c.err
}

type recordingPresenter struct {
	updates int
	clears  int
}

func (r *recordingPresenter) Update(domain.NowPlayingInfo) { r.updates++ }
func (r *recordingPresenter) Clear()                       { r.clears++ }

func TestLogPresenter(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPresenter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	info := domain.NowPlayingInfo{Title: "Song", Artist: "Band", Album: "Record", Rate: 1}
	p.Update(info)
	info.Elapsed = 30 * time.Second
	p.Update(info)
	p.Clear()

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, `msg="now playing"`))
	assert.Contains(t, out, "title=Song")
	assert.Contains(t, out, "now playing cleared")
}

func TestFanout(t *testing.T) {
	a, b := &recordingPresenter{}, &recordingPresenter{}
	f := Fanout{a, b}

	f.Update(domain.NowPlayingInfo{Title: "x"})
	f.Clear()

	assert.Equal(t, 1, a.updates)
	assert.Equal(t, 1, b.clears)
}

func TestMPRISMetadata(t *testing.T) {
	meta := mprisMetadata(domain.NowPlayingInfo{
		Title:    "Song",
		Artist:   "Band",
		Album:    "Record",
		Duration: 3 * time.Minute,
	}, "file:///tmp/cover.img")

	assert.Equal(t, "Song", meta["xesam:title"].Value())
	assert.Equal(t, []string{"Band"}, meta["xesam:artist"].Value())
	assert.Equal(t, "Record", meta["xesam:album"].Value())
	assert.Equal(t, int64(180_000_000), meta["mpris:length"].Value())
	assert.Equal(t, "file:///tmp/cover.img", meta["mpris:artUrl"].Value())
	assert.Equal(t, mprisTrackPath, meta["mpris:trackid"].Value())

	sparse := mprisMetadata(domain.NowPlayingInfo{Title: "Untitled"}, "")
	assert.NotContains(t, sparse, "mpris:length")
	assert.NotContains(t, sparse, "xesam:artist")
	assert.NotContains(t, sparse, "mpris:artUrl")
}

func TestMPRISPlayerRoutesCommands(t *testing.T) {
	controls := &recordingControls{}
	player := &mprisPlayer{controls: controls}

	// Play while paused toggles, Pause while paused does nothing.
	player.observe(domain.NowPlayingInfo{Title: "Song", Elapsed: 10 * time.Second})
	assert.Nil(t, player.Play())
	assert.Nil(t, player.Pause())

	player.observe(domain.NowPlayingInfo{Title: "Song", Elapsed: 10 * time.Second, Rate: 1})
	assert.Nil(t, player.Pause())
	assert.Nil(t, player.Next())
	assert.Nil(t, player.Previous())
	assert.Nil(t, player.Stop())

	assert.Equal(t, []string{"toggle", "toggle", "next", "previous", "stop"}, controls.calls)

	assert.Nil(t, player.Seek(-20_000_000))
	assert.Nil(t, player.Seek(5_000_000))
	assert.Nil(t, player.SetPosition(mprisTrackPath, 42_000_000))
	assert.Nil(t, player.SetPosition(dbus.ObjectPath("/other"), 1))
	assert.Equal(t, []time.Duration{0, 15 * time.Second, 42 * time.Second}, controls.seeks)
}

func TestMPRISPlayerReportsErrors(t *testing.T) {
	controls := &recordingControls{err: errors.New("no track")}
	player := &mprisPlayer{controls: controls}

	derr := player.Next()
	require.NotNil(t, derr)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", derr.Name)

	assert.NotNil(t, player.OpenUri("file:///x.mp3"))
}
