package nowplaying

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

const (
	mprisPath        = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	mprisRootIface   = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisBusPrefix   = "org.mpris.MediaPlayer2."
	mprisTrackPath   = dbus.ObjectPath("/org/playqueue/track/current")
	mprisNoTrack     = dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
)

// Controls is the subset of playback commands reachable from media keys.
type Controls interface {
	TogglePlayPause() error
	SkipForward() error
	SkipBackward() error
	Stop(clearTrack bool)
	Seek(position time.Duration) error
}

// MPRISPresenter exposes the current track on the D-Bus session bus using the
// MPRIS interface, and routes media-key commands to Controls.
type MPRISPresenter struct {
	logger *slog.Logger
	conn   *dbus.Conn
	props  *prop.Properties
	player *mprisPlayer
	artDir string

	mu      sync.Mutex
	artHash string
	artURL  string
}

// ConnectMPRIS connects to the session bus and registers as
// org.mpris.MediaPlayer2.<name>. artDir, when set, receives cover art files.
func ConnectMPRIS(logger *slog.Logger, name string, controls Controls, artDir string) (*MPRISPresenter, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	reply, err := conn.RequestName(mprisBusPrefix+name, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return nil, fmt.Errorf("bus name %s already taken", mprisBusPrefix+name)
	}

	player := &mprisPlayer{controls: controls}
	if err := conn.Export(player, mprisPath, mprisPlayerIface); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to export player: %w", err)
	}
	if err := conn.Export(mprisRoot{}, mprisPath, mprisRootIface); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to export root: %w", err)
	}

	props, err := prop.Export(conn, mprisPath, mprisProperties(name, player))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to export properties: %w", err)
	}

	logger.Info("MPRIS presenter registered", slog.String("bus_name", mprisBusPrefix+name))

	return &MPRISPresenter{
		logger: logger,
		conn:   conn,
		props:  props,
		player: player,
		artDir: artDir,
	}, nil
}

func mprisProperties(name string, player *mprisPlayer) prop.Map {
	ro := func(v any) *prop.Prop {
		return &prop.Prop{Value: v, Writable: false, Emit: prop.EmitTrue}
	}
	return prop.Map{
		mprisRootIface: {
			"CanQuit":             ro(false),
			"CanRaise":            ro(false),
			"HasTrackList":        ro(false),
			"Identity":            ro(name),
			"SupportedUriSchemes": ro([]string{"file"}),
			"SupportedMimeTypes":  ro([]string{"audio/mpeg", "audio/wav"}),
		},
		mprisPlayerIface: {
			"PlaybackStatus": ro("Stopped"),
			"LoopStatus":     ro("None"),
			"Rate":           ro(1.0),
			"Shuffle":        ro(false),
			"Metadata":       ro(map[string]dbus.Variant{"mpris:trackid": dbus.MakeVariant(mprisNoTrack)}),
			"Volume":         ro(1.0),
			"Position":       {Value: int64(0), Writable: false, Emit: prop.EmitFalse},
			"MinimumRate":    ro(1.0),
			"MaximumRate":    ro(1.0),
			"CanGoNext":      ro(true),
			"CanGoPrevious":  ro(true),
			"CanPlay":        ro(true),
			"CanPause":       ro(true),
			"CanSeek":        ro(true),
			"CanControl":     ro(true),
		},
	}
}

// Update publishes info as MPRIS metadata and playback status.
func (m *MPRISPresenter) Update(info domain.NowPlayingInfo) {
	status := "Paused"
	if info.Rate > 0 {
		status = "Playing"
	}

	m.player.observe(info)

	m.props.SetMust(mprisPlayerIface, "Metadata", mprisMetadata(info, m.artworkURL(info.Artwork)))
	m.props.SetMust(mprisPlayerIface, "PlaybackStatus", status)
	m.props.SetMust(mprisPlayerIface, "Position", info.Elapsed.Microseconds())

	// Position does not emit change signals; clients resync on Seeked.
	if err := m.conn.Emit(mprisPath, mprisPlayerIface+".Seeked", info.Elapsed.Microseconds()); err != nil {
		m.logger.Debug("failed to emit Seeked", slog.Any("error", err))
	}
}

// Clear resets the MPRIS state to stopped with no track.
func (m *MPRISPresenter) Clear() {
	m.player.observe(domain.NowPlayingInfo{})

	m.props.SetMust(mprisPlayerIface, "Metadata", map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(mprisNoTrack),
	})
	m.props.SetMust(mprisPlayerIface, "PlaybackStatus", "Stopped")
	m.props.SetMust(mprisPlayerIface, "Position", int64(0))
}

// Close releases the bus connection.
func (m *MPRISPresenter) Close() error {
	return m.conn.Close()
}

// artworkURL writes artwork once per distinct image and returns its file URL.
func (m *MPRISPresenter) artworkURL(artwork []byte) string {
	if len(artwork) == 0 || m.artDir == "" {
		return ""
	}

	hash := uuid.NewSHA1(uuid.NameSpaceOID, artwork).String()

	m.mu.Lock()
	defer m.mu.Unlock()

	if hash == m.artHash {
		return m.artURL
	}

	if err := os.MkdirAll(m.artDir, 0o755); err != nil {
		m.logger.Warn("failed to create artwork dir", slog.String("dir", m.artDir), slog.Any("error", err))
		return ""
	}

	path := filepath.Join(m.artDir, hash+".img")
	if err := os.WriteFile(path, artwork, 0o600); err != nil {
		m.logger.Warn("failed to write cover art", slog.String("path", path), slog.Any("error", err))
		return ""
	}

	m.artHash = hash
	m.artURL = "file://" + path
	return m.artURL
}

// mprisMetadata maps a now-playing snapshot to the xesam/mpris metadata map.
func mprisMetadata(info domain.NowPlayingInfo, artURL string) map[string]dbus.Variant {
	meta := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(mprisTrackPath),
		"xesam:title":   dbus.MakeVariant(info.Title),
	}
	if info.Artist != "" {
		meta["xesam:artist"] = dbus.MakeVariant([]string{info.Artist})
	}
	if info.Album != "" {
		meta["xesam:album"] = dbus.MakeVariant(info.Album)
	}
	if info.Duration > 0 {
		meta["mpris:length"] = dbus.MakeVariant(info.Duration.Microseconds())
	}
	if artURL != "" {
		meta["mpris:artUrl"] = dbus.MakeVariant(artURL)
	}
	return meta
}

// mprisRoot implements org.mpris.MediaPlayer2.
type mprisRoot struct{}

func (mprisRoot) Raise() *dbus.Error { return nil }
func (mprisRoot) Quit() *dbus.Error  { return nil }

// mprisPlayer implements the org.mpris.MediaPlayer2.Player methods.
type mprisPlayer struct {
	controls Controls

	mu      sync.Mutex
	playing bool
	elapsed time.Duration
	loaded  bool
}

func (p *mprisPlayer) observe(info domain.NowPlayingInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = info.Rate > 0
	p.elapsed = info.Elapsed
	p.loaded = info.Title != "" || info.Duration > 0
}

func (p *mprisPlayer) snapshot() (playing, loaded bool, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing, p.loaded, p.elapsed
}

func dbusErr(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	return dbus.MakeFailedError(err)
}

func (p *mprisPlayer) Next() *dbus.Error     { return dbusErr(p.controls.SkipForward()) }
func (p *mprisPlayer) Previous() *dbus.Error { return dbusErr(p.controls.SkipBackward()) }
func (p *mprisPlayer) PlayPause() *dbus.Error {
	return dbusErr(p.controls.TogglePlayPause())
}

func (p *mprisPlayer) Play() *dbus.Error {
	if playing, _, _ := p.snapshot(); playing {
		return nil
	}
	return dbusErr(p.controls.TogglePlayPause())
}

func (p *mprisPlayer) Pause() *dbus.Error {
	if playing, _, _ := p.snapshot(); !playing {
		return nil
	}
	return dbusErr(p.controls.TogglePlayPause())
}

func (p *mprisPlayer) Stop() *dbus.Error {
	p.controls.Stop(false)
	return nil
}

// Seek moves by offset microseconds relative to the current position.
func (p *mprisPlayer) Seek(offset int64) *dbus.Error {
	_, loaded, elapsed := p.snapshot()
	if !loaded {
		return nil
	}
	target := max(elapsed+time.Duration(offset)*time.Microsecond, 0)
	return dbusErr(p.controls.Seek(target))
}

// SetPosition seeks to an absolute position in microseconds.
func (p *mprisPlayer) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	if trackID != mprisTrackPath || position < 0 {
		return nil
	}
	return dbusErr(p.controls.Seek(time.Duration(position) * time.Microsecond))
}

func (p *mprisPlayer) OpenUri(string) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf("opening URIs is not supported"))
}

// Verify interface compliance at compile time
var _ ports.NowPlayingPresenter = (*MPRISPresenter)(nil)
