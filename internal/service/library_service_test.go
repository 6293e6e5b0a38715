package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/playqueue/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/logger"
)

// fakeReader derives tracks from file names of the form "album-disc-track-title.ext".
// Names without dashes become untagged tracks.
type fakeReader struct {
	onRead func(path string)
	reads  []string
}

func (r *fakeReader) ReadTrack(location string) (domain.Track, error) {
	r.reads = append(r.reads, location)
	if r.onRead != nil {
		r.onRead(location)
	}
	if strings.Contains(location, "broken") {
		return domain.Track{}, domain.ErrUnsupportedFormat
	}

	base := strings.TrimSuffix(filepath.Base(location), filepath.Ext(location))
	track := domain.Track{ID: "id:" + location, Title: base, Location: location}

	if parts := strings.Split(base, "-"); len(parts) == 4 {
		track.Album = parts[0]
		track.DiscNumber = int(parts[1][0] - '0')
		track.TrackNumber = int(parts[2][0] - '0')
		track.Title = parts[3]
	}
	return track, nil
}

func newTestLibraryService(t *testing.T) (*LibraryService, *fakeReader, *eventbus.SyncEventBus) {
	t.Helper()

	bus := eventbus.NewSyncEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	reader := &fakeReader{}
	svc := NewLibraryService(logger.NewTestLogger(), reader, bus, []string{".mp3", ".WAV"})
	return svc, reader, bus
}

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		full := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, nil, 0o600))
	}
}

func titles(tracks []domain.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}

func TestLibraryService_IsFormatSupported(t *testing.T) {
	svc, _, _ := newTestLibraryService(t)

	assert.True(t, svc.IsFormatSupported("/a/b.mp3"))
	assert.True(t, svc.IsFormatSupported("/a/b.MP3"))
	assert.True(t, svc.IsFormatSupported("/a/b.wav"))
	assert.False(t, svc.IsFormatSupported("/a/b.flac"))
	assert.False(t, svc.IsFormatSupported("/a/noext"))

	formats := svc.GetSupportedFormats()
	assert.ElementsMatch(t, []string{".mp3", ".wav"}, formats)

	formats[0] = ".xyz"
	assert.False(t, svc.IsFormatSupported("/a/b.xyz"))
}

func TestLibraryService_ScanFolderOrdersByAlbum(t *testing.T) {
	svc, _, bus := newTestLibraryService(t)
	root := t.TempDir()

	writeFiles(t, root,
		"b/Beta-1-2-second.mp3",
		"b/Beta-1-1-first.mp3",
		"a/Alpha-2-1-disc two.wav",
		"a/Alpha-1-3-three.mp3",
		"loose.mp3",
		"notes.txt",
		".hidden/Alpha-1-1-ghost.mp3",
	)

	var events []domain.EventType
	var progress []domain.ScanProgress
	bus.SubscribeAll(func(e domain.Event) {
		events = append(events, e.Type())
		if p, ok := e.(domain.ScanProgressEvent); ok {
			progress = append(progress, p.Progress)
		}
	})

	tracks, err := svc.ScanFolder(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"three", "disc two", "first", "second", "loose"}, titles(tracks))
	assert.False(t, svc.IsScanning())

	require.NotEmpty(t, events)
	assert.Equal(t, domain.EventScanStarted, events[0])
	assert.Equal(t, domain.EventScanCompleted, events[len(events)-1])

	require.Len(t, progress, 5)
	last := progress[len(progress)-1]
	assert.Equal(t, 5, last.FilesScanned)
	assert.Equal(t, 5, last.TotalFiles)
	assert.InDelta(t, 100.0, last.Percentage(), 0.001)
}

func TestLibraryService_ScanFolderSkipsUnreadable(t *testing.T) {
	svc, _, _ := newTestLibraryService(t)
	root := t.TempDir()
	writeFiles(t, root, "good.mp3", "broken.mp3")

	tracks, err := svc.ScanFolder(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, titles(tracks))
}

func TestLibraryService_ScanFolder_BadPaths(t *testing.T) {
	svc, _, _ := newTestLibraryService(t)
	root := t.TempDir()
	writeFiles(t, root, "file.mp3")

	_, err := svc.ScanFolder(context.Background(), filepath.Join(root, "missing"))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	_, err = svc.ScanFolder(context.Background(), filepath.Join(root, "file.mp3"))
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLibraryService_ScanFilesKeepsOrder(t *testing.T) {
	svc, reader, _ := newTestLibraryService(t)

	tracks, err := svc.ScanFiles(context.Background(), []string{
		"/m/z.mp3", "/m/readme.txt", "/m/a.wav", "/m/z.mp3",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a"}, titles(tracks))
	assert.Equal(t, []string{"/m/z.mp3", "/m/a.wav"}, reader.reads)
}

func TestLibraryService_CancelScan(t *testing.T) {
	svc, reader, bus := newTestLibraryService(t)
	root := t.TempDir()
	writeFiles(t, root, "1.mp3", "2.mp3", "3.mp3")

	cancelled := false
	bus.Subscribe(domain.EventScanCancelled, func(domain.Event) { cancelled = true })

	reader.onRead = func(string) {
		assert.True(t, svc.IsScanning())
		assert.NoError(t, svc.CancelScan())
	}

	tracks, err := svc.ScanFolder(context.Background(), root)
	assert.ErrorIs(t, err, domain.ErrScanCancelled)
	assert.Nil(t, tracks)
	assert.True(t, cancelled)
	assert.Len(t, reader.reads, 1)
	assert.False(t, svc.IsScanning())
}

func TestLibraryService_ContextCancellation(t *testing.T) {
	svc, _, _ := newTestLibraryService(t)
	root := t.TempDir()
	writeFiles(t, root, "1.mp3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ScanFolder(ctx, root)
	assert.ErrorIs(t, err, domain.ErrScanCancelled)
}

func TestLibraryService_CancelScan_NoScanInProgress(t *testing.T) {
	svc, _, _ := newTestLibraryService(t)

	var serr *domain.ServiceError
	assert.ErrorAs(t, svc.CancelScan(), &serr)
}

func TestLibraryService_ConcurrentScanRejected(t *testing.T) {
	svc, reader, _ := newTestLibraryService(t)

	var nested error
	reader.onRead = func(string) {
		_, nested = svc.ScanFiles(context.Background(), []string{"/x.mp3"})
	}

	_, err := svc.ScanFiles(context.Background(), []string{"/m/a.mp3"})
	require.NoError(t, err)

	var serr *domain.ServiceError
	require.ErrorAs(t, nested, &serr)
	assert.Equal(t, "ScanFiles", serr.Op)
}

func TestLibraryService_ExtractMetadata(t *testing.T) {
	svc, _, _ := newTestLibraryService(t)

	track, err := svc.ExtractMetadata("/m/Alpha-1-4-four.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", track.Album)
	assert.Equal(t, 4, track.TrackNumber)

	_, err = svc.ExtractMetadata("/m/cover.jpg")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestSortTracksUntaggedLast(t *testing.T) {
	tracks := []domain.Track{
		{Title: "b", Location: "/2"},
		{Title: "x", Album: "Zed", TrackNumber: 2},
		{Title: "a", Location: "/1"},
		{Title: "y", Album: "Zed", TrackNumber: 1},
	}

	SortTracks(tracks)

	assert.Equal(t, []string{"y", "x", "a", "b"}, titles(tracks))
}
