package metadata

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/logger"
)

// id3Frame builds an ID3v2.3 text frame with ISO-8859-1 encoding.
func id3Frame(id, text string) []byte {
	body := append([]byte{0x00}, text...)
	frame := make([]byte, 10, 10+len(body))
	copy(frame, id)
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(body)))
	return append(frame, body...)
}

// writeTagged writes a file holding only an ID3v2.3 tag.
func writeTagged(t *testing.T, path string, frames ...[]byte) {
	t.Helper()

	var payload []byte
	for _, f := range frames {
		payload = append(payload, f...)
	}
	require.Less(t, len(payload), 128)

	header := []byte{'I', 'D', '3', 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, byte(len(payload))}
	data := append(header, payload...)
	data = append(data, make([]byte, 64)...)

	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func TestTagReader_ReadsID3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "03 - raw name.mp3")
	writeTagged(t, path,
		id3Frame("TIT2", "Hello"),
		id3Frame("TPE1", "Band"),
		id3Frame("TALB", "Record"),
		id3Frame("TRCK", "3/10"),
	)

	reader := NewTagReader(logger.NewTestLogger(), func(string) (time.Duration, error) {
		return 90 * time.Second, nil
	})

	track, err := reader.ReadTrack(path)
	require.NoError(t, err)

	assert.Equal(t, "Hello", track.Title)
	assert.Equal(t, "Band", track.Artist)
	assert.Equal(t, "Record", track.Album)
	assert.Equal(t, 3, track.TrackNumber)
	assert.Equal(t, 90*time.Second, track.Duration)
	assert.Equal(t, path, track.Location)
	assert.Equal(t, TrackID(path), track.ID)
}

func TestTagReader_FallsBackToFileName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "untagged.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF not really a wave file at all"), 0o600))

	reader := NewTagReader(logger.NewTestLogger(), func(string) (time.Duration, error) {
		return 0, errors.New("cannot decode")
	})

	track, err := reader.ReadTrack(path)
	require.NoError(t, err)
	assert.Equal(t, "untagged", track.Title)
	assert.Empty(t, track.Artist)
	assert.Equal(t, time.Duration(0), track.Duration)
}

func TestTagReader_MissingFile(t *testing.T) {
	reader := NewTagReader(logger.NewTestLogger(), nil)

	_, err := reader.ReadTrack(filepath.Join(t.TempDir(), "missing.mp3"))
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestTrackIDIsStable(t *testing.T) {
	a := TrackID("/music/a.mp3")

	assert.Equal(t, a, TrackID("/music/a.mp3"))
	assert.NotEqual(t, a, TrackID("/music/b.mp3"))
	assert.Len(t, a, 36)
}
