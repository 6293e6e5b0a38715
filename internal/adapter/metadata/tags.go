// Package metadata reads track information from audio files.
package metadata

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// DurationProbe returns the playable length of an audio file.
type DurationProbe func(location string) (time.Duration, error)

// TagReader reads ID3/MP4/FLAC/OGG tags with dhowden/tag.
// Tags carry no length, so duration comes from an optional probe.
type TagReader struct {
	logger *slog.Logger
	probe  DurationProbe
}

// NewTagReader creates a reader. probe may be nil, leaving durations unknown.
func NewTagReader(logger *slog.Logger, probe DurationProbe) *TagReader {
	return &TagReader{logger: logger, probe: probe}
}

// TrackID returns the stable identifier for the file at location.
func TrackID(location string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+location)).String()
}

// ReadTrack implements ports.MetadataReader.
func (r *TagReader) ReadTrack(location string) (domain.Track, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return domain.Track{}, domain.NewValidationError("location", location, "cannot resolve path")
	}

	f, err := os.Open(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Track{}, domain.ErrFileNotFound
		}
		return domain.Track{}, domain.NewRepositoryError("ReadTrack", "metadata", "cannot open file", err)
	}
	defer f.Close()

	base := filepath.Base(abs)
	track := domain.Track{
		ID:       TrackID(abs),
		Title:    strings.TrimSuffix(base, filepath.Ext(base)),
		Location: abs,
	}

	m, err := tag.ReadFrom(f)
	switch {
	case err == nil:
		applyTags(&track, m)
	case errors.Is(err, tag.ErrNoTagsFound):
	default:
		r.logger.Debug("unreadable tags", slog.String("location", abs), slog.Any("error", err))
	}

	if r.probe != nil {
		if d, err := r.probe(abs); err == nil {
			track.Duration = d
		} else {
			r.logger.Debug("duration probe failed", slog.String("location", abs), slog.Any("error", err))
		}
	}

	return track, nil
}

func applyTags(track *domain.Track, m tag.Metadata) {
	if title := strings.TrimSpace(m.Title()); title != "" {
		track.Title = title
	}

	track.Artist = strings.TrimSpace(m.Artist())
	if track.Artist == "" {
		track.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	track.Album = strings.TrimSpace(m.Album())

	track.TrackNumber, _ = m.Track()
	track.DiscNumber, _ = m.Disc()

	if pic := m.Picture(); pic != nil {
		track.Artwork = pic.Data
	}
}

// Verify interface compliance at compile time
var _ ports.MetadataReader = (*TagReader)(nil)
