package ports

import (
	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

// MetadataReader builds a Track from an audio file on disk.
// Implementations fall back to the file name when tags are missing.
type MetadataReader interface {
	// ReadTrack reads tags and length for location.
	// Returns domain.ErrFileNotFound if the file does not exist.
	ReadTrack(location string) (domain.Track, error)
}
