// Package beepaudio implements the AudioEngine port on top of gopxl/beep.
// Decoding is pure Go; speaker output needs a native audio backend.
package beepaudio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

// SupportedExtensions lists the file extensions this engine can decode.
var SupportedExtensions = []string{".mp3", ".wav"}

// IsSupported reports whether location has a decodable extension.
func IsSupported(location string) bool {
	ext := strings.ToLower(filepath.Ext(location))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// openStream opens and decodes location. The returned streamer owns the file.
func openStream(location string) (beep.StreamSeekCloser, beep.Format, error) {
	if location == "" {
		return nil, beep.Format{}, domain.ErrInvalidFilePath
	}
	if !IsSupported(location) {
		return nil, beep.Format{}, domain.NewAudioEngineError("open", location, "unsupported format", domain.ErrUnsupportedFormat)
	}

	f, err := os.Open(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, beep.Format{}, domain.NewAudioEngineError("open", location, "file not found", domain.ErrFileNotFound)
		}
		return nil, beep.Format{}, domain.NewAudioEngineError("open", location, "cannot open file", err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(location)) {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	default:
		stream, format, err = wav.Decode(f)
	}
	if err != nil {
		_ = f.Close()
		return nil, beep.Format{}, domain.NewAudioEngineError("decode", location, "cannot decode audio", err)
	}

	return stream, format, nil
}

// ProbeDuration decodes the header of location and returns its length.
func ProbeDuration(location string) (time.Duration, error) {
	stream, format, err := openStream(location)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	return format.SampleRate.D(stream.Len()), nil
}
