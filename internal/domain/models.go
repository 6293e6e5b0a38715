// Package domain contains core playback models with no external dependencies.
// This package defines the fundamental entities of the playqueue engine.
package domain

import (
	"time"
)

// Track represents a single audio file known to the library.
// Tracks are read-only to the playback controller.
type Track struct {
	// ID is a stable identifier for the track (UUID derived from its location)
	ID string `json:"id"`

	// Title is the song title (from tags or filename)
	Title string `json:"title"`

	// Artist is the performing artist name
	Artist string `json:"artist"`

	// Album is the album name
	Album string `json:"album"`

	// Duration is the total length of the track, zero when unknown
	Duration time.Duration `json:"duration"`

	// Location is the absolute path to the audio file
	Location string `json:"location"`

	// TrackNumber is the position on the album (0 if unknown)
	TrackNumber int `json:"track_number,omitempty"`

	// DiscNumber is the disc for multi-disc albums (0 if unknown)
	DiscNumber int `json:"disc_number,omitempty"`

	// Artwork is embedded cover art, if any. Not persisted.
	Artwork []byte `json:"-"`
}

// SameAs reports whether t and other refer to the same track.
// IDs win when both are set; otherwise the locations are compared.
func (t Track) SameAs(other Track) bool {
	if t.ID != "" && other.ID != "" {
		return t.ID == other.ID
	}
	return t.Location == other.Location
}

// RepeatMode controls what happens when a track ends.
type RepeatMode int

const (
	// RepeatOff stops at the end of the queue
	RepeatOff RepeatMode = iota

	// RepeatAll wraps to the start of the queue
	RepeatAll

	// RepeatOne replays the current track
	RepeatOne
)

// Next returns the mode that follows m in the off → all → one cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatOff:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatOff
	}
}

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "all"
	case RepeatOne:
		return "one"
	default:
		return "off"
	}
}

// ParseRepeatMode converts a string to a RepeatMode. Unknown values map to RepeatOff.
func ParseRepeatMode(s string) RepeatMode {
	switch s {
	case "all", "repeat-all":
		return RepeatAll
	case "one", "repeat-one":
		return RepeatOne
	default:
		return RepeatOff
	}
}

// PlayToken identifies a single play attempt.
// Every play mints a new token; completions carrying any other token are stale.
type PlayToken uint64

// NoToken is the zero token, never handed to an engine.
const NoToken PlayToken = 0

// PlaybackState is an immutable snapshot of the playback session.
// This is what presentation layers read.
type PlaybackState struct {
	// CurrentTrack is the loaded track (nil if none)
	CurrentTrack *Track

	// CurrentIndex is the index into Queue (-1 if no track)
	CurrentIndex int

	// Queue is the active view: shuffled order when Shuffle is on
	Queue []Track

	// Context is the display label the queue was started from (album, playlist)
	Context string

	// IsPlaying is true while audio is advancing
	IsPlaying bool

	// CurrentTime is the elapsed position within the track
	CurrentTime time.Duration

	// Duration is the track length, zero when unknown
	Duration time.Duration

	// RepeatMode is the active repeat policy
	RepeatMode RepeatMode

	// Shuffle indicates whether the shuffled view is active
	Shuffle bool

	// Token is the live play token
	Token PlayToken
}

// NowPlayingInfo is the snapshot pushed to the OS media center.
type NowPlayingInfo struct {
	Title    string
	Artist   string
	Album    string
	Artwork  []byte
	Duration time.Duration
	Elapsed  time.Duration

	// Rate is 1.0 while playing and 0.0 while paused
	Rate float64
}

// ScanProgress represents the progress of a library scan.
type ScanProgress struct {
	// CurrentFile is the file currently being scanned
	CurrentFile string

	// FilesScanned is the number of files processed so far
	FilesScanned int

	// TotalFiles is the total number of files to scan
	TotalFiles int

	// TracksFound is the number of readable tracks found
	TracksFound int
}

// Percentage returns the completion percentage (0-100), or -1 if total is unknown.
func (p ScanProgress) Percentage() float64 {
	if p.TotalFiles <= 0 {
		return -1
	}
	return float64(p.FilesScanned) / float64(p.TotalFiles) * 100.0
}
