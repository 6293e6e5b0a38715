package service

import (
	"cmp"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// LibraryService turns folders and file lists into ordered queues of tracks.
// One scan runs at a time. All operations are thread-safe.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	reader ports.MetadataReader
	bus    ports.EventBus

	// State
	scanning      bool
	cancelScan    context.CancelFunc
	supportedExts []string

	mu sync.RWMutex
}

// NewLibraryService creates a library service that accepts files with the given extensions.
func NewLibraryService(
	logger *slog.Logger,
	reader ports.MetadataReader,
	bus ports.EventBus,
	supportedExts []string,
) *LibraryService {
	exts := lo.Map(supportedExts, func(ext string, _ int) string {
		return strings.ToLower(ext)
	})

	return &LibraryService{
		logger:        logger.With(slog.String("service", "library")),
		reader:        reader,
		bus:           bus,
		supportedExts: lo.Uniq(exts),
	}
}

// ScanFolder walks folderPath recursively and returns its playable tracks in album order.
// Unreadable files are skipped. Publishes scan events while running.
func (s *LibraryService) ScanFolder(ctx context.Context, folderPath string) ([]domain.Track, error) {
	info, err := os.Stat(folderPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrFileNotFound
		}
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", "cannot stat folder", err)
	}
	if !info.IsDir() {
		return nil, domain.NewValidationError("folderPath", folderPath, "not a directory")
	}

	ctx, done, err := s.beginScan(ctx, "ScanFolder")
	if err != nil {
		return nil, err
	}
	defer done()

	s.bus.Publish(domain.NewScanStartedEvent(folderPath))

	files, err := s.collectAudioFiles(ctx, folderPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.bus.Publish(domain.NewScanCancelledEvent("cancelled"))
			return nil, domain.ErrScanCancelled
		}
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", "walk failed", err)
	}

	tracks, err := s.readAll(ctx, files)
	if err != nil {
		return nil, err
	}

	SortTracks(tracks)
	s.bus.Publish(domain.NewScanCompletedEvent(tracks))

	s.logger.Info("folder scanned",
		slog.String("folder", folderPath),
		slog.Int("files", len(files)),
		slog.Int("tracks", len(tracks)))

	return tracks, nil
}

// ScanFiles reads the given files in the order supplied, dropping duplicates
// and unsupported formats.
func (s *LibraryService) ScanFiles(ctx context.Context, filePaths []string) ([]domain.Track, error) {
	ctx, done, err := s.beginScan(ctx, "ScanFiles")
	if err != nil {
		return nil, err
	}
	defer done()

	files := lo.Uniq(lo.Filter(filePaths, func(path string, _ int) bool {
		return s.IsFormatSupported(path)
	}))

	tracks, err := s.readAll(ctx, files)
	if err != nil {
		return nil, err
	}

	tracks = lo.UniqBy(tracks, func(t domain.Track) string { return t.ID })
	s.bus.Publish(domain.NewScanCompletedEvent(tracks))

	return tracks, nil
}

// CancelScan cancels the currently running scan operation.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}

	if s.cancelScan != nil {
		s.cancelScan()
	}

	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// IsFormatSupported checks the file extension against the supported list.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	return slices.Contains(s.supportedExts, strings.ToLower(filepath.Ext(filePath)))
}

// GetSupportedFormats returns the list of supported file extensions.
func (s *LibraryService) GetSupportedFormats() []string {
	return slices.Clone(s.supportedExts)
}

// ExtractMetadata reads a single file.
func (s *LibraryService) ExtractMetadata(filePath string) (domain.Track, error) {
	if !s.IsFormatSupported(filePath) {
		return domain.Track{}, domain.ErrUnsupportedFormat
	}
	return s.reader.ReadTrack(filePath)
}

// Shutdown cancels any running scan.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}

	return nil
}

// SortTracks orders tracks by album, disc, track number and title.
// Tracks without an album sort after those with one.
func SortTracks(tracks []domain.Track) {
	slices.SortStableFunc(tracks, func(a, b domain.Track) int {
		if (a.Album == "") != (b.Album == "") {
			if a.Album == "" {
				return 1
			}
			return -1
		}
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.Album), strings.ToLower(b.Album)),
			cmp.Compare(a.DiscNumber, b.DiscNumber),
			cmp.Compare(a.TrackNumber, b.TrackNumber),
			cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)),
			cmp.Compare(a.Location, b.Location),
		)
	})
}

// beginScan marks a scan as running and returns its context and a release func.
func (s *LibraryService) beginScan(parent context.Context, op string) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning {
		return nil, nil, domain.NewServiceError("LibraryService", op, "scan already in progress", nil)
	}
	s.scanning = true

	ctx, cancel := context.WithCancel(parent)
	s.cancelScan = cancel

	return ctx, func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}, nil
}

func (s *LibraryService) readAll(ctx context.Context, files []string) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0, len(files))
	total := len(files)

	for i, filePath := range files {
		select {
		case <-ctx.Done():
			s.bus.Publish(domain.NewScanCancelledEvent("cancelled"))
			return nil, domain.ErrScanCancelled
		default:
		}

		track, err := s.reader.ReadTrack(filePath)
		if err != nil {
			s.logger.Debug("skipping unreadable file", slog.String("file", filePath), slog.Any("error", err))
		} else {
			tracks = append(tracks, track)
		}

		s.bus.Publish(domain.NewScanProgressEvent(domain.ScanProgress{
			CurrentFile:  filePath,
			FilesScanned: i + 1,
			TotalFiles:   total,
			TracksFound:  len(tracks),
		}))
	}

	return tracks, nil
}

// collectAudioFiles recursively collects all supported files under folderPath.
func (s *LibraryService) collectAudioFiles(ctx context.Context, folderPath string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return context.Canceled
		}
		if err != nil {
			// Skip entries we can't access
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != folderPath && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// Verify that LibraryService implements the expected interface patterns
var _ interface {
	ScanFolder(context.Context, string) ([]domain.Track, error)
	ScanFiles(context.Context, []string) ([]domain.Track, error)
	CancelScan() error
	IsScanning() bool
	IsFormatSupported(string) bool
	GetSupportedFormats() []string
	ExtractMetadata(string) (domain.Track, error)
	Shutdown() error
} = (*LibraryService)(nil)
