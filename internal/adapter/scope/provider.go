// Package scope provides folder-level access grants for files that live in
// sandboxed locations outside the application's own storage.
package scope

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// FolderProvider grants access per parent folder of a file. Grants are
// reference counted so several files from one folder share a single grant.
// Granted folders are watched; removing or renaming one revokes it.
//
// Thread-safety: This implementation is thread-safe.
type FolderProvider struct {
	logger  *slog.Logger
	roots   []string
	watcher *fsnotify.Watcher

	grants   map[string]int // folder -> reference count
	revoked  map[string]bool
	onRevoke func(folder string)
	mu       sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewFolderProvider creates a provider for files under roots.
// Locations outside every root need no scope.
func NewFolderProvider(logger *slog.Logger, roots []string) (*FolderProvider, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	cleaned := make([]string, 0, len(roots))
	for _, root := range roots {
		if root == "" {
			continue
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			_ = watcher.Close()
			return nil, fmt.Errorf("invalid sandbox root %q: %w", root, err)
		}
		cleaned = append(cleaned, abs)
	}

	p := &FolderProvider{
		logger:  logger,
		roots:   cleaned,
		watcher: watcher,
		grants:  make(map[string]int),
		revoked: make(map[string]bool),
		done:    make(chan struct{}),
	}

	p.wg.Add(1)
	go p.processEvents()

	return p, nil
}

// SetRevokeHandler registers fn to be called when a granted folder disappears.
// fn runs on the watcher goroutine.
func (p *FolderProvider) SetRevokeHandler(fn func(folder string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRevoke = fn
}

// RequiresScope reports whether location lies under a sandbox root.
func (p *FolderProvider) RequiresScope(location string) bool {
	abs, err := filepath.Abs(location)
	if err != nil {
		return false
	}
	for _, root := range p.roots {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// BeginScope grants access to the folder containing location.
// It fails when the folder cannot be read.
func (p *FolderProvider) BeginScope(location string) bool {
	folder := filepath.Dir(filepath.Clean(location))

	dir, err := os.Open(folder)
	if err != nil {
		p.logger.Warn("scope folder not accessible", slog.String("folder", folder), slog.Any("error", err))
		return false
	}
	info, err := dir.Stat()
	_ = dir.Close()
	if err != nil || !info.IsDir() {
		p.logger.Warn("scope target is not a folder", slog.String("folder", folder))
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.revoked, folder)

	p.grants[folder]++
	if p.grants[folder] == 1 {
		if err := p.watcher.Add(folder); err != nil {
			p.logger.Warn("failed to watch scoped folder", slog.String("folder", folder), slog.Any("error", err))
		}
		p.logger.Debug("scope granted", slog.String("folder", folder))
	}

	return true
}

// EndScope releases one grant for the folder containing location.
// Releasing a folder that holds no grant is a no-op.
func (p *FolderProvider) EndScope(location string) {
	folder := filepath.Dir(filepath.Clean(location))

	p.mu.Lock()
	defer p.mu.Unlock()

	refs, ok := p.grants[folder]
	if !ok {
		return
	}
	if refs > 1 {
		p.grants[folder] = refs - 1
		return
	}

	delete(p.grants, folder)
	if err := p.watcher.Remove(folder); err != nil {
		p.logger.Debug("failed to unwatch folder", slog.String("folder", folder), slog.Any("error", err))
	}
	p.logger.Debug("scope released", slog.String("folder", folder))
}

// ActiveScopes returns the number of folders currently granted.
func (p *FolderProvider) ActiveScopes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.grants)
}

// IsRevoked reports whether folder disappeared while granted.
func (p *FolderProvider) IsRevoked(folder string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revoked[filepath.Clean(folder)]
}

// Close stops the watcher.
func (p *FolderProvider) Close() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	close(p.done)
	err := p.watcher.Close()
	p.wg.Wait()
	return err
}

func (p *FolderProvider) processEvents() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				p.revoke(filepath.Clean(event.Name))
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("scope watcher error", slog.Any("error", err))
		}
	}
}

// revoke marks folder revoked if it is currently granted.
// Events for files inside a granted folder are ignored.
func (p *FolderProvider) revoke(folder string) {
	p.mu.Lock()
	if _, granted := p.grants[folder]; !granted {
		p.mu.Unlock()
		return
	}
	p.revoked[folder] = true
	handler := p.onRevoke
	p.mu.Unlock()

	p.logger.Warn("scoped folder removed, access revoked", slog.String("folder", folder))
	if handler != nil {
		handler(folder)
	}
}

// Verify interface compliance at compile time
var _ ports.SecurityScopeProvider = (*FolderProvider)(nil)
