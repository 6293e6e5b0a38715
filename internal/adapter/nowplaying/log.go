// Package nowplaying publishes the current track to system media surfaces.
package nowplaying

import (
	"log/slog"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
	"github.com/tejashwikalptaru/playqueue/internal/ports"
)

// LogPresenter writes now-playing changes to a structured logger.
// It is used in headless runs where no media center is available.
type LogPresenter struct {
	logger *slog.Logger
	last   string
}

// NewLogPresenter creates a presenter that logs to logger.
func NewLogPresenter(logger *slog.Logger) *LogPresenter {
	return &LogPresenter{logger: logger}
}

// Update logs a new track at info level and every other change at debug level.
func (p *LogPresenter) Update(info domain.NowPlayingInfo) {
	key := info.Artist + "\x00" + info.Album + "\x00" + info.Title
	attrs := []any{
		slog.String("title", info.Title),
		slog.String("artist", info.Artist),
		slog.String("album", info.Album),
		slog.Duration("elapsed", info.Elapsed),
		slog.Duration("duration", info.Duration),
		slog.Float64("rate", info.Rate),
	}

	if key != p.last {
		p.last = key
		p.logger.Info("now playing", attrs...)
		return
	}
	p.logger.Debug("now playing updated", attrs...)
}

// Clear logs that nothing is playing.
func (p *LogPresenter) Clear() {
	p.last = ""
	p.logger.Info("now playing cleared")
}

// Fanout forwards every push to several presenters.
type Fanout []ports.NowPlayingPresenter

// Update forwards info to every presenter.
func (f Fanout) Update(info domain.NowPlayingInfo) {
	for _, p := range f {
		p.Update(info)
	}
}

// Clear clears every presenter.
func (f Fanout) Clear() {
	for _, p := range f {
		p.Clear()
	}
}

// Verify interface compliance at compile time
var (
	_ ports.NowPlayingPresenter = (*LogPresenter)(nil)
	_ ports.NowPlayingPresenter = Fanout(nil)
)
