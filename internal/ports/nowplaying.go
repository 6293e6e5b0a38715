package ports

import (
	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

// NowPlayingPresenter publishes playback info to the OS media center.
// The controller writes to it but never reads from it.
type NowPlayingPresenter interface {
	// Update replaces the displayed now-playing info.
	Update(info domain.NowPlayingInfo)

	// Clear removes any now-playing info.
	Clear()
}
