package service

import (
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

// Queue holds the ordered track list together with a shuffled permutation of it.
// It is not safe for concurrent use; PlaybackController guards it with its own lock.
type Queue struct {
	original []domain.Track
	shuffled []domain.Track
	rng      *rand.Rand
}

// NewQueue creates an empty queue. A nil rng uses a randomly seeded source.
func NewQueue(rng *rand.Rand) *Queue {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Queue{rng: rng}
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.original)
}

// Matches reports whether tracks is the same ordered list as the stored original.
func (q *Queue) Matches(tracks []domain.Track) bool {
	return slices.EqualFunc(q.original, tracks, func(a, b domain.Track) bool {
		return a.SameAs(b)
	})
}

// Replace stores tracks as the new original order and builds a fresh shuffled view.
// When lead is non-nil and present, it is placed first in the shuffled view.
func (q *Queue) Replace(tracks []domain.Track, lead *domain.Track) {
	q.original = slices.Clone(tracks)
	q.Reshuffle(lead)
}

// Reshuffle rebuilds the shuffled view: lead (if found) first, the rest randomized.
func (q *Queue) Reshuffle(lead *domain.Track) {
	rest := slices.Clone(q.original)
	var head []domain.Track

	if lead != nil {
		if _, i, ok := lo.FindIndexOf(rest, lead.SameAs); ok {
			head = []domain.Track{rest[i]}
			rest = slices.Delete(rest, i, i+1)
		}
	}

	q.rng.Shuffle(len(rest), func(i, j int) {
		rest[i], rest[j] = rest[j], rest[i]
	})

	q.shuffled = append(head, rest...)
}

// View returns the active ordering without copying.
func (q *Queue) View(shuffle bool) []domain.Track {
	if shuffle {
		return q.shuffled
	}
	return q.original
}

// IndexOf returns the position of track in the active view, or -1.
func (q *Queue) IndexOf(track domain.Track, shuffle bool) int {
	_, i, ok := lo.FindIndexOf(q.View(shuffle), track.SameAs)
	if !ok {
		return -1
	}
	return i
}

// At returns the track at index in the active view.
func (q *Queue) At(index int, shuffle bool) (domain.Track, bool) {
	view := q.View(shuffle)
	if index < 0 || index >= len(view) {
		return domain.Track{}, false
	}
	return view[index], true
}

// Original returns a copy of the unshuffled order.
func (q *Queue) Original() []domain.Track {
	return slices.Clone(q.original)
}

// Snapshot returns a copy of the active view.
func (q *Queue) Snapshot(shuffle bool) []domain.Track {
	return slices.Clone(q.View(shuffle))
}
