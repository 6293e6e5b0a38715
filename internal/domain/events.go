// Package domain defines events for the event-driven architecture.
// Events decouple the playback controller from its observers.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackStarted   EventType = "track.started"
	EventTrackPaused    EventType = "track.paused"
	EventTrackResumed   EventType = "track.resumed"
	EventTrackStopped   EventType = "track.stopped"
	EventTrackCompleted EventType = "track.completed"
	EventTrackProgress  EventType = "track.progress"
	EventTrackError     EventType = "track.error"
	EventTrackSeeked    EventType = "track.seeked"

	// Completion filtering
	EventCompletionDiscarded EventType = "completion.discarded"

	// Playback mode events
	EventShuffleToggled    EventType = "shuffle.toggled"
	EventRepeatModeChanged EventType = "repeat.changed"

	// Queue events
	EventQueueChanged EventType = "queue.changed"

	// Session snapshot
	EventStateChanged EventType = "state.changed"

	// Sandbox access
	EventScopeDenied EventType = "scope.denied"

	// Library scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanCancelled EventType = "scan.cancelled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackStartedEvent is published when the engine is told to play a track.
type TrackStartedEvent struct {
	baseEvent
	Track Track
	Index int
	Token PlayToken
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType {
	return EventTrackStarted
}

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track, index int, token PlayToken) TrackStartedEvent {
	return TrackStartedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Index:     index,
		Token:     token,
	}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType {
	return EventTrackPaused
}

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackResumedEvent is published when paused playback continues.
type TrackResumedEvent struct {
	baseEvent
	Track    Track
	Position time.Duration
}

// Type returns the event type.
func (e TrackResumedEvent) Type() EventType {
	return EventTrackResumed
}

// NewTrackResumedEvent creates a new TrackResumedEvent.
func NewTrackResumedEvent(track Track, position time.Duration) TrackResumedEvent {
	return TrackResumedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Position:  position,
	}
}

// TrackStoppedEvent is published when playback is stopped.
// Cleared is true when the track was also unloaded from the session.
type TrackStoppedEvent struct {
	baseEvent
	Track   Track
	Cleared bool
}

// Type returns the event type.
func (e TrackStoppedEvent) Type() EventType {
	return EventTrackStopped
}

// NewTrackStoppedEvent creates a new TrackStoppedEvent.
func NewTrackStoppedEvent(track Track, cleared bool) TrackStoppedEvent {
	return TrackStoppedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Cleared:   cleared,
	}
}

// TrackCompletedEvent is published when a track finishes playing naturally.
type TrackCompletedEvent struct {
	baseEvent
	Track Track
	Token PlayToken
}

// Type returns the event type.
func (e TrackCompletedEvent) Type() EventType {
	return EventTrackCompleted
}

// NewTrackCompletedEvent creates a new TrackCompletedEvent.
func NewTrackCompletedEvent(track Track, token PlayToken) TrackCompletedEvent {
	return TrackCompletedEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Token:     token,
	}
}

// TrackProgressEvent is published periodically during playback.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration
	Duration time.Duration
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType {
	return EventTrackProgress
}

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Duration:  duration,
	}
}

// TrackSeekedEvent is published after a seek was issued to the engine.
type TrackSeekedEvent struct {
	baseEvent
	Position time.Duration
}

// Type returns the event type.
func (e TrackSeekedEvent) Type() EventType {
	return EventTrackSeeked
}

// NewTrackSeekedEvent creates a new TrackSeekedEvent.
func NewTrackSeekedEvent(position time.Duration) TrackSeekedEvent {
	return TrackSeekedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
	}
}

// TrackErrorEvent is published when a track could not be played.
type TrackErrorEvent struct {
	baseEvent
	Track Track
	Error error
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType {
	return EventTrackError
}

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, err error) TrackErrorEvent {
	return TrackErrorEvent{
		baseEvent: newBaseEvent(),
		Track:     track,
		Error:     err,
	}
}

// DiscardReason explains why a completion signal was ignored.
type DiscardReason string

// Reasons a completion can be discarded.
const (
	DiscardStaleToken  DiscardReason = "stale_token"
	DiscardNotPlaying  DiscardReason = "not_playing"
	DiscardStartWindow DiscardReason = "start_grace"
	DiscardSeekWindow  DiscardReason = "seek_grace"
)

// CompletionDiscardedEvent is published when an engine completion is ignored.
type CompletionDiscardedEvent struct {
	baseEvent
	Token  PlayToken
	Reason DiscardReason
}

// Type returns the event type.
func (e CompletionDiscardedEvent) Type() EventType {
	return EventCompletionDiscarded
}

// NewCompletionDiscardedEvent creates a new CompletionDiscardedEvent.
func NewCompletionDiscardedEvent(token PlayToken, reason DiscardReason) CompletionDiscardedEvent {
	return CompletionDiscardedEvent{
		baseEvent: newBaseEvent(),
		Token:     token,
		Reason:    reason,
	}
}

// ShuffleToggledEvent is published when shuffle is switched on or off.
type ShuffleToggledEvent struct {
	baseEvent
	Enabled bool
}

// Type returns the event type.
func (e ShuffleToggledEvent) Type() EventType {
	return EventShuffleToggled
}

// NewShuffleToggledEvent creates a new ShuffleToggledEvent.
func NewShuffleToggledEvent(enabled bool) ShuffleToggledEvent {
	return ShuffleToggledEvent{
		baseEvent: newBaseEvent(),
		Enabled:   enabled,
	}
}

// RepeatModeChangedEvent is published when the repeat mode cycles.
type RepeatModeChangedEvent struct {
	baseEvent
	Mode RepeatMode
}

// Type returns the event type.
func (e RepeatModeChangedEvent) Type() EventType {
	return EventRepeatModeChanged
}

// NewRepeatModeChangedEvent creates a new RepeatModeChangedEvent.
func NewRepeatModeChangedEvent(mode RepeatMode) RepeatModeChangedEvent {
	return RepeatModeChangedEvent{
		baseEvent: newBaseEvent(),
		Mode:      mode,
	}
}

// QueueChangedEvent is published when the stored queue is replaced.
// Original is the unshuffled order.
type QueueChangedEvent struct {
	baseEvent
	Original []Track
	Context  string
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType {
	return EventQueueChanged
}

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(original []Track, context string) QueueChangedEvent {
	return QueueChangedEvent{
		baseEvent: newBaseEvent(),
		Original:  original,
		Context:   context,
	}
}

// StateChangedEvent carries a full session snapshot after a command.
type StateChangedEvent struct {
	baseEvent
	State PlaybackState
}

// Type returns the event type.
func (e StateChangedEvent) Type() EventType {
	return EventStateChanged
}

// NewStateChangedEvent creates a new StateChangedEvent.
func NewStateChangedEvent(state PlaybackState) StateChangedEvent {
	return StateChangedEvent{
		baseEvent: newBaseEvent(),
		State:     state,
	}
}

// ScopeDeniedEvent is published when sandboxed access to a folder could not be started.
type ScopeDeniedEvent struct {
	baseEvent
	Location string
}

// Type returns the event type.
func (e ScopeDeniedEvent) Type() EventType {
	return EventScopeDenied
}

// NewScopeDeniedEvent creates a new ScopeDeniedEvent.
func NewScopeDeniedEvent(location string) ScopeDeniedEvent {
	return ScopeDeniedEvent{
		baseEvent: newBaseEvent(),
		Location:  location,
	}
}

// ScanStartedEvent is published when a library scan starts.
type ScanStartedEvent struct {
	baseEvent
	Path string
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType {
	return EventScanStarted
}

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{
		baseEvent: newBaseEvent(),
		Path:      path,
	}
}

// ScanProgressEvent is published periodically during a library scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType {
	return EventScanProgress
}

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{
		baseEvent: newBaseEvent(),
		Progress:  progress,
	}
}

// ScanCompletedEvent is published when a library scan completes.
type ScanCompletedEvent struct {
	baseEvent
	TracksFound []Track
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType {
	return EventScanCompleted
}

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(tracks []Track) ScanCompletedEvent {
	return ScanCompletedEvent{
		baseEvent:   newBaseEvent(),
		TracksFound: tracks,
	}
}

// ScanCancelledEvent is published when a library scan is canceled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType {
	return EventScanCancelled
}

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{
		baseEvent: newBaseEvent(),
		Reason:    reason,
	}
}
