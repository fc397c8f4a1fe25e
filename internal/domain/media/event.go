package media

import "time"

// EventKind identifies an inbound renderer notification.
type EventKind int

const (
	// EventMetadataReady reports the duration of a freshly attached source.
	EventMetadataReady EventKind = iota + 1
	// EventTimeUpdate reports the current playback position.
	EventTimeUpdate
	// EventEnded reports that the source played to its end.
	EventEnded
	// EventPlaying reports that output started or resumed.
	EventPlaying
	// EventPaused reports that output paused.
	EventPaused
)

// String returns the event name used in logs.
func (k EventKind) String() string {
	switch k {
	case EventMetadataReady:
		return "metadataReady"
	case EventTimeUpdate:
		return "timeUpdate"
	case EventEnded:
		return "ended"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Event is a message emitted by a Handle. Source is the url that was attached
// when the event was produced (empty if the renderer cannot tell), Value holds
// seconds for MetadataReady and TimeUpdate, and At is the renderer's clock.
type Event struct {
	Kind   EventKind
	Source string
	Value  float64
	At     time.Time
}

// MetadataReady builds an EventMetadataReady.
func MetadataReady(source string, duration float64) Event {
	return Event{Kind: EventMetadataReady, Source: source, Value: duration, At: time.Now()}
}

// TimeUpdate builds an EventTimeUpdate.
func TimeUpdate(source string, position float64) Event {
	return Event{Kind: EventTimeUpdate, Source: source, Value: position, At: time.Now()}
}

// Ended builds an EventEnded.
func Ended(source string) Event {
	return Event{Kind: EventEnded, Source: source, At: time.Now()}
}

// Playing builds an EventPlaying.
func Playing(source string) Event {
	return Event{Kind: EventPlaying, Source: source, At: time.Now()}
}

// Paused builds an EventPaused.
func Paused(source string) Event {
	return Event{Kind: EventPaused, Source: source, At: time.Now()}
}
