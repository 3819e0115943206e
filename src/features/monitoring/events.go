package monitoring

import "context"

// EventKind is the raw notification type delivered by an event source.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
	EventDeleted  EventKind = "deleted"
	EventMoved    EventKind = "moved"
)

// Event is one raw filesystem notification.
type Event struct {
	Kind EventKind
	Path string
	// DestPath is set for moved events only.
	DestPath string
	IsDir    bool
}

// Watcher is the event-source capability monitoring consumes. The returned
// channel closes when the source stops.
type Watcher interface {
	Start(ctx context.Context, dirs []string) (<-chan Event, error)
	Stop()
}

// Trail is the durable append-and-print sink for formatted trail lines.
type Trail interface {
	Append(line string) error
}
