// Package watcher turns file-change notifications into a stream of parse
// lifecycle events with debouncing, bounded retries and a failure threshold.
package watcher

import (
	"time"

	"github.com/willibrandon/pageview/internal/models"
)

// EventKind identifies a lifecycle event.
type EventKind int

const (
	EventFileOpened EventKind = iota + 1
	EventFileModified
	EventFileDeleted
	EventParseError
	EventWatchingStarted
	EventWatchingStopped
	EventWatchingFailed
	EventParseStarted
	EventParseProgress
	EventParseCompleted
	EventParseCancelled
)

var eventKindNames = map[EventKind]string{
	EventFileOpened:      "file_opened",
	EventFileModified:    "file_modified",
	EventFileDeleted:     "file_deleted",
	EventParseError:      "parse_error",
	EventWatchingStarted: "watching_started",
	EventWatchingStopped: "watching_stopped",
	EventWatchingFailed:  "watching_failed",
	EventParseStarted:    "parse_started",
	EventParseProgress:   "parse_progress",
	EventParseCompleted:  "parse_completed",
	EventParseCancelled:  "parse_cancelled",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsTerminal reports whether the kind ends a watch session.
func (k EventKind) IsTerminal() bool {
	return k == EventWatchingStopped || k == EventWatchingFailed
}

// Event is one lifecycle notification. Seq increases by one for every event
// a Manager delivers.
type Event struct {
	Seq  uint64
	Time time.Time
	Kind EventKind
	Path string

	// Info is set for FileOpened and FileModified.
	Info *models.DatabaseInfo
	// Fraction is set for ParseProgress.
	Fraction float64
	// Err is set for ParseError and WatchingFailed.
	Err error
}

// Message returns the error text, if any.
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
