package watcher

import "errors"

var (
	// ErrClosed is returned by operations on a closed Manager.
	ErrClosed = errors.New("watcher manager closed")
	// ErrNoFile is returned by Refresh when no file has been opened.
	ErrNoFile = errors.New("no file open")
	// ErrAlreadyWatching is returned by StartWatching while a watch is active.
	ErrAlreadyWatching = errors.New("already watching a file")
)
