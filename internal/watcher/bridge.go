package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// bridgeBuffer bounds how many stamped notifications wait for the reload loop.
const bridgeBuffer = 64

// FileWatcher is the notification source the pipeline consumes. Closing it
// must close both channels.
type FileWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

// WatcherFactory creates a fresh FileWatcher for each setup attempt.
type WatcherFactory func() (FileWatcher, error)

type fsnotifyWatcher struct {
	w *fsnotify.Watcher
}

// NewFSNotifyWatcher returns a FileWatcher backed by the OS notification API.
func NewFSNotifyWatcher() (FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &fsnotifyWatcher{w: w}, nil
}

func (f *fsnotifyWatcher) Add(name string) error         { return f.w.Add(name) }
func (f *fsnotifyWatcher) Close() error                  { return f.w.Close() }
func (f *fsnotifyWatcher) Events() <-chan fsnotify.Event { return f.w.Events }
func (f *fsnotifyWatcher) Errors() <-chan error          { return f.w.Errors }

// onceCloser makes Close safe to call from both the reload loop and
// StopWatching.
type onceCloser struct {
	FileWatcher
	once sync.Once
	err  error
}

func (o *onceCloser) Close() error {
	o.once.Do(func() { o.err = o.FileWatcher.Close() })
	return o.err
}

// change is a notification stamped with its arrival time.
type change struct {
	event fsnotify.Event
	err   error
	at    time.Time
}

// forward relays notifications from fw onto a single channel, stamping each
// on arrival. The returned channel is closed once fw's channels are both
// closed or ctx is done.
func forward(ctx context.Context, fw FileWatcher) <-chan change {
	out := make(chan change, bridgeBuffer)

	go func() {
		defer close(out)

		events, errs := fw.Events(), fw.Errors()
		for events != nil || errs != nil {
			var c change
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				c = change{event: ev, at: time.Now()}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				c = change{err: err, at: time.Now()}
			}

			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
