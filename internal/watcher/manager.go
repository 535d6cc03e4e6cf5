package watcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/willibrandon/pageview/internal/config"
	"github.com/willibrandon/pageview/internal/logger"
	"github.com/willibrandon/pageview/internal/metrics"
	"github.com/willibrandon/pageview/internal/models"
	"github.com/willibrandon/pageview/internal/parser"
	"github.com/willibrandon/pageview/internal/storage/sqlite"
)

// State is the lifecycle state of the watched path.
type State int32

const (
	StateIdle State = iota
	StateWatching
	StateDebouncing
	StateReparsing
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateDebouncing:
		return "debouncing"
	case StateReparsing:
		return "reparsing"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithWatcherFactory replaces the fsnotify-backed watcher.
func WithWatcherFactory(f WatcherFactory) Option {
	return func(m *Manager) {
		m.newWatcher = f
	}
}

// WithMetrics records a sample for every successful parse.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Manager) {
		m.collector = c
	}
}

// WithHistory stores a summary of every successful parse under sessionID.
func WithHistory(store *sqlite.SnapshotStore, sessionID string) Option {
	return func(m *Manager) {
		m.history = store
		m.sessionID = sessionID
	}
}

// watch is one StartWatching session.
type watch struct {
	path     string
	cancel   context.CancelFunc
	done     chan struct{}
	finished chan struct{}
	failures *FailureTracker

	state    atomic.Int32
	terminal atomic.Bool
	fw       *onceCloser
}

func (w *watch) setState(s State) { w.state.Store(int32(s)) }
func (w *watch) getState() State  { return State(w.state.Load()) }

// markTerminal reports true to the first caller only.
func (w *watch) markTerminal() bool {
	return w.terminal.CompareAndSwap(false, true)
}

// Manager owns the current snapshot of one database file and keeps it up to
// date while the file is being watched.
type Manager struct {
	cfg        config.WatcherConfig
	engine     *parser.Engine
	newWatcher WatcherFactory
	collector  *metrics.Collector
	history    *sqlite.SnapshotStore
	sessionID  string

	events       chan Event
	closing      chan struct{}
	closeOnce    sync.Once
	emitMu       sync.Mutex
	seq          uint64
	eventsClosed bool
	pending      sync.WaitGroup

	snapshot atomic.Pointer[models.DatabaseInfo]
	cancel   atomic.Bool
	parseMu  sync.Mutex

	mu          sync.Mutex
	currentPath string
	watch       *watch
}

// NewManager creates a manager. Zero thresholds and buffers fall back to the
// defaults.
func NewManager(cfg config.WatcherConfig, engine *parser.Engine, opts ...Option) *Manager {
	if cfg.ErrorThreshold < 1 {
		cfg.ErrorThreshold = config.DefaultErrorThreshold
	}
	if cfg.EventBuffer < 1 {
		cfg.EventBuffer = config.DefaultEventBuffer
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}

	m := &Manager{
		cfg:        cfg,
		engine:     engine,
		newWatcher: NewFSNotifyWatcher,
		events:     make(chan Event, cfg.EventBuffer),
		closing:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the lifecycle event stream. It is closed by Close.
// Consumers must keep draining it; senders block while it is full.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Snapshot returns the most recently published parse result, or nil.
func (m *Manager) Snapshot() *models.DatabaseInfo {
	return m.snapshot.Load()
}

// CurrentFile returns the path of the current snapshot.
func (m *Manager) CurrentFile() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentPath
}

// State returns the state of the current or most recent watch.
func (m *Manager) State() State {
	m.mu.Lock()
	w := m.watch
	m.mu.Unlock()
	if w == nil {
		return StateIdle
	}
	return w.getState()
}

// IsWatching reports whether a watch is established and not terminated.
func (m *Manager) IsWatching() bool {
	switch m.State() {
	case StateWatching, StateDebouncing, StateReparsing:
		return true
	}
	return false
}

// ConsecutiveErrors returns the failure count of the current watch.
func (m *Manager) ConsecutiveErrors() int {
	m.mu.Lock()
	w := m.watch
	m.mu.Unlock()
	if w == nil {
		return 0
	}
	return w.failures.Count()
}

// CancelCurrentParse asks the in-flight parse to stop at its next batch
// boundary. It has no effect on parses that start later.
func (m *Manager) CancelCurrentParse() {
	m.cancel.Store(true)
}

func (m *Manager) isClosed() bool {
	select {
	case <-m.closing:
		return true
	default:
		return false
	}
}

// OpenFile parses path and makes it the current file.
func (m *Manager) OpenFile(ctx context.Context, path string) (*models.DatabaseInfo, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}

	info, err := m.parse(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	m.publish(path, info)
	m.emit(ctx, Event{Kind: EventFileOpened, Path: path, Info: info})
	return info, nil
}

// Refresh reparses the current file. It works regardless of watch state.
func (m *Manager) Refresh(ctx context.Context) (*models.DatabaseInfo, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}
	path := m.CurrentFile()
	if path == "" {
		return nil, ErrNoFile
	}

	info, err := m.parse(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	m.publish(path, info)
	m.emit(ctx, Event{Kind: EventFileModified, Path: path, Info: info})
	return info, nil
}

// StartWatching begins watching path in the background. Setup failures are
// retried and reported through Events, not returned.
func (m *Manager) StartWatching(path string) error {
	if m.isClosed() {
		return ErrClosed
	}
	if path == "" {
		return fmt.Errorf("start watching: empty path")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watch != nil && !m.watch.terminal.Load() {
		return fmt.Errorf("%w: %s", ErrAlreadyWatching, m.watch.path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &watch{
		path:     path,
		cancel:   cancel,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		failures: NewFailureTracker(m.cfg.ErrorThreshold),
	}
	w.setState(StateIdle)
	prev := m.watch
	m.watch = w

	go m.run(ctx, w, prev)
	return nil
}

// StopWatching ends the current watch and waits for its goroutine to exit.
// WatchingStopped is emitted unless the watch already ended on its own.
// It may be called from the goroutine draining Events: terminal events are
// delivered in the background and never hold up the stop.
func (m *Manager) StopWatching() {
	m.mu.Lock()
	w := m.watch
	m.mu.Unlock()
	if w == nil {
		return
	}

	w.cancel()
	<-w.done
	if w.fw != nil {
		w.fw.Close()
	}

	if m.finish(w, StateStopped, Event{Kind: EventWatchingStopped, Path: w.path}) {
		logger.Info("Stopped watching", "path", w.path)
	}
}

// Close stops watching and closes the event stream. Events that cannot be
// delivered during shutdown are dropped.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.closing)
		m.StopWatching()
		m.pending.Wait()

		m.emitMu.Lock()
		m.eventsClosed = true
		close(m.events)
		m.emitMu.Unlock()
	})
	return nil
}

// emit delivers ev, blocking while the channel is full until ctx is done or
// the manager closes.
func (m *Manager) emit(ctx context.Context, ev Event) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	if m.eventsClosed {
		return
	}
	ev.Seq = m.seq + 1
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	select {
	case m.events <- ev:
		m.seq++
		return
	default:
	}

	select {
	case m.events <- ev:
		m.seq++
	case <-ctx.Done():
		logger.Debug("Dropped event", "kind", ev.Kind, "path", ev.Path)
	case <-m.closing:
		logger.Debug("Dropped event during shutdown", "kind", ev.Kind, "path", ev.Path)
	}
}

func (m *Manager) publish(path string, info *models.DatabaseInfo) {
	m.snapshot.Store(info)
	m.mu.Lock()
	m.currentPath = path
	m.mu.Unlock()
}

// parse runs one parse of path and reports it as events. Parses never overlap.
// started runs once the parse owns the cancel flag, so a cancel requested
// after it returns reaches this parse.
func (m *Manager) parse(ctx context.Context, path string, started func()) (*models.DatabaseInfo, error) {
	m.parseMu.Lock()
	defer m.parseMu.Unlock()

	m.cancel.Store(false)
	if started != nil {
		started()
	}
	m.emit(ctx, Event{Kind: EventParseStarted, Path: path})

	start := time.Now()
	info, err := m.engine.ParseFile(ctx, path, parser.ParseOptions{
		Cancel: &m.cancel,
		Progress: func(f float64) {
			m.emit(ctx, Event{Kind: EventParseProgress, Path: path, Fraction: f})
		},
	})
	dur := time.Since(start)

	if err != nil {
		if parser.IsCancelled(err) {
			logger.Info("Parse cancelled", "path", path)
			m.emit(ctx, Event{Kind: EventParseCancelled, Path: path})
			return nil, err
		}
		logger.Warn("Parse failed", "path", path, "error", err)
		m.emit(ctx, Event{Kind: EventParseError, Path: path, Err: err})
		return nil, err
	}

	if m.cfg.ReloadTimeout > 0 && dur > m.cfg.ReloadTimeout {
		logger.Warn("Parse exceeded reload timeout",
			"path", path,
			"duration", dur,
			"timeout", m.cfg.ReloadTimeout,
		)
	}

	m.emit(ctx, Event{Kind: EventParseCompleted, Path: path})
	m.record(ctx, path, info, dur)
	return info, nil
}

// record feeds metrics and history. History failures are logged only.
func (m *Manager) record(ctx context.Context, path string, info *models.DatabaseInfo, dur time.Duration) {
	if m.collector != nil {
		m.collector.RecordParse(metrics.ParseSample{
			Path:           path,
			Time:           time.Now(),
			Duration:       dur,
			Pages:          info.PageCount(),
			FreeBytes:      info.TotalFreeSpace(),
			AvgUtilization: info.AverageUtilization(),
		})
	}
	if m.history != nil {
		if _, err := m.history.Save(ctx, m.sessionID, path, info, dur); err != nil {
			logger.Warn("Failed to save parse history", "path", path, "error", err)
		}
	}
}

// setup creates and registers a watcher, retrying RetryAttempts times after
// the first failure.
func (m *Manager) setup(ctx context.Context, path string) (FileWatcher, error) {
	var fw FileWatcher
	attempt := 0

	op := func() error {
		attempt++
		w, err := m.newWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		if err := w.Add(path); err != nil {
			w.Close()
			return fmt.Errorf("watch %s: %w", path, err)
		}
		fw = w
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.cfg.RetryDelay), uint64(m.cfg.RetryAttempts)),
		ctx,
	)
	err := backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		logger.Warn("Watcher setup failed, retrying",
			"path", path,
			"attempt", attempt,
			"max_attempts", m.cfg.RetryAttempts+1,
			"next_delay", next,
			"error", err,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", attempt, err)
	}
	return fw, nil
}

// run is the single consumer of one watch session. Its events follow the
// terminal events of prev.
func (m *Manager) run(ctx context.Context, w *watch, prev *watch) {
	defer close(w.done)

	if prev != nil {
		select {
		case <-prev.finished:
		case <-ctx.Done():
			return
		}
	}

	fw, err := m.setup(ctx, w.path)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.fail(w, fmt.Errorf("start watching: %w", err))
		return
	}

	w.fw = &onceCloser{FileWatcher: fw}
	defer w.fw.Close()

	if ctx.Err() != nil {
		return
	}

	bridgeCtx, stopBridge := context.WithCancel(ctx)
	defer stopBridge()
	changes := forward(bridgeCtx, w.fw)

	w.setState(StateWatching)
	logger.Info("Watching file", "path", w.path)
	m.emit(ctx, Event{Kind: EventWatchingStarted, Path: w.path})

	var lastAccepted time.Time
	for {
		var c change
		var ok bool
		select {
		case <-ctx.Done():
			return
		case c, ok = <-changes:
		}

		if !ok {
			if ctx.Err() != nil {
				return
			}
			if m.finish(w, StateStopped, Event{Kind: EventWatchingStopped, Path: w.path}) {
				logger.Info("Watcher closed", "path", w.path)
			}
			return
		}

		if c.err != nil {
			logger.Warn("Watcher error", "path", w.path, "error", c.err)
			if w.failures.Record(c.err) {
				m.fail(w, fmt.Errorf("watcher error: %w", c.err))
				return
			}
			continue
		}

		switch {
		case c.event.Has(fsnotify.Remove) || c.event.Has(fsnotify.Rename):
			if m.finish(w, StateStopped,
				Event{Kind: EventFileDeleted, Path: w.path},
				Event{Kind: EventWatchingStopped, Path: w.path},
			) {
				logger.Info("Watched file removed", "path", w.path, "op", c.event.Op.String())
			}
			return

		case c.event.Has(fsnotify.Write) || c.event.Has(fsnotify.Create):
			if !lastAccepted.IsZero() && c.at.Sub(lastAccepted) < m.cfg.DebounceDuration {
				logger.Debug("Debounced change", "path", w.path, "op", c.event.Op.String())
				continue
			}
			lastAccepted = c.at
			if !m.reload(ctx, w) {
				return
			}
		}
	}
}

// reload waits out the debounce window and reparses. It returns false when
// the watch must end.
func (m *Manager) reload(ctx context.Context, w *watch) bool {
	w.setState(StateDebouncing)
	if m.cfg.DebounceDuration > 0 {
		timer := time.NewTimer(m.cfg.DebounceDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}

	info, err := m.parse(ctx, w.path, func() { w.setState(StateReparsing) })
	switch {
	case err == nil:
		w.failures.Reset()
		m.publish(w.path, info)
		m.emit(ctx, Event{Kind: EventFileModified, Path: w.path, Info: info})
	case parser.IsCancelled(err):
		if ctx.Err() != nil {
			return false
		}
	default:
		if w.failures.Record(err) {
			m.fail(w, fmt.Errorf("%d consecutive failures: %w", w.failures.Count(), err))
			return false
		}
	}

	w.setState(StateWatching)
	return true
}

// fail ends the watch with WatchingFailed.
func (m *Manager) fail(w *watch, err error) {
	if m.finish(w, StateFailed, Event{Kind: EventWatchingFailed, Path: w.path, Err: err}) {
		logger.Error("Watching disabled", "path", w.path, "error", err)
	}
}

// finish moves w to its terminal state and delivers evs in order from a
// separate goroutine. Only the first call for a watch has any effect.
func (m *Manager) finish(w *watch, state State, evs ...Event) bool {
	if !w.markTerminal() {
		return false
	}
	w.setState(state)

	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		defer close(w.finished)
		for _, ev := range evs {
			m.emit(context.Background(), ev)
		}
	}()
	return true
}
