// Package logger provides the process-wide structured logger for pageview.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogEntry is a captured WARN or ERROR record.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Path    string // value of the "path" attribute, if any
}

// ringBuffer keeps the most recent warnings and errors so a front end can
// show them without tailing the log file.
type ringBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	size    int
	head    int
	count   int

	warnCount  int
	errorCount int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		entries: make([]LogEntry, size),
		size:    size,
	}
}

func (rb *ringBuffer) add(entry LogEntry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.head] = entry
	rb.head = (rb.head + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}

	if entry.Level == slog.LevelWarn {
		rb.warnCount++
	} else if entry.Level >= slog.LevelError {
		rb.errorCount++
	}
}

func (rb *ringBuffer) getAll() []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	result := make([]LogEntry, rb.count)
	for i := 0; i < rb.count; i++ {
		idx := (rb.head - rb.count + i + rb.size) % rb.size
		result[i] = rb.entries[idx]
	}
	return result
}

func (rb *ringBuffer) getCounts() (warn, err int) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.warnCount, rb.errorCount
}

func (rb *ringBuffer) clearCounts() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.warnCount = 0
	rb.errorCount = 0
}

// captureHandler wraps another handler and copies WARN/ERROR records into
// the ring buffer.
type captureHandler struct {
	inner  slog.Handler
	buffer *ringBuffer
	attrs  []slog.Attr
}

func (h *captureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *captureHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		entry := LogEntry{
			Time:    r.Time,
			Level:   r.Level,
			Message: r.Message,
		}
		for _, a := range h.attrs {
			if a.Key == "path" {
				entry.Path = a.Value.String()
			}
		}
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "path" {
				entry.Path = a.Value.String()
				return false
			}
			return true
		})
		h.buffer.add(entry)
	}
	return h.inner.Handle(ctx, r)
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &captureHandler{
		inner:  h.inner.WithAttrs(attrs),
		buffer: h.buffer,
		attrs:  merged,
	}
}

func (h *captureHandler) WithGroup(name string) slog.Handler {
	return &captureHandler{
		inner:  h.inner.WithGroup(name),
		buffer: h.buffer,
		attrs:  h.attrs,
	}
}

var (
	// Log is the global structured logger
	Log *slog.Logger
	// logWriter is the rotating log writer
	logWriter *lumberjack.Logger
	// LogPath is the path to the current log file
	LogPath string
	// captured holds recent WARN/ERROR entries
	captured *ringBuffer
	// debugEnabled tracks if debug mode is active
	debugEnabled bool
)

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a level name from configuration to a LogLevel.
// Unknown names fall back to LevelInfo.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultLogPath returns ~/.config/pageview/pageview.log, falling back to the
// temp directory when the home directory cannot be resolved.
func DefaultLogPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".config", "pageview", "pageview.log")
}

// InitLogger initializes the global logger with the specified level and optional path.
// If logPath is empty, DefaultLogPath is used.
func InitLogger(level LogLevel, logPath string) {
	debugEnabled = level == LevelDebug

	if logPath == "" {
		logPath = DefaultLogPath()
	}
	_ = os.MkdirAll(filepath.Dir(logPath), 0755)
	LogPath = logPath

	if logWriter != nil {
		logWriter.Close()
	}
	logWriter = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   true,
	}

	install(level, logWriter)
}

// InitWithWriter installs the logger on an arbitrary writer. Used by tests
// and by commands that want log output on stderr.
func InitWithWriter(level LogLevel, w io.Writer) {
	debugEnabled = level == LevelDebug
	LogPath = ""
	install(level, w)
}

func install(level LogLevel, w io.Writer) {
	captured = newRingBuffer(100)

	jsonHandler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level.slogLevel()})
	Log = slog.New(&captureHandler{
		inner:  jsonHandler,
		buffer: captured,
	})
	slog.SetDefault(Log)
}

// Close closes the log file
func Close() {
	if logWriter != nil {
		logWriter.Close()
		logWriter = nil
	}
}

// getLogger returns the global logger, or the default slog logger if not initialized.
func getLogger() *slog.Logger {
	if Log != nil {
		return Log
	}
	return slog.Default()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	getLogger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	getLogger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	getLogger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	getLogger().Error(msg, args...)
}

// With creates a new logger with additional attributes
func With(args ...any) *slog.Logger {
	return getLogger().With(args...)
}

// GetCounts returns the current warning and error counts.
func GetCounts() (warn, err int) {
	if captured == nil {
		return 0, 0
	}
	return captured.getCounts()
}

// ClearCounts resets the warning and error counters.
func ClearCounts() {
	if captured != nil {
		captured.clearCounts()
	}
}

// GetEntries returns all captured log entries, oldest first.
func GetEntries() []LogEntry {
	if captured == nil {
		return nil
	}
	return captured.getAll()
}

// IsDebugEnabled returns true if debug mode is active.
func IsDebugEnabled() bool {
	return debugEnabled
}

// Format renders an entry as a single line.
func (e LogEntry) Format() string {
	levelStr := "INFO"
	switch e.Level {
	case slog.LevelDebug:
		levelStr = "DEBUG"
	case slog.LevelWarn:
		levelStr = "WARN"
	case slog.LevelError:
		levelStr = "ERROR"
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %-5s %s (%s)", e.Time.Format("15:04:05"), levelStr, e.Message, e.Path)
	}
	return fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), levelStr, e.Message)
}
