package metrics

import (
	"sync"
	"time"
)

const (
	// DefaultFileHistorySize is the number of duration samples kept per file.
	DefaultFileHistorySize = 20
	// DefaultMaxFiles is the number of files tracked before LRU eviction.
	DefaultMaxFiles = 64
)

// ParseDuration is one timed parse of a file.
type ParseDuration struct {
	Duration  time.Duration
	Timestamp time.Time
}

type fileEntry struct {
	durations    []ParseDuration
	lastAccessed time.Time
}

// FileHistory keeps the most recent parse durations per file path. When more
// than maxFiles paths are tracked, the least recently recorded one is evicted.
type FileHistory struct {
	mu          sync.RWMutex
	files       map[string]*fileEntry
	maxFiles    int
	historySize int
}

// NewFileHistory creates a history. Non-positive limits use the defaults.
func NewFileHistory(maxFiles, historySize int) *FileHistory {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	if historySize <= 0 {
		historySize = DefaultFileHistorySize
	}
	return &FileHistory{
		files:       make(map[string]*fileEntry),
		maxFiles:    maxFiles,
		historySize: historySize,
	}
}

// Record adds a duration sample for path.
func (h *FileHistory) Record(path string, d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	entry, ok := h.files[path]
	if !ok {
		if len(h.files) >= h.maxFiles {
			h.evictLRU()
		}
		entry = &fileEntry{durations: make([]ParseDuration, 0, h.historySize)}
		h.files[path] = entry
	}
	entry.lastAccessed = now

	sample := ParseDuration{Duration: d, Timestamp: now}
	if len(entry.durations) >= h.historySize {
		copy(entry.durations, entry.durations[1:])
		entry.durations[len(entry.durations)-1] = sample
	} else {
		entry.durations = append(entry.durations, sample)
	}
}

// Durations returns the samples for path in milliseconds, oldest first.
func (h *FileHistory) Durations(path string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.files[path]
	if !ok || len(entry.durations) == 0 {
		return nil
	}
	result := make([]float64, len(entry.durations))
	for i, d := range entry.durations {
		result[i] = float64(d.Duration) / float64(time.Millisecond)
	}
	return result
}

// Remove forgets path.
func (h *FileHistory) Remove(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.files, path)
}

// Len returns the number of tracked files.
func (h *FileHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.files)
}

// Prune drops files not recorded since the given time and returns how many
// were removed.
func (h *FileHistory) Prune(since time.Time) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	pruned := 0
	for path, entry := range h.files {
		if entry.lastAccessed.Before(since) {
			delete(h.files, path)
			pruned++
		}
	}
	return pruned
}

// evictLRU removes the least recently recorded file. Caller holds the lock.
func (h *FileHistory) evictLRU() {
	var oldestPath string
	var oldest time.Time
	first := true

	for path, entry := range h.files {
		if first || entry.lastAccessed.Before(oldest) {
			oldestPath = path
			oldest = entry.lastAccessed
			first = false
		}
	}
	if !first {
		delete(h.files, oldestPath)
	}
}
