// Package metrics keeps in-memory parse measurements for reporting.
package metrics

import (
	"math"
	"sync"
	"time"
)

// DefaultBufferCapacity is the default number of samples kept per series.
const DefaultBufferCapacity = 512

// DataPoint is a single measurement.
type DataPoint struct {
	Timestamp time.Time
	Value     float64
}

// IsValid reports whether the point has a timestamp and a finite value.
func (dp DataPoint) IsValid() bool {
	if dp.Timestamp.IsZero() {
		return false
	}
	return !math.IsInf(dp.Value, 0) && !math.IsNaN(dp.Value)
}

// Summary describes the values currently held in a buffer.
type Summary struct {
	Count int
	Min   float64
	Max   float64
	Mean  float64
}

// CircularBuffer is a fixed-size, thread-safe ring of DataPoints. When full,
// the oldest point is overwritten.
type CircularBuffer struct {
	data     []DataPoint
	capacity int
	head     int // next write position
	size     int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a buffer. Non-positive capacities use the default.
func NewCircularBuffer(capacity int) *CircularBuffer {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &CircularBuffer{
		data:     make([]DataPoint, capacity),
		capacity: capacity,
	}
}

// Push appends dp. Invalid points are dropped.
func (b *CircularBuffer) Push(dp DataPoint) {
	if !dp.IsValid() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.data[b.head] = dp
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// oldest returns the index of the oldest element. Caller holds the lock.
func (b *CircularBuffer) oldest() int {
	return (b.head - b.size + b.capacity) % b.capacity
}

// Recent returns up to n of the newest points, oldest first.
func (b *CircularBuffer) Recent(n int) []DataPoint {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || b.size == 0 {
		return nil
	}
	if n > b.size {
		n = b.size
	}

	result := make([]DataPoint, n)
	start := (b.head - n + b.capacity) % b.capacity
	for i := 0; i < n; i++ {
		result[i] = b.data[(start+i)%b.capacity]
	}
	return result
}

// Values returns every value, oldest first. The slice can be handed straight
// to asciigraph.Plot.
func (b *CircularBuffer) Values() []float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return nil
	}

	result := make([]float64, b.size)
	start := b.oldest()
	for i := 0; i < b.size; i++ {
		result[i] = b.data[(start+i)%b.capacity].Value
	}
	return result
}

// Latest returns the newest point, or false when empty.
func (b *CircularBuffer) Latest() (DataPoint, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return DataPoint{}, false
	}
	return b.data[(b.head-1+b.capacity)%b.capacity], true
}

// Summary computes min, max and mean over the buffered values.
func (b *CircularBuffer) Summary() Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return Summary{}
	}

	s := Summary{Count: b.size, Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	start := b.oldest()
	for i := 0; i < b.size; i++ {
		v := b.data[(start+i)%b.capacity].Value
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(b.size)
	return s
}

// Len returns the number of buffered points.
func (b *CircularBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *CircularBuffer) Cap() int {
	return b.capacity
}

// Clear drops every point.
func (b *CircularBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.head = 0
	b.size = 0
	clear(b.data)
}
