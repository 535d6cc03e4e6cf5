package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
)

// Series recorded for every successful parse.
const (
	SeriesParseDuration  = "parse_duration_ms"
	SeriesPagesPerSecond = "pages_per_second"
	SeriesAvgUtilization = "avg_utilization"
	SeriesFreeBytes      = "free_bytes"
)

// ParseSample is the measurement set produced by one successful parse.
type ParseSample struct {
	Path           string
	Time           time.Time
	Duration       time.Duration
	Pages          int
	FreeBytes      uint64
	AvgUtilization float64
}

// PagesPerSecond returns the parse throughput, or 0 for an instantaneous parse.
func (s ParseSample) PagesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Pages) / s.Duration.Seconds()
}

// Collector holds named series of parse measurements in memory.
type Collector struct {
	series     map[string]*CircularBuffer
	capacity   int
	throughput ewma.MovingAverage
	files      *FileHistory

	slowThreshold time.Duration
	slowParses    int

	mu sync.RWMutex
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCapacity sets the buffer capacity of each series.
func WithCapacity(capacity int) CollectorOption {
	return func(c *Collector) {
		c.capacity = capacity
	}
}

// WithSlowThreshold counts parses that take longer than d.
func WithSlowThreshold(d time.Duration) CollectorOption {
	return func(c *Collector) {
		c.slowThreshold = d
	}
}

// WithFileHistory replaces the per-file duration history.
func WithFileHistory(h *FileHistory) CollectorOption {
	return func(c *Collector) {
		c.files = h
	}
}

// NewCollector creates an empty collector.
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{
		series:     make(map[string]*CircularBuffer),
		capacity:   DefaultBufferCapacity,
		throughput: ewma.NewMovingAverage(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.files == nil {
		c.files = NewFileHistory(0, 0)
	}
	return c
}

// Record adds a value to the named series, timestamped now.
func (c *Collector) Record(name string, value float64) {
	c.RecordAt(name, time.Now(), value)
}

// RecordAt adds a value to the named series with an explicit timestamp.
func (c *Collector) RecordAt(name string, ts time.Time, value float64) {
	dp := DataPoint{Timestamp: ts, Value: value}
	if !dp.IsValid() {
		return
	}

	c.mu.Lock()
	buf, ok := c.series[name]
	if !ok {
		buf = NewCircularBuffer(c.capacity)
		c.series[name] = buf
	}
	c.mu.Unlock()

	buf.Push(dp)
}

// RecordParse records every series for one parse and feeds the throughput
// average.
func (c *Collector) RecordParse(s ParseSample) {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	c.RecordAt(SeriesParseDuration, ts, float64(s.Duration)/float64(time.Millisecond))
	c.RecordAt(SeriesAvgUtilization, ts, s.AvgUtilization)
	c.RecordAt(SeriesFreeBytes, ts, float64(s.FreeBytes))

	if pps := s.PagesPerSecond(); pps > 0 {
		c.RecordAt(SeriesPagesPerSecond, ts, pps)
		c.mu.Lock()
		c.throughput.Add(pps)
		c.mu.Unlock()
	}

	if c.slowThreshold > 0 && s.Duration > c.slowThreshold {
		c.mu.Lock()
		c.slowParses++
		c.mu.Unlock()
	}

	if s.Path != "" {
		c.files.Record(s.Path, s.Duration)
	}
}

func (c *Collector) buffer(name string) *CircularBuffer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.series[name]
}

// Values returns the values of a series, oldest first.
func (c *Collector) Values(name string) []float64 {
	if buf := c.buffer(name); buf != nil {
		return buf.Values()
	}
	return nil
}

// Latest returns the newest value of a series.
func (c *Collector) Latest(name string) (float64, time.Time, bool) {
	buf := c.buffer(name)
	if buf == nil {
		return 0, time.Time{}, false
	}
	dp, ok := buf.Latest()
	return dp.Value, dp.Timestamp, ok
}

// Summary returns min/max/mean of a series.
func (c *Collector) Summary(name string) Summary {
	if buf := c.buffer(name); buf != nil {
		return buf.Summary()
	}
	return Summary{}
}

// HasData reports whether the series holds any points.
func (c *Collector) HasData(name string) bool {
	buf := c.buffer(name)
	return buf != nil && buf.Len() > 0
}

// MetricNames returns the registered series names, sorted.
func (c *Collector) MetricNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.series))
	for name := range c.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Throughput returns the moving average of pages per second.
func (c *Collector) Throughput() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.throughput.Value()
}

// SlowThreshold returns the duration above which a parse counts as slow, or
// zero when slow parses are not tracked.
func (c *Collector) SlowThreshold() time.Duration {
	return c.slowThreshold
}

// SlowParses returns how many parses exceeded the slow threshold.
func (c *Collector) SlowParses() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slowParses
}

// FileDurations returns the recent parse durations of path in milliseconds.
func (c *Collector) FileDurations(path string) []float64 {
	return c.files.Durations(path)
}

// Files exposes the per-file history.
func (c *Collector) Files() *FileHistory {
	return c.files
}
