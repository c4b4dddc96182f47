package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks hashing statistics using lock-free atomic counters.
type Collector struct {
	filesDiscovered atomic.Int64
	filesHashed     atomic.Int64
	filesFailed     atomic.Int64
	bytesHashed     atomic.Int64
	filesTotal      atomic.Int64
	startTime       time.Time

	// Ring buffer — written only by the presenter's Tick(), not workers.
	mu          sync.Mutex
	throughput  [ringSize]int64 // bytes delta per second
	filesPerSec [ringSize]int64 // files delta per second
	ringIdx     int
	ringCount   int // how many samples have been written (capped at ringSize)
	lastBytes   int64
	lastFiles   int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetFilesTotal records the number of files to hash, when known upfront
// (explicit file lists) or at end of discovery (directory walks).
func (c *Collector) SetFilesTotal(n int64) { c.filesTotal.Store(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesDiscovered int64
	FilesHashed     int64
	FilesFailed     int64
	BytesHashed     int64
	FilesTotal      int64
	Elapsed         time.Duration
}

func (c *Collector) AddFilesDiscovered(n int64) { c.filesDiscovered.Add(n) }
func (c *Collector) AddFilesHashed(n int64)     { c.filesHashed.Add(n) }
func (c *Collector) AddFilesFailed(n int64)     { c.filesFailed.Add(n) }
func (c *Collector) AddBytesHashed(n int64)     { c.bytesHashed.Add(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesDiscovered: c.filesDiscovered.Load(),
		FilesHashed:     c.filesHashed.Load(),
		FilesFailed:     c.filesFailed.Load(),
		BytesHashed:     c.bytesHashed.Load(),
		FilesTotal:      c.filesTotal.Load(),
		Elapsed:         c.Elapsed(),
	}
}

// Tick snapshots byte/file deltas into the ring buffer. Called 1/sec by the presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesHashed.Load()
	currentFiles := c.filesHashed.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	bytesDelta := currentBytes - c.lastBytes
	filesDelta := currentFiles - c.lastFiles
	c.lastBytes = currentBytes
	c.lastFiles = currentFiles

	c.throughput[c.ringIdx] = bytesDelta
	c.filesPerSec[c.ringIdx] = filesDelta
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.throughput[:], seconds)
}

// RollingFilesPerSec returns average files/sec over the last n seconds.
func (c *Collector) RollingFilesPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.filesPerSec[:], seconds)
}

func (c *Collector) rollingAvg(buf []int64, n int) float64 {
	count := n
	if count > c.ringCount {
		count = c.ringCount
	}
	if count == 0 {
		return 0
	}
	var sum int64
	for i := 0; i < count; i++ {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += buf[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n bytes/sec samples for rendering.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := n
	if count > c.ringCount {
		count = c.ringCount
	}
	if count == 0 {
		return nil
	}

	data := make([]float64, count)
	for i := 0; i < count; i++ {
		// oldest first
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		data[i] = float64(c.throughput[idx])
	}
	return data
}

// ETA estimates remaining time from the recent files/sec rate. Returns 0
// when the total is not yet known or no progress has been measured.
func (c *Collector) ETA() time.Duration {
	total := c.filesTotal.Load()
	hashed := c.filesHashed.Load() + c.filesFailed.Load()
	if total <= 0 || hashed >= total {
		return 0
	}
	fps := c.RollingFilesPerSec(10)
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(total-hashed)/fps) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"discovered=%d hashed=%d failed=%d bytes=%d",
		s.FilesDiscovered, s.FilesHashed, s.FilesFailed, s.BytesHashed,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
