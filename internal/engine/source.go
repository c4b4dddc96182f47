package engine

import (
	"context"
	"sync/atomic"

	"github.com/bamsammich/recsum/internal/event"
	"github.com/bamsammich/recsum/internal/stats"
)

// pathSource produces the ordered stream of paths to hash. Each source
// assigns dense, monotone sequence numbers at a single serialization point,
// so output order is well defined no matter how discovery is parallelized.
type pathSource interface {
	// Start begins production, returning the item stream and a channel
	// carrying at most one fatal source error. Both close when production
	// stops.
	Start(ctx context.Context) (<-chan PathItem, <-chan error)

	// Produced reports how many items have been assigned sequence numbers
	// so far.
	Produced() uint64
}

// sequencer hands out sequence numbers and keeps the discovery counters
// current. Every source funnels items through exactly one sequencer used
// from one goroutine.
type sequencer struct {
	next   atomic.Uint64
	stats  *stats.Collector
	events chan<- event.Event
}

func (s *sequencer) item(path string) PathItem {
	seq := s.next.Add(1) - 1
	if s.stats != nil {
		s.stats.AddFilesDiscovered(1)
	}
	return PathItem{Seq: seq, Path: path}
}

func (s *sequencer) produced() uint64 {
	return s.next.Load()
}

// finish records the final discovery total and notifies presenters.
func (s *sequencer) finish() {
	total := int64(s.next.Load())
	if s.stats != nil {
		s.stats.SetFilesTotal(total)
	}
	emit(s.events, event.Event{Type: event.WalkComplete, Total: total})
}
