package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/bamsammich/recsum/internal/event"
	"github.com/bamsammich/recsum/internal/stats"
)

// maxLineLen bounds a single path line read from the stream.
const maxLineLen = 1024 * 1024

// StreamSource produces PathItems from a line-delimited stream of paths,
// in arrival order. Unlike the directory walk, buffering is effectively
// unbounded: the upstream process writing the pipe is never stalled by slow
// hashing, trading memory for liveness. Empty lines are skipped.
type StreamSource struct {
	r   io.Reader
	seq sequencer
}

// NewStreamSource creates a source reading newline-separated paths from r.
func NewStreamSource(r io.Reader, st *stats.Collector, events chan<- event.Event) *StreamSource {
	return &StreamSource{
		r:   r,
		seq: sequencer{stats: st, events: events},
	}
}

// Start begins reading. A stream read failure is fatal and reported on the
// error channel; end-of-input is normal termination.
func (s *StreamSource) Start(ctx context.Context) (<-chan PathItem, <-chan error) {
	in, out := elasticQueue()
	errs := make(chan error, 1)

	go func() {
		defer close(in)
		defer close(errs)

		sc := bufio.NewScanner(s.r)
		sc.Buffer(make([]byte, 64*1024), maxLineLen)
		for sc.Scan() {
			if ctx.Err() != nil {
				return
			}
			line := sc.Text()
			if line == "" {
				continue
			}
			// Send never blocks: the elastic queue grows instead.
			in <- s.seq.item(line)
		}
		if err := sc.Err(); err != nil {
			errs <- fmt.Errorf("read path list: %w", err)
			return
		}
		s.seq.finish()
	}()

	return out, errs
}

// Produced reports how many lines have been assigned sequence numbers.
func (s *StreamSource) Produced() uint64 {
	return s.seq.produced()
}

// elasticQueue returns a channel pair backed by an unbounded FIFO buffer:
// sends on in never block regardless of how slowly out is drained. out
// closes after in closes and the buffer drains.
func elasticQueue() (chan<- PathItem, <-chan PathItem) {
	in := make(chan PathItem)
	out := make(chan PathItem)

	go func() {
		defer close(out)
		var buf []PathItem
		for in != nil || len(buf) > 0 {
			var send chan PathItem
			var next PathItem
			if len(buf) > 0 {
				send = out
				next = buf[0]
			}
			select {
			case item, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				buf = append(buf, item)
			case send <- next:
				buf = buf[1:]
			}
		}
	}()

	return in, out
}
