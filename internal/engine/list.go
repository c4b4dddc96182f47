package engine

import (
	"context"

	"github.com/bamsammich/recsum/internal/event"
	"github.com/bamsammich/recsum/internal/stats"
)

// ListSource produces PathItems from an explicit slice of paths, in
// argument order. The channel is sized to the list, so production never
// blocks.
type ListSource struct {
	paths []string
	seq   sequencer
}

// NewListSource creates a source over the given paths.
func NewListSource(paths []string, st *stats.Collector, events chan<- event.Event) *ListSource {
	return &ListSource{
		paths: paths,
		seq:   sequencer{stats: st, events: events},
	}
}

// Start begins production. Missing or unreadable paths are not checked
// here: they surface as per-file errors from the workers, in their correct
// output slot.
func (s *ListSource) Start(ctx context.Context) (<-chan PathItem, <-chan error) {
	items := make(chan PathItem, len(s.paths))
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)
		for _, p := range s.paths {
			select {
			case items <- s.seq.item(p):
			case <-ctx.Done():
				return
			}
		}
		s.seq.finish()
	}()

	return items, errs
}

// Produced reports how many paths have been assigned sequence numbers.
func (s *ListSource) Produced() uint64 {
	return s.seq.produced()
}
