package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/bamsammich/recsum/internal/event"
	"github.com/bamsammich/recsum/internal/stats"
)

// WalkConfig controls directory traversal.
type WalkConfig struct {
	Root     string
	Walkers  int // concurrent directory listers
	Capacity int // dispatch channel capacity (the backpressure bound)
	Stats    *stats.Collector
	Events   chan<- event.Event
}

// Walker traverses a directory tree depth-first and emits one PathItem per
// regular file, in lexicographic entry order. Symlinks and special files
// are excluded.
//
// Directory listings are fetched by a pool of walker goroutines running
// ahead of the traversal, but sequence numbers are assigned by a single
// emitter goroutine walking the prefetched listings in DFS order. That
// emitter is the serialization point: discovery I/O is parallel, ordering
// is not. The emitter pushes into a bounded channel, so a slow consumer
// stalls traversal instead of buffering the whole tree in memory.
type Walker struct {
	cfg WalkConfig
	seq sequencer

	mu       sync.Mutex
	listings map[string]*listing
	sem      chan struct{}
	fetchWg  sync.WaitGroup
}

// listing is one directory's entries, fetched at most once.
type listing struct {
	entries []os.DirEntry
	err     error
	done    chan struct{}
}

// NewWalker creates a walker for the tree rooted at cfg.Root.
func NewWalker(cfg WalkConfig) *Walker {
	if cfg.Walkers <= 0 {
		cfg.Walkers = min(runtime.NumCPU(), 8)
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1
	}
	return &Walker{
		cfg:      cfg,
		seq:      sequencer{stats: cfg.Stats, events: cfg.Events},
		listings: make(map[string]*listing),
		sem:      make(chan struct{}, cfg.Walkers),
	}
}

// Start begins the traversal. The item channel closes when the walk
// completes or the context is cancelled; the error channel carries at most
// one fatal error (unreadable root). Unreadable subdirectories are logged
// and skipped, not fatal.
func (w *Walker) Start(ctx context.Context) (<-chan PathItem, <-chan error) {
	items := make(chan PathItem, w.cfg.Capacity)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		emit(w.cfg.Events, event.Event{Type: event.WalkStarted, Timestamp: time.Now(), Path: w.cfg.Root})

		if err := w.visit(ctx, w.cfg.Root, true, items); err != nil {
			if ctx.Err() == nil {
				errs <- err
			}
		}
		w.fetchWg.Wait()
		w.seq.finish()
	}()

	return items, errs
}

// Produced reports how many files have been assigned sequence numbers.
func (w *Walker) Produced() uint64 {
	return w.seq.produced()
}

// visit performs the DFS for one directory. Only the emitter goroutine
// calls it, so sequence assignment stays globally ordered.
func (w *Walker) visit(ctx context.Context, dir string, isRoot bool, items chan<- PathItem) error {
	l := w.fetch(dir)
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.forget(dir)

	if l.err != nil {
		if isRoot {
			return l.err
		}
		slog.Warn("skipping unreadable directory", "path", dir, "error", l.err)
		return nil
	}

	// Kick off listings for all subdirectories before descending, so the
	// walker pool reads ahead of the DFS.
	for _, e := range l.entries {
		if e.IsDir() {
			w.fetch(filepath.Join(dir, e.Name()))
		}
	}

	for _, e := range l.entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			if err := w.visit(ctx, path, false, items); err != nil {
				return err
			}
		case e.Type().IsRegular():
			select {
			case items <- w.seq.item(path):
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			// Symlinks, sockets, devices: not hashed.
		}
	}
	return nil
}

// fetch returns the listing for dir, starting a fetch if none is running.
// The walker pool semaphore bounds concurrent ReadDir calls.
func (w *Walker) fetch(dir string) *listing {
	w.mu.Lock()
	if l, ok := w.listings[dir]; ok {
		w.mu.Unlock()
		return l
	}
	l := &listing{done: make(chan struct{})}
	w.listings[dir] = l
	w.mu.Unlock()

	w.fetchWg.Add(1)
	go func() {
		defer w.fetchWg.Done()
		w.sem <- struct{}{}
		l.entries, l.err = os.ReadDir(dir)
		<-w.sem
		close(l.done)
	}()
	return l
}

func (w *Walker) forget(dir string) {
	w.mu.Lock()
	delete(w.listings, dir)
	w.mu.Unlock()
}
