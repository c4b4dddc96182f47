package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/time/rate"

	"github.com/bamsammich/recsum/internal/event"
	"github.com/bamsammich/recsum/internal/hasher"
	"github.com/bamsammich/recsum/internal/sink"
	"github.com/bamsammich/recsum/internal/stats"
)

// DefaultQueueFactor sizes the walk dispatch queue as a multiple of the
// worker count: enough headroom that workers are rarely starved, small
// enough to cap how far discovery can run ahead of hashing.
const DefaultQueueFactor = 3

// Config describes a hashing run.
type Config struct {
	// Inputs is one directory, one or more files, or the single marker
	// "-" to read paths from Stdin.
	Inputs []string
	Stdin  io.Reader // used when Inputs is ["-"]; defaults to os.Stdin

	Workers      int
	Walkers      int
	QueueFactor  int
	Algorithm    hasher.Algorithm
	DigestLength int
	BWLimit      int64 // bytes/sec read throttle, 0 = unlimited

	Separator string
	HashFirst bool

	Output io.Writer // defaults to os.Stdout
	Stats  *stats.Collector
	Events chan<- event.Event
}

// Result is the outcome of a run.
type Result struct {
	Stats stats.Snapshot
	// Emitted is the number of records written, in sequence order.
	Emitted uint64
	// Unprocessed counts discovered paths that never reached the output,
	// nonzero only for cancelled or failed runs.
	Unprocessed uint64
	Err         error
}

// Run executes the discovery → dispatch → hash → ordered-collect pipeline,
// blocking until complete. Per-file errors appear inline in the output and
// do not fail the run; only source-level failures do.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueFactor <= 0 {
		cfg.QueueFactor = DefaultQueueFactor
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}
	if cfg.Separator == "" {
		cfg.Separator = "\t"
	}

	src, err := resolveSource(cfg)
	if err != nil {
		return Result{Stats: cfg.Stats.Snapshot(), Err: err}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	items, srcErrs := src.Start(ctx)

	var limiter *rate.Limiter
	if cfg.BWLimit > 0 {
		limiter = NewBWLimiter(cfg.BWLimit)
	}

	pool := NewPool(PoolConfig{
		Workers:      cfg.Workers,
		Algorithm:    cfg.Algorithm,
		DigestLength: cfg.DigestLength,
		Limiter:      limiter,
		Stats:        cfg.Stats,
		Events:       cfg.Events,
	})

	results := make(chan FileResult, cfg.Workers)
	go func() {
		defer close(results)
		pool.Run(ctx, items, results)
	}()

	// A fatal source error cancels the whole pipeline; whatever was
	// already emitted is preserved.
	var srcErr error
	srcErrDone := make(chan struct{})
	go func() {
		defer close(srcErrDone)
		for err := range srcErrs {
			if srcErr == nil {
				srcErr = err
			}
			cancel()
		}
	}()

	out := sink.New(cfg.Output, cfg.Separator, cfg.HashFirst)
	collector := NewCollector(out)

	emitted, collectErr := collector.Collect(results)
	if collectErr != nil {
		// The sink is unusable; unblock the workers and bail out.
		cancel()
		for range results { //nolint:revive // empty-block: draining result channel
		}
	}
	flushErr := out.Flush()
	<-srcErrDone

	res := Result{
		Stats:   cfg.Stats.Snapshot(),
		Emitted: emitted,
	}
	if produced := src.Produced(); produced > emitted {
		res.Unprocessed = produced - emitted
	}

	switch {
	case srcErr != nil:
		res.Err = srcErr
	case collectErr != nil:
		res.Err = collectErr
	case flushErr != nil:
		res.Err = flushErr
	case ctx.Err() != nil && res.Unprocessed > 0:
		res.Err = fmt.Errorf("interrupted: %d of %d files not hashed", res.Unprocessed, src.Produced())
	}
	return res
}

// resolveSource picks the path source for the configured inputs: one
// directory selects the walk, "-" selects the stream, anything else is an
// explicit list.
func resolveSource(cfg Config) (pathSource, error) {
	if len(cfg.Inputs) == 0 {
		return nil, fmt.Errorf("no input given")
	}

	if len(cfg.Inputs) == 1 {
		in := cfg.Inputs[0]
		if in == "-" {
			r := cfg.Stdin
			if r == nil {
				r = os.Stdin
			}
			return NewStreamSource(r, cfg.Stats, cfg.Events), nil
		}

		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in, err)
		}
		if info.IsDir() {
			return NewWalker(WalkConfig{
				Root:     in,
				Walkers:  cfg.Walkers,
				Capacity: cfg.QueueFactor * cfg.Workers,
				Stats:    cfg.Stats,
				Events:   cfg.Events,
			}), nil
		}
	}

	// One or more explicit file paths. Individual missing files surface
	// as per-file errors in their output slots, not as setup failures.
	return NewListSource(cfg.Inputs, cfg.Stats, cfg.Events), nil
}

// emit sends an event without blocking. Presenters are advisory: under
// pressure events are dropped rather than stalling the pipeline.
func emit(events chan<- event.Event, ev event.Event) {
	if events == nil {
		return
	}
	select {
	case events <- ev:
	default:
	}
}
