package engine

import (
	"context"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bamsammich/recsum/internal/event"
	"github.com/bamsammich/recsum/internal/hasher"
	"github.com/bamsammich/recsum/internal/stats"
)

// PoolConfig controls hashing worker behavior.
type PoolConfig struct {
	Workers      int
	Algorithm    hasher.Algorithm
	DigestLength int
	Limiter      *rate.Limiter // optional shared read throttle
	Stats        *stats.Collector
	Events       chan<- event.Event
}

// Pool is a fixed-size pool of hashing workers. Each worker owns one file
// at a time, start to finish: one PathItem maps to exactly one Result.
type Pool struct {
	cfg PoolConfig
}

// NewPool creates a worker pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = hasher.Default
	}
	return &Pool{cfg: cfg}
}

// Run starts workers that consume items until the channel closes or the
// context is cancelled, sending one Result per item to results. It blocks
// until all workers exit. Per-file failures are data, not errors: they are
// carried inside the Result.
func (p *Pool) Run(ctx context.Context, items <-chan PathItem, results chan<- FileResult) {
	var wg sync.WaitGroup
	for id := 0; id < p.cfg.Workers; id++ {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range items {
				select {
				case <-ctx.Done():
					return
				default:
				}
				res := p.hashOne(ctx, item, id)
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()
}

func (p *Pool) hashOne(ctx context.Context, item PathItem, workerID int) FileResult {
	res := FileResult{Seq: item.Seq, Path: item.Path}

	emit(p.cfg.Events, event.Event{
		Type:      event.FileStarted,
		Timestamp: time.Now(),
		Path:      item.Path,
		Seq:       item.Seq,
		WorkerID:  workerID,
	})

	f, err := os.Open(item.Path)
	if err != nil {
		return p.fail(res, err, workerID)
	}
	defer f.Close()

	var r io.Reader = f
	if p.cfg.Limiter != nil {
		r = newRateLimitedReader(ctx, f, p.cfg.Limiter)
	}

	digest, n, err := p.cfg.Algorithm.HashReader(r)
	res.Size = n
	if err != nil {
		return p.fail(res, err, workerID)
	}
	res.Digest = hasher.Truncate(digest, p.cfg.DigestLength)

	if p.cfg.Stats != nil {
		p.cfg.Stats.AddFilesHashed(1)
		p.cfg.Stats.AddBytesHashed(n)
	}
	emit(p.cfg.Events, event.Event{
		Type:      event.FileHashed,
		Timestamp: time.Now(),
		Path:      item.Path,
		Size:      n,
		Seq:       item.Seq,
		WorkerID:  workerID,
	})
	return res
}

func (p *Pool) fail(res FileResult, err error, workerID int) FileResult {
	res.Err = err
	if p.cfg.Stats != nil {
		p.cfg.Stats.AddFilesFailed(1)
	}
	emit(p.cfg.Events, event.Event{
		Type:      event.FileFailed,
		Timestamp: time.Now(),
		Path:      res.Path,
		Size:      res.Size,
		Seq:       res.Seq,
		Error:     err,
		WorkerID:  workerID,
	})
	return res
}
