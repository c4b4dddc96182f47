package engine

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// Workers read in 32 KiB chunks; the burst must cover at least one chunk
// or WaitN rejects the request outright.
const minBurst = 32 * 1024

// NewBWLimiter creates a rate.Limiter shared by all workers that caps
// their aggregate read throughput to bytesPerSec.
func NewBWLimiter(bytesPerSec int64) *rate.Limiter {
	burst := 1 << 20 // 1 MB: lets natural read chunks through without stalling
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	if burst < minBurst {
		burst = minBurst
	}
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}

// rateLimitedReader throttles reads against a shared limiter. The debt is
// paid after the read, so a chunk is never split across limiter waits.
type rateLimitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func newRateLimitedReader(
	ctx context.Context,
	r io.Reader,
	limiter *rate.Limiter,
) *rateLimitedReader {
	return &rateLimitedReader{r: r, limiter: limiter, ctx: ctx}
}

func (rl *rateLimitedReader) Read(p []byte) (int, error) {
	n, err := rl.r.Read(p)
	if n > 0 {
		if waitErr := rl.limiter.WaitN(rl.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
