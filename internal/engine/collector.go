package engine

import "github.com/bamsammich/recsum/internal/sink"

// Collector reassembles worker results into discovery order before they
// reach the output sink. Workers complete out of order; the collector holds
// completed results in a pending window keyed by sequence number and emits
// the contiguous run starting at the watermark.
type Collector struct {
	out     *sink.Writer
	next    uint64
	pending map[uint64]FileResult
}

// NewCollector creates a collector writing ordered records to out.
func NewCollector(out *sink.Writer) *Collector {
	return &Collector{
		out:     out,
		pending: make(map[uint64]FileResult),
	}
}

// Collect consumes results until the channel closes, writing records in
// strict ascending sequence order. It returns the number of records
// emitted; results still pending when the channel closes (a cancelled run)
// are counted by Pending. Collect runs on a single goroutine — the pending
// window needs no lock.
func (c *Collector) Collect(results <-chan FileResult) (uint64, error) {
	for res := range results {
		c.pending[res.Seq] = res
		if err := c.drain(); err != nil {
			return c.next, err
		}
	}
	return c.next, nil
}

// drain emits the contiguous run of pending results at the watermark.
func (c *Collector) drain() error {
	for {
		res, ok := c.pending[c.next]
		if !ok {
			return nil
		}
		delete(c.pending, c.next)

		var err error
		if res.Err != nil {
			err = c.out.WriteError(res.Path, res.Err)
		} else {
			err = c.out.WriteRecord(res.Path, res.Digest)
		}
		if err != nil {
			return err
		}
		c.next++
	}
}

// Pending reports how many completed results never reached the sink
// because a lower sequence number was still outstanding when the run ended.
func (c *Collector) Pending() int {
	return len(c.pending)
}
