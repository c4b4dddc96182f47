package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/recsum/internal/stats"
)

// plainPresenter prints periodic progress lines to stderr when stderr is
// not a TTY. Per-file output stays silent; stdout carries the records.
type plainPresenter struct {
	w     io.Writer
	stats *stats.Collector
}

func (p *plainPresenter) Run(events <-chan Event) {
	progress := time.NewTicker(5 * time.Second)
	defer progress.Stop()

	sec := time.NewTicker(1 * time.Second)
	defer sec.Stop()

	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-sec.C:
			p.stats.Tick()
		case <-progress.C:
			p.printProgress()
		}
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	speed := p.stats.RollingSpeed(10)

	if snap.FilesTotal > 0 {
		pct := float64(snap.FilesHashed+snap.FilesFailed) / float64(snap.FilesTotal) * 100
		fmt.Fprintf(p.w, "progress: %.0f%% %s/%s files %s %s eta %s\n",
			pct,
			FormatCount(snap.FilesHashed+snap.FilesFailed), FormatCount(snap.FilesTotal),
			FormatBytes(snap.BytesHashed),
			FormatRate(speed),
			FormatETA(p.stats.ETA()),
		)
		return
	}

	// Total unknown while the walk is still running.
	fmt.Fprintf(p.w, "progress: %s files %s %s\n",
		FormatCount(snap.FilesHashed+snap.FilesFailed),
		FormatBytes(snap.BytesHashed),
		FormatRate(speed),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}
