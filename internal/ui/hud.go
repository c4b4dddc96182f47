package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/bamsammich/recsum/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// hudPresenter provides a rich TTY display: a 2-line HUD on stderr that
// redraws in place while records stream to stdout.
type hudPresenter struct {
	w       io.Writer
	stats   *stats.Collector
	workers int

	// Internal state.
	hudDrawn     bool
	hudLineCount int
	busyWorkers  map[int]bool
	currentFile  string
	lastHUDDraw  time.Time
}

const (
	sparklineWidth   = 20
	progressBarWidth = 20
	hudMinInterval   = 50 * time.Millisecond // don't redraw faster than this
)

func (p *hudPresenter) Run(events <-chan Event) {
	p.busyWorkers = make(map[int]bool)

	// Fire first tick quickly to seed the ring buffer with initial speed data,
	// then switch to 1s interval.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	// Redraw ticker for when no events are flowing (e.g., one large file).
	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(1 * time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev Event) {
	switch ev.Type {
	case FileStarted:
		p.busyWorkers[ev.WorkerID] = true
		p.currentFile = ev.Path

	case FileHashed:
		delete(p.busyWorkers, ev.WorkerID)

	case FileFailed:
		delete(p.busyWorkers, ev.WorkerID)
		errMsg := "error"
		if ev.Error != nil {
			errMsg = ev.Error.Error()
		}
		p.clearHUD()
		fmt.Fprintf(p.w, "✗  %s  %s\n", ev.Path, errMsg)
		p.drawHUD()

	case WalkStarted, WalkComplete:
		// Counts arrive through the collector.
	}
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	speed := p.stats.RollingSpeed(10)
	spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)
	lines := 0

	// Line 1: throughput sparkline + speed + bytes + current file.
	current := truncPath(p.currentFile, 40)
	fmt.Fprintf(p.w, "       %s   %s   %s   %s%s%s\n",
		spark, FormatRate(speed), FormatBytes(snap.BytesHashed),
		ansiDim, current, ansiReset)
	lines++

	// Line 2: progress bar + files + eta. Totals are only known once the
	// walk completes, so fall back to a running count before that.
	done := snap.FilesHashed + snap.FilesFailed
	if snap.FilesTotal > 0 {
		pct := float64(done) / float64(snap.FilesTotal)
		bar := ProgressBar(pct, progressBarWidth)
		fmt.Fprintf(p.w, " %3.0f%%  %s   %s / %s files   eta %s\n",
			pct*100, bar,
			FormatCount(done), FormatCount(snap.FilesTotal),
			FormatETA(p.stats.ETA()))
	} else {
		fmt.Fprintf(p.w, "       %s   %s files   %s discovered\n",
			WorkerIndicator(len(p.busyWorkers), p.workers),
			FormatCount(done), FormatCount(snap.FilesDiscovered))
	}
	lines++

	p.hudDrawn = true
	p.hudLineCount = lines
	p.lastHUDDraw = time.Now()
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	lines := p.hudLineCount
	if lines == 0 {
		lines = 2 // fallback
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", lines)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.stats.Snapshot())
}

// truncPath shortens a path to fit within maxLen characters.
func truncPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	return "..." + path[len(path)-maxLen+3:]
}
