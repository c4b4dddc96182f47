package ui

import (
	"fmt"

	"github.com/bamsammich/recsum/internal/stats"
)

// CompletionSummary builds a final summary line from a snapshot.
// Format: done ✓  files 48,917  size 2.1 GiB  avg 641 MB/s  time 3m 17s  errors 0
func CompletionSummary(snap stats.Snapshot) string {
	avgSpeed := 0.0
	if snap.Elapsed.Seconds() > 0 {
		avgSpeed = float64(snap.BytesHashed) / snap.Elapsed.Seconds()
	}

	icon := "✓"
	if snap.FilesFailed > 0 {
		icon = "✗"
	}

	return fmt.Sprintf("done %s  files %s  size %s  avg %s  time %s  errors %d",
		icon,
		FormatCount(snap.FilesHashed),
		FormatBytes(snap.BytesHashed),
		FormatRate(avgSpeed),
		FormatDuration(snap.Elapsed),
		snap.FilesFailed,
	)
}
