package ui

import "github.com/bamsammich/recsum/internal/event"

// Event is re-exported so presenters read naturally.
type Event = event.Event

// Re-export event types for convenience.
const (
	WalkStarted  = event.WalkStarted
	WalkComplete = event.WalkComplete
	FileStarted  = event.FileStarted
	FileHashed   = event.FileHashed
	FileFailed   = event.FileFailed
)
