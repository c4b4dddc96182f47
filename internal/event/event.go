package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	WalkStarted Type = iota + 1
	WalkComplete
	FileStarted
	FileHashed
	FileFailed
)

var typeNames = [...]string{
	WalkStarted:  "WalkStarted",
	WalkComplete: "WalkComplete",
	FileStarted:  "FileStarted",
	FileHashed:   "FileHashed",
	FileFailed:   "FileFailed",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string
	Size      int64  // bytes hashed for this file
	Total     int64  // total files discovered (WalkComplete)
	Seq       uint64 // position in output order
	Error     error
	WorkerID  int
}
