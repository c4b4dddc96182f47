package ui

import "github.com/bamsammich/recsum/internal/stats"

// quietPresenter consumes events but produces no output.
type quietPresenter struct {
	stats *stats.Collector
}

func (p *quietPresenter) Run(events <-chan Event) {
	for range events {
		// Counters are written by the engine directly; presenters only
		// read from the collector, never write.
	}
}

func (p *quietPresenter) Summary() string {
	return ""
}
