package pipe

import "sync/atomic"

// Stats is a snapshot of a pipeline's counters
type Stats struct {
	Submitted int64        `json:"submitted"`
	Received  int64        `json:"received"`
	Discarded int64        `json:"discarded"`
	Stages    []StageStats `json:"stages"`
}

// StageStats counts what one stage did with the messages it received
type StageStats struct {
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Processed int64  `json:"processed"`
	Failed    int64  `json:"failed"`
	Skipped   int64  `json:"skipped"`
}

type counters struct {
	submitted atomic.Int64
	received  atomic.Int64
	discarded atomic.Int64
	stages    []*stageCounters
}

type stageCounters struct {
	name      string
	capacity  int
	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

func (c *counters) snapshot() Stats {
	stats := Stats{
		Submitted: c.submitted.Load(),
		Received:  c.received.Load(),
		Discarded: c.discarded.Load(),
		Stages:    make([]StageStats, 0, len(c.stages)),
	}
	for _, sc := range c.stages {
		stats.Stages = append(stats.Stages, StageStats{
			Name:      sc.name,
			Capacity:  sc.capacity,
			Processed: sc.processed.Load(),
			Failed:    sc.failed.Load(),
			Skipped:   sc.skipped.Load(),
		})
	}
	return stats
}
