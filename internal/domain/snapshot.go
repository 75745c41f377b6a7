package domain

import "time"

// Snapshot is a locally stored copy of an experiment record.
type Snapshot struct {
	Record    ExperimentRecord
	FetchedAt time.Time
}

func (s Snapshot) Experiment() *Experiment {
	return NewExperiment(s.Record)
}
