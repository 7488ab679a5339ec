// Package history records completed manipulator runs.
package history

import (
	"time"

	"github.com/google/uuid"

	"nickandperla.net/manipulator/internal/sim"
)

// Date and time layouts matching the ru-RU locale (dd.mm.yyyy, hh:mm:ss).
const (
	DateLayout = "02.01.2006"
	TimeLayout = "15:04:05"
)

// Record is one completed execution. Records are never modified after
// creation; stores hand out copies.
type Record struct {
	ID            string
	Original      string
	Optimized     string
	Date          string
	Time          string
	Completed     time.Time
	SamplesBefore []sim.Sample
	SamplesAfter  []sim.Sample
}

// NewRecord stamps a record with a fresh id and the completion time.
// The sample slices are copied.
func NewRecord(original, optimized string, before, after []sim.Sample, completed time.Time) Record {
	return Record{
		ID:            uuid.NewString(),
		Original:      original,
		Optimized:     optimized,
		Date:          completed.Format(DateLayout),
		Time:          completed.Format(TimeLayout),
		Completed:     completed,
		SamplesBefore: sim.CloneSamples(before),
		SamplesAfter:  sim.CloneSamples(after),
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	r.SamplesBefore = sim.CloneSamples(r.SamplesBefore)
	r.SamplesAfter = sim.CloneSamples(r.SamplesAfter)
	return r
}

// Store is the interface for run history.
type Store interface {
	// Add appends a record.
	Add(r Record) error
	// List returns up to limit records, newest first. limit <= 0 means all.
	List(limit int) ([]Record, error)
	// Get retrieves a record by id. Returns nil if not found.
	Get(id string) (*Record, error)
	// Close releases resources.
	Close() error
}
