package pipeline

import (
	"time"

	"github.com/nao1215/climatecrawl/internal/crawler"
	"github.com/nao1215/climatecrawl/internal/database"
	"github.com/nao1215/climatecrawl/internal/model"
)

// Status is the user-facing outcome of a download.
type Status int

const (
	// StatusFailed means no records were obtained or a step failed.
	StatusFailed Status = iota

	// StatusSaved means new records were crawled and stored.
	StatusSaved

	// StatusUpToDate means the crawl reached the checkpoint without finding
	// any record to store.
	StatusUpToDate
)

// String returns the message shown after a download.
func (s Status) String() string {
	switch s {
	case StatusSaved:
		return "saved"
	case StatusUpToDate:
		return "up to date"
	default:
		return "failed to download"
	}
}

// Job carries the state of one station download through the pipeline.
type Job struct {
	// Station is the station being downloaded.
	Station model.Station

	// StartedAt is when the job was created.
	StartedAt time.Time

	// Checkpoint is the newest date already stored; zero when the station
	// has no stored records yet.
	Checkpoint time.Time

	// Result is the crawl outcome; nil until the crawl step ran.
	Result *crawler.Result

	// Inserted is the number of rows the store step added.
	Inserted int64

	// Run is the history entry written by the record step.
	Run database.Run

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string

	// Error is the error of the first failed step.
	Error error

	// ErrorMessage is Error as text, kept for reports.
	ErrorMessage string

	// Cancelled is set when the context ended before all steps ran.
	Cancelled bool
}

// NewJob creates a job for station.
func NewJob(station model.Station) *Job {
	return &Job{
		Station:        station,
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// Records returns the number of records the crawl produced.
func (j *Job) Records() int {
	if j.Result == nil {
		return 0
	}
	return j.Result.Weather.Len()
}

// StopReason returns why the crawl ended, or "not started".
func (j *Job) StopReason() string {
	if j.Result == nil {
		return "not started"
	}
	return j.Result.Reason.String()
}

// Status reports whether the job saved records.
func (j *Job) Status() Status {
	switch {
	case j.Error != nil || j.Result == nil:
		return StatusFailed
	case j.Records() > 0:
		return StatusSaved
	case j.Result.Reason == crawler.StopCheckpoint:
		return StatusUpToDate
	default:
		return StatusFailed
	}
}

// setError records err as the job error.
func (j *Job) setError(err error) {
	j.Error = err
	j.ErrorMessage = err.Error()
}
