package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/encodetracker/internal/common"
)

// JobStatus values are persisted as-is and are part of the stable store contract.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"

	// StatusSkipped is never stored. It only classifies candidates the
	// orchestrator refused to turn into a job because the output already exists.
	StatusSkipped JobStatus = "SKIPPED"
)

// IsTerminal reports whether no further processing is expected.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// CanResume reports whether it is valid to continue from saved checkpoints.
func (s JobStatus) CanResume() bool {
	return s == StatusInProgress || s == StatusFailed
}

// Checkpoint is one completed interval of work, in seconds from the start of
// the source.
type Checkpoint struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// ProcessingJob is the aggregate root for one unit of re-encoding work.
// State mutates only through its methods, never by direct assignment.
type ProcessingJob struct {
	JobID      string
	Source     SourceFingerprint
	OutputPath string
	Status     JobStatus
	ErrMessage string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	checkpoints []Checkpoint
}

// CreateNew returns a clean PENDING job with a fresh identifier.
func CreateNew(source SourceFingerprint, outputPath string) *ProcessingJob {
	now := time.Now()

	return &ProcessingJob{
		JobID:      uuid.NewString(),
		Source:     source,
		OutputPath: outputPath,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Restore rebuilds a job from persisted state. For repository use only.
func Restore(jobID string, source SourceFingerprint, outputPath string, status JobStatus,
	checkpoints []Checkpoint, errMessage string, createdAt, updatedAt time.Time) *ProcessingJob {
	return &ProcessingJob{
		JobID:       jobID,
		Source:      source,
		OutputPath:  outputPath,
		Status:      status,
		ErrMessage:  errMessage,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		checkpoints: append([]Checkpoint(nil), checkpoints...),
	}
}

// MarkSegmentProcessed records one finished segment. Any new progress moves
// the job back to IN_PROGRESS, even from COMPLETED or FAILED. Invalid bounds
// leave the job untouched.
func (j *ProcessingJob) MarkSegmentProcessed(start, end float64) error {
	if start < 0 || end <= start {
		return fmt.Errorf("%w: %v -> %v", common.ErrInvalidSegment, start, end)
	}

	j.checkpoints = append(j.checkpoints, Checkpoint{Start: start, End: end})
	j.Status = StatusInProgress
	j.UpdatedAt = time.Now()

	return nil
}

func (j *ProcessingJob) FailJob(reason string) {
	j.Status = StatusFailed
	j.ErrMessage = reason
	j.UpdatedAt = time.Now()
}

func (j *ProcessingJob) CompleteJob() {
	j.Status = StatusCompleted
	j.UpdatedAt = time.Now()
}

// ProgressCount is the number of recorded checkpoints.
func (j *ProcessingJob) ProgressCount() int {
	return len(j.checkpoints)
}

// Checkpoints returns a copy. Mutating it does not affect the job.
func (j *ProcessingJob) Checkpoints() []Checkpoint {
	return append([]Checkpoint(nil), j.checkpoints...)
}
