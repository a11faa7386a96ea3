package entity

import (
	"testing"
	"time"

	"github.com/jgivc/encodetracker/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFingerprint(t *testing.T) SourceFingerprint {
	t.Helper()

	fp, err := NewSourceFingerprint("talk.mp4", 1<<20, "deadbeef")
	require.NoError(t, err)

	return fp
}

func TestCreateNew(t *testing.T) {
	job := CreateNew(testFingerprint(t), "/out/talk_edited.mp4")

	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, StatusPending, job.Status)
	assert.Zero(t, job.ProgressCount())
	assert.False(t, job.CreatedAt.IsZero())

	other := CreateNew(testFingerprint(t), "/out/talk_edited.mp4")
	assert.NotEqual(t, job.JobID, other.JobID)
}

func TestMarkSegmentProcessed(t *testing.T) {
	job := CreateNew(testFingerprint(t), "/out/talk_edited.mp4")

	require.NoError(t, job.MarkSegmentProcessed(0, 60))
	assert.Equal(t, StatusInProgress, job.Status)
	assert.Equal(t, 1, job.ProgressCount())

	require.NoError(t, job.MarkSegmentProcessed(60, 125.5))
	assert.Equal(t, []Checkpoint{{Start: 0, End: 60}, {Start: 60, End: 125.5}}, job.Checkpoints())
}

func TestMarkSegmentProcessedInvalidBoundsLeaveStateUntouched(t *testing.T) {
	job := CreateNew(testFingerprint(t), "/out/talk_edited.mp4")
	require.NoError(t, job.MarkSegmentProcessed(0, 60))

	before := job.Checkpoints()
	statusBefore := job.Status

	require.ErrorIs(t, job.MarkSegmentProcessed(10, 5), common.ErrInvalidSegment)
	require.ErrorIs(t, job.MarkSegmentProcessed(-1, 5), common.ErrInvalidSegment)
	require.ErrorIs(t, job.MarkSegmentProcessed(5, 5), common.ErrInvalidSegment)

	assert.Equal(t, before, job.Checkpoints())
	assert.Equal(t, statusBefore, job.Status)
}

func TestNewProgressReopensTerminalJob(t *testing.T) {
	job := CreateNew(testFingerprint(t), "/out/talk_edited.mp4")

	job.CompleteJob()
	require.Equal(t, StatusCompleted, job.Status)

	require.NoError(t, job.MarkSegmentProcessed(0, 30))
	assert.Equal(t, StatusInProgress, job.Status)

	job.FailJob("encoder crashed")
	require.NoError(t, job.MarkSegmentProcessed(30, 60))
	assert.Equal(t, StatusInProgress, job.Status)
}

func TestFailJob(t *testing.T) {
	job := CreateNew(testFingerprint(t), "/out/talk_edited.mp4")

	job.FailJob("no space left on device")

	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "no space left on device", job.ErrMessage)
}

func TestCompleteJobIsUnconditional(t *testing.T) {
	job := CreateNew(testFingerprint(t), "/out/talk_edited.mp4")

	// Completion with zero checkpoints is allowed, the caller owns that policy.
	job.CompleteJob()

	assert.Equal(t, StatusCompleted, job.Status)
	assert.Zero(t, job.ProgressCount())
}

func TestCheckpointsReturnsDefensiveCopy(t *testing.T) {
	job := CreateNew(testFingerprint(t), "/out/talk_edited.mp4")
	require.NoError(t, job.MarkSegmentProcessed(0, 60))

	cps := job.Checkpoints()
	cps[0].End = 9999

	assert.Equal(t, []Checkpoint{{Start: 0, End: 60}}, job.Checkpoints())
}

func TestRestoreKeepsCheckpointsAndStatus(t *testing.T) {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	job := Restore("job-1", testFingerprint(t), "/out/talk_edited.mp4", StatusFailed,
		[]Checkpoint{{Start: 0, End: 60}}, "boom", created, updated)

	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, 1, job.ProgressCount())
	assert.Equal(t, created, job.CreatedAt)
	assert.Equal(t, updated, job.UpdatedAt)
}

func TestJobStatusPredicates(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusSkipped.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
	assert.False(t, StatusFailed.IsTerminal())

	assert.True(t, StatusInProgress.CanResume())
	assert.True(t, StatusFailed.CanResume())
	assert.False(t, StatusPending.CanResume())
	assert.False(t, StatusCompleted.CanResume())
	assert.False(t, StatusSkipped.CanResume())
}
