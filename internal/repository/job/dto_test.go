package job

import (
	"testing"
	"time"

	"github.com/jgivc/encodetracker/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDTO() jobDTO {
	now := time.Now().Format(time.RFC3339Nano)

	return jobDTO{
		JobID:       "job-1",
		Filename:    "talk.mp4",
		FileSize:    1024,
		ContentHash: "aabb",
		OutputPath:  "/out/talk_edited.mp4",
		Status:      "IN_PROGRESS",
		Checkpoints: []entity.Checkpoint{{Start: 0, End: 60}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestToEntityRejectsSchemaDrift(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*jobDTO)
	}{
		{"missing job_id", func(d *jobDTO) { d.JobID = "" }},
		{"missing filename", func(d *jobDTO) { d.Filename = "" }},
		{"negative size", func(d *jobDTO) { d.FileSize = -1 }},
		{"missing hash", func(d *jobDTO) { d.ContentHash = "" }},
		{"unknown status", func(d *jobDTO) { d.Status = "RUNNING" }},
		{"skipped is never stored", func(d *jobDTO) { d.Status = "SKIPPED" }},
		{"bad created_at", func(d *jobDTO) { d.CreatedAt = "yesterday" }},
		{"bad updated_at", func(d *jobDTO) { d.UpdatedAt = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto := validDTO()
			tt.mutate(&dto)

			_, err := toEntity(dto)
			require.Error(t, err)
		})
	}
}

func TestToEntityRestoresAggregate(t *testing.T) {
	j, err := toEntity(validDTO())
	require.NoError(t, err)

	assert.Equal(t, "job-1", j.JobID)
	assert.Equal(t, entity.StatusInProgress, j.Status)
	assert.Equal(t, []entity.Checkpoint{{Start: 0, End: 60}}, j.Checkpoints())
	assert.Equal(t, int64(1024), j.Source.SizeBytes)
}
