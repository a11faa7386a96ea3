package job

import (
	"fmt"
	"time"

	"github.com/jgivc/encodetracker/internal/entity"
)

// jobDTO is the persisted record shape. Both stores share it so records can
// move between backends unchanged. Timestamps travel as RFC 3339 strings.
type jobDTO struct {
	JobID        string              `json:"job_id"`
	Filename     string              `json:"filename"`
	FileSize     int64               `json:"file_size"`
	ContentHash  string              `json:"content_hash"`
	OutputPath   string              `json:"output_path"`
	Status       string              `json:"status"`
	Checkpoints  []entity.Checkpoint `json:"checkpoints"`
	CreatedAt    string              `json:"created_at"`
	UpdatedAt    string              `json:"updated_at"`
	ErrorMessage string              `json:"error_message,omitempty"`
}

func toDTO(j *entity.ProcessingJob) jobDTO {
	return jobDTO{
		JobID:        j.JobID,
		Filename:     j.Source.Filename,
		FileSize:     j.Source.SizeBytes,
		ContentHash:  j.Source.ContentHash,
		OutputPath:   j.OutputPath,
		Status:       string(j.Status),
		Checkpoints:  j.Checkpoints(),
		CreatedAt:    j.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:    j.UpdatedAt.Format(time.RFC3339Nano),
		ErrorMessage: j.ErrMessage,
	}
}

func toEntity(dto jobDTO) (*entity.ProcessingJob, error) {
	if dto.JobID == "" {
		return nil, fmt.Errorf("record has no job_id")
	}

	source, err := entity.NewSourceFingerprint(dto.Filename, dto.FileSize, dto.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("cannot rebuild fingerprint: %w", err)
	}

	status := entity.JobStatus(dto.Status)
	switch status {
	case entity.StatusPending, entity.StatusInProgress, entity.StatusCompleted, entity.StatusFailed:
	default:
		return nil, fmt.Errorf("unknown status %q", dto.Status)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, dto.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("cannot parse created_at: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, dto.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("cannot parse updated_at: %w", err)
	}

	return entity.Restore(dto.JobID, source, dto.OutputPath, status,
		dto.Checkpoints, dto.ErrorMessage, createdAt, updatedAt), nil
}
