package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/jgivc/encodetracker/internal/common"
	"github.com/jgivc/encodetracker/internal/entity"
)

var (
	hashRegexp = regexp.MustCompile(`^[a-f\d]{64}$`)
)

type JobService interface {
	List(ctx context.Context) ([]*entity.ProcessingJob, error)
	Get(ctx context.Context, contentHash string) (*entity.ProcessingJob, error)
}

type jobView struct {
	JobID       string              `json:"job_id"`
	Filename    string              `json:"filename"`
	ContentHash string              `json:"content_hash"`
	OutputPath  string              `json:"output_path"`
	Status      string              `json:"status"`
	Progress    int                 `json:"progress"`
	Checkpoints []entity.Checkpoint `json:"checkpoints"`
	Error       string              `json:"error,omitempty"`
}

func toView(j *entity.ProcessingJob) jobView {
	return jobView{
		JobID:       j.JobID,
		Filename:    j.Source.Filename,
		ContentHash: j.Source.ContentHash,
		OutputPath:  j.OutputPath,
		Status:      string(j.Status),
		Progress:    j.ProgressCount(),
		Checkpoints: j.Checkpoints(),
		Error:       j.ErrMessage,
	}
}

func NewJobsHandler(srv JobService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "JobsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := srv.List(r.Context())
		if err != nil {
			http.Error(w, "Cannot list jobs", http.StatusInternalServerError)

			return
		}

		views := make([]jobView, 0, len(jobs))
		for _, j := range jobs {
			views = append(views, toView(j))
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(views); err != nil {
			log.Error("Cannot encode jobs", slog.Any("error", err))
		}
	}
}

func NewJobHandler(srv JobService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "JobHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		hash := r.PathValue("hash")
		if !hashRegexp.MatchString(hash) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		j, err := srv.Get(r.Context(), hash)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrJobNotFound):
				http.Error(w, "Job not found", http.StatusNotFound)
			default:
				http.Error(w, "Cannot get job", http.StatusInternalServerError)
			}

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(toView(j)); err != nil {
			log.Error("Cannot encode job", slog.Any("error", err))
		}
	}
}
