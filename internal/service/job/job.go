package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/encodetracker/internal/common"
	"github.com/jgivc/encodetracker/internal/entity"
)

const (
	serviceName = "job"
)

type JobRepository interface {
	List(ctx context.Context) ([]*entity.ProcessingJob, error)
}

type jobService struct {
	repo JobRepository
	log  *slog.Logger
}

func NewJobService(repo JobRepository, log *slog.Logger) *jobService {
	return &jobService{
		repo: repo,
		log:  log.With(slog.String("service", serviceName)),
	}
}

func (s *jobService) List(ctx context.Context) ([]*entity.ProcessingJob, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("Cannot list jobs", slog.Any("error", err))

		return nil, fmt.Errorf("cannot list jobs: %w", err)
	}

	return jobs, nil
}

func (s *jobService) Get(ctx context.Context, contentHash string) (*entity.ProcessingJob, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error("Cannot list jobs", slog.Any("error", err))

		return nil, fmt.Errorf("cannot list jobs: %w", err)
	}

	for _, j := range jobs {
		if j.Source.ContentHash == contentHash {
			return j, nil
		}
	}

	return nil, common.ErrJobNotFound
}
