package runner

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jgivc/encodetracker/internal/common"
	"github.com/jgivc/encodetracker/internal/entity"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const (
	serviceName = "runner"
)

type Orchestrator interface {
	PrepareJobs(ctx context.Context, inputPath, outputDir string, force bool) iter.Seq2[*entity.ProcessingJob, error]
}

type JobRepository interface {
	Save(ctx context.Context, j *entity.ProcessingJob) error
}

// Processor performs the actual media transformation. It records progress on
// the job itself via MarkSegmentProcessed; the runner owns persistence.
type Processor interface {
	Process(ctx context.Context, j *entity.ProcessingJob) error
}

// Reporter renders a summary of a finished batch run.
type Reporter interface {
	WriteReport(jobs []*entity.ProcessingJob, stats Stats) error
}

// Stats summarizes one batch run.
type Stats struct {
	Resumed    int       `yaml:"resumed"`
	New        int       `yaml:"new"`
	Completed  int       `yaml:"completed"`
	Failed     int       `yaml:"failed"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
}

type runnerService struct {
	orch      Orchestrator
	repo      JobRepository
	processor Processor
	reporter  Reporter
	fs        afero.Fs

	running atomic.Bool

	mu        sync.Mutex
	lastStats Stats

	log *slog.Logger
}

func NewRunnerService(orch Orchestrator, repo JobRepository, processor Processor, reporter Reporter, fs afero.Fs, log *slog.Logger) *runnerService {
	return &runnerService{
		orch:      orch,
		repo:      repo,
		processor: processor,
		reporter:  reporter,
		fs:        fs,
		log:       log.With(slog.String("service", serviceName)),
	}
}

// Run pulls jobs one at a time and executes them sequentially. Every
// meaningful state change is persisted before the next job starts, so an
// interrupted run leaves only resumable records behind.
func (r *runnerService) Run(ctx context.Context, inputPath, outputDir string, force bool) (Stats, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Stats{}, common.ErrBatchAlreadyRunning
	}
	defer r.running.Store(false)

	stats := Stats{StartedAt: time.Now()}
	var processed []*entity.ProcessingJob

	defer func() {
		stats.FinishedAt = time.Now()

		r.mu.Lock()
		r.lastStats = stats
		r.mu.Unlock()
	}()

	for j, err := range r.orch.PrepareJobs(ctx, inputPath, outputDir, force) {
		if err != nil {
			return stats, fmt.Errorf("cannot prepare jobs: %w", err)
		}

		if ctx.Err() != nil {
			// Stop pulling. Jobs already saved stay resumable.
			return stats, ctx.Err()
		}

		if j.Status.CanResume() {
			stats.Resumed++
		} else {
			stats.New++
		}

		log := r.log.With(slog.String("job_id", j.JobID), slog.String("file", j.Source.Filename))

		if err := r.processor.Process(ctx, j); err != nil {
			log.Error("Processing failed", slog.Any("error", err))

			j.FailJob(err.Error())
			stats.Failed++
		} else {
			j.CompleteJob()
			stats.Completed++

			log.Info("Processing finished", slog.Int("segments", j.ProgressCount()))
		}

		if err := r.repo.Save(ctx, j); err != nil {
			return stats, fmt.Errorf("cannot save job %s: %w", j.JobID, err)
		}

		processed = append(processed, j)
	}

	if r.reporter != nil && len(processed) > 0 {
		if err := r.reporter.WriteReport(processed, stats); err != nil {
			// The run itself succeeded, a missing report is not fatal.
			r.log.Error("Cannot write run report", slog.Any("error", err))
		}
	}

	r.log.Info("Batch run finished",
		slog.Int("resumed", stats.Resumed), slog.Int("new", stats.New),
		slog.Int("completed", stats.Completed), slog.Int("failed", stats.Failed))

	return stats, nil
}

// DumpStats writes the stats of the most recent run to a YAML file.
func (r *runnerService) DumpStats(fileName string) error {
	r.mu.Lock()
	stats := r.lastStats
	r.mu.Unlock()

	content, err := yaml.Marshal(&stats)
	if err != nil {
		return fmt.Errorf("cannot marshal run stats: %w", err)
	}

	if err := afero.WriteFile(r.fs, fileName, content, 0644); err != nil {
		return fmt.Errorf("cannot write run stats: %w", err)
	}

	return nil
}
