package orchestrator

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jgivc/encodetracker/internal/entity"
)

const (
	serviceName = "orchestrator"

	// editedSuffix is appended to the source basename to form the output name.
	editedSuffix = "_edited"
)

type JobRepository interface {
	Save(ctx context.Context, j *entity.ProcessingJob) error
	FindLastByFingerprint(ctx context.Context, fp entity.SourceFingerprint) (*entity.ProcessingJob, error)
}

type FileSystem interface {
	Exists(path string) bool
	CalculateFingerprint(path string) (entity.SourceFingerprint, error)
	ListFiles(dir string, extensions []string) ([]string, error)
}

// Stats is the per-batch classification summary. Skipped counts candidates
// that never became a job because their output already exists.
type Stats struct {
	Candidates int `yaml:"candidates"`
	Skipped    int `yaml:"skipped"`
	Resumed    int `yaml:"resumed"`
	New        int `yaml:"new"`
}

type orchestratorService struct {
	repo       JobRepository
	fs         FileSystem
	extensions []string
	log        *slog.Logger
}

func NewOrchestratorService(repo JobRepository, fs FileSystem, extensions []string, log *slog.Logger) *orchestratorService {
	return &orchestratorService{
		repo:       repo,
		fs:         fs,
		extensions: extensions,
		log:        log.With(slog.String("service", serviceName)),
	}
}

// PrepareJobs turns inputPath (one media file or a directory of them) into a
// lazy stream of ready-to-run jobs. Nothing is fingerprinted or touched in
// the store until the consumer pulls the element for that file, and a
// consumer that stops early pays nothing for the rest.
//
// Per candidate, in sorted order: skip when the expected output already
// exists (unless force), resume the stored job when its fingerprint matches
// and its status allows it, otherwise create and persist a fresh job. A
// fingerprinting failure ends the whole stream, identity cannot be guessed.
func (o *orchestratorService) PrepareJobs(ctx context.Context, inputPath, outputDir string, force bool) iter.Seq2[*entity.ProcessingJob, error] {
	return func(yield func(*entity.ProcessingJob, error) bool) {
		log := o.log.With(slog.String("input", inputPath))
		log.Info("Preparing jobs", slog.Bool("force", force))

		candidates, err := o.resolveInput(inputPath)
		if err != nil {
			yield(nil, fmt.Errorf("cannot resolve input files: %w", err))

			return
		}

		var stats Stats
		stats.Candidates = len(candidates)
		defer func() {
			log.Info("Batch prepared",
				slog.Int("candidates", stats.Candidates), slog.Int("skipped", stats.Skipped),
				slog.Int("resumed", stats.Resumed), slog.Int("new", stats.New))
		}()

		for _, sourcePath := range candidates {
			filename := filepath.Base(sourcePath)
			expectedOutput := expectedOutputPath(outputDir, filename)

			// Idempotency: an existing output means the work is done.
			// No fingerprint, no store access.
			if o.fs.Exists(expectedOutput) && !force {
				log.Info("Skip, output already exists", slog.String("file", filename))
				stats.Skipped++

				continue
			}

			fp, err := o.fs.CalculateFingerprint(sourcePath)
			if err != nil {
				yield(nil, fmt.Errorf("cannot fingerprint %s: %w", sourcePath, err))

				return
			}

			existing, err := o.repo.FindLastByFingerprint(ctx, fp)
			if err != nil {
				// Degrade to "no prior job known" rather than aborting.
				log.Error("Cannot look up previous job", slog.String("file", filename), slog.Any("error", err))
				existing = nil
			}

			if existing != nil && existing.Status.CanResume() && !force {
				log.Info("Resume previous job",
					slog.String("file", filename), slog.String("job_id", existing.JobID),
					slog.Int("checkpoints", existing.ProgressCount()))
				stats.Resumed++

				if !yield(existing, nil) {
					return
				}

				continue
			}

			if existing != nil {
				log.Info("Previous job is terminal or restart forced",
					slog.String("file", filename), slog.String("job_id", existing.JobID))
			}

			newJob := entity.CreateNew(fp, expectedOutput)
			// Persist before handing out, so identity survives a caller crash.
			if err := o.repo.Save(ctx, newJob); err != nil {
				yield(nil, fmt.Errorf("cannot save new job for %s: %w", sourcePath, err))

				return
			}

			log.Info("New job created", slog.String("file", filename), slog.String("job_id", newJob.JobID))
			stats.New++

			if !yield(newJob, nil) {
				return
			}
		}
	}
}

func (o *orchestratorService) resolveInput(inputPath string) ([]string, error) {
	if o.isRecognized(inputPath) {
		return []string{inputPath}, nil
	}

	return o.fs.ListFiles(inputPath, o.extensions)
}

func (o *orchestratorService) isRecognized(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range o.extensions {
		if ext == strings.ToLower(known) {
			return true
		}
	}

	return false
}

func expectedOutputPath(outputDir, filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)

	return filepath.Join(outputDir, name+editedSuffix+ext)
}
