package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/jgivc/encodetracker/internal/entity"
	"github.com/spf13/afero"
)

// jsonRepository keeps every job in a single JSON file keyed by content hash.
// Load all, modify, write all. Writes go through a temp file and a rename so
// a reader never sees a half-written database. Single-writer only: two
// processes sharing one file can still race each other.
type jsonDB struct {
	Jobs map[string]jobDTO `json:"jobs"`
}

type jsonRepository struct {
	fs     afero.Fs
	dbPath string
	log    *slog.Logger
}

func NewJSONRepository(dbPath string, log *slog.Logger) (*jsonRepository, error) {
	return NewJSONRepositoryWithFS(afero.NewOsFs(), dbPath, log)
}

func NewJSONRepositoryWithFS(fs afero.Fs, dbPath string, log *slog.Logger) (*jsonRepository, error) {
	repo := &jsonRepository{
		fs:     fs,
		dbPath: dbPath,
		log:    log.With(slog.String("item", "JSONJobRepository")),
	}

	if _, err := fs.Stat(dbPath); os.IsNotExist(err) {
		repo.log.Info("Initializing new job database", slog.String("path", dbPath))

		if err := repo.writeDB(&jsonDB{Jobs: map[string]jobDTO{}}); err != nil {
			return nil, fmt.Errorf("cannot initialize job database: %w", err)
		}
	}

	return repo, nil
}

func (r *jsonRepository) Save(ctx context.Context, j *entity.ProcessingJob) error {
	db := r.loadDB()
	db.Jobs[j.Source.ContentHash] = toDTO(j)

	if err := r.writeDB(db); err != nil {
		return fmt.Errorf("cannot save job %s: %w", j.JobID, err)
	}

	r.log.Debug("Job saved", slog.String("job_id", j.JobID), slog.String("status", string(j.Status)))

	return nil
}

func (r *jsonRepository) FindLastByFingerprint(ctx context.Context, fp entity.SourceFingerprint) (*entity.ProcessingJob, error) {
	db := r.loadDB()

	dto, exists := db.Jobs[fp.ContentHash]
	if !exists {
		return nil, nil
	}

	j, err := toEntity(dto)
	if err != nil {
		// Schema drift is a cache miss, not a crash.
		r.log.Error("Cannot reconstruct stored job", slog.String("content_hash", fp.ContentHash), slog.Any("error", err))

		return nil, nil
	}

	return j, nil
}

func (r *jsonRepository) List(ctx context.Context) ([]*entity.ProcessingJob, error) {
	db := r.loadDB()

	jobs := make([]*entity.ProcessingJob, 0, len(db.Jobs))
	for hash, dto := range db.Jobs {
		j, err := toEntity(dto)
		if err != nil {
			r.log.Error("Cannot reconstruct stored job", slog.String("content_hash", hash), slog.Any("error", err))

			continue
		}

		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].UpdatedAt.After(jobs[k].UpdatedAt)
	})

	return jobs, nil
}

// loadDB treats an unreadable or corrupt database as empty rather than
// failing the whole batch.
func (r *jsonRepository) loadDB() *jsonDB {
	empty := &jsonDB{Jobs: map[string]jobDTO{}}

	content, err := afero.ReadFile(r.fs, r.dbPath)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Error("Cannot read job database", slog.String("path", r.dbPath), slog.Any("error", err))
		}

		return empty
	}

	var db jsonDB
	if err := json.Unmarshal(content, &db); err != nil {
		r.log.Error("Job database is corrupt, starting empty", slog.String("path", r.dbPath), slog.Any("error", err))

		return empty
	}

	if db.Jobs == nil {
		db.Jobs = map[string]jobDTO{}
	}

	return &db
}

func (r *jsonRepository) writeDB(db *jsonDB) error {
	content, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal job database: %w", err)
	}

	dir := filepath.Dir(r.dbPath)
	if err := r.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create database dir: %w", err)
	}

	tmp, err := afero.TempFile(r.fs, dir, "jobs.json.tmp.*")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		r.fs.Remove(tmpName)

		return fmt.Errorf("cannot write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		r.fs.Remove(tmpName)

		return fmt.Errorf("cannot close temp file: %w", err)
	}

	if err := r.fs.Rename(tmpName, r.dbPath); err != nil {
		r.fs.Remove(tmpName)

		return fmt.Errorf("cannot rename temp file: %w", err)
	}

	return nil
}
