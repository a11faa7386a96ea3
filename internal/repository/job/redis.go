package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jgivc/encodetracker/internal/entity"
	"github.com/redis/go-redis/v9"
)

const (
	keyJob       = "job"
	keySeparator = ":"

	scanCount = 1000
)

// redisRepository stores one JSON record per content hash under job:<hash>.
// A SET is atomic, which is all the port asks for.
type redisRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewRedisRepository(cl *redis.Client, log *slog.Logger) *redisRepository {
	return &redisRepository{
		cl:  cl,
		log: log.With(slog.String("item", "RedisJobRepository")),
	}
}

func (r *redisRepository) Save(ctx context.Context, j *entity.ProcessingJob) error {
	content, err := json.Marshal(toDTO(j))
	if err != nil {
		return fmt.Errorf("cannot marshal job %s: %w", j.JobID, err)
	}

	if _, err := r.cl.Set(ctx, getKey(keyJob, j.Source.ContentHash), content, 0).Result(); err != nil {
		return fmt.Errorf("cannot save job %s: %w", j.JobID, err)
	}

	r.log.Debug("Job saved", slog.String("job_id", j.JobID), slog.String("status", string(j.Status)))

	return nil
}

func (r *redisRepository) FindLastByFingerprint(ctx context.Context, fp entity.SourceFingerprint) (*entity.ProcessingJob, error) {
	content, err := r.cl.Get(ctx, getKey(keyJob, fp.ContentHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("cannot get job record: %w", err)
	}

	j, err := r.reconstruct(content)
	if err != nil {
		r.log.Error("Cannot reconstruct stored job", slog.String("content_hash", fp.ContentHash), slog.Any("error", err))

		return nil, nil
	}

	return j, nil
}

func (r *redisRepository) List(ctx context.Context) ([]*entity.ProcessingJob, error) {
	var (
		cursor uint64
		jobs   []*entity.ProcessingJob
	)

	pattern := getKey(keyJob, "*")

	for {
		keys, nextCursor, err := r.cl.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("error scanning keys: %w", err)
		}

		for _, key := range keys {
			content, err := r.cl.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}

				return nil, fmt.Errorf("cannot get job record: %w", err)
			}

			j, err := r.reconstruct(content)
			if err != nil {
				r.log.Error("Cannot reconstruct stored job", slog.String("key", key), slog.Any("error", err))

				continue
			}

			jobs = append(jobs, j)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].UpdatedAt.After(jobs[k].UpdatedAt)
	})

	return jobs, nil
}

func (r *redisRepository) reconstruct(content string) (*entity.ProcessingJob, error) {
	var dto jobDTO
	if err := json.Unmarshal([]byte(content), &dto); err != nil {
		return nil, fmt.Errorf("cannot unmarshal job record: %w", err)
	}

	return toEntity(dto)
}

func getKey(keys ...string) string {
	return strings.Join(keys, keySeparator)
}
