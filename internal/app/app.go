package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jgivc/encodetracker/internal/adapter/execadapter"
	"github.com/jgivc/encodetracker/internal/adapter/fsadapter"
	"github.com/jgivc/encodetracker/internal/adapter/reportadapter"
	"github.com/jgivc/encodetracker/internal/config"
	"github.com/jgivc/encodetracker/internal/entity"
	httphandler "github.com/jgivc/encodetracker/internal/handler/http"
	jobrepo "github.com/jgivc/encodetracker/internal/repository/job"
	sjob "github.com/jgivc/encodetracker/internal/service/job"
	"github.com/jgivc/encodetracker/internal/service/orchestrator"
	"github.com/jgivc/encodetracker/internal/service/runner"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

const (
	shutdownTimeout = 5 * time.Second
)

type jobStore interface {
	Save(ctx context.Context, j *entity.ProcessingJob) error
	FindLastByFingerprint(ctx context.Context, fp entity.SourceFingerprint) (*entity.ProcessingJob, error)
	List(ctx context.Context) ([]*entity.ProcessingJob, error)
}

type batchRunner interface {
	Run(ctx context.Context, inputPath, outputDir string, force bool) (runner.Stats, error)
	DumpStats(fileName string) error
}

type App struct {
	cfgPath string
	cfg     *config.Config
	srv     *http.Server
	runner  batchRunner
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	var store jobStore
	switch a.cfg.Store.Type {
	case config.StoreTypeRedis:
		opt, err := redis.ParseURL(a.cfg.Store.RedisURL)
		if err != nil {
			panic(err)
		}

		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			panic(err)
		}

		store = jobrepo.NewRedisRepository(rdb, log)
	default:
		repo, err := jobrepo.NewJSONRepository(a.cfg.Store.DBPath, log)
		if err != nil {
			panic(err)
		}

		store = repo
	}

	fsa := fsadapter.NewFSAdapter(log)
	orch := orchestrator.NewOrchestratorService(store, fsa, a.cfg.Orchestrator.Extensions, log)

	reporter, err := reportadapter.NewReportAdapter(&a.cfg.Report, log)
	if err != nil {
		panic(err)
	}

	processor, err := execadapter.NewExecAdapter(&a.cfg.Processor, a.inputDir(), log)
	if err != nil {
		panic(err)
	}

	a.runner = runner.NewRunnerService(orch, store, processor, reporter, afero.NewOsFs(), log)

	jSrv := sjob.NewJobService(store, log)

	http.Handle("GET /jobs/{$}", httphandler.NewJobsHandler(jSrv, log))
	http.Handle("GET /job/{hash}/{$}", httphandler.NewJobHandler(jSrv, log))

	a.srv = &http.Server{
		Addr: a.cfg.Listen,
	}

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}
	}()
}

// inputDir is where the processor resolves source files: the input path
// itself when it is a directory, its parent when it names a single file.
func (a *App) inputDir() string {
	input := a.cfg.Orchestrator.InputPath

	if stat, err := os.Stat(input); err == nil && stat.IsDir() {
		return input
	}

	return filepath.Dir(input)
}

func (a *App) RunBatch() {
	stats, err := a.runner.Run(context.Background(),
		a.cfg.Orchestrator.InputPath, a.cfg.Orchestrator.OutputDir, a.cfg.Orchestrator.Force)
	if err != nil {
		a.log.Error("Batch run failed", slog.Any("error", err))

		return
	}

	a.log.Info("Batch run done",
		slog.Int("resumed", stats.Resumed), slog.Int("new", stats.New),
		slog.Int("completed", stats.Completed), slog.Int("failed", stats.Failed))
}

func (a *App) Dump() {
	if err := a.runner.DumpStats(a.cfg.StatsFileName); err != nil {
		a.log.Error("Cannot dump run stats", slog.Any("error", err))
	}
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.srv.Shutdown(ctx)
}
