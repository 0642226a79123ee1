package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/scribe-api/internal/config"
	"github.com/jwalitptl/scribe-api/internal/lock"
	"github.com/jwalitptl/scribe-api/internal/llm"
	"github.com/jwalitptl/scribe-api/internal/queue"
	"github.com/jwalitptl/scribe-api/internal/repository/postgres"
	auditService "github.com/jwalitptl/scribe-api/internal/service/audit"
	notegenService "github.com/jwalitptl/scribe-api/internal/service/notegen"
	processingService "github.com/jwalitptl/scribe-api/internal/service/processing"
	transcriptionService "github.com/jwalitptl/scribe-api/internal/service/transcription"
	"github.com/jwalitptl/scribe-api/internal/storage"
	"github.com/jwalitptl/scribe-api/internal/stt"
	"github.com/jwalitptl/scribe-api/internal/worker"
	"github.com/jwalitptl/scribe-api/pkg/logger"
	"github.com/jwalitptl/scribe-api/pkg/metrics"
)

// workerEnv are the knobs that differ between worker deployments without
// touching the shared config file.
type workerEnv struct {
	Concurrency int    `envconfig:"WORKER_CONCURRENCY" default:"10"`
	Queue       string `envconfig:"WORKER_QUEUE" default:"default"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	var env workerEnv
	if err := envconfig.Process("", &env); err != nil {
		log.Fatal().Err(err).Msg("failed to read worker environment")
	}

	lg := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure storage bucket")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	enqueuer := queue.NewClient(asynqClient, queue.Options{
		OrchestratorMaxRetries: cfg.Processing.OrchestratorMaxRetries,
		WorkerMaxRetries:       queue.DefaultOptions().WorkerMaxRetries,
		JobTimeout:             cfg.Processing.JobTimeout,
	})

	appointmentRepo := postgres.NewAppointmentRepository(db)
	recordingRepo := postgres.NewRecordingRepository(db)
	transcriptRepo := postgres.NewTranscriptRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	noteRepo := postgres.NewNoteRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	auditSvc := auditService.NewService(auditRepo)
	processingSvc := processingService.NewService(
		appointmentRepo, recordingRepo, transcriptRepo, templateRepo, noteRepo,
		enqueuer, lock.NewRedisLocker(redisClient), auditSvc, lg, cfg.Processing,
	)
	transcriptionSvc := transcriptionService.NewService(
		transcriptRepo, recordingRepo, appointmentRepo,
		store, stt.NewWhisperClient(cfg.STT), enqueuer, lg,
	)
	notegenSvc := notegenService.NewService(noteRepo, cfg.LLM, lg)

	if _, err := llm.New(cfg.LLM, ""); err != nil {
		log.Fatal().Err(err).Str("provider", cfg.LLM.Provider).Msg("invalid llm provider")
	}

	processor := worker.NewProcessor(
		processingSvc, transcriptionSvc, notegenSvc,
		metrics.New("scribe_worker"), lg, cfg.Processing,
	)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency:    env.Concurrency,
		Queues:         map[string]int{env.Queue: 1},
		RetryDelayFunc: processor.RetryDelay,
	})

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	lg.ZL.Info().Int("concurrency", env.Concurrency).Msg("worker starting")
	if err := server.Run(processor.Handler()); err != nil {
		log.Error().Err(err).Msg("worker stopped")
		os.Exit(1)
	}
}
