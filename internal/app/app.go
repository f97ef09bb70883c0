package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/flashgen/question-service/internal/auth"
	"github.com/flashgen/question-service/internal/auth/jwt"
	"github.com/flashgen/question-service/internal/config"
	"github.com/flashgen/question-service/internal/db/queries"
	"github.com/flashgen/question-service/internal/db/repository"
	"github.com/flashgen/question-service/internal/feedback"
	"github.com/flashgen/question-service/internal/generation"
	"github.com/flashgen/question-service/internal/generation/llm"
	"github.com/flashgen/question-service/internal/logging"
	"github.com/flashgen/question-service/internal/retrieval"
	"github.com/flashgen/question-service/internal/server"
	"github.com/flashgen/question-service/internal/validation"
	ws "github.com/flashgen/question-service/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	broadcaster   *feedback.Broadcaster
	prewarmWorker *generation.PrewarmWorker
	jobsCancel    context.CancelFunc
	bgCancels     []context.CancelFunc
}

// New bootstraps logger, Postgres, Redis, the generation pipeline and the
// HTTP server. The feedback journal is replayed before New returns.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	pgCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pgCfg.MaxConns = int32(cfg.Postgres.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	q := queries.New(pool)
	questionRepo := repository.NewQuestionRepository(q)
	feedbackRepo := repository.NewFeedbackRepository(q)
	validator := validation.New()

	// Feedback
	wsHub := ws.NewHub(logger.With().Str("component", "ws_hub").Logger())
	feedbackSvc := feedback.NewService(feedback.NewAggregator(), feedback.ServiceOptions{
		Journal:   feedbackRepo,
		Publisher: feedback.NewRedisPublisher(redisClient, cfg.Feedback.Channel),
	}, logger)
	if _, err := feedbackSvc.Restore(ctx); err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, err
	}
	broadcaster := feedback.NewBroadcaster(redisClient, wsHub, cfg.Feedback.Channel, logger)

	// Generation
	generator, err := llm.NewGenerator(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Timeout:     cfg.LLM.Timeout,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		TopK:        cfg.Retrieval.TopK,
	}, retrieval.New(q, logger), logger)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("configure llm: %w", err)
	}

	questionSvc := generation.NewService(
		generation.NewPool(redisClient, cfg.Pool.KeyPrefix),
		generator,
		questionRepo,
		generation.ServiceOptions{
			Pace:            cfg.Pool.GenerationPace,
			MaxBatch:        cfg.Pool.MaxBatch,
			GenerateTimeout: cfg.Pool.GenerateTimeout,
		},
		logger,
	)

	var prewarmWorker *generation.PrewarmWorker
	if interval := cfg.Pool.PrewarmInterval; interval > 0 {
		targets, err := generation.ParseTargets(cfg.Pool.Targets)
		if err != nil {
			pool.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("pool prewarm targets: %w", err)
		}
		prewarmWorker = generation.NewPrewarmWorker(questionSvc, targets, cfg.Pool.MinSize, interval, logger)
	}

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.TokenTTL,
		Issuer: cfg.Name,
	})

	// Pool refills run past the request that started them, until shutdown.
	jobsCtx, jobsCancel := context.WithCancel(context.Background())

	apiServer := server.NewHTTPServer(cfg, logger, map[string]server.Check{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}, server.Routes{
		Questions: generation.NewHTTPHandlers(questionSvc, validator, generation.HTTPOptions{Jobs: jobsCtx}, logger),
		Feedback:  feedback.NewHTTPHandlers(feedbackSvc, wsHub, logger),
		Admin:     auth.RequireAdmin(tokens, logger),
	})

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		http:          apiServer,
		broadcaster:   broadcaster,
		prewarmWorker: prewarmWorker,
		jobsCancel:    jobsCancel,
		bgCancels:     make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.jobsCancel()
	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.broadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.broadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("feedback broadcaster stopped")
			}
		}()
	}

	if a.prewarmWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.prewarmWorker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("pool prewarm worker stopped")
			}
		}()
	}
}
