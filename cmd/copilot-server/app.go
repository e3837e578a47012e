package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/copilot/internal/config"
	"github.com/ehr/copilot/internal/domain/insight"
	"github.com/ehr/copilot/internal/domain/patient"
	"github.com/ehr/copilot/internal/domain/reasoning"
	"github.com/ehr/copilot/internal/domain/retrieval"
	"github.com/ehr/copilot/internal/platform/auth"
	"github.com/ehr/copilot/internal/platform/db"
	"github.com/ehr/copilot/internal/platform/knowledge"
	"github.com/ehr/copilot/internal/platform/llm"
	"github.com/ehr/copilot/internal/platform/middleware"
	"github.com/ehr/copilot/internal/platform/scheduler"
	"github.com/ehr/copilot/internal/platform/telemetry"
	"github.com/ehr/copilot/internal/platform/validation"
)

const (
	version = "0.1.0"

	literatureTimeout = 10 * time.Second
	reindexJob        = "knowledge-reindex"
)

// app holds the wired services behind the HTTP server and the CLI commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	metrics   *telemetry.Metrics
	retriever *retrieval.Retriever
	reindexer *knowledge.Reindexer
	scheduler *scheduler.Scheduler

	reasoning *reasoning.Service
	patients  *patient.Service
	insight   *insight.Service

	storeHealth db.Pinger
	closers     []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   telemetry.New(),
		retriever: retrieval.NewRetriever(),
	}

	a.reindexer = a.newReindexer()

	svc, err := newReasoningService(ctx, cfg, a.retriever, logger)
	if err != nil {
		return nil, err
	}
	a.reasoning = svc.WithMetrics(a.metrics)

	repo, pinger, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	a.storeHealth = pinger
	a.patients = patient.NewService(repo, logger)

	a.insight = insight.NewService(insight.NewScholarClient(cfg.LiteratureURL, literatureTimeout), logger)

	a.scheduler = scheduler.New(logger)
	if err := a.scheduler.Register(reindexJob, cfg.ReindexSchedule, func() error {
		_, err := a.reindexer.Reload()
		return err
	}); err != nil {
		a.Close()
		return nil, fmt.Errorf("schedule reindex: %w", err)
	}

	return a, nil
}

func (a *app) newReindexer() *knowledge.Reindexer {
	r := knowledge.NewReindexer(a.cfg.KnowledgeDir, a.cfg.ChunkSize, a.retriever, a.logger)
	if a.metrics != nil {
		r.OnReload(a.metrics.SetIndexedChunks)
	}
	return r
}

// Close releases store connections in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newReasoningService(ctx context.Context, cfg *config.Config, searcher reasoning.Searcher, logger zerolog.Logger) (*reasoning.Service, error) {
	completer, err := llm.New(ctx, llm.Config{
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("configure generative backend: %w", err)
	}
	if completer == nil {
		logger.Info().Msg("generative backend disabled, answering with rules")
	} else {
		logger.Info().Str("provider", cfg.LLMProvider).Msg("generative backend configured")
	}

	gen := reasoning.NewModelGenerator(completer, cfg.LLMTimeout, reasoning.DefaultPolicy())
	return reasoning.NewService(searcher, gen, cfg.RetrievalTopK, logger), nil
}

// openStore connects the configured patient-record backend. The returned
// Pinger is nil for the file store, which has nothing to probe.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (patient.Repository, db.Pinger, func(), error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := patient.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		logger.Info().Msg("connected to database")
		return patient.NewRepoPG(pool), pool, pool.Close, nil

	case config.StoreRedis:
		client, err := db.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Msg("connected to redis")
		return patient.NewRepoRedis(client), db.RedisPinger{Client: client}, func() { _ = client.Close() }, nil

	case config.StoreFile, "":
		repo, err := patient.NewFileRepo(cfg.FHIRDBFile)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open patient store: %w", err)
		}
		logger.Info().Str("path", cfg.FHIRDBFile).Msg("using file patient store")
		return repo, nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (a *app) router() *echo.Echo {
	cfg := a.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	// Global middleware
	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger, "/status", "/health", "/metrics"))
	e.Use(a.metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.IngestBodyLimit, "/ingest/fhir"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, "/metrics"))

	e.GET("/status", statusHandler)
	e.GET("/health", db.HealthHandler(version, a.storeHealth))
	e.GET("/metrics", echo.WrapHandler(a.metrics.Handler()))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 || rateLimitCfg.BurstSize <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	rateLimit := middleware.RateLimit(rateLimitCfg)

	jwtCfg := auth.JWTConfig{
		SigningKey: []byte(cfg.AuthSigningKey),
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
	}
	if !jwtCfg.Enabled() {
		a.logger.Warn().Msg("AUTH_SIGNING_KEY not set; ingest, patient and admin routes are open")
	}

	adminMW := append([]echo.MiddlewareFunc{rateLimit}, auth.Guard(jwtCfg, "admin")...)
	admin := e.Group("/admin", adminMW...)
	knowledge.NewHandler(a.reindexer).RegisterRoutes(admin)

	patientMW := append([]echo.MiddlewareFunc{rateLimit}, auth.Guard(jwtCfg, "clinician")...)
	patientMW = append(patientMW, middleware.Audit(a.logger))
	patients := e.Group("", patientMW...)
	patient.NewHandler(a.patients).RegisterRoutes(patients, patients)

	// Created last so unmatched paths answer 404 rather than 401.
	api := e.Group("", rateLimit)
	reasoning.NewHandler(a.reasoning).RegisterRoutes(api)
	insight.NewHandler(a.insight).RegisterRoutes(api)

	return e
}

func statusHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok": true,
		"ts": float64(time.Now().UnixNano()) / float64(time.Second),
	})
}
