package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/flowiq/flowiq-api/internal/cache"
	"github.com/flowiq/flowiq-api/internal/config"
	"github.com/flowiq/flowiq-api/internal/domain/forecast"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/events"
	"github.com/flowiq/flowiq-api/internal/generation"
	"github.com/flowiq/flowiq-api/internal/metrics"
	"github.com/flowiq/flowiq-api/internal/platform/gemini"
	"github.com/flowiq/flowiq-api/internal/platform/postgres"
	"github.com/flowiq/flowiq-api/internal/platform/wearable"
	"github.com/flowiq/flowiq-api/internal/recommend"
	"github.com/flowiq/flowiq-api/internal/service"
	"github.com/flowiq/flowiq-api/internal/service/auth"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/flowiq/flowiq-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore     store.UserStore
	cycleStore    store.CycleStore
	symptomStore  store.SymptomStore
	moodStore     store.MoodStore
	wellnessStore store.WellnessStore
	feedbackStore store.FeedbackStore
	insightStore  store.InsightStore
	taskStore     task.TaskStore

	// Auth
	jwtService       auth.JWTService
	passwordHasher   auth.PasswordHasher
	passwordVerifier auth.PasswordVerifier

	// Domain engines
	predictor  prediction.Service
	forecaster forecast.Service
	engine     *recommend.Engine
	cache      cache.Provider

	// Services
	userService           service.UserService
	cycleService          service.CycleService
	trackingService       service.TrackingService
	predictionService     service.PredictionService
	wellnessService       service.WellnessService
	insightService        service.InsightService
	recommendationService service.RecommendationService

	// Background work
	generator    generation.Generator
	eventEmitter events.EventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger,
// and database connection that must be established before application
// initialization. The task runner is constructed but not started; Run
// owns its lifecycle.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()
	app.passwordHasher = auth.NewBcryptHasher(bcrypt.DefaultCost)

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.cycleStore = postgres.NewPostgresCycleStore(db, logger)
	app.symptomStore = postgres.NewPostgresSymptomStore(db, logger)
	app.moodStore = postgres.NewPostgresMoodStore(db, logger)
	app.wellnessStore = postgres.NewPostgresWellnessStore(db, logger)
	app.feedbackStore = postgres.NewPostgresFeedbackStore(db, logger)
	app.insightStore = postgres.NewPostgresInsightStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	// A zero TTL disables prediction caching; every request recomputes.
	if cfg.Cache.PredictionTTLMinutes > 0 {
		app.cache = cache.NewMemoryProvider()
	} else {
		app.cache = cache.NoopProvider{}
	}
	app.predictor = prediction.NewDefaultService()
	app.forecaster = forecast.NewDefaultService()

	app.engine, err = recommend.NewEngine(
		cfg.Recommend.RulesPath,
		recommend.NewDefaultParams(),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation engine: %w", err)
	}

	app.generator, err = gemini.NewGeminiGenerator(
		ctx,
		logger.With("component", "insight_generator"),
		cfg.AI,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize insight generator: %w", err)
	}

	wearableClient := wearable.NewClient(cfg.Wearable, logger)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return nil, fmt.Errorf("failed to register metrics collectors: %w", err)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	app.eventEmitter = emitter
	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		WorkerCount:            cfg.Task.WorkerCount,
		QueueSize:              cfg.Task.QueueSize,
		StuckTaskAge:           time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
		StuckTaskCheckInterval: time.Duration(cfg.Task.StuckTaskCheckIntervalMinutes) * time.Minute,
	}, logger)

	app.userService = service.NewUserService(app.userStore, db, app.passwordHasher, logger)

	app.cycleService, err = service.NewCycleService(
		app.cycleStore,
		db,
		app.cache,
		app.predictor,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle service: %w", err)
	}

	app.trackingService, err = service.NewTrackingService(
		app.symptomStore,
		app.moodStore,
		db,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking service: %w", err)
	}

	app.predictionService, err = service.NewPredictionService(
		app.cycleStore,
		app.symptomStore,
		app.moodStore,
		app.cache,
		time.Duration(cfg.Cache.PredictionTTLMinutes)*time.Minute,
		app.predictor,
		app.forecaster,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction service: %w", err)
	}

	app.wellnessService, err = service.NewWellnessService(
		app.wellnessStore,
		wearableClient,
		db,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wellness service: %w", err)
	}

	app.insightService, err = service.NewInsightService(
		app.insightStore,
		app.eventEmitter,
		db,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create insight service: %w", err)
	}

	app.recommendationService, err = service.NewRecommendationService(
		app.cycleStore,
		app.feedbackStore,
		app.engine,
		app.predictor,
		db,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recommendation service: %w", err)
	}

	digest, err := service.NewHistoryDigest(
		app.cycleStore,
		app.symptomStore,
		app.moodStore,
		app.predictor,
		app.forecaster,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create history digest: %w", err)
	}

	// The factory serves two masters: event handling for fresh requests
	// and task rebuilding during crash recovery.
	taskFactory := task.NewInsightGenerationTaskFactory(
		task.NewInsightStoreAdapter(app.insightStore),
		digest,
		app.generator,
		logger,
	)
	app.taskRunner.RegisterFactory(task.TaskTypeInsightGeneration, taskFactory)

	handler := task.NewTaskFactoryEventHandler(taskFactory, app.taskRunner, logger)
	emitter.RegisterHandler(handler)

	logger.Info("application initialized successfully")
	return app, nil
}

// Run starts the background task runner and the HTTP server, blocking
// until shutdown. Task recovery happens inside the runner's Start so
// unfinished insight generation survives a restart.
func (app *application) Run(ctx context.Context) error {
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. The
// database connection is owned by run and closed there.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing prediction cache", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
