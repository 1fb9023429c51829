package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowiq/flowiq-api/internal/api"
	apiMiddleware "github.com/flowiq/flowiq-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware. It accepts the application dependencies to
// create handlers and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(apiMiddleware.Metrics)

	authHandler := api.NewAuthHandler(
		app.userService,
		app.jwtService,
		app.passwordVerifier,
		&app.config.Auth,
		app.logger,
	)
	cycleHandler := api.NewCycleHandler(app.cycleService, app.logger)
	trackingHandler := api.NewTrackingHandler(app.trackingService, app.logger)
	predictionHandler := api.NewPredictionHandler(app.predictionService, app.logger)
	recommendationHandler := api.NewRecommendationHandler(app.recommendationService, app.logger)
	wellnessHandler := api.NewWellnessHandler(app.wellnessService, app.logger)
	insightHandler := api.NewInsightHandler(app.insightService, app.logger)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Cycle log
			r.Post("/cycles", cycleHandler.CreateCycle)
			r.Get("/cycles", cycleHandler.ListCycles)
			r.Get("/cycles/stats", cycleHandler.GetCycleStats)

			// Symptom and mood tracking
			r.Post("/symptoms", trackingHandler.LogSymptom)
			r.Get("/symptoms", trackingHandler.ListSymptoms)
			r.Post("/moods", trackingHandler.LogMood)

			// Predictions and forecast
			r.Get("/predictions/next", predictionHandler.GetNextPrediction)
			r.Get("/predictions/phase", predictionHandler.GetPhase)
			r.Get("/forecast", predictionHandler.GetForecast)

			// Recommendations
			r.Get("/recommendations", recommendationHandler.ListRecommendations)
			r.Post("/recommendations/{id}/feedback", recommendationHandler.SubmitFeedback)

			// Wellness samples
			r.Post("/wellness/sync", wellnessHandler.SyncWellness)
			r.Get("/wellness", wellnessHandler.ListWellness)

			// AI insights
			r.Post("/insights", insightHandler.CreateInsight)
			r.Get("/insights", insightHandler.ListInsights)
			r.Get("/insights/{id}", insightHandler.GetInsight)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
