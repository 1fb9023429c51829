package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/platform/wearable"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/google/uuid"
)

// MetricsFetcher pulls per-day metrics from the wearable provider.
// Implemented by wearable.Client; defined here so tests can substitute
// a fake without standing up an HTTP server.
type MetricsFetcher interface {
	FetchDailyMetrics(ctx context.Context, start, end time.Time) ([]wearable.DailyMetric, error)
}

// WellnessService imports wearable samples and serves them back for
// display.
type WellnessService interface {
	// Sync pulls provider metrics for the inclusive [start, end] date range
	// and upserts them as wellness samples for the user. Returns the number
	// of samples stored. Provider failures come back wrapped in
	// wearable.ErrUpstream.
	Sync(ctx context.Context, userID uuid.UUID, start, end time.Time) (int, error)

	// Range returns the user's stored samples within the inclusive
	// [from, to] date range in ascending date order.
	Range(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.WellnessSample, error)
}

// wellnessServiceImpl implements the WellnessService interface
type wellnessServiceImpl struct {
	wellnessStore store.WellnessStore
	fetcher       MetricsFetcher
	db            *sql.DB
	logger        *slog.Logger
}

// NewWellnessService creates a new WellnessService.
// It returns an error if any of the required dependencies are nil.
func NewWellnessService(
	wellnessStore store.WellnessStore,
	fetcher MetricsFetcher,
	db *sql.DB,
	logger *slog.Logger,
) (WellnessService, error) {
	if wellnessStore == nil {
		return nil, errors.New("wellnessStore cannot be nil")
	}
	if fetcher == nil {
		return nil, errors.New("fetcher cannot be nil")
	}
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &wellnessServiceImpl{
		wellnessStore: wellnessStore,
		fetcher:       fetcher,
		db:            db,
		logger:        logger.With(slog.String("component", "wellness_service")),
	}, nil
}

// Sync implements WellnessService.Sync.
func (s *wellnessServiceImpl) Sync(
	ctx context.Context,
	userID uuid.UUID,
	start, end time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	days, err := s.fetcher.FetchDailyMetrics(ctx, start, end)
	if err != nil {
		if errors.Is(err, wearable.ErrUpstream) {
			log.Warn("wearable provider fetch failed",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		} else {
			log.Error("failed to fetch wearable metrics",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return 0, err
	}

	samples := make([]*domain.WellnessSample, 0, len(days))
	for _, d := range days {
		sample, err := domain.NewWellnessSample(
			userID, d.Date, d.SleepHours, d.ActiveMinutes, d.RestingHRV, wearable.SourceName)
		if err != nil {
			// One out-of-range day from the provider should not abort the
			// rest of the import.
			log.Warn("skipping invalid wearable sample",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("date", d.Date.Format("2006-01-02")))
			continue
		}
		samples = append(samples, sample)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.wellnessStore.WithTx(tx)
		for _, sample := range samples {
			if err := txStore.Upsert(ctx, sample); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to save wellness samples",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, fmt.Errorf("failed to save wellness samples: %w", err)
	}

	log.Info("wellness samples synced",
		slog.String("user_id", userID.String()),
		slog.Int("fetched", len(days)),
		slog.Int("stored", len(samples)))

	return len(samples), nil
}

// Range implements WellnessService.Range.
func (s *wellnessServiceImpl) Range(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]*domain.WellnessSample, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	samples, err := s.wellnessStore.ListByUserBetween(ctx, userID, from, to)
	if err != nil {
		log.Error("failed to list wellness samples",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list wellness samples: %w", err)
	}

	return samples, nil
}
