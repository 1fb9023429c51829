package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flowiq/flowiq-api/internal/cache"
	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/domain/prediction"
	"github.com/flowiq/flowiq-api/internal/platform/logger"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/google/uuid"
)

// AppendCycleInput carries the fields for logging one completed cycle.
type AppendCycleInput struct {
	StartDate    time.Time
	CycleLength  int
	PeriodLength int
	Flow         domain.FlowIntensity
	Symptoms     []string
	MoodTag      string
}

// CycleService provides operations over the user's cycle history.
type CycleService interface {
	// AppendCycle logs a completed cycle. History is append-only and
	// chronological: a start date on or before the latest recorded start
	// is rejected with domain.ErrCycleOutOfOrder. A successful append
	// invalidates the user's cached prediction.
	AppendCycle(ctx context.Context, userID uuid.UUID, input AppendCycleInput) (*domain.CycleRecord, error)

	// ListCycles returns the user's cycles, newest first.
	ListCycles(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.CycleRecord, error)

	// Stats summarizes the user's recorded cycle lengths.
	Stats(ctx context.Context, userID uuid.UUID) (domain.CycleStats, error)
}

// cycleServiceImpl implements the CycleService interface
type cycleServiceImpl struct {
	cycleStore store.CycleStore
	db         *sql.DB
	cache      cache.Provider
	predictor  prediction.Service
	logger     *slog.Logger
}

// NewCycleService creates a new CycleService.
// It returns an error if any of the required dependencies are nil.
func NewCycleService(
	cycleStore store.CycleStore,
	db *sql.DB,
	cacheProvider cache.Provider,
	predictor prediction.Service,
	logger *slog.Logger,
) (CycleService, error) {
	if cycleStore == nil {
		return nil, errors.New("cycleStore cannot be nil")
	}
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if cacheProvider == nil {
		return nil, errors.New("cacheProvider cannot be nil")
	}
	if predictor == nil {
		return nil, errors.New("predictor cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &cycleServiceImpl{
		cycleStore: cycleStore,
		db:         db,
		cache:      cacheProvider,
		predictor:  predictor,
		logger:     logger.With(slog.String("component", "cycle_service")),
	}, nil
}

// AppendCycle implements CycleService.AppendCycle.
func (s *cycleServiceImpl) AppendCycle(
	ctx context.Context,
	userID uuid.UUID,
	input AppendCycleInput,
) (*domain.CycleRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	record, err := domain.NewCycleRecord(
		userID,
		input.StartDate,
		input.CycleLength,
		input.PeriodLength,
		input.Flow,
		input.Symptoms,
		input.MoodTag,
	)
	if err != nil {
		log.Debug("rejected invalid cycle record",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to create cycle record: %w", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.cycleStore.WithTx(tx)

		// The ordering check and the insert share the transaction so two
		// concurrent appends cannot both pass the check.
		latest, err := txStore.ListByUser(ctx, userID, 1, 0)
		if err != nil {
			return fmt.Errorf("failed to load latest cycle: %w", err)
		}
		if len(latest) > 0 && !record.StartDate.After(latest[0].StartDate) {
			return fmt.Errorf("start date %s not after latest recorded start %s: %w",
				record.StartDate.Format("2006-01-02"),
				latest[0].StartDate.Format("2006-01-02"),
				domain.ErrCycleOutOfOrder)
		}

		return txStore.Create(ctx, record)
	})
	if err != nil {
		if errors.Is(err, domain.ErrCycleOutOfOrder) || errors.Is(err, store.ErrCycleExists) {
			log.Debug("rejected out-of-order cycle append",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		} else {
			log.Error("failed to append cycle",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, err
	}

	// The stored history changed, so the cached prediction is stale.
	if err := s.cache.Del(ctx, predictionCacheKey(userID)); err != nil {
		log.Warn("failed to invalidate cached prediction",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
	}

	log.Info("cycle appended",
		slog.String("cycle_id", record.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("start_date", record.StartDate.Format("2006-01-02")))

	return record, nil
}

// ListCycles implements CycleService.ListCycles.
func (s *cycleServiceImpl) ListCycles(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.CycleRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	records, err := s.cycleStore.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		log.Error("failed to list cycles",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to list cycles: %w", err)
	}

	return records, nil
}

// Stats implements CycleService.Stats.
func (s *cycleServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (domain.CycleStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	history, err := s.cycleStore.ListHistory(ctx, userID)
	if err != nil {
		log.Error("failed to load cycle history for stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return domain.CycleStats{}, fmt.Errorf("failed to load cycle history: %w", err)
	}

	return s.predictor.Stats(history), nil
}
