package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/store"
)

func symptomColumns() []string {
	return []string{"id", "user_id", "date", "symptom", "intensity", "created_at"}
}

func TestSymptomStoreCreate(t *testing.T) {
	t.Parallel()

	insertObs := regexp.QuoteMeta(
		"INSERT INTO symptom_observations (id, user_id, date, symptom, intensity, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
	)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		symptomStore := NewPostgresSymptomStore(db, nil)

		obs, err := domain.NewSymptomObservation(
			uuid.New(),
			time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			"Cramps",
			3,
		)
		require.NoError(t, err)
		// The constructor lowercases symptom names.
		assert.Equal(t, "cramps", obs.Symptom)

		mock.ExpectExec(insertObs).
			WithArgs(obs.ID, obs.UserID, obs.Date, obs.Symptom, obs.Intensity, obs.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, symptomStore.Create(context.Background(), obs))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown_user", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		symptomStore := NewPostgresSymptomStore(db, nil)

		obs, err := domain.NewSymptomObservation(
			uuid.New(),
			time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			"bloating",
			2,
		)
		require.NoError(t, err)

		mock.ExpectExec(insertObs).
			WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode})

		err = symptomStore.Create(context.Background(), obs)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("invalid_observation_skips_database", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		symptomStore := NewPostgresSymptomStore(db, nil)

		err := symptomStore.Create(context.Background(), &domain.SymptomObservation{})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSymptomStoreListByUser(t *testing.T) {
	t.Parallel()

	listObs := regexp.QuoteMeta(
		"SELECT id, user_id, date, symptom, intensity, created_at FROM symptom_observations WHERE user_id = $1 ORDER BY date ASC, created_at ASC",
	)

	t.Run("returns_observations", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		symptomStore := NewPostgresSymptomStore(db, nil)
		userID := uuid.New()

		day1 := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
		day2 := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(symptomColumns()).
			AddRow(uuid.New().String(), userID.String(), day1, "cramps", 3, day1).
			AddRow(uuid.New().String(), userID.String(), day2, "headache", 2, day2)

		mock.ExpectQuery(listObs).WithArgs(userID).WillReturnRows(rows)

		observations, err := symptomStore.ListByUser(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, observations, 2)
		assert.Equal(t, "cramps", observations[0].Symptom)
		assert.Equal(t, 3, observations[0].Intensity)
		assert.True(t, day2.Equal(observations[1].Date))
	})

	t.Run("no_observations_returns_empty_slice", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		symptomStore := NewPostgresSymptomStore(db, nil)
		userID := uuid.New()

		mock.ExpectQuery(listObs).WithArgs(userID).WillReturnRows(sqlmock.NewRows(symptomColumns()))

		observations, err := symptomStore.ListByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.NotNil(t, observations)
		assert.Empty(t, observations)
	})
}

func TestSymptomStoreListByUserBetween(t *testing.T) {
	t.Parallel()

	rangeQuery := regexp.QuoteMeta(
		"SELECT id, user_id, date, symptom, intensity, created_at FROM symptom_observations WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date ASC, created_at ASC",
	)

	db, mock := newMockDB(t)
	symptomStore := NewPostgresSymptomStore(db, nil)
	userID := uuid.New()

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(symptomColumns()).
		AddRow(uuid.New().String(), userID.String(), day, "cramps", 4, day)

	mock.ExpectQuery(rangeQuery).WithArgs(userID, from, to).WillReturnRows(rows)

	observations, err := symptomStore.ListByUserBetween(context.Background(), userID, from, to)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, 4, observations[0].Intensity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSymptomStoreWithTx(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectBegin()

	tx, err := db.Begin()
	require.NoError(t, err)

	base := NewPostgresSymptomStore(db, nil)
	txStore := base.WithTx(tx)

	pgStore, ok := txStore.(*PostgresSymptomStore)
	require.True(t, ok)
	assert.Same(t, tx, pgStore.db)
}
