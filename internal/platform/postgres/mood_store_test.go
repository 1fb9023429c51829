package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowiq/flowiq-api/internal/domain"
)

func moodColumns() []string {
	return []string{"id", "user_id", "date", "score", "created_at"}
}

func TestMoodStoreCreate(t *testing.T) {
	t.Parallel()

	insertMood := regexp.QuoteMeta(
		"INSERT INTO mood_entries (id, user_id, date, score, created_at) VALUES ($1, $2, $3, $4, $5)",
	)

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		moodStore := NewPostgresMoodStore(db, nil)

		entry, err := domain.NewMoodEntry(
			uuid.New(),
			time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
			4,
		)
		require.NoError(t, err)

		mock.ExpectExec(insertMood).
			WithArgs(entry.ID, entry.UserID, entry.Date, entry.Score, entry.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, moodStore.Create(context.Background(), entry))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid_entry_skips_database", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		moodStore := NewPostgresMoodStore(db, nil)

		err := moodStore.Create(context.Background(), &domain.MoodEntry{})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMoodStoreListRecent(t *testing.T) {
	t.Parallel()

	limitedQuery := regexp.QuoteMeta(
		"SELECT id, user_id, date, score, created_at FROM mood_entries WHERE user_id = $1 ORDER BY date DESC, created_at DESC LIMIT $2",
	)
	unlimitedQuery := regexp.QuoteMeta(
		"SELECT id, user_id, date, score, created_at FROM mood_entries WHERE user_id = $1 ORDER BY date DESC, created_at DESC",
	)

	t.Run("positive_limit_is_passed_through", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		moodStore := NewPostgresMoodStore(db, nil)
		userID := uuid.New()

		newest := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
		older := time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC)

		rows := sqlmock.NewRows(moodColumns()).
			AddRow(uuid.New().String(), userID.String(), newest, 5, newest).
			AddRow(uuid.New().String(), userID.String(), older, 2, older)

		mock.ExpectQuery(limitedQuery).WithArgs(userID, 2).WillReturnRows(rows)

		entries, err := moodStore.ListRecent(context.Background(), userID, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 5, entries[0].Score)
		assert.True(t, newest.Equal(entries[0].Date))
	})

	t.Run("zero_limit_returns_full_history", func(t *testing.T) {
		t.Parallel()

		db, mock := newMockDB(t)
		moodStore := NewPostgresMoodStore(db, nil)
		userID := uuid.New()

		mock.ExpectQuery(unlimitedQuery).WithArgs(userID).WillReturnRows(sqlmock.NewRows(moodColumns()))

		entries, err := moodStore.ListRecent(context.Background(), userID, 0)
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMoodStoreWithTx(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectBegin()

	tx, err := db.Begin()
	require.NoError(t, err)

	base := NewPostgresMoodStore(db, nil)
	txStore := base.WithTx(tx)

	pgStore, ok := txStore.(*PostgresMoodStore)
	require.True(t, ok)
	assert.Same(t, tx, pgStore.db)
}
