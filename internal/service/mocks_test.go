package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/flowiq/flowiq-api/internal/domain"
	"github.com/flowiq/flowiq-api/internal/events"
	"github.com/flowiq/flowiq-api/internal/platform/wearable"
	"github.com/flowiq/flowiq-api/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockCycleStore mocks the store.CycleStore interface
type MockCycleStore struct {
	mock.Mock
}

func (m *MockCycleStore) Create(ctx context.Context, record *domain.CycleRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockCycleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.CycleRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CycleRecord), args.Error(1)
}

func (m *MockCycleStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.CycleRecord, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CycleRecord), args.Error(1)
}

func (m *MockCycleStore) ListHistory(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.CycleRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CycleRecord), args.Error(1)
}

func (m *MockCycleStore) WithTx(tx *sql.Tx) store.CycleStore {
	args := m.Called(tx)
	return args.Get(0).(store.CycleStore)
}

// MockSymptomStore mocks the store.SymptomStore interface
type MockSymptomStore struct {
	mock.Mock
}

func (m *MockSymptomStore) Create(ctx context.Context, obs *domain.SymptomObservation) error {
	args := m.Called(ctx, obs)
	return args.Error(0)
}

func (m *MockSymptomStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.SymptomObservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SymptomObservation), args.Error(1)
}

func (m *MockSymptomStore) ListByUserBetween(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]*domain.SymptomObservation, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SymptomObservation), args.Error(1)
}

func (m *MockSymptomStore) WithTx(tx *sql.Tx) store.SymptomStore {
	args := m.Called(tx)
	return args.Get(0).(store.SymptomStore)
}

// MockMoodStore mocks the store.MoodStore interface
type MockMoodStore struct {
	mock.Mock
}

func (m *MockMoodStore) Create(ctx context.Context, entry *domain.MoodEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockMoodStore) ListRecent(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.MoodEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MoodEntry), args.Error(1)
}

func (m *MockMoodStore) WithTx(tx *sql.Tx) store.MoodStore {
	args := m.Called(tx)
	return args.Get(0).(store.MoodStore)
}

// MockInsightStore mocks the store.InsightStore interface
type MockInsightStore struct {
	mock.Mock
}

func (m *MockInsightStore) Create(ctx context.Context, insight *domain.Insight) error {
	args := m.Called(ctx, insight)
	return args.Error(0)
}

func (m *MockInsightStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Insight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Insight), args.Error(1)
}

func (m *MockInsightStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Insight, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Insight), args.Error(1)
}

func (m *MockInsightStore) Update(ctx context.Context, insight *domain.Insight) error {
	args := m.Called(ctx, insight)
	return args.Error(0)
}

func (m *MockInsightStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.InsightStatus,
) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockInsightStore) WithTx(tx *sql.Tx) store.InsightStore {
	args := m.Called(tx)
	return args.Get(0).(store.InsightStore)
}

// MockUserStore mocks the store.UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) WithTx(tx *sql.Tx) store.UserStore {
	args := m.Called(tx)
	return args.Get(0).(store.UserStore)
}

// MockWellnessStore mocks the store.WellnessStore interface
type MockWellnessStore struct {
	mock.Mock
}

func (m *MockWellnessStore) Upsert(ctx context.Context, sample *domain.WellnessSample) error {
	args := m.Called(ctx, sample)
	return args.Error(0)
}

func (m *MockWellnessStore) ListByUserBetween(
	ctx context.Context,
	userID uuid.UUID,
	from, to time.Time,
) ([]*domain.WellnessSample, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WellnessSample), args.Error(1)
}

func (m *MockWellnessStore) WithTx(tx *sql.Tx) store.WellnessStore {
	args := m.Called(tx)
	return args.Get(0).(store.WellnessStore)
}

// MockFeedbackStore mocks the store.FeedbackStore interface
type MockFeedbackStore struct {
	mock.Mock
}

func (m *MockFeedbackStore) Create(ctx context.Context, fb *domain.RecommendationFeedback) error {
	args := m.Called(ctx, fb)
	return args.Error(0)
}

func (m *MockFeedbackStore) ListByUserSince(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]*domain.RecommendationFeedback, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RecommendationFeedback), args.Error(1)
}

func (m *MockFeedbackStore) WithTx(tx *sql.Tx) store.FeedbackStore {
	args := m.Called(tx)
	return args.Get(0).(store.FeedbackStore)
}

// MockCacheProvider mocks the cache.Provider interface
type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(
	ctx context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheProvider) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventEmitter mocks the events.EventEmitter interface
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockMetricsFetcher mocks the MetricsFetcher interface
type MockMetricsFetcher struct {
	mock.Mock
}

func (m *MockMetricsFetcher) FetchDailyMetrics(
	ctx context.Context,
	start, end time.Time,
) ([]wearable.DailyMetric, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wearable.DailyMetric), args.Error(1)
}

// MockPasswordHasher mocks the auth.PasswordHasher interface
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}
