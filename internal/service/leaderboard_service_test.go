package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/gltp-records/internal/cache"
	"github.com/yourusername/gltp-records/internal/catalog"
	"github.com/yourusername/gltp-records/internal/datasource"
	"github.com/yourusername/gltp-records/internal/leaderboard"
	"github.com/yourusername/gltp-records/internal/models"
)

// MockRecordSource mocks a record source
type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) FetchRecords(ctx context.Context) (*datasource.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*datasource.Document), args.Error(1)
}

func (m *MockRecordSource) Name() string {
	return "mock"
}

// MockCatalogSource mocks a catalog source
type MockCatalogSource struct {
	mock.Mock
}

func (m *MockCatalogSource) FetchCatalog(ctx context.Context) (*catalog.ParseResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ParseResult), args.Error(1)
}

func (m *MockCatalogSource) Name() string {
	return "mock_catalog"
}

// MockRecordRepository mocks the record repository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) Insert(ctx context.Context, record *models.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockRecordRepository) InsertBatch(ctx context.Context, records []models.Record) (int64, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Record), args.Error(1)
}

func (m *MockRecordRepository) GetByMapID(ctx context.Context, mapID string) ([]models.Record, error) {
	args := m.Called(ctx, mapID)
	return args.Get(0).([]models.Record), args.Error(1)
}

func (m *MockRecordRepository) GetByOwner(ctx context.Context, ownerID string) ([]models.Record, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]models.Record), args.Error(1)
}

func (m *MockRecordRepository) GetAll(ctx context.Context) ([]models.Record, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Record), args.Error(1)
}

func (m *MockRecordRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

const firstDocument = `{
	"00000000-0000-4000-8000-000000000001": {"map_id": "1", "record_time": 500, "timestamp": 1000, "capping_player": "Alpha", "capping_player_user_id": "a"},
	"00000000-0000-4000-8000-000000000002": {"map_id": "1", "record_time": 700, "timestamp": 2000, "capping_player": "Bravo", "capping_player_user_id": "b"},
	"00000000-0000-4000-8000-000000000003": {"map_id": "10", "record_time": 300, "timestamp": 3000, "capping_player": "Bravo", "capping_player_user_id": "b", "is_solo": true},
	"00000000-0000-4000-8000-000000000004": {"map_id": "404", "record_time": 100, "timestamp": 4000, "capping_player": "Charlie"},
	"00000000-0000-4000-8000-000000000005": {"map_id": "1", "record_time": "slow", "capping_player": "Delta"}
}`

const secondDocument = `{
	"00000000-0000-4000-8000-000000000001": {"map_id": "1", "record_time": 500, "timestamp": 1000, "capping_player": "Alpha", "capping_player_user_id": "a"},
	"00000000-0000-4000-8000-000000000002": {"map_id": "1", "record_time": 700, "timestamp": 2000, "capping_player": "Bravo", "capping_player_user_id": "b"},
	"00000000-0000-4000-8000-000000000003": {"map_id": "10", "record_time": 300, "timestamp": 3000, "capping_player": "Bravo", "capping_player_user_id": "b", "is_solo": true},
	"00000000-0000-4000-8000-000000000006": {"map_id": "1", "record_time": 450, "timestamp": 5000, "capping_player": "Bravo", "capping_player_user_id": "b"}
}`

func mustDecode(t *testing.T, data string) *datasource.Document {
	t.Helper()
	doc, err := datasource.DecodeRecords([]byte(data))
	require.NoError(t, err)
	return doc
}

func TestRefreshWithoutCatalog(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, firstDocument), nil)

	svc := NewLeaderboardService(source, nil, Options{})

	_, err := svc.Current()
	assert.ErrorIs(t, err, ErrNotReady)
	assert.False(t, svc.Ready())

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, svc.Ready())

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, res, current)

	// maps 1, 10 and 404 are all accepted without a catalog
	assert.Len(t, res.RecordsByMap, 3)
	assert.Equal(t, "a", res.BestRecords["1"].Owner.ID)

	stats := svc.Stats()
	assert.Equal(t, "mock", stats.Source)
	assert.Equal(t, 5, stats.Fetched)
	assert.Equal(t, 4, stats.Normalized)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 4, stats.Valid)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Refreshes)
	assert.False(t, stats.CacheHit)
	source.AssertExpectations(t)
}

func TestRefreshWithCatalog(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, firstDocument), nil)

	catalogSource := new(MockCatalogSource)
	catalogSource.On("FetchCatalog", mock.Anything).Return(&catalog.ParseResult{
		Maps: []catalog.MapInfo{{Name: "One", MapID: "1", EquivalentMapIDs: []string{"10"}}},
	}, nil)

	svc := NewLeaderboardService(source, nil, Options{Catalog: catalogSource})
	require.NoError(t, svc.RefreshCatalog(context.Background()))
	assert.Equal(t, 1, svc.Catalog().Len())

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	// map 10 folds into map 1; map 404 is rejected by the aggregator
	require.Len(t, res.RecordsByMap, 1)
	assert.Len(t, res.RecordsByMap["1"], 3)
	assert.Equal(t, "One", res.RecordsByMap["1"][0].MapName)

	require.Len(t, res.Diagnostics.SkippedRecords, 2)
	assert.Equal(t, models.CodeUnknownMap, res.Diagnostics.SkippedRecords[0].Code)
	assert.Equal(t, 3, res.Diagnostics.SkippedRecords[0].Index)
	assert.Equal(t, models.CodeInvalidTime, res.Diagnostics.SkippedRecords[1].Code)
	assert.Equal(t, 4, res.Diagnostics.SkippedRecords[1].Index)
	assert.Equal(t, 5, res.Diagnostics.Total)

	wr, ok := res.Leaderboard(leaderboard.KindWorldRecords)
	require.True(t, ok)
	require.Len(t, wr.Entries, 1)
	assert.Equal(t, "a", wr.Entries[0].PlayerID)

	solo, _ := res.Leaderboard(leaderboard.KindSoloWorldRecords)
	require.Len(t, solo.Entries, 1)
	assert.Equal(t, "b", solo.Entries[0].PlayerID)
	assert.Equal(t, "Bravo", solo.Entries[0].PlayerName)

	assert.Equal(t, 2, svc.Stats().Skipped)
}

func TestRefreshCatalogWithoutSource(t *testing.T) {
	svc := NewLeaderboardService(new(MockRecordSource), nil, Options{})
	assert.NoError(t, svc.RefreshCatalog(context.Background()))
	assert.Nil(t, svc.Catalog())
}

func TestRefreshCatalogError(t *testing.T) {
	catalogSource := new(MockCatalogSource)
	catalogSource.On("FetchCatalog", mock.Anything).Return(nil, errors.New("sheet unavailable"))

	svc := NewLeaderboardService(new(MockRecordSource), nil, Options{Catalog: catalogSource})
	assert.Error(t, svc.RefreshCatalog(context.Background()))
	assert.Nil(t, svc.Catalog())
}

func TestRefreshUsesResultCache(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, firstDocument), nil)

	resultCache := cache.NewResultCache(time.Minute, 10)
	svc := NewLeaderboardService(source, nil, Options{Cache: resultCache})

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, svc.Stats().CacheHit)

	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, svc.Stats().CacheHit)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, svc.Stats().Refreshes)
	assert.Equal(t, 1, resultCache.ItemCount())
}

func TestRefreshFetchError(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, firstDocument), nil).Once()
	source.On("FetchRecords", mock.Anything).Return(nil, datasource.NewDataSourceError("mock", datasource.ErrCodeServerError, "boom", datasource.ErrServerError))

	svc := NewLeaderboardService(source, nil, Options{})

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, datasource.ErrServerError)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, first, current)
	assert.Equal(t, 1, svc.Stats().FailedAttempts)
	assert.Equal(t, 1, svc.Stats().Refreshes)
}

func TestRefreshDetectsWorldRecordChanges(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, firstDocument), nil).Once()
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, secondDocument), nil)

	svc := NewLeaderboardService(source, nil, Options{})

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, svc.RecentChanges())

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	changes := svc.RecentChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, leaderboard.ScopeGeneral, changes[0].Scope)
	assert.Equal(t, "1", changes[0].MapID)
	require.NotNil(t, changes[0].Previous)
	assert.Equal(t, "a", changes[0].Previous.Owner.ID)
	assert.Equal(t, "b", changes[0].Current.Owner.ID)
	assert.Equal(t, 1, svc.Stats().Changes)

	wr, _ := res.Leaderboard(leaderboard.KindWorldRecords)
	entry, ok := wr.Find("b")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Rank)
}

func TestRefreshPersistsRecords(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, firstDocument), nil)

	repo := new(MockRecordRepository)
	repo.On("InsertBatch", mock.Anything, mock.MatchedBy(func(records []models.Record) bool {
		return len(records) == 4
	})).Return(int64(4), nil)

	svc := NewLeaderboardService(source, nil, Options{Repository: repo, Persist: true})

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), svc.Stats().Persisted)
	repo.AssertExpectations(t)
}

func TestRefreshPersistFailureKeepsResult(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, firstDocument), nil)

	repo := new(MockRecordRepository)
	repo.On("InsertBatch", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))

	svc := NewLeaderboardService(source, nil, Options{Repository: repo, Persist: true})

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, svc.Stats().Persisted)
	assert.True(t, svc.Ready())
}

func TestRefreshWithoutPersistSkipsRepository(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, firstDocument), nil)
	repo := new(MockRecordRepository)

	svc := NewLeaderboardService(source, nil, Options{Repository: repo})

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	repo.AssertNotCalled(t, "InsertBatch", mock.Anything, mock.Anything)
}

func TestRefreshReportsRejectedEntriesInDiagnostics(t *testing.T) {
	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, `[
		{"uuid": "00000000-0000-4000-8000-000000000001", "map_id": "1", "record_time": 500, "timestamp": 1000, "capping_player": "Alpha"},
		{"uuid": "00000000-0000-4000-8000-000000000002", "map_id": "1", "record_time": null, "timestamp": 2000, "capping_player": "Bravo"},
		7,
		{"uuid": "00000000-0000-4000-8000-000000000004", "map_id": "1", "record_time": 0, "timestamp": 4000, "capping_player": "Delta"}
	]`), nil)

	svc := NewLeaderboardService(source, nil, Options{})

	res, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	diag := res.Diagnostics
	assert.Equal(t, 4, diag.Total)
	assert.Equal(t, 1, diag.Valid)
	assert.Equal(t, 3, diag.Skipped)
	require.Len(t, diag.SkippedRecords, 3)

	assert.Equal(t, 1, diag.SkippedRecords[0].Index)
	assert.Equal(t, "00000000-0000-4000-8000-000000000002", diag.SkippedRecords[0].RecordID)
	assert.Equal(t, models.CodeInvalidTime, diag.SkippedRecords[0].Code)

	assert.Equal(t, 2, diag.SkippedRecords[1].Index)
	assert.Equal(t, models.CodeRecordFieldsEmpty, diag.SkippedRecords[1].Code)

	assert.Equal(t, 3, diag.SkippedRecords[2].Index)
	assert.Equal(t, "00000000-0000-4000-8000-000000000004", diag.SkippedRecords[2].RecordID)
	assert.Equal(t, models.CodeNonPositiveTime, diag.SkippedRecords[2].Code)

	assert.Equal(t, 3, svc.Stats().Skipped)
}

func TestRefreshReindexesCachedDiagnostics(t *testing.T) {
	const forward = `[
		{"uuid": "00000000-0000-4000-8000-000000000001", "map_id": "1", "record_time": 500, "timestamp": 1000, "capping_player": "Alpha"},
		{"uuid": "00000000-0000-4000-8000-000000000002", "map_id": "1", "record_time": 0, "timestamp": 2000, "capping_player": "Bravo"}
	]`
	const reversed = `[
		{"uuid": "00000000-0000-4000-8000-000000000002", "map_id": "1", "record_time": 0, "timestamp": 2000, "capping_player": "Bravo"},
		{"uuid": "00000000-0000-4000-8000-000000000001", "map_id": "1", "record_time": 500, "timestamp": 1000, "capping_player": "Alpha"}
	]`

	source := new(MockRecordSource)
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, forward), nil).Once()
	source.On("FetchRecords", mock.Anything).Return(mustDecode(t, reversed), nil)

	resultCache := cache.NewResultCache(time.Minute, 10)
	svc := NewLeaderboardService(source, nil, Options{Cache: resultCache})

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Diagnostics.SkippedRecords, 1)
	assert.Equal(t, 1, first.Diagnostics.SkippedRecords[0].Index)

	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, second.Diagnostics.SkippedRecords, 1)
	assert.Equal(t, "00000000-0000-4000-8000-000000000002", second.Diagnostics.SkippedRecords[0].RecordID)
	assert.Equal(t, 0, second.Diagnostics.SkippedRecords[0].Index)

	// the first published result is not rewritten by the second refresh
	assert.Equal(t, 1, first.Diagnostics.SkippedRecords[0].Index)
}
