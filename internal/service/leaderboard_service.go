package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gltp-records/internal/cache"
	"github.com/yourusername/gltp-records/internal/catalog"
	"github.com/yourusername/gltp-records/internal/datasource"
	"github.com/yourusername/gltp-records/internal/leaderboard"
	"github.com/yourusername/gltp-records/internal/logger"
	"github.com/yourusername/gltp-records/internal/metrics"
	"github.com/yourusername/gltp-records/internal/models"
	"github.com/yourusername/gltp-records/internal/repository"
)

// ErrNotReady is returned when no aggregation has completed yet
var ErrNotReady = errors.New("leaderboards not computed yet")

// RefreshStats describes the most recent refresh
type RefreshStats struct {
	Source         string        `json:"source"`
	Fetched        int           `json:"fetched"`
	Normalized     int           `json:"normalized"`
	Rejected       int           `json:"rejected"`
	Valid          int           `json:"valid"`
	Skipped        int           `json:"skipped"`
	Maps           int           `json:"maps"`
	CacheHit       bool          `json:"cache_hit"`
	Changes        int           `json:"world_record_changes"`
	Persisted      int64         `json:"persisted"`
	Duration       time.Duration `json:"duration"`
	CompletedAt    time.Time     `json:"completed_at"`
	Refreshes      int           `json:"refreshes"`
	FailedAttempts int           `json:"failed_attempts"`
}

// Options holds the optional collaborators of a LeaderboardService
type Options struct {
	Catalog    datasource.CatalogSource
	Cache      *cache.ResultCache
	Repository repository.RecordRepository
	// Persist mirrors normalized records into Repository after each refresh
	Persist bool
}

// LeaderboardService keeps the current leaderboards up to date from a record source
type LeaderboardService struct {
	source     datasource.RecordSource
	catalogSrc datasource.CatalogSource
	cache      *cache.ResultCache
	repo       repository.RecordRepository
	persist    bool

	logger    *logrus.Entry
	base      *logrus.Logger
	aggLogger *logger.AggregationLogger
	audit     *logger.AuditLogger
	srcLogger *logger.SourceLogger

	refreshMu sync.Mutex // serializes Refresh

	mu          sync.RWMutex
	current     *leaderboard.Result
	catalog     *catalog.Catalog
	stats       RefreshStats
	lastChanges []leaderboard.WorldRecordChange
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(source datasource.RecordSource, log *logrus.Logger, opts Options) *LeaderboardService {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	return &LeaderboardService{
		source:     source,
		catalogSrc: opts.Catalog,
		cache:      opts.Cache,
		repo:       opts.Repository,
		persist:    opts.Persist && opts.Repository != nil,
		logger:     log.WithField("component", "leaderboard_service"),
		base:       log,
		aggLogger:  logger.NewAggregationLogger(log),
		audit:      logger.NewAuditLogger(log),
		srcLogger:  logger.NewSourceLogger(log),
	}
}

// RefreshCatalog reloads the map catalog. Without a catalog source it does nothing.
func (s *LeaderboardService) RefreshCatalog(ctx context.Context) error {
	if s.catalogSrc == nil {
		return nil
	}

	start := time.Now()
	parsed, err := s.catalogSrc.FetchCatalog(ctx)
	metrics.RecordSourceFetch(s.catalogSrc.Name(), time.Since(start), err)
	if err != nil {
		s.srcLogger.LogFetchError(s.catalogSrc.Name(), err)
		return fmt.Errorf("failed to refresh map catalog: %w", err)
	}
	s.srcLogger.LogFetch(s.catalogSrc.Name(), len(parsed.Maps), time.Since(start))

	cat := catalog.New(parsed.Maps)

	s.mu.Lock()
	s.catalog = cat
	s.mu.Unlock()

	metrics.UpdateCatalogMaps(cat.Len(), len(parsed.Illegal))
	s.audit.LogCatalogRefresh(s.catalogSrc.Name(), cat.Len(), len(parsed.Illegal))
	return nil
}

// Refresh fetches the records, recomputes the leaderboards and publishes the result
func (s *LeaderboardService) Refresh(ctx context.Context) (*leaderboard.Result, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	start := time.Now()
	res, stats, changes, err := s.refresh(ctx)
	if err != nil {
		s.mu.Lock()
		s.stats.FailedAttempts++
		s.mu.Unlock()
		return nil, err
	}
	stats.Duration = time.Since(start)
	stats.CompletedAt = time.Now().UTC()

	s.mu.Lock()
	stats.Refreshes = s.stats.Refreshes + 1
	stats.FailedAttempts = s.stats.FailedAttempts
	s.current = res
	s.stats = stats
	if len(changes) > 0 {
		s.lastChanges = changes
	}
	s.mu.Unlock()

	metrics.MarkRefreshed(stats.CompletedAt)
	return res, nil
}

func (s *LeaderboardService) refresh(ctx context.Context) (*leaderboard.Result, RefreshStats, []leaderboard.WorldRecordChange, error) {
	stats := RefreshStats{Source: s.source.Name()}

	fetchStart := time.Now()
	doc, err := s.source.FetchRecords(ctx)
	metrics.RecordSourceFetch(s.source.Name(), time.Since(fetchStart), err)
	if err != nil {
		s.srcLogger.LogFetchError(s.source.Name(), err)
		return nil, stats, nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	s.srcLogger.LogFetch(s.source.Name(), len(doc.Records), time.Since(fetchStart))

	s.mu.RLock()
	cat := s.catalog
	prev := s.current
	s.mu.RUnlock()

	normalized := NewRecordNormalizer(cat).NormalizeDocument(doc)
	stats.Fetched = len(doc.Records) + len(doc.Rejected)
	stats.Normalized = len(normalized.Records)
	stats.Rejected = len(normalized.Rejected)
	s.audit.LogRecordsIngested(s.source.Name(), stats.Fetched, stats.Normalized, stats.Rejected)

	res := withDocumentDiagnostics(s.aggregate(normalized.Records, cat, &stats), normalized)
	for _, skipped := range res.Diagnostics.SkippedRecords {
		metrics.RecordSkippedRecord(skipped.Code)
		s.aggLogger.LogSkippedRecord(skipped.Index, skipped.RecordID, skipped.MapID, skipped.Code, skipped.Reason)
	}

	stats.Valid = res.Diagnostics.Valid
	stats.Skipped = res.Diagnostics.Skipped
	stats.Maps = len(res.RecordsByMap)

	for _, lb := range res.Leaderboards() {
		metrics.UpdateLeaderboardEntries(string(lb.Kind), lb.Len())
	}

	changes := leaderboard.Changes(prev, res)
	stats.Changes = len(changes)
	for _, change := range changes {
		s.reportChange(change)
	}

	if s.persist {
		inserted, err := s.mirror(ctx, res)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to persist records")
		}
		stats.Persisted = inserted
	}

	return res, stats, changes, nil
}

// aggregate returns a cached result for an identical record set, or computes and caches one
func (s *LeaderboardService) aggregate(records []models.Record, cat *catalog.Catalog, stats *RefreshStats) *leaderboard.Result {
	var key string
	if s.cache != nil {
		key = cache.Key(records, cat.Revision())
		if res, ok := s.cache.Get(key); ok {
			stats.CacheHit = true
			s.aggLogger.LogCacheHit(key, len(records))
			return res
		}
	}

	var checker leaderboard.MapChecker
	if cat.Len() > 0 {
		checker = cat
	}

	start := time.Now()
	res := leaderboard.NewAggregator(s.base, checker).Aggregate(records)
	elapsed := time.Since(start)

	diag := res.Diagnostics
	metrics.RecordAggregation(elapsed, diag.Valid, diag.Skipped, len(res.RecordsByMap))
	s.aggLogger.LogAggregation(diag.Total, diag.Valid, diag.Skipped, len(res.RecordsByMap), elapsed)

	if s.cache != nil {
		s.cache.Set(key, res)
	}
	return res
}

// withDocumentDiagnostics returns a copy of res whose diagnostics cover the whole
// document: aggregator skips are reindexed to document positions and the entries
// rejected before aggregation are added. res may be shared through the cache and
// is not modified.
func withDocumentDiagnostics(res *leaderboard.Result, normalized *NormalizeResult) *leaderboard.Result {
	// a cached result may come from the same records in another order
	byID := make(map[string][]int, len(normalized.Records))
	for i, rec := range normalized.Records {
		id := rec.ID.String()
		byID[id] = append(byID[id], normalized.Positions[i])
	}

	agg := res.Diagnostics
	diag := leaderboard.Diagnostics{
		Total:          agg.Total + len(normalized.Rejected),
		Valid:          agg.Valid,
		Skipped:        agg.Skipped + len(normalized.Rejected),
		SkippedRecords: make([]leaderboard.SkippedRecord, 0, agg.Skipped+len(normalized.Rejected)),
	}
	diag.SkippedRecords = append(diag.SkippedRecords, normalized.Rejected...)

	for _, skipped := range agg.SkippedRecords {
		i := skipped.Index
		if i >= 0 && i < len(normalized.Records) && normalized.Records[i].ID.String() == skipped.RecordID {
			skipped.Index = normalized.Positions[i]
		} else if queue := byID[skipped.RecordID]; len(queue) > 0 {
			skipped.Index = queue[0]
			byID[skipped.RecordID] = queue[1:]
		}
		diag.SkippedRecords = append(diag.SkippedRecords, skipped)
	}

	sort.SliceStable(diag.SkippedRecords, func(i, j int) bool {
		return diag.SkippedRecords[i].Index < diag.SkippedRecords[j].Index
	})

	published := *res
	published.Diagnostics = diag
	return &published
}

func (s *LeaderboardService) reportChange(change leaderboard.WorldRecordChange) {
	metrics.RecordWorldRecordChange(string(change.Scope))

	var prevHolder string
	var prevTime time.Duration
	if change.Previous != nil {
		prevHolder = change.Previous.Owner.ID
		prevTime = change.Previous.Time
	}
	s.audit.LogWorldRecordChange(string(change.Scope), change.MapID, prevHolder, change.Current.Owner.ID, prevTime, change.Current.Time)
}

// mirror stores every valid record of res
func (s *LeaderboardService) mirror(ctx context.Context, res *leaderboard.Result) (int64, error) {
	records := make([]models.Record, 0, res.Diagnostics.Valid)
	for _, recs := range res.RecordsByMap {
		records = append(records, recs...)
	}
	if len(records) == 0 {
		return 0, nil
	}

	start := time.Now()
	inserted, err := s.repo.InsertBatch(ctx, records)
	if err != nil {
		return 0, err
	}
	metrics.RecordRecordsPersisted(inserted)
	s.audit.LogRecordsPersisted(inserted, time.Since(start))
	return inserted, nil
}

// Current returns the latest result
func (s *LeaderboardService) Current() (*leaderboard.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrNotReady
	}
	return s.current, nil
}

// Catalog returns the current map catalog, or nil when none has been loaded
func (s *LeaderboardService) Catalog() *catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Stats returns a copy of the last refresh statistics
func (s *LeaderboardService) Stats() RefreshStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// RecentChanges returns the world record changes detected by the last refresh that had any
func (s *LeaderboardService) RecentChanges() []leaderboard.WorldRecordChange {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]leaderboard.WorldRecordChange, len(s.lastChanges))
	copy(out, s.lastChanges)
	return out
}

// Ready reports whether a result is available
func (s *LeaderboardService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}
