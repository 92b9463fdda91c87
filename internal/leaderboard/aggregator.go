// Package leaderboard derives ranked leaderboards and per-map record indexes
// from a flat collection of completion records.
package leaderboard

import (
	"errors"
	"io"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/gltp-records/internal/models"
)

// MapChecker reports whether a map id belongs to the known catalog
type MapChecker interface {
	Known(mapID string) bool
}

// Result bundles every view derived from one aggregation
type Result struct {
	GamesCompleted      Leaderboard                        `json:"games_completed"`
	WorldRecords        Leaderboard                        `json:"world_records"`
	SoloWorldRecords    Leaderboard                        `json:"solo_world_records"`
	CappingWorldRecords Leaderboard                        `json:"capping_world_records"`
	BestRecords         map[string]models.Record           `json:"best_records"`
	RecordsByMap        map[string][]models.Record         `json:"records_by_map"`
	BestByScope         map[Scope]map[string]models.Record `json:"best_by_scope"`
	Diagnostics         Diagnostics                        `json:"diagnostics"`
}

// SkippedRecord describes a record rejected during aggregation
type SkippedRecord struct {
	Index    int    `json:"index"`
	RecordID string `json:"record_id"`
	MapID    string `json:"map_id,omitempty"`
	Code     string `json:"code"`
	Reason   string `json:"reason"`
}

// Diagnostics tallies how the input was consumed. It never affects the ranked output.
type Diagnostics struct {
	Total          int             `json:"total"`
	Valid          int             `json:"valid"`
	Skipped        int             `json:"skipped"`
	SkippedRecords []SkippedRecord `json:"skipped_records,omitempty"`
}

// Leaderboards returns the four leaderboards in display order.
func (r *Result) Leaderboards() []Leaderboard {
	return []Leaderboard{r.WorldRecords, r.SoloWorldRecords, r.CappingWorldRecords, r.GamesCompleted}
}

// Leaderboard returns the leaderboard of the given kind.
func (r *Result) Leaderboard(kind Kind) (Leaderboard, bool) {
	for _, lb := range r.Leaderboards() {
		if lb.Kind == kind {
			return lb, true
		}
	}
	return Leaderboard{}, false
}

// Aggregator computes leaderboards. It holds no state between calls and is safe for concurrent use.
type Aggregator struct {
	logger *logrus.Entry
	maps   MapChecker
}

// NewAggregator creates an aggregator. maps may be nil, in which case any non-empty map id is accepted.
func NewAggregator(logger *logrus.Logger, maps MapChecker) *Aggregator {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Aggregator{
		logger: logger.WithField("component", "aggregator"),
		maps:   maps,
	}
}

// Aggregate derives all leaderboards and map indexes from records.
// Malformed records are skipped and reported in Result.Diagnostics.
func Aggregate(records []models.Record) *Result {
	return NewAggregator(nil, nil).Aggregate(records)
}

// Aggregate derives all leaderboards and map indexes from records.
func (a *Aggregator) Aggregate(records []models.Record) *Result {
	start := time.Now()
	res := &Result{
		BestRecords:  make(map[string]models.Record),
		RecordsByMap: make(map[string][]models.Record),
		BestByScope:  make(map[Scope]map[string]models.Record, len(Scopes)),
		Diagnostics:  Diagnostics{Total: len(records)},
	}
	for _, scope := range Scopes {
		res.BestByScope[scope] = make(map[string]models.Record)
	}

	names := newNameIndex()
	completed := make(map[string]int)

	for i, rec := range records {
		if err := a.check(&rec); err != nil {
			a.skip(&res.Diagnostics, i, rec, err)
			continue
		}
		res.Diagnostics.Valid++
		res.RecordsByMap[rec.MapID] = append(res.RecordsByMap[rec.MapID], rec)
		completed[rec.Owner.ID]++
		names.observe(rec)
	}

	for mapID, recs := range res.RecordsByMap {
		sort.Slice(recs, func(i, j int) bool {
			return models.RecordLess(recs[i], recs[j])
		})
		res.BestRecords[mapID] = recs[0]

		for _, scope := range Scopes {
			if best, ok := bestInScope(recs, scope); ok {
				res.BestByScope[scope][mapID] = best
			}
		}
	}

	res.GamesCompleted = rank(KindGamesCompleted, completed, names)
	res.WorldRecords = rank(KindWorldRecords, holders(res.BestByScope[ScopeGeneral]), names)
	res.SoloWorldRecords = rank(KindSoloWorldRecords, holders(res.BestByScope[ScopeSolo]), names)
	res.CappingWorldRecords = rank(KindCappingWorldRecords, holders(res.BestByScope[ScopeCapping]), names)

	a.logger.WithFields(logrus.Fields{
		"total":       res.Diagnostics.Total,
		"valid":       res.Diagnostics.Valid,
		"skipped":     res.Diagnostics.Skipped,
		"maps":        len(res.RecordsByMap),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Aggregation completed")

	return res
}

// check validates one record against the record invariants and the map catalog.
func (a *Aggregator) check(rec *models.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if a.maps != nil && !a.maps.Known(rec.MapID) {
		return models.NewValidationError(models.CodeUnknownMap, "map "+rec.MapID+" is not in the catalog")
	}
	return nil
}

func (a *Aggregator) skip(diag *Diagnostics, index int, rec models.Record, err error) {
	code := "invalid"
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		code = verr.Code
	}

	diag.Skipped++
	diag.SkippedRecords = append(diag.SkippedRecords, SkippedRecord{
		Index:    index,
		RecordID: rec.ID.String(),
		MapID:    rec.MapID,
		Code:     code,
		Reason:   err.Error(),
	})

	a.logger.WithFields(logrus.Fields{
		"index":     index,
		"record_id": rec.ID.String(),
		"code":      code,
	}).Debug("Skipping malformed record")
}

// bestInScope returns the first record of an already sorted slice that competes in scope.
func bestInScope(sorted []models.Record, scope Scope) (models.Record, bool) {
	for _, rec := range sorted {
		if scope.Includes(rec.Mode) {
			return rec, true
		}
	}
	return models.Record{}, false
}

// holders counts, per player, how many maps they hold the best record on.
func holders(best map[string]models.Record) map[string]int {
	counts := make(map[string]int)
	for _, rec := range best {
		counts[rec.Owner.ID]++
	}
	return counts
}
