package leaderboard

import (
	"sort"

	"github.com/yourusername/gltp-records/internal/models"
)

// StatsQuery filters the per-map record index.
// Empty fields do not filter; TopK <= 0 keeps every matching record.
type StatsQuery struct {
	CappingPlayerUserID string
	MapID               string
	TopK                int
}

// Stats returns the records matching q, grouped by map and ordered best first.
// With TopK set, only the K fastest matching records of each map are kept.
func (r *Result) Stats(q StatsQuery) map[string][]models.Record {
	out := make(map[string][]models.Record)

	for mapID, recs := range r.RecordsByMap {
		if q.MapID != "" && q.MapID != mapID {
			continue
		}

		matched := make([]models.Record, 0, len(recs))
		for _, rec := range recs {
			if q.CappingPlayerUserID != "" && rec.Owner.ID != q.CappingPlayerUserID {
				continue
			}
			matched = append(matched, rec)
			if q.TopK > 0 && len(matched) == q.TopK {
				break
			}
		}

		if len(matched) > 0 {
			out[mapID] = matched
		}
	}

	return out
}

// RecentBest returns the per-map best records ordered by most recent completion first.
func (r *Result) RecentBest() []models.Record {
	return sortRecent(r.BestRecords)
}

// RecentBestIn is RecentBest restricted to the world records of one scope.
func (r *Result) RecentBestIn(scope Scope) []models.Record {
	return sortRecent(r.BestByScope[scope])
}

func sortRecent(best map[string]models.Record) []models.Record {
	recs := make([]models.Record, 0, len(best))
	for _, rec := range best {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].Timestamp.Equal(recs[j].Timestamp) {
			return recs[i].Timestamp.After(recs[j].Timestamp)
		}
		return recs[i].MapID < recs[j].MapID
	})
	return recs
}

// ParseScope parses a world record scope name.
func ParseScope(s string) (Scope, bool) {
	for _, scope := range Scopes {
		if string(scope) == s {
			return scope, true
		}
	}
	return "", false
}

// WorldRecordChange describes a map whose best record moved to another record.
type WorldRecordChange struct {
	Scope    Scope          `json:"scope"`
	MapID    string         `json:"map_id"`
	Previous *models.Record `json:"previous,omitempty"`
	Current  models.Record  `json:"current"`
}

// Changes lists the world records in next that differ from prev, per scope and map,
// ordered by scope then map id. A nil prev reports nothing.
func Changes(prev, next *Result) []WorldRecordChange {
	if prev == nil || next == nil {
		return nil
	}

	var changes []WorldRecordChange
	for _, scope := range Scopes {
		mapIDs := make([]string, 0, len(next.BestByScope[scope]))
		for mapID := range next.BestByScope[scope] {
			mapIDs = append(mapIDs, mapID)
		}
		sort.Strings(mapIDs)

		for _, mapID := range mapIDs {
			current := next.BestByScope[scope][mapID]
			old, ok := prev.BestByScope[scope][mapID]
			if ok && old.ID == current.ID {
				continue
			}
			change := WorldRecordChange{Scope: scope, MapID: mapID, Current: current}
			if ok {
				previous := old
				change.Previous = &previous
			}
			changes = append(changes, change)
		}
	}
	return changes
}
