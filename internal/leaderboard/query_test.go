package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/gltp-records/internal/models"
)

func TestStatsFilters(t *testing.T) {
	records := []models.Record{
		newRecord("A", "p1", 300, baseTime, models.ModeGeneral),
		newRecord("A", "p2", 100, baseTime, models.ModeGeneral),
		newRecord("A", "p1", 200, baseTime, models.ModeSolo),
		newRecord("B", "p1", 400, baseTime, models.ModeGeneral),
		newRecord("B", "p3", 50, baseTime, models.ModeGeneral),
	}
	res := Aggregate(records)

	tests := []struct {
		name      string
		query     StatsQuery
		wantMaps  []string
		wantTimes map[string][]time.Duration
	}{
		{
			name:     "no filter",
			query:    StatsQuery{},
			wantMaps: []string{"A", "B"},
			wantTimes: map[string][]time.Duration{
				"A": {100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond},
				"B": {50 * time.Millisecond, 400 * time.Millisecond},
			},
		},
		{
			name:     "by player",
			query:    StatsQuery{CappingPlayerUserID: "p1"},
			wantMaps: []string{"A", "B"},
			wantTimes: map[string][]time.Duration{
				"A": {200 * time.Millisecond, 300 * time.Millisecond},
				"B": {400 * time.Millisecond},
			},
		},
		{
			name:     "by map with topk",
			query:    StatsQuery{MapID: "A", TopK: 2},
			wantMaps: []string{"A"},
			wantTimes: map[string][]time.Duration{
				"A": {100 * time.Millisecond, 200 * time.Millisecond},
			},
		},
		{
			name:      "player without records",
			query:     StatsQuery{CappingPlayerUserID: "nobody"},
			wantMaps:  []string{},
			wantTimes: map[string][]time.Duration{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := res.Stats(tt.query)

			assert.Len(t, got, len(tt.wantMaps))
			for mapID, want := range tt.wantTimes {
				recs, ok := got[mapID]
				require.True(t, ok, "map %s missing", mapID)
				times := make([]time.Duration, 0, len(recs))
				for _, rec := range recs {
					times = append(times, rec.Time)
				}
				assert.Equal(t, want, times)
			}
		})
	}
}

func TestRecentBest(t *testing.T) {
	res := Aggregate([]models.Record{
		newRecord("A", "p1", 100, baseTime, models.ModeGeneral),
		newRecord("B", "p1", 100, baseTime.Add(2*time.Hour), models.ModeGeneral),
		newRecord("C", "p2", 100, baseTime.Add(time.Hour), models.ModeGeneral),
		newRecord("D", "p2", 100, baseTime.Add(time.Hour), models.ModeGeneral),
	})

	recent := res.RecentBest()

	mapIDs := make([]string, 0, len(recent))
	for _, rec := range recent {
		mapIDs = append(mapIDs, rec.MapID)
	}
	assert.Equal(t, []string{"B", "C", "D", "A"}, mapIDs)
}

func TestRecentBestIn(t *testing.T) {
	res := Aggregate([]models.Record{
		newRecord("A", "p1", 100, baseTime, models.ModeGeneral),
		newRecord("A", "p2", 50, baseTime.Add(3*time.Hour), models.ModeSolo),
		newRecord("B", "p1", 100, baseTime.Add(2*time.Hour), models.ModeSolo),
	})

	solo := res.RecentBestIn(ScopeSolo)
	require.Len(t, solo, 2)
	assert.Equal(t, "A", solo[0].MapID)
	assert.Equal(t, "p2", solo[0].Owner.ID)
	assert.Equal(t, "B", solo[1].MapID)

	assert.Empty(t, res.RecentBestIn(ScopeCapping))
}

func TestParseScope(t *testing.T) {
	scope, ok := ParseScope("solo")
	assert.True(t, ok)
	assert.Equal(t, ScopeSolo, scope)

	_, ok = ParseScope("relay")
	assert.False(t, ok)
}

func TestChanges(t *testing.T) {
	a1 := newRecord("A", "p1", 500, baseTime, models.ModeGeneral)
	b1 := newRecord("B", "p2", 500, baseTime, models.ModeSolo)
	prev := Aggregate([]models.Record{a1, b1})

	a2 := newRecord("A", "p3", 400, baseTime.Add(time.Hour), models.ModeGeneral)
	c1 := newRecord("C", "p1", 700, baseTime.Add(time.Hour), models.ModeCapping)
	next := Aggregate([]models.Record{a1, b1, a2, c1})

	changes := Changes(prev, next)

	require.Len(t, changes, 2)

	assert.Equal(t, ScopeGeneral, changes[0].Scope)
	assert.Equal(t, "A", changes[0].MapID)
	require.NotNil(t, changes[0].Previous)
	assert.Equal(t, a1.ID, changes[0].Previous.ID)
	assert.Equal(t, a2.ID, changes[0].Current.ID)

	assert.Equal(t, ScopeCapping, changes[1].Scope)
	assert.Equal(t, "C", changes[1].MapID)
	assert.Nil(t, changes[1].Previous)
}

func TestChangesWithoutPrevious(t *testing.T) {
	next := Aggregate([]models.Record{newRecord("A", "p1", 100, baseTime, models.ModeGeneral)})

	assert.Empty(t, Changes(nil, next))
	assert.Empty(t, Changes(next, next))
}
