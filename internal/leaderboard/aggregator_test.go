package leaderboard

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/gltp-records/internal/models"
)

var baseTime = time.Date(2025, 3, 3, 22, 0, 0, 0, time.UTC)

var recordSeq int

func newRecord(mapID, playerID string, timeMs int, ts time.Time, mode models.Mode) models.Record {
	recordSeq++
	return models.Record{
		ID:        uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", recordSeq)),
		MapID:     mapID,
		Owner:     models.Player{ID: playerID, Name: "name-" + playerID},
		Time:      time.Duration(timeMs) * time.Millisecond,
		Timestamp: ts,
		Mode:      mode,
	}
}

func generateRecords(seed int64, n int) []models.Record {
	rng := rand.New(rand.NewSource(seed))
	players := []string{"p1", "p2", "p3", "p4", "p5"}
	maps := []string{"100", "200", "300", "400"}

	records := make([]models.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, newRecord(
			maps[rng.Intn(len(maps))],
			players[rng.Intn(len(players))],
			1000+rng.Intn(50)*100,
			baseTime.Add(time.Duration(rng.Intn(20))*time.Hour),
			models.Modes[rng.Intn(len(models.Modes))],
		))
	}
	return records
}

func TestAggregateScenario(t *testing.T) {
	records := []models.Record{
		newRecord("A", "p1", 10, baseTime, models.ModeGeneral),
		newRecord("A", "p2", 8, baseTime.Add(time.Minute), models.ModeGeneral),
		newRecord("B", "p1", 5, baseTime.Add(2*time.Minute), models.ModeSolo),
	}

	res := Aggregate(records)

	require.Len(t, res.BestRecords, 2)
	assert.Equal(t, "p2", res.BestRecords["A"].Owner.ID)
	assert.Equal(t, 8*time.Millisecond, res.BestRecords["A"].Time)
	assert.Equal(t, "p1", res.BestRecords["B"].Owner.ID)
	assert.Equal(t, 5*time.Millisecond, res.BestRecords["B"].Time)

	assert.Equal(t, []Entry{
		{Rank: 1, PlayerID: "p1", PlayerName: "name-p1", Count: 2},
		{Rank: 2, PlayerID: "p2", PlayerName: "name-p2", Count: 1},
	}, res.GamesCompleted.Entries)

	assert.Equal(t, []Entry{{Rank: 1, PlayerID: "p2", PlayerName: "name-p2", Count: 1}}, res.WorldRecords.Entries)
	assert.Equal(t, []Entry{{Rank: 1, PlayerID: "p1", PlayerName: "name-p1", Count: 1}}, res.SoloWorldRecords.Entries)
	assert.Empty(t, res.CappingWorldRecords.Entries)

	assert.Equal(t, KindGamesCompleted, res.GamesCompleted.Kind)
	assert.Equal(t, KindCappingWorldRecords, res.CappingWorldRecords.Kind)
	assert.Equal(t, 3, res.Diagnostics.Valid)
	assert.Zero(t, res.Diagnostics.Skipped)
}

func TestAggregateEmptyInput(t *testing.T) {
	for _, input := range [][]models.Record{nil, {}} {
		res := Aggregate(input)

		require.NotNil(t, res)
		for _, lb := range res.Leaderboards() {
			assert.Empty(t, lb.Entries, string(lb.Kind))
		}
		assert.Empty(t, res.BestRecords)
		assert.Empty(t, res.RecordsByMap)
		assert.Zero(t, res.Diagnostics.Total)
	}
}

func TestAggregateSkipsMalformedRecords(t *testing.T) {
	valid := newRecord("A", "p1", 1200, baseTime, models.ModeGeneral)
	sibling := newRecord("A", "p2", 1500, baseTime, models.ModeGeneral)

	negative := newRecord("A", "p3", -1, baseTime, models.ModeGeneral)
	zeroTime := newRecord("A", "p3", 0, baseTime, models.ModeGeneral)
	noMap := newRecord("", "p3", 100, baseTime, models.ModeGeneral)
	noTimestamp := newRecord("A", "p3", 100, time.Time{}, models.ModeGeneral)
	noOwner := newRecord("A", "", 100, baseTime, models.ModeGeneral)
	badMode := newRecord("A", "p3", 100, baseTime, models.Mode(9))

	res := Aggregate([]models.Record{negative, valid, zeroTime, noMap, sibling, noTimestamp, noOwner, badMode})

	assert.Equal(t, 8, res.Diagnostics.Total)
	assert.Equal(t, 2, res.Diagnostics.Valid)
	assert.Equal(t, 6, res.Diagnostics.Skipped)
	require.Len(t, res.Diagnostics.SkippedRecords, 6)

	codes := make([]string, 0, 6)
	for _, s := range res.Diagnostics.SkippedRecords {
		codes = append(codes, s.Code)
	}
	assert.Equal(t, []string{
		models.CodeNonPositiveTime,
		models.CodeNonPositiveTime,
		models.CodeMissingMapID,
		models.CodeInvalidTimestamp,
		models.CodeMissingPlayer,
		models.CodeAmbiguousMode,
	}, codes)
	assert.Equal(t, 0, res.Diagnostics.SkippedRecords[0].Index)

	assert.Equal(t, []models.Record{valid, sibling}, res.RecordsByMap["A"])
	assert.Equal(t, "p1", res.BestRecords["A"].Owner.ID)
	_, ranked := res.GamesCompleted.Find("p3")
	assert.False(t, ranked)
}

func TestAggregateUnknownMapSkippedWithCatalog(t *testing.T) {
	agg := NewAggregator(nil, knownMaps{"A": true})

	res := agg.Aggregate([]models.Record{
		newRecord("A", "p1", 100, baseTime, models.ModeGeneral),
		newRecord("Z", "p1", 50, baseTime, models.ModeGeneral),
	})

	assert.Equal(t, 1, res.Diagnostics.Skipped)
	assert.Equal(t, models.CodeUnknownMap, res.Diagnostics.SkippedRecords[0].Code)
	assert.NotContains(t, res.BestRecords, "Z")
}

func TestAggregateDeterminism(t *testing.T) {
	records := generateRecords(42, 200)

	first := Aggregate(records)
	second := Aggregate(records)
	assert.Equal(t, first, second)

	shuffled := make([]models.Record, len(records))
	copy(shuffled, records)
	rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	third := Aggregate(shuffled)
	assert.Equal(t, first.Leaderboards(), third.Leaderboards())
	assert.Equal(t, first.BestRecords, third.BestRecords)
	assert.Equal(t, first.BestByScope, third.BestByScope)
	assert.Equal(t, first.RecordsByMap, third.RecordsByMap)
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	records := generateRecords(3, 50)
	snapshot := make([]models.Record, len(records))
	copy(snapshot, records)

	Aggregate(records)

	assert.Equal(t, snapshot, records)
}

func TestBestRecordMinimality(t *testing.T) {
	records := generateRecords(11, 300)
	res := Aggregate(records)

	for _, rec := range records {
		best, ok := res.BestRecords[rec.MapID]
		require.True(t, ok)
		assert.LessOrEqual(t, best.Time, rec.Time)

		scoped := res.BestByScope[scopeOf(rec.Mode)][rec.MapID]
		assert.LessOrEqual(t, scoped.Time, rec.Time)
	}
}

func TestPartitionCompleteness(t *testing.T) {
	records := generateRecords(5, 250)
	records = append(records, newRecord("100", "p1", -5, baseTime, models.ModeGeneral))
	res := Aggregate(records)

	seen := make(map[uuid.UUID]int)
	for mapID, recs := range res.RecordsByMap {
		for _, rec := range recs {
			assert.Equal(t, mapID, rec.MapID)
			seen[rec.ID]++
		}
	}

	assert.Len(t, seen, len(records)-1)
	for _, rec := range records[:len(records)-1] {
		assert.Equal(t, 1, seen[rec.ID], "record %s", rec.ID)
	}
}

func TestGamesCompletedCountConservation(t *testing.T) {
	records := generateRecords(9, 180)
	res := Aggregate(records)

	total := 0
	for _, e := range res.GamesCompleted.Entries {
		total += e.Count
	}
	assert.Equal(t, res.Diagnostics.Valid, total)
	assert.Equal(t, len(records), total)
}

func TestWorldRecordCountsMatchScopedBests(t *testing.T) {
	res := Aggregate(generateRecords(13, 220))

	for _, scope := range Scopes {
		lb, ok := res.Leaderboard(scope.Kind())
		require.True(t, ok)

		total := 0
		for _, e := range lb.Entries {
			total += e.Count
		}
		assert.Equal(t, len(res.BestByScope[scope]), total, string(scope))
	}
}

func TestScopeIndependence(t *testing.T) {
	records := []models.Record{
		newRecord("A", "solo-player", 900, baseTime, models.ModeSolo),
		newRecord("A", "team-player", 500, baseTime, models.ModeGeneral),
		newRecord("A", "capper", 700, baseTime, models.ModeCapping),
	}

	res := Aggregate(records)

	assert.Equal(t, "team-player", res.BestRecords["A"].Owner.ID)

	solo, ok := res.SoloWorldRecords.Find("solo-player")
	require.True(t, ok)
	assert.Equal(t, 1, solo.Count)

	capping, ok := res.CappingWorldRecords.Find("capper")
	require.True(t, ok)
	assert.Equal(t, 1, capping.Count)

	_, ok = res.WorldRecords.Find("solo-player")
	assert.False(t, ok)
	assert.Equal(t, 1, res.WorldRecords.Len())
}

func TestTieBreakEarlierTimestampWins(t *testing.T) {
	later := newRecord("A", "aaa", 1000, baseTime.Add(time.Hour), models.ModeGeneral)
	earlier := newRecord("A", "zzz", 1000, baseTime, models.ModeGeneral)

	res := Aggregate([]models.Record{later, earlier})

	assert.Equal(t, earlier.ID, res.BestRecords["A"].ID)
	assert.Equal(t, []models.Record{earlier, later}, res.RecordsByMap["A"])
}

func TestTieBreakPlayerIDWhenTimeAndTimestampEqual(t *testing.T) {
	b := newRecord("A", "bravo", 1000, baseTime, models.ModeGeneral)
	a := newRecord("A", "alpha", 1000, baseTime, models.ModeGeneral)

	for _, input := range [][]models.Record{{a, b}, {b, a}} {
		res := Aggregate(input)
		assert.Equal(t, "alpha", res.BestRecords["A"].Owner.ID)
	}
}

func TestRankingTiesOrderedByPlayerID(t *testing.T) {
	records := []models.Record{
		newRecord("A", "carol", 100, baseTime, models.ModeGeneral),
		newRecord("B", "alice", 100, baseTime, models.ModeGeneral),
		newRecord("C", "bob", 100, baseTime, models.ModeGeneral),
		newRecord("D", "bob", 100, baseTime, models.ModeGeneral),
	}

	res := Aggregate(records)

	ids := make([]string, 0, 3)
	ranks := make([]int, 0, 3)
	for _, e := range res.WorldRecords.Entries {
		ids = append(ids, e.PlayerID)
		ranks = append(ranks, e.Rank)
	}
	assert.Equal(t, []string{"bob", "alice", "carol"}, ids)
	assert.Equal(t, []int{1, 2, 3}, ranks)
}

func TestEntryNameComesFromMostRecentRecord(t *testing.T) {
	old := newRecord("A", "p1", 100, baseTime, models.ModeGeneral)
	old.Owner.Name = "OldName"
	recent := newRecord("B", "p1", 100, baseTime.Add(time.Hour), models.ModeGeneral)
	recent.Owner.Name = "NewName"

	res := Aggregate([]models.Record{recent, old})

	entry, ok := res.GamesCompleted.Find("p1")
	require.True(t, ok)
	assert.Equal(t, "NewName", entry.PlayerName)
}

func TestLeaderboardTop(t *testing.T) {
	lb := Leaderboard{Entries: []Entry{{Rank: 1}, {Rank: 2}, {Rank: 3}}}

	assert.Len(t, lb.Top(2), 2)
	assert.Len(t, lb.Top(0), 3)
	assert.Len(t, lb.Top(10), 3)
}

type knownMaps map[string]bool

func (k knownMaps) Known(mapID string) bool {
	return k[mapID]
}

func scopeOf(mode models.Mode) Scope {
	for _, scope := range Scopes {
		if scope.Includes(mode) {
			return scope
		}
	}
	return ""
}

func BenchmarkAggregate(b *testing.B) {
	records := generateRecords(1, 5000)
	agg := NewAggregator(nil, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Aggregate(records)
	}
}
