package leaderboard

import (
	"sort"

	"github.com/yourusername/gltp-records/internal/models"
)

// Kind names a ranking policy
type Kind string

const (
	KindGamesCompleted      Kind = "games_completed"
	KindWorldRecords        Kind = "world_records"
	KindSoloWorldRecords    Kind = "solo_world_records"
	KindCappingWorldRecords Kind = "capping_world_records"
)

// ParseKind parses a leaderboard kind name.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindGamesCompleted, KindWorldRecords, KindSoloWorldRecords, KindCappingWorldRecords:
		return k, true
	default:
		return "", false
	}
}

// Scope selects which records compete for a map's world record.
type Scope string

const (
	ScopeGeneral Scope = "general"
	ScopeSolo    Scope = "solo"
	ScopeCapping Scope = "capping"
)

// Scopes lists the world record scopes in output order.
var Scopes = []Scope{ScopeGeneral, ScopeSolo, ScopeCapping}

// Includes reports whether a record of the given mode competes in this scope.
// Modes are mutually exclusive, so each record competes in exactly one scope.
func (s Scope) Includes(mode models.Mode) bool {
	switch s {
	case ScopeGeneral:
		return mode == models.ModeGeneral
	case ScopeSolo:
		return mode == models.ModeSolo
	case ScopeCapping:
		return mode == models.ModeCapping
	default:
		return false
	}
}

// Kind returns the leaderboard fed by this scope's world records.
func (s Scope) Kind() Kind {
	switch s {
	case ScopeSolo:
		return KindSoloWorldRecords
	case ScopeCapping:
		return KindCappingWorldRecords
	default:
		return KindWorldRecords
	}
}

// Entry is one ranked leaderboard row
type Entry struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Count      int    `json:"count"`
}

// Leaderboard is an ordered ranking of players by Count.
type Leaderboard struct {
	Kind    Kind    `json:"kind"`
	Entries []Entry `json:"entries"`
}

// Len returns the number of ranked players.
func (l Leaderboard) Len() int {
	return len(l.Entries)
}

// Find returns the entry of a player, if ranked.
func (l Leaderboard) Find(playerID string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.PlayerID == playerID {
			return e, true
		}
	}
	return Entry{}, false
}

// Top returns at most n leading entries.
func (l Leaderboard) Top(n int) []Entry {
	if n <= 0 || n >= len(l.Entries) {
		return l.Entries
	}
	return l.Entries[:n]
}

// rank sorts tallies by count desc, then player id asc, and assigns strict sequential ranks.
func rank(kind Kind, tallies map[string]int, names *nameIndex) Leaderboard {
	entries := make([]Entry, 0, len(tallies))
	for playerID, count := range tallies {
		if count <= 0 {
			continue
		}
		entries = append(entries, Entry{
			PlayerID:   playerID,
			PlayerName: names.name(playerID),
			Count:      count,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	return Leaderboard{Kind: kind, Entries: entries}
}

// nameIndex remembers the display name from each player's most recent record.
type nameIndex struct {
	latest map[string]models.Record
}

func newNameIndex() *nameIndex {
	return &nameIndex{latest: make(map[string]models.Record)}
}

func (n *nameIndex) observe(rec models.Record) {
	current, ok := n.latest[rec.Owner.ID]
	if !ok || rec.Timestamp.After(current.Timestamp) ||
		(rec.Timestamp.Equal(current.Timestamp) && rec.ID.String() < current.ID.String()) {
		n.latest[rec.Owner.ID] = rec
	}
}

func (n *nameIndex) name(playerID string) string {
	if rec, ok := n.latest[playerID]; ok && rec.Owner.Name != "" {
		return rec.Owner.Name
	}
	return playerID
}
