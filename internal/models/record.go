package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Player identifies a participant. ID is the account id, or a name-derived key for guests.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GuestPlayerID builds the player key used when a participant has no account id.
func GuestPlayerID(name string) string {
	return "name:" + strings.TrimSpace(name)
}

// Record represents one completion of one map, credited to the capping player
type Record struct {
	ID           uuid.UUID     `db:"id"`
	MapID        string        `db:"map_id"`
	MapName      string        `db:"map_name"`
	Owner        Player        `db:"-"`
	Participants []Player      `db:"participants"`
	Time         time.Duration `db:"time_ns"`
	Timestamp    time.Time     `db:"completed_at"`
	Mode         Mode          `db:"mode"`
	Quote        string        `db:"quote"`
}

// recordJSON is the wire form of Record; durations travel as exact, possibly fractional, milliseconds.
type recordJSON struct {
	ID           uuid.UUID   `json:"id"`
	MapID        string      `json:"map_id"`
	MapName      string      `json:"map_name,omitempty"`
	Owner        Player      `json:"owner"`
	Participants []Player    `json:"participants,omitempty"`
	TimeMillis   json.Number `json:"time_ms"`
	Timestamp    time.Time   `json:"timestamp"`
	Mode         Mode        `json:"mode"`
	Quote        string      `json:"quote,omitempty"`
}

// MarshalJSON encodes the record with its time in milliseconds.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		ID:           r.ID,
		MapID:        r.MapID,
		MapName:      r.MapName,
		Owner:        r.Owner,
		Participants: r.Participants,
		TimeMillis:   json.Number(DurationMillis(r.Time).String()),
		Timestamp:    r.Timestamp,
		Mode:         r.Mode,
		Quote:        r.Quote,
	})
}

// UnmarshalJSON decodes the form produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var elapsed time.Duration
	if w.TimeMillis != "" {
		ms, err := decimal.NewFromString(w.TimeMillis.String())
		if err != nil {
			return fmt.Errorf("invalid time_ms %q: %w", w.TimeMillis, err)
		}
		var ok bool
		if elapsed, ok = MillisToDuration(ms); !ok {
			return fmt.Errorf("time_ms %s out of range", w.TimeMillis)
		}
	}
	*r = Record{
		ID:           w.ID,
		MapID:        w.MapID,
		MapName:      w.MapName,
		Owner:        w.Owner,
		Participants: w.Participants,
		Time:         elapsed,
		Timestamp:    w.Timestamp,
		Mode:         w.Mode,
		Quote:        w.Quote,
	}
	return nil
}

// Validate checks the record invariants
func (r *Record) Validate() error {
	if strings.TrimSpace(r.MapID) == "" {
		return NewValidationError(CodeMissingMapID, "map_id is required")
	}
	if r.Time <= 0 {
		return NewValidationError(CodeNonPositiveTime, fmt.Sprintf("time must be positive, got %v", r.Time))
	}
	if r.Timestamp.IsZero() {
		return NewValidationError(CodeInvalidTimestamp, "timestamp is required")
	}
	if strings.TrimSpace(r.Owner.ID) == "" {
		return NewValidationError(CodeMissingPlayer, "owner player id is required")
	}
	if !r.Mode.Valid() {
		return NewValidationError(CodeAmbiguousMode, fmt.Sprintf("unknown mode %d", int(r.Mode)))
	}
	return nil
}

// IsSolo reports whether the record was completed without teammates.
func (r *Record) IsSolo() bool {
	return r.Mode == ModeSolo
}

// RecordLess orders records from best to worst: lower time, then earlier timestamp,
// then owner id, then record id. The record id only separates exact duplicates.
func RecordLess(a, b Record) bool {
	if a.Time != b.Time {
		return a.Time < b.Time
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if a.Owner.ID != b.Owner.ID {
		return a.Owner.ID < b.Owner.ID
	}
	return a.ID.String() < b.ID.String()
}
