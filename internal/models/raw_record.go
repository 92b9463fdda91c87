package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RawRecord is one entry of the replay stats document, as published by the recorder.
// Fields are kept loose here; service.RecordNormalizer turns them into a Record.
type RawRecord struct {
	UUID                string          `json:"uuid" validate:"omitempty,uuid"`
	MapID               FlexString      `json:"map_id" validate:"required"`
	ActualMapID         FlexString      `json:"actual_map_id,omitempty"`
	MapName             string          `json:"map_name,omitempty"`
	MapAuthor           string          `json:"map_author,omitempty"`
	Players             []RawPlayer     `json:"players,omitempty" validate:"dive"`
	CappingPlayer       string          `json:"capping_player,omitempty"`
	CappingPlayerUserID *string         `json:"capping_player_user_id,omitempty"`
	RecordTime          json.RawMessage `json:"record_time,omitempty"`
	Mode                string          `json:"mode,omitempty" validate:"omitempty,oneof=general team solo capping"`
	IsSolo              bool            `json:"is_solo"`
	IsCapping           bool            `json:"is_capping,omitempty"`
	Timestamp           json.RawMessage `json:"timestamp,omitempty"`
	CapsToWin           json.RawMessage `json:"caps_to_win,omitempty"`
	CappingPlayerQuote  *string         `json:"capping_player_quote,omitempty"`

	// Position is the entry's place in its document, in decode order
	Position int `json:"-"`
}

// RawPlayer is a participant entry of a RawRecord
type RawPlayer struct {
	Name   string  `json:"name" validate:"required"`
	UserID *string `json:"user_id"`
	IsRed  bool    `json:"is_red"`
}

// FlexString accepts either a JSON string or a JSON number.
// Map ids come from a spreadsheet and are sometimes emitted unquoted.
type FlexString string

// UnmarshalJSON decodes a string, number or null.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(trimmed))
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// ToRaw converts a normalized record back into its wire shape.
// Stored records go through the same normalization path as freshly fetched ones.
func (r Record) ToRaw() RawRecord {
	players := make([]RawPlayer, 0, len(r.Participants))
	for _, p := range r.Participants {
		players = append(players, RawPlayer{Name: p.Name, UserID: accountID(p.ID)})
	}

	raw := RawRecord{
		UUID:                r.ID.String(),
		MapID:               FlexString(r.MapID),
		MapName:             r.MapName,
		Players:             players,
		CappingPlayer:       r.Owner.Name,
		CappingPlayerUserID: accountID(r.Owner.ID),
		RecordTime:          json.RawMessage(DurationMillis(r.Time).String()),
		Mode:                r.Mode.String(),
		IsSolo:              r.Mode == ModeSolo,
		IsCapping:           r.Mode == ModeCapping,
		Timestamp:           json.RawMessage(fmt.Sprintf("%q", r.Timestamp.UTC().Format(time.RFC3339Nano))),
	}
	if r.Quote != "" {
		quote := r.Quote
		raw.CappingPlayerQuote = &quote
	}
	return raw
}

// accountID returns nil for guest keys so they round-trip through the name fallback.
func accountID(id string) *string {
	if id == "" || strings.HasPrefix(id, "name:") {
		return nil
	}
	return &id
}
