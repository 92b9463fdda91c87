package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/gltp-records/internal/catalog"
	"github.com/yourusername/gltp-records/internal/datasource"
	"github.com/yourusername/gltp-records/internal/leaderboard"
	"github.com/yourusername/gltp-records/internal/models"
)

// recordNamespace seeds the ids derived for entries that carry no replay uuid.
var recordNamespace = uuid.MustParse("6f1c8a52-3d0e-4b7a-9a57-0d3f1b2c4e60")

// NormalizeResult holds the records produced from a document and the entries that were dropped.
// Positions[i] is the document position of Records[i]; Rejected indexes use the same positions.
type NormalizeResult struct {
	Records   []models.Record
	Positions []int
	Rejected  []leaderboard.SkippedRecord
}

// RecordNormalizer turns wire records into Records, resolving map ids through the catalog.
// Values that parse but break a record invariant (zero time, missing timestamp, unknown map)
// are passed through and skipped by the aggregator.
type RecordNormalizer struct {
	catalog  *catalog.Catalog
	validate *validator.Validate
}

// NewRecordNormalizer creates a normalizer. cat may be nil.
func NewRecordNormalizer(cat *catalog.Catalog) *RecordNormalizer {
	return &RecordNormalizer{
		catalog:  cat,
		validate: validator.New(),
	}
}

// NormalizeDocument normalizes every entry of a decoded document. Entries the
// decoder already rejected and normalization failures are reported together in
// document order.
func (n *RecordNormalizer) NormalizeDocument(doc *datasource.Document) *NormalizeResult {
	res := &NormalizeResult{
		Records:   make([]models.Record, 0, len(doc.Records)),
		Positions: make([]int, 0, len(doc.Records)),
	}

	for _, entry := range doc.Rejected {
		res.Rejected = append(res.Rejected, leaderboard.SkippedRecord{
			Index:    entry.Index,
			RecordID: entry.Key,
			Code:     models.CodeRecordFieldsEmpty,
			Reason:   fmt.Sprintf("undecodable entry: %v", entry.Err),
		})
	}

	for _, raw := range doc.Records {
		rec, err := n.Normalize(raw)
		if err != nil {
			res.Rejected = append(res.Rejected, leaderboard.SkippedRecord{
				Index:    raw.Position,
				RecordID: raw.UUID,
				MapID:    raw.MapID.String(),
				Code:     errorCode(err),
				Reason:   err.Error(),
			})
			continue
		}
		res.Records = append(res.Records, rec)
		res.Positions = append(res.Positions, raw.Position)
	}

	sort.SliceStable(res.Rejected, func(i, j int) bool {
		return res.Rejected[i].Index < res.Rejected[j].Index
	})
	return res
}

// Normalize converts one wire record
func (n *RecordNormalizer) Normalize(raw models.RawRecord) (models.Record, error) {
	if err := n.validate.Struct(raw); err != nil {
		return models.Record{}, validationFailure(err)
	}

	id, err := recordID(raw)
	if err != nil {
		return models.Record{}, err
	}

	mode, err := models.ResolveMode(raw.Mode, raw.IsSolo, raw.IsCapping)
	if err != nil {
		return models.Record{}, err
	}

	elapsed, err := parseRecordTime(raw.RecordTime)
	if err != nil {
		return models.Record{}, err
	}

	completedAt, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return models.Record{}, err
	}

	owner, err := cappingPlayer(raw)
	if err != nil {
		return models.Record{}, err
	}

	mapID, mapName := n.resolveMap(raw)

	rec := models.Record{
		ID:           id,
		MapID:        mapID,
		MapName:      mapName,
		Owner:        owner,
		Participants: participants(raw.Players),
		Time:         elapsed,
		Timestamp:    completedAt,
		Mode:         mode,
	}
	if raw.CappingPlayerQuote != nil {
		rec.Quote = *raw.CappingPlayerQuote
	}
	return rec, nil
}

// resolveMap picks the canonical map id. The effective map id is tried first,
// then the id the replay was actually played on.
func (n *RecordNormalizer) resolveMap(raw models.RawRecord) (string, string) {
	mapID := strings.TrimSpace(raw.MapID.String())
	actual := strings.TrimSpace(raw.ActualMapID.String())

	name := raw.MapName
	for _, candidate := range []string{mapID, actual} {
		if candidate == "" {
			continue
		}
		if info, ok := n.catalog.Get(candidate); ok {
			if name == "" {
				name = info.Name
			}
			return info.MapID, name
		}
	}
	return mapID, name
}

func recordID(raw models.RawRecord) (uuid.UUID, error) {
	if raw.UUID != "" {
		id, err := uuid.Parse(raw.UUID)
		if err != nil {
			return uuid.Nil, models.NewValidationError(models.CodeInvalidRecordID, fmt.Sprintf("invalid uuid %q", raw.UUID))
		}
		return id, nil
	}

	// entries without a replay uuid get a stable id derived from their content
	payload, err := json.Marshal(raw)
	if err != nil {
		return uuid.Nil, models.NewValidationError(models.CodeInvalidRecordID, err.Error())
	}
	return uuid.NewSHA1(recordNamespace, payload), nil
}

// parseRecordTime reads a duration in milliseconds, given as a JSON number or a numeric string.
func parseRecordTime(data json.RawMessage) (time.Duration, error) {
	s, ok := scalar(data)
	if !ok {
		return 0, models.NewValidationError(models.CodeInvalidTime, "record_time is missing")
	}

	ms, err := decimal.NewFromString(s)
	if err != nil {
		return 0, models.NewValidationError(models.CodeInvalidTime, fmt.Sprintf("record_time %q is not a number", s))
	}
	elapsed, ok := models.MillisToDuration(ms)
	if !ok {
		return 0, models.NewValidationError(models.CodeInvalidTime, fmt.Sprintf("record_time %s is out of range", s))
	}
	return elapsed, nil
}

// Timestamps are kept at microsecond precision, the resolution of the records table,
// and must be representable as Unix nanoseconds.
var (
	earliestTimestamp = time.Unix(0, math.MinInt64).UTC()
	latestTimestamp   = time.Unix(0, math.MaxInt64).UTC()
)

// parseTimestamp reads epoch milliseconds or an RFC 3339 string. A missing
// timestamp yields the zero time.
func parseTimestamp(data json.RawMessage) (time.Time, error) {
	s, ok := scalar(data)
	if !ok {
		return time.Time{}, nil
	}

	if ms, err := decimal.NewFromString(s); err == nil {
		t, ok := models.MillisToTime(ms)
		if !ok {
			return time.Time{}, models.NewValidationError(models.CodeInvalidTimestamp, fmt.Sprintf("timestamp %s is out of range", s))
		}
		return t.Truncate(time.Microsecond), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, models.NewValidationError(models.CodeInvalidTimestamp, fmt.Sprintf("timestamp %q is not epoch milliseconds or RFC 3339", s))
	}
	if t.Before(earliestTimestamp) || t.After(latestTimestamp) {
		return time.Time{}, models.NewValidationError(models.CodeInvalidTimestamp, fmt.Sprintf("timestamp %s is out of range", s))
	}
	return t.UTC().Truncate(time.Microsecond), nil
}

// scalar unquotes a JSON string or returns a number's literal. null and absent values report false.
func scalar(data json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return string(trimmed), true
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	return string(trimmed), true
}

func cappingPlayer(raw models.RawRecord) (models.Player, error) {
	name := strings.TrimSpace(raw.CappingPlayer)

	if raw.CappingPlayerUserID != nil && strings.TrimSpace(*raw.CappingPlayerUserID) != "" {
		id := strings.TrimSpace(*raw.CappingPlayerUserID)
		if name == "" {
			name = participantName(raw.Players, id)
		}
		return models.Player{ID: id, Name: name}, nil
	}

	if name == "" {
		return models.Player{}, models.NewValidationError(models.CodeMissingPlayer, "record has no capping player")
	}
	return models.Player{ID: models.GuestPlayerID(name), Name: name}, nil
}

func participantName(players []models.RawPlayer, userID string) string {
	for _, p := range players {
		if p.UserID != nil && *p.UserID == userID {
			return p.Name
		}
	}
	return ""
}

func participants(players []models.RawPlayer) []models.Player {
	if len(players) == 0 {
		return nil
	}
	out := make([]models.Player, 0, len(players))
	for _, p := range players {
		name := strings.TrimSpace(p.Name)
		id := models.GuestPlayerID(name)
		if p.UserID != nil && *p.UserID != "" {
			id = *p.UserID
		}
		out = append(out, models.Player{ID: id, Name: name})
	}
	return out
}

// validationFailure maps struct tag failures onto record error codes
func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.NewValidationError(models.CodeRecordFieldsEmpty, err.Error())
	}

	fe := verrs[0]
	code := models.CodeRecordFieldsEmpty
	switch fe.StructField() {
	case "MapID":
		code = models.CodeMissingMapID
	case "UUID":
		code = models.CodeInvalidRecordID
	case "Mode":
		code = models.CodeAmbiguousMode
	case "Name":
		code = models.CodeMissingPlayer
	}
	return models.NewValidationError(code, fmt.Sprintf("field %s failed %q validation", fe.Namespace(), fe.Tag()))
}

func errorCode(err error) string {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return verr.Code
	}
	return "invalid"
}
