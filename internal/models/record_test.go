package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMillisToDuration(t *testing.T) {
	tests := []struct {
		ms   string
		want time.Duration
		ok   bool
	}{
		{"1500", 1500 * time.Millisecond, true},
		{"0.5", 500 * time.Microsecond, true},
		{"1000.2", 1000200 * time.Microsecond, true},
		{"0.0000004", 0, true},
		{"0.0000006", time.Nanosecond, true},
		{"9223372036854.775807", time.Duration(1<<63 - 1), true},
		{"9223372036855", 0, false},
		{"18446744073709552", 0, false},
		{"-9223372036855", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.ms, func(t *testing.T) {
			got, ok := MillisToDuration(decimal.RequireFromString(tt.ms))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationMillisIsExact(t *testing.T) {
	assert.Equal(t, "1000.2", DurationMillis(1000200*time.Microsecond).String())
	assert.Equal(t, "0.5", DurationMillis(500*time.Microsecond).String())
	assert.Equal(t, "0.000001", DurationMillis(time.Nanosecond).String())
	assert.Equal(t, "61250", DurationMillis(61250*time.Millisecond).String())
}

func TestMillisToTimeRejectsOutOfRange(t *testing.T) {
	got, ok := MillisToTime(decimal.RequireFromString("1700000000123"))
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 123000000).UTC(), got)

	_, ok = MillisToTime(decimal.RequireFromString("99999999999999999999"))
	assert.False(t, ok)
}

func TestRecordJSONKeepsFractionalMillis(t *testing.T) {
	rec := Record{
		ID:        uuid.MustParse("00000000-0000-4000-8000-000000000001"),
		MapID:     "7",
		Owner:     Player{ID: "u-ra", Name: "Ra"},
		Time:      1000200 * time.Microsecond,
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Mode:      ModeSolo,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "1000.2", string(wire["time_ms"]))

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec.Time, decoded.Time)
	assert.True(t, rec.Timestamp.Equal(decoded.Timestamp))
	assert.Equal(t, rec.Mode, decoded.Mode)
}

func TestRecordJSONRejectsOutOfRangeTime(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"id": "00000000-0000-4000-8000-000000000001", "map_id": "1", "time_ms": 18446744073709552}`), &rec)
	assert.Error(t, err)
}

func TestRawRecordKeepsSubMillisecondTime(t *testing.T) {
	raw := Record{Time: 500 * time.Microsecond, Timestamp: time.Unix(1, 0).UTC()}.ToRaw()
	assert.JSONEq(t, "0.5", string(raw.RecordTime))
}
