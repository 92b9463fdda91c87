package catalog

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjectMapID(t *testing.T) {
	tests := []struct {
		name    string
		preset  string
		mapID   string
		want    string
		wantErr bool
	}{
		{name: "rewrites segment", preset: "gAbMcfaZZ", mapID: "1234", want: "gAbMdfxMZZ"},
		{name: "already embedded", preset: "gAbMdfxMzz", mapID: "1234", want: "gAbMdfxMzz"},
		{name: "zero id", preset: "Mcfa", mapID: "0", want: "Mcfa"},
		{name: "no map segment", preset: "abcdef", mapID: "12", want: "abcdef"},
		{name: "non numeric id", preset: "Mcfa", mapID: "abc", wantErr: true},
		{name: "truncated segment", preset: "xyzM", mapID: "5", wantErr: true},
		{name: "invalid length digit", preset: "M9fa", mapID: "5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InjectMapID(tt.preset, tt.mapID)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPresetMatches(t *testing.T) {
	assert.True(t, PresetMatches("gAbMdfxMzz", "1234"))
	assert.False(t, PresetMatches("gAbMdfxMzz", "1235"))
	assert.False(t, PresetMatches("M9fa", "5"))
}

func TestEncodePresetNumber(t *testing.T) {
	assert.Equal(t, "a", encodePresetNumber(0))
	assert.Equal(t, "Z", encodePresetNumber(51))
	assert.Equal(t, "ba", encodePresetNumber(52))
	assert.Equal(t, "xM", encodePresetNumber(1234))
}

func buildCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		colName, colPreset, colDifficulty, colFun, colCategory, colMapID,
		colEquivalentIDs, colCapsToWin, colAllowBlueCaps, colBallsReq, colMaxBallsRec,
	}
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
	return buf.String()
}

func TestParseCSV(t *testing.T) {
	data := buildCSV(t, [][]string{
		{"Launch Pad", "gAbMdfxMzz", "3.5", "4", "Easy", "1234", "99, 100", "1", "TRUE", "2", "4"},
		{"No Preset", "", "1", "1", "Easy", "55", "", "1", "FALSE", "1", "1"},
		{"Wrong Preset", "gAbMcfaZZ", "2", "2", "Hard", "777", "", "1", "FALSE", "1", "1"},
		{"Missing Id", "Mcfa", "2", "2", "Hard", "", "", "1", "FALSE", "1", "1"},
		{"Zero", "Mcfa", "", "x", "Misc", "0", "", "", "false", "", ""},
	})

	res, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)

	require.Len(t, res.Maps, 2)
	launch := res.Maps[0]
	assert.Equal(t, "Launch Pad", launch.Name)
	assert.Equal(t, "1234", launch.MapID)
	assert.True(t, launch.Difficulty.Equal(decimal.RequireFromString("3.5")))
	assert.True(t, launch.Fun.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, []string{"99", "100"}, launch.EquivalentMapIDs)
	assert.True(t, launch.AllowBlueCaps)
	assert.Equal(t, 1, launch.CapsToWin)
	assert.Equal(t, 2, launch.BallsReq)
	assert.Equal(t, 4, launch.MaxBallsRec)

	zero := res.Maps[1]
	assert.Equal(t, "0", zero.MapID)
	assert.False(t, zero.AllowBlueCaps)
	assert.True(t, zero.Difficulty.IsZero())
	assert.Empty(t, zero.EquivalentMapIDs)

	require.Len(t, res.Illegal, 2)
	assert.Equal(t, "Wrong Preset", res.Illegal[0].Name)
	assert.Equal(t, "Missing Id", res.Illegal[1].Name)
}

func TestParseCSVDropsEveryRowSharingAnIllegalID(t *testing.T) {
	data := buildCSV(t, [][]string{
		{"Good", "gAbMdfxMzz", "", "", "", "1234", "", "", "", "", ""},
		{"Bad Copy", "gAbMcfaZZ", "", "", "", "1234", "", "", "", "", ""},
	})

	res, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)

	assert.Empty(t, res.Maps)
	assert.Len(t, res.Illegal, 1)
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Map / Player,Category\nA,B\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseCSVEmpty(t *testing.T) {
	res, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, res.Maps)
}

func TestCatalogResolve(t *testing.T) {
	c := New([]MapInfo{
		{Name: "One", MapID: "1", EquivalentMapIDs: []string{"10", "11", "2"}},
		{Name: "Two", MapID: "2"},
		{Name: "Other", MapID: "3", EquivalentMapIDs: []string{"10"}},
		{Name: "Dup", MapID: "1"},
		{Name: "Blank", MapID: " "},
	})

	assert.Equal(t, 3, c.Len())

	id, ok := c.Resolve("10")
	assert.True(t, ok)
	assert.Equal(t, "1", id)

	id, ok = c.Resolve("2")
	assert.True(t, ok)
	assert.Equal(t, "2", id)

	id, ok = c.Resolve("404")
	assert.False(t, ok)
	assert.Equal(t, "404", id)

	assert.True(t, c.Known("11"))
	assert.False(t, c.Known(""))

	info, ok := c.Get("11")
	require.True(t, ok)
	assert.Equal(t, "One", info.Name)

	maps := c.Maps()
	require.Len(t, maps, 3)
	assert.Equal(t, "1", maps[0].MapID)
	assert.Equal(t, "3", maps[2].MapID)
}

func TestCatalogRevision(t *testing.T) {
	a := New([]MapInfo{{MapID: "1", EquivalentMapIDs: []string{"9"}}, {MapID: "2"}})
	b := New([]MapInfo{{MapID: "2", Name: "renamed"}, {MapID: "1", EquivalentMapIDs: []string{"9"}}})
	c := New([]MapInfo{{MapID: "1"}, {MapID: "2"}})

	assert.NotEmpty(t, a.Revision())
	assert.Equal(t, a.Revision(), b.Revision())
	assert.NotEqual(t, a.Revision(), c.Revision())
	assert.Empty(t, New(nil).Revision())
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog

	assert.Empty(t, c.Revision())

	assert.False(t, c.Known("1"))
	assert.Zero(t, c.Len())
	assert.Nil(t, c.Maps())
}
