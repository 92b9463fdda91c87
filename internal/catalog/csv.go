package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Spreadsheet export headers. Several contain embedded line breaks.
const (
	colName          = "Map / Player"
	colPreset        = "Group Preset"
	colDifficulty    = "Final Rating"
	colFun           = "Final Fun \nRating"
	colCategory      = "Category"
	colMapID         = "Map ID"
	colEquivalentIDs = "Pseudo \nMap ID"
	colCapsToWin     = "Num\nof caps"
	colAllowBlueCaps = "Allow Blue Caps"
	colBallsReq      = "Min\nBalls \nRec"
	colMaxBallsRec   = "Max\nBalls\nRec"
)

var requiredColumns = []string{colName, colPreset, colMapID}

// ErrMissingColumn is returned when the export lacks a required header
var ErrMissingColumn = errors.New("catalog: missing column")

// ParseResult is the outcome of reading a spreadsheet export.
type ParseResult struct {
	Maps    []MapInfo
	Illegal []MapInfo
}

// ParseCSV reads the map spreadsheet export. Rows without a group preset are
// ignored. Maps without an id, or whose preset does not embed their id, are
// illegal; every row sharing an illegal map's id is excluded from Maps.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &ParseResult{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}

	var all []MapInfo
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog row: %w", err)
		}

		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		if strings.TrimSpace(field(colPreset)) == "" {
			continue
		}

		all = append(all, MapInfo{
			Name:             field(colName),
			Preset:           field(colPreset),
			Difficulty:       parseDecimal(field(colDifficulty)),
			Fun:              parseDecimal(field(colFun)),
			Category:         field(colCategory),
			MapID:            strings.TrimSpace(field(colMapID)),
			EquivalentMapIDs: splitIDs(field(colEquivalentIDs)),
			CapsToWin:        parseInt(field(colCapsToWin)),
			AllowBlueCaps:    strings.TrimSpace(field(colAllowBlueCaps)) == "TRUE",
			BallsReq:         parseInt(field(colBallsReq)),
			MaxBallsRec:      parseInt(field(colMaxBallsRec)),
		})
	}

	res := &ParseResult{}
	illegalIDs := make(map[string]bool)
	for _, m := range all {
		if m.MapID == "" || !PresetMatches(m.Preset, m.MapID) {
			res.Illegal = append(res.Illegal, m)
			illegalIDs[m.MapID] = true
		}
	}
	for _, m := range all {
		if !illegalIDs[m.MapID] {
			res.Maps = append(res.Maps, m)
		}
	}

	return res, nil
}

func splitIDs(s string) []string {
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
