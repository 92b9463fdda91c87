package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// presetDigits is the base-52 alphabet used by group preset strings.
const presetDigits = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// encodePresetNumber renders n in the preset alphabet; 0 encodes as "a".
func encodePresetNumber(n uint64) string {
	if n == 0 {
		return presetDigits[:1]
	}
	base := uint64(len(presetDigits))
	var buf []byte
	for n > 0 {
		buf = append([]byte{presetDigits[n%base]}, buf...)
		n /= base
	}
	return string(buf)
}

// InjectMapID rewrites the map segment of a group preset so it points at mapID.
// The segment starts at the first 'M', followed by a length digit and that many
// characters. A preset without a map segment is returned unchanged.
func InjectMapID(preset, mapID string) (string, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(mapID), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid map id %q: %w", mapID, err)
	}

	pos := strings.IndexByte(preset, 'M')
	if pos == -1 {
		return preset, nil
	}
	if pos+1 >= len(preset) {
		return "", fmt.Errorf("preset map segment truncated at %d", pos)
	}
	oldLen := strings.IndexByte(presetDigits, preset[pos+1])
	if oldLen == -1 {
		return "", fmt.Errorf("preset map segment has invalid length digit %q", preset[pos+1])
	}

	inner := "f" + encodePresetNumber(n)
	if len(inner) >= len(presetDigits) {
		return "", fmt.Errorf("map id %s too large for preset", mapID)
	}
	injected := "M" + string(presetDigits[len(inner)]) + inner

	end := pos + 2 + oldLen
	if end > len(preset) {
		end = len(preset)
	}
	return preset[:pos] + injected + preset[end:], nil
}

// PresetMatches reports whether the preset already embeds mapID.
func PresetMatches(preset, mapID string) bool {
	injected, err := InjectMapID(preset, mapID)
	return err == nil && injected == preset
}
