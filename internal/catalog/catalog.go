// Package catalog holds the list of legal gravity maps and resolves the
// equivalent ("pseudo") map ids that point at the same map.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// MapInfo describes one catalog map
type MapInfo struct {
	Name             string          `json:"name"`
	Preset           string          `json:"preset"`
	Difficulty       decimal.Decimal `json:"difficulty"`
	Fun              decimal.Decimal `json:"fun"`
	Category         string          `json:"category"`
	MapID            string          `json:"map_id"`
	EquivalentMapIDs []string        `json:"equivalent_map_ids"`
	CapsToWin        int             `json:"caps_to_win"`
	AllowBlueCaps    bool            `json:"allow_blue_caps"`
	BallsReq         int             `json:"balls_req"`
	MaxBallsRec      int             `json:"max_balls_rec"`
}

// Catalog is an immutable index over a set of maps.
type Catalog struct {
	maps    []MapInfo
	byID    map[string]int
	aliases map[string]string
}

// New indexes maps. Later duplicates of a map id are ignored, and an
// equivalent id never shadows a canonical one.
func New(maps []MapInfo) *Catalog {
	c := &Catalog{
		maps:    make([]MapInfo, 0, len(maps)),
		byID:    make(map[string]int, len(maps)),
		aliases: make(map[string]string),
	}

	for _, m := range maps {
		id := strings.TrimSpace(m.MapID)
		if id == "" {
			continue
		}
		if _, exists := c.byID[id]; exists {
			continue
		}
		m.MapID = id
		c.byID[id] = len(c.maps)
		c.maps = append(c.maps, m)
	}

	for _, m := range c.maps {
		for _, alias := range m.EquivalentMapIDs {
			alias = strings.TrimSpace(alias)
			if alias == "" || alias == m.MapID {
				continue
			}
			if _, canonical := c.byID[alias]; canonical {
				continue
			}
			if _, taken := c.aliases[alias]; !taken {
				c.aliases[alias] = m.MapID
			}
		}
	}

	return c
}

// Resolve maps a canonical or equivalent map id to its canonical id.
func (c *Catalog) Resolve(mapID string) (string, bool) {
	if c == nil {
		return mapID, false
	}
	mapID = strings.TrimSpace(mapID)
	if _, ok := c.byID[mapID]; ok {
		return mapID, true
	}
	if canonical, ok := c.aliases[mapID]; ok {
		return canonical, true
	}
	return mapID, false
}

// Known reports whether mapID resolves to a catalog map.
func (c *Catalog) Known(mapID string) bool {
	_, ok := c.Resolve(mapID)
	return ok
}

// Get returns the map a canonical or equivalent id resolves to.
func (c *Catalog) Get(mapID string) (MapInfo, bool) {
	canonical, ok := c.Resolve(mapID)
	if !ok {
		return MapInfo{}, false
	}
	return c.maps[c.byID[canonical]], true
}

// Maps returns the catalog maps ordered by map id.
func (c *Catalog) Maps() []MapInfo {
	if c == nil {
		return nil
	}
	out := make([]MapInfo, len(c.maps))
	copy(out, c.maps)
	sort.Slice(out, func(i, j int) bool {
		return out[i].MapID < out[j].MapID
	})
	return out
}

// Len returns the number of maps.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.maps)
}

// Revision identifies the id mapping of the catalog. Catalogs that accept and
// resolve the same ids share a revision; an empty or nil catalog has none.
func (c *Catalog) Revision() string {
	if c.Len() == 0 {
		return ""
	}

	h := sha256.New()
	for _, m := range c.Maps() {
		h.Write([]byte(m.MapID))
		h.Write([]byte{0})
	}
	aliases := make([]string, 0, len(c.aliases))
	for alias := range c.aliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		h.Write([]byte(alias + "=" + c.aliases[alias]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
