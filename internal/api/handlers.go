package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yourusername/gltp-records/internal/catalog"
	"github.com/yourusername/gltp-records/internal/leaderboard"
	"github.com/yourusername/gltp-records/internal/models"
	"github.com/yourusername/gltp-records/internal/service"
)

// LeaderboardsResponse is the body of GET /leaderboards
type LeaderboardsResponse struct {
	Leaderboards []leaderboard.Leaderboard `json:"leaderboards"`
	RefreshedAt  time.Time                 `json:"refreshed_at"`
}

// RecordsResponse is the body of GET /maps/best and GET /maps/records
type RecordsResponse struct {
	MapID   string          `json:"map_id,omitempty"`
	Scope   string          `json:"scope,omitempty"`
	Records []models.Record `json:"records"`
}

// MapsResponse is the body of GET /maps
type MapsResponse struct {
	Maps []catalog.MapInfo `json:"maps"`
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	Refresh     service.RefreshStats            `json:"refresh"`
	Diagnostics *leaderboard.Diagnostics        `json:"diagnostics,omitempty"`
	Changes     []leaderboard.WorldRecordChange `json:"recent_world_record_changes"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) current(w http.ResponseWriter) (*leaderboard.Result, bool) {
	res, err := s.provider.Current()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrNotReady) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return nil, false
	}
	return res, true
}

// handleLeaderboards serves all four leaderboards, or one with ?kind=. ?limit= keeps the top N entries.
func (s *Server) handleLeaderboards(w http.ResponseWriter, r *http.Request) {
	limit, err := positiveInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var kind leaderboard.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, ok := leaderboard.ParseKind(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown leaderboard kind %q", raw))
			return
		}
		kind = parsed
	}

	res, ok := s.current(w)
	if !ok {
		return
	}

	boards := make([]leaderboard.Leaderboard, 0, 4)
	for _, lb := range res.Leaderboards() {
		if kind != "" && lb.Kind != kind {
			continue
		}
		boards = append(boards, leaderboard.Leaderboard{Kind: lb.Kind, Entries: lb.Top(limit)})
	}

	writeJSON(w, http.StatusOK, LeaderboardsResponse{
		Leaderboards: boards,
		RefreshedAt:  s.provider.Stats().CompletedAt,
	})
}

// handleMaps lists the map catalog
func (s *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	maps := s.provider.Catalog().Maps()
	if maps == nil {
		maps = []catalog.MapInfo{}
	}
	writeJSON(w, http.StatusOK, MapsResponse{Maps: maps})
}

// handleBest serves the best record of every map, most recent first.
// ?scope= restricts to one world record scope and ?map_id= to one map.
func (s *Server) handleBest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var scope leaderboard.Scope
	if raw := q.Get("scope"); raw != "" {
		parsed, ok := leaderboard.ParseScope(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown scope %q", raw))
			return
		}
		scope = parsed
	}

	res, ok := s.current(w)
	if !ok {
		return
	}

	best := res.RecentBest()
	if scope != "" {
		best = res.RecentBestIn(scope)
	}

	mapID := s.resolveMapID(q.Get("map_id"))
	if mapID != "" {
		filtered := make([]models.Record, 0, 1)
		for _, rec := range best {
			if rec.MapID == mapID {
				filtered = append(filtered, rec)
			}
		}
		if len(filtered) == 0 {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no records for map %s", mapID))
			return
		}
		best = filtered
	}

	writeJSON(w, http.StatusOK, RecordsResponse{MapID: mapID, Scope: string(scope), Records: best})
}

// handleRecords serves every record of one map, best first
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	mapID := r.URL.Query().Get("map_id")
	if mapID == "" {
		writeError(w, http.StatusBadRequest, "map_id is required")
		return
	}

	res, ok := s.current(w)
	if !ok {
		return
	}

	mapID = s.resolveMapID(mapID)
	records, found := res.RecordsByMap[mapID]
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no records for map %s", mapID))
		return
	}

	writeJSON(w, http.StatusOK, RecordsResponse{MapID: mapID, Records: records})
}

// handleStats filters records by capping player and map, optionally keeping the top K per map
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	topK, err := positiveInt(r, "topk")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, ok := s.current(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	writeJSON(w, http.StatusOK, res.Stats(leaderboard.StatsQuery{
		CappingPlayerUserID: q.Get("capping_player_user_id"),
		MapID:               s.resolveMapID(q.Get("map_id")),
		TopK:                topK,
	}))
}

// resolveMapID maps a pseudo map id to its canonical catalog id. Ids the catalog
// does not know are returned unchanged.
func (s *Server) resolveMapID(mapID string) string {
	if mapID == "" {
		return ""
	}
	if resolved, known := s.provider.Catalog().Resolve(mapID); known {
		return resolved
	}
	return mapID
}

// handleStatus reports the last refresh and recent world record changes
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Refresh: s.provider.Stats(),
		Changes: s.provider.RecentChanges(),
	}
	if res, err := s.provider.Current(); err == nil {
		diag := res.Diagnostics
		resp.Diagnostics = &diag
	}
	writeJSON(w, http.StatusOK, resp)
}

// positiveInt reads an optional query parameter that must be an integer >= 1. Absent yields 0.
func positiveInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be an integer >= 1", name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
