package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/wordduel/internal/api/apierr"
	"github.com/mcoot/wordduel/internal/api/request"
	"github.com/mcoot/wordduel/internal/api/response"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/duel"
)

// SnapshotSource provides read-only views of the duel state
type SnapshotSource interface {
	Snapshot(ctx context.Context, limit int) (*duel.Snapshot, error)
}

// StatusHandler serves the read-only admin endpoints
type StatusHandler struct {
	source SnapshotSource
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(source SnapshotSource) *StatusHandler {
	return &StatusHandler{source: source}
}

// Status handles GET /status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Snapshot(r.Context(), 0)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.StatusFromSnapshot(snap))
}

// ListPlayers handles GET /players
func (h *StatusHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Snapshot(r.Context(), 0)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	players := make([]response.Player, 0, len(snap.Players))
	for _, p := range snap.Players {
		players = append(players, response.PlayerFromModel(p))
	}
	response.JSON(w, http.StatusOK, response.PlayersResponse{Players: players})
}

// GetPlayer handles GET /players/{id}
func (h *StatusHandler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	snap, err := h.source.Snapshot(r.Context(), 0)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	for _, p := range snap.Players {
		if p.ID == id {
			response.JSON(w, http.StatusOK, response.PlayerFromModel(p))
			return
		}
	}
	apierr.WriteError(w, model.ErrPlayerNotFound)
}

// ListMatches handles GET /matches
func (h *StatusHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	snap, err := h.source.Snapshot(r.Context(), 0)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	matches := make([]response.Match, 0, len(snap.Matches))
	for _, m := range snap.Matches {
		matches = append(matches, response.MatchFromModel(m))
	}
	response.JSON(w, http.StatusOK, response.MatchesResponse{Matches: matches})
}

// GetMatch handles GET /matches/{guesser_id}
func (h *StatusHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	guesserID := model.PlayerID(mux.Vars(r)["guesser_id"])

	snap, err := h.source.Snapshot(r.Context(), 0)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	for _, m := range snap.Matches {
		if m.GuesserID == guesserID {
			response.JSON(w, http.StatusOK, response.MatchFromModel(m))
			return
		}
	}
	apierr.WriteError(w, model.ErrMatchNotFound)
}

// ListResults handles GET /results?limit=N
func (h *StatusHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	limit, err := request.Limit(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	snap, err := h.source.Snapshot(r.Context(), limit)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	results := make([]response.Result, 0, len(snap.Results))
	for _, res := range snap.Results {
		results = append(results, response.ResultFromModel(res))
	}
	response.JSON(w, http.StatusOK, response.ResultsResponse{Results: results})
}
