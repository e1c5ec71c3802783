package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/services/duel"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Player represents a connected player in API responses
type Player struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		ConnectedAt: p.ConnectedAt,
	}
}

// Match represents an active match. The secret word is never exposed.
type Match struct {
	SetterID      string    `json:"setter_id"`
	GuesserID     string    `json:"guesser_id"`
	WrongAttempts int       `json:"wrong_attempts"`
	TotalGuesses  int       `json:"total_guesses"`
	HintsGiven    int       `json:"hints_given"`
	StartedAt     time.Time `json:"started_at"`
}

// MatchFromModel converts a model.Match to a response Match
func MatchFromModel(m *model.Match) Match {
	return Match{
		SetterID:      string(m.SetterID),
		GuesserID:     string(m.GuesserID),
		WrongAttempts: m.WrongAttempts,
		TotalGuesses:  m.TotalGuesses,
		HintsGiven:    m.HintsGiven,
		StartedAt:     m.CreatedAt,
	}
}

// Result represents a concluded match
type Result struct {
	SetterID     string    `json:"setter_id"`
	GuesserID    string    `json:"guesser_id"`
	SecretWord   string    `json:"secret_word"`
	Outcome      string    `json:"outcome"`
	TotalGuesses int       `json:"total_guesses"`
	HintsGiven   int       `json:"hints_given"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
}

// ResultFromModel converts a model.MatchResult to a response Result
func ResultFromModel(r *model.MatchResult) Result {
	return Result{
		SetterID:     string(r.SetterID),
		GuesserID:    string(r.GuesserID),
		SecretWord:   r.SecretWord,
		Outcome:      string(r.Outcome),
		TotalGuesses: r.TotalGuesses,
		HintsGiven:   r.HintsGiven,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}
}

// Status summarises the server
type Status struct {
	Players     int            `json:"players"`
	Matches     int            `json:"matches"`
	Connections map[string]int `json:"connections"`
}

// StatusFromSnapshot counts what a snapshot holds
func StatusFromSnapshot(s *duel.Snapshot) Status {
	connections := make(map[string]int, len(s.Connections))
	for state, n := range s.Connections {
		connections[state.String()] = n
	}
	return Status{
		Players:     len(s.Players),
		Matches:     len(s.Matches),
		Connections: connections,
	}
}

// PlayersResponse lists connected players
type PlayersResponse struct {
	Players []Player `json:"players"`
}

// MatchesResponse lists active matches
type MatchesResponse struct {
	Matches []Match `json:"matches"`
}

// ResultsResponse lists concluded matches, newest first
type ResultsResponse struct {
	Results []Result `json:"results"`
}
