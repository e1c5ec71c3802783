package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Status:
		o.printStatus(v)
	case Player:
		o.printPlayer(v)
	case PlayersResponse:
		o.printPlayers(v)
	case Match:
		o.printMatch(v)
	case MatchesResponse:
		o.printMatches(v)
	case ResultsResponse:
		o.printResults(v)
	case HealthResult:
		o.printHealthResult(v)
	case HealthReport:
		o.printHealthReport(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Status response type (matches API)
type Status struct {
	Players     int            `json:"players"`
	Matches     int            `json:"matches"`
	Connections map[string]int `json:"connections"`
}

// Player response type
type Player struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// PlayersResponse response type
type PlayersResponse struct {
	Players []Player `json:"players"`
}

// Match response type
type Match struct {
	SetterID      string    `json:"setter_id"`
	GuesserID     string    `json:"guesser_id"`
	WrongAttempts int       `json:"wrong_attempts"`
	TotalGuesses  int       `json:"total_guesses"`
	HintsGiven    int       `json:"hints_given"`
	StartedAt     time.Time `json:"started_at"`
}

// MatchesResponse response type
type MatchesResponse struct {
	Matches []Match `json:"matches"`
}

// Result response type
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

// ResultsResponse response type
type ResultsResponse struct {
	Results []Result `json:"results"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// HealthReport combines the admin API and game listener checks
type HealthReport struct {
	AdminURL    string `json:"admin_url"`
	Admin       string `json:"admin"`
	GameAddress string `json:"game_address"`
	Game        string `json:"game"`
}

// Healthy reports whether both checks passed
func (h HealthReport) Healthy() bool {
	return h.Admin == "ok" && h.Game == "ok"
}

func (o *Output) printStatus(s Status) {
	fmt.Fprintf(o.w, "Players: %d\n", s.Players)
	fmt.Fprintf(o.w, "Matches: %d\n", s.Matches)
	if len(s.Connections) == 0 {
		return
	}

	states := make([]string, 0, len(s.Connections))
	for state := range s.Connections {
		states = append(states, state)
	}
	slices.Sort(states)

	fmt.Fprintln(o.w, "Connections:")
	for _, state := range states {
		fmt.Fprintf(o.w, "  %s: %d\n", state, s.Connections[state])
	}
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "Player: %s\n", p.ID)
	fmt.Fprintf(o.w, "Connected: %s\n", p.ConnectedAt.Format(time.RFC3339))
}

func (o *Output) printPlayers(r PlayersResponse) {
	if len(r.Players) == 0 {
		fmt.Fprintln(o.w, "No players connected")
		return
	}
	fmt.Fprintf(o.w, "Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		fmt.Fprintf(o.w, "  - %s (since %s)\n", p.ID, p.ConnectedAt.Format(time.RFC3339))
	}
}

func (o *Output) printMatch(m Match) {
	fmt.Fprintf(o.w, "Setter: %s\n", m.SetterID)
	fmt.Fprintf(o.w, "Guesser: %s\n", m.GuesserID)
	fmt.Fprintf(o.w, "Guesses: %d (%d wrong since last hint)\n", m.TotalGuesses, m.WrongAttempts)
	fmt.Fprintf(o.w, "Hints: %d\n", m.HintsGiven)
	fmt.Fprintf(o.w, "Started: %s\n", m.StartedAt.Format(time.RFC3339))
}

func (o *Output) printMatches(r MatchesResponse) {
	if len(r.Matches) == 0 {
		fmt.Fprintln(o.w, "No active matches")
		return
	}
	fmt.Fprintf(o.w, "Matches (%d):\n", len(r.Matches))
	for _, m := range r.Matches {
		fmt.Fprintf(o.w, "  - %s -> %s: %d guesses, %d hints\n", m.SetterID, m.GuesserID, m.TotalGuesses, m.HintsGiven)
	}
}

func (o *Output) printResults(r ResultsResponse) {
	if len(r.Results) == 0 {
		fmt.Fprintln(o.w, "No results yet")
		return
	}
	fmt.Fprintf(o.w, "Results (%d):\n", len(r.Results))
	for _, res := range r.Results {
		fmt.Fprintf(o.w, "  - %s -> %s: %q %s after %d guesses, %d hints\n",
			res.SetterID, res.GuesserID, res.SecretWord, res.Outcome, res.TotalGuesses, res.HintsGiven)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}

func (o *Output) printHealthReport(h HealthReport) {
	fmt.Fprintf(o.w, "Admin API (%s): %s\n", h.AdminURL, h.Admin)
	fmt.Fprintf(o.w, "Game server (%s): %s\n", h.GameAddress, h.Game)
}
