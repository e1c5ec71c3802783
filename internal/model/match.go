package model

import "time"

// Match is one active duel between a setter and a guesser
type Match struct {
	SetterID   PlayerID
	GuesserID  PlayerID
	SecretWord string

	// WrongAttempts counts wrong guesses since the match started or the last hint
	WrongAttempts int

	TotalGuesses int
	HintsGiven   int
	CreatedAt    time.Time
}

// Opponent returns the other participant
func (m *Match) Opponent(id PlayerID) PlayerID {
	if m.SetterID == id {
		return m.GuesserID
	}
	return m.SetterID
}

// Outcome describes how a match concluded
type Outcome string

const (
	OutcomeGuessed      Outcome = "guessed"
	OutcomeGaveUp       Outcome = "gave_up"
	OutcomeDisconnected Outcome = "disconnected"
)

// MatchResult is the record kept for a concluded match
type MatchResult struct {
	SetterID     PlayerID
	GuesserID    PlayerID
	SecretWord   string
	Outcome      Outcome
	TotalGuesses int
	HintsGiven   int
	StartedAt    time.Time
	EndedAt      time.Time
}

// Conclude builds the result record for m
func (m *Match) Conclude(outcome Outcome, endedAt time.Time) *MatchResult {
	return &MatchResult{
		SetterID:     m.SetterID,
		GuesserID:    m.GuesserID,
		SecretWord:   m.SecretWord,
		Outcome:      outcome,
		TotalGuesses: m.TotalGuesses,
		HintsGiven:   m.HintsGiven,
		StartedAt:    m.CreatedAt,
		EndedAt:      endedAt,
	}
}
