package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchOpponent(t *testing.T) {
	m := &Match{SetterID: "AAAAAA", GuesserID: "BBBBBB"}

	assert.Equal(t, PlayerID("BBBBBB"), m.Opponent("AAAAAA"))
	assert.Equal(t, PlayerID("AAAAAA"), m.Opponent("BBBBBB"))
}

func TestMatchConclude(t *testing.T) {
	started := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ended := started.Add(3 * time.Minute)
	m := &Match{
		SetterID:      "AAAAAA",
		GuesserID:     "BBBBBB",
		SecretWord:    "giraffe",
		WrongAttempts: 1,
		TotalGuesses:  5,
		HintsGiven:    1,
		CreatedAt:     started,
	}

	assert.Equal(t, &MatchResult{
		SetterID:     "AAAAAA",
		GuesserID:    "BBBBBB",
		SecretWord:   "giraffe",
		Outcome:      OutcomeGaveUp,
		TotalGuesses: 5,
		HintsGiven:   1,
		StartedAt:    started,
		EndedAt:      ended,
	}, m.Conclude(OutcomeGaveUp, ended))
}
