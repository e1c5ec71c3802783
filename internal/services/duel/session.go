package duel

import (
	"time"

	"github.com/mcoot/wordduel/internal/model"
)

// ConnID identifies one transport connection for its whole lifetime
type ConnID uint64

// State is the per-connection position in the duel state machine
type State int

const (
	// StateUnauthenticated: connected, no player record yet
	StateUnauthenticated State = iota
	// StateIdle: authenticated and in no match
	StateIdle
	// StateGuessing: guesser that has been prompted for a guess
	StateGuessing
	// StateWaiting: in a match but not expected to send anything
	StateWaiting
	// StateHinting: setter that has been asked for a hint
	StateHinting
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateIdle:
		return "idle"
	case StateGuessing:
		return "guessing"
	case StateWaiting:
		return "waiting"
	case StateHinting:
		return "hinting"
	default:
		return "invalid"
	}
}

// session is the orchestrator's record of one connection. player is empty
// while unauthenticated; match holds the guesser id keying the match the
// player takes part in and is empty outside a match.
type session struct {
	conn   ConnID
	state  State
	player model.PlayerID
	match  model.PlayerID
	// since is when player authenticated
	since time.Time
}

func (s *session) reset() {
	s.state = StateUnauthenticated
	s.player = ""
	s.match = ""
	s.since = time.Time{}
}

func (s *session) enterMatch(guesserID model.PlayerID, state State) {
	s.match = guesserID
	s.state = state
}
