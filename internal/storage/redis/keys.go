package redis

import (
	"fmt"

	"github.com/mcoot/wordduel/internal/model"
)

// Key prefix for all duel-related data
const keyPrefix = "wordduel"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersIndexKey returns the Redis key for the SET of connected player keys
func playersIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// matchKey returns the Redis key for the Match a guesser takes part in
func matchKey(guesserID model.PlayerID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, guesserID)
}

// matchesIndexKey returns the Redis key for the SET of active match keys
func matchesIndexKey() string {
	return fmt.Sprintf("%s:idx:matches", keyPrefix)
}

// setterIndexKey returns the Redis key for the setter -> guesser index
func setterIndexKey(setterID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:match_by_setter:%s", keyPrefix, setterID)
}

// resultsKey returns the Redis key for the LIST of concluded match results
func resultsKey() string {
	return fmt.Sprintf("%s:results", keyPrefix)
}
