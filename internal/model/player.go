package model

import "time"

// PlayerID identifies a connected player. Ids are unique among connected
// players only and may be reused after a disconnect.
type PlayerID string

// Player is an authenticated, currently connected participant
type Player struct {
	ID          PlayerID
	ConnectedAt time.Time
}
