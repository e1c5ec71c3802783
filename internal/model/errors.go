package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Match errors
	ErrMatchNotFound       = errors.New("match not found")
	ErrInvalidOpponent     = errors.New("opponent is not connected")
	ErrOpponentUnavailable = errors.New("opponent is already in a match")
	ErrAlreadyInMatch      = errors.New("player is already in a match")
)
