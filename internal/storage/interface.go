package storage

import (
	"context"

	"github.com/mcoot/wordduel/internal/model"
)

// Storage defines the interface for the session registry, the match table
// and the history of concluded matches
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error
	ListPlayers(ctx context.Context) ([]*model.Player, error)

	// Match operations. A match is keyed by its guesser; the setter index
	// resolves the match a setter currently takes part in.
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatchByGuesser(ctx context.Context, guesserID model.PlayerID) (*model.Match, error)
	GetMatchBySetter(ctx context.Context, setterID model.PlayerID) (*model.Match, error)
	DeleteMatch(ctx context.Context, guesserID model.PlayerID) error
	ListMatches(ctx context.Context) ([]*model.Match, error)

	// Result operations. ListResults returns the newest results first;
	// limit <= 0 means no limit.
	SaveResult(ctx context.Context, result *model.MatchResult) error
	ListResults(ctx context.Context, limit int) ([]*model.MatchResult, error)

	// Reset drops every live player and match. Results are kept.
	Reset(ctx context.Context) error
}
