package duel

import (
	"context"
	"fmt"

	"github.com/mcoot/wordduel/internal/model"
)

// Snapshot is a read-only view of the duel state
type Snapshot struct {
	Players     []*model.Player
	Matches     []*model.Match
	Results     []*model.MatchResult
	Connections map[State]int
}

// Snapshot reads the registry, match table and recent results under the
// dispatch lock. limit <= 0 uses the configured results limit.
func (c *Controller) Snapshot(ctx context.Context, limit int) (*Snapshot, error) {
	if limit <= 0 {
		limit = c.cfg.ResultsLimit
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	players, err := c.storage.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	matches, err := c.storage.ListMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	results, err := c.storage.ListResults(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	connections := make(map[State]int)
	for _, sess := range c.sessions {
		connections[sess.state]++
	}

	return &Snapshot{
		Players:     players,
		Matches:     matches,
		Results:     results,
		Connections: connections,
	}, nil
}

// Reset clears live players and matches left in storage by a previous run.
// It must be called before the transport starts accepting connections.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.storage.Reset(ctx); err != nil {
		return fmt.Errorf("reset storage: %w", err)
	}
	return nil
}
