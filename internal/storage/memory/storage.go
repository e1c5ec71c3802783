package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage"
)

// DefaultResultsCapacity bounds the in-memory results history
const DefaultResultsCapacity = 1000

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players     map[model.PlayerID]*model.Player
	matches     map[model.PlayerID]*model.Match
	setterIndex map[model.PlayerID]model.PlayerID
	results     []*model.MatchResult
	capacity    int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:     make(map[model.PlayerID]*model.Player),
		matches:     make(map[model.PlayerID]*model.Match),
		setterIndex: make(map[model.PlayerID]model.PlayerID),
		capacity:    DefaultResultsCapacity,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *player
	s.players[player.ID] = &p
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.players))
	for _, player := range s.players {
		p := *player
		players = append(players, &p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.matches[match.GuesserID]; ok && prev.SetterID != match.SetterID {
		delete(s.setterIndex, prev.SetterID)
	}
	m := *match
	s.matches[match.GuesserID] = &m
	s.setterIndex[match.SetterID] = match.GuesserID
	return nil
}

func (s *Storage) GetMatchByGuesser(ctx context.Context, guesserID model.PlayerID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[guesserID]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	m := *match
	return &m, nil
}

func (s *Storage) GetMatchBySetter(ctx context.Context, setterID model.PlayerID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	guesserID, ok := s.setterIndex[setterID]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	match, ok := s.matches[guesserID]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	m := *match
	return &m, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, guesserID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if match, ok := s.matches[guesserID]; ok {
		if s.setterIndex[match.SetterID] == guesserID {
			delete(s.setterIndex, match.SetterID)
		}
		delete(s.matches, guesserID)
	}
	return nil
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*model.Match, 0, len(s.matches))
	for _, match := range s.matches {
		m := *match
		matches = append(matches, &m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].GuesserID < matches[j].GuesserID })
	return matches, nil
}

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *result
	s.results = append(s.results, &r)
	if len(s.results) > s.capacity {
		s.results = s.results[len(s.results)-s.capacity:]
	}
	return nil
}

func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.MatchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.results)
	if limit > 0 && limit < n {
		n = limit
	}
	results := make([]*model.MatchResult, 0, n)
	for i := len(s.results) - 1; i >= 0 && len(results) < n; i-- {
		r := *s.results[i]
		results = append(results, &r)
	}
	return results, nil
}

func (s *Storage) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players = make(map[model.PlayerID]*model.Player)
	s.matches = make(map[model.PlayerID]*model.Match)
	s.setterIndex = make(map[model.PlayerID]model.PlayerID)
	return nil
}
