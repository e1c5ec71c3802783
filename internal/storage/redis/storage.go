package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	key := playerKey(player.ID)

	// Live records never expire; they are removed on close, on match end or by Reset
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, playersIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	key := playerKey(id)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, playersIndexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	values, err := s.fetchIndexed(ctx, playersIndexKey())
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, data := range values {
		var player model.Player
		if err := json.Unmarshal(data, &player); err != nil {
			continue // Skip invalid data
		}
		players = append(players, &player)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	data, err := json.Marshal(match)
	if err != nil {
		return err
	}

	key := matchKey(match.GuesserID)

	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.Set(ctx, setterIndexKey(match.SetterID), string(match.GuesserID), 0)
	pipe.SAdd(ctx, matchesIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetMatchByGuesser(ctx context.Context, guesserID model.PlayerID) (*model.Match, error) {
	data, err := s.client.Get(ctx, matchKey(guesserID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	var match model.Match
	if err := json.Unmarshal(data, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *Storage) GetMatchBySetter(ctx context.Context, setterID model.PlayerID) (*model.Match, error) {
	// Look up guesser ID from setter index
	guesserID, err := s.client.Get(ctx, setterIndexKey(setterID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMatchNotFound
		}
		return nil, err
	}

	match, err := s.GetMatchByGuesser(ctx, model.PlayerID(guesserID))
	if err != nil {
		return nil, err
	}
	if match.SetterID != setterID {
		return nil, model.ErrMatchNotFound
	}
	return match, nil
}

func (s *Storage) DeleteMatch(ctx context.Context, guesserID model.PlayerID) error {
	match, err := s.GetMatchByGuesser(ctx, guesserID)
	if err != nil {
		if errors.Is(err, model.ErrMatchNotFound) {
			return nil
		}
		return err
	}

	key := matchKey(guesserID)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, setterIndexKey(match.SetterID))
	pipe.SRem(ctx, matchesIndexKey(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	values, err := s.fetchIndexed(ctx, matchesIndexKey())
	if err != nil {
		return nil, err
	}

	matches := make([]*model.Match, 0, len(values))
	for _, data := range values {
		var match model.Match
		if err := json.Unmarshal(data, &match); err != nil {
			continue // Skip invalid data
		}
		matches = append(matches, &match)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].GuesserID < matches[j].GuesserID })
	return matches, nil
}

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.MatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// Newest first, trimmed to capacity
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, resultsKey(), data)
	if s.cfg.ResultsCapacity > 0 {
		pipe.LTrim(ctx, resultsKey(), 0, s.cfg.ResultsCapacity-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.MatchResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	values, err := s.client.LRange(ctx, resultsKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.MatchResult, 0, len(values))
	for _, val := range values {
		var result model.MatchResult
		if err := json.Unmarshal([]byte(val), &result); err != nil {
			continue // Skip invalid data
		}
		results = append(results, &result)
	}
	return results, nil
}

// Reset deletes every indexed player and match along with the indexes
func (s *Storage) Reset(ctx context.Context) error {
	playerKeys, err := s.client.SMembers(ctx, playersIndexKey()).Result()
	if err != nil {
		return err
	}

	matches, err := s.ListMatches(ctx)
	if err != nil {
		return err
	}
	matchKeys, err := s.client.SMembers(ctx, matchesIndexKey()).Result()
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	for _, key := range playerKeys {
		pipe.Del(ctx, key)
	}
	for _, key := range matchKeys {
		pipe.Del(ctx, key)
	}
	for _, match := range matches {
		pipe.Del(ctx, setterIndexKey(match.SetterID))
	}
	pipe.Del(ctx, playersIndexKey(), matchesIndexKey())
	_, err = pipe.Exec(ctx)
	return err
}

// fetchIndexed loads every value whose key is a member of the given index set.
// Members whose value has expired are dropped from the result.
func (s *Storage) fetchIndexed(ctx context.Context, indexKey string) ([][]byte, error) {
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return [][]byte{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([][]byte, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Value may have expired
		}
		out = append(out, []byte(str))
	}
	return out, nil
}
