package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage"
)

// Errors
var (
	ErrInvalidPassword  = errors.New("invalid password")
	ErrNoPassword       = errors.New("no shared password configured")
	ErrIDSpaceExhausted = errors.New("could not allocate an unused player id")
	ErrPasswordTooLong  = fmt.Errorf("shared password longer than %d bytes", MaxPasswordLength)
)

// MaxPasswordLength is the longest secret bcrypt compares in full
const MaxPasswordLength = 72

// Config holds configuration for the auth service
type Config struct {
	// Password is the shared secret every client must present
	Password string
	// PasswordHash is a bcrypt hash of the shared secret; takes precedence over Password
	PasswordHash string
	// HashCost is the bcrypt cost used when hashing Password
	HashCost int

	IDLength      int
	MaxIDAttempts int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		HashCost:      bcrypt.DefaultCost,
		IDLength:      6,
		MaxIDAttempts: 16,
	}
}

// Service checks the shared password and hands out player ids
type Service struct {
	storage storage.Storage
	random  random.Random
	logger  *slog.Logger

	hash          []byte
	idLength      int
	maxIDAttempts int
}

// New creates a new auth Service, hashing the configured password once
func New(storage storage.Storage, rnd random.Random, cfg Config, logger *slog.Logger) (*Service, error) {
	defaults := DefaultConfig()
	if cfg.HashCost == 0 {
		cfg.HashCost = defaults.HashCost
	}
	if cfg.IDLength == 0 {
		cfg.IDLength = defaults.IDLength
	}
	if cfg.MaxIDAttempts == 0 {
		cfg.MaxIDAttempts = defaults.MaxIDAttempts
	}

	var hash []byte
	switch {
	case cfg.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("password hash: %w", err)
		}
		hash = []byte(cfg.PasswordHash)
	case len(cfg.Password) > MaxPasswordLength:
		return nil, ErrPasswordTooLong
	case cfg.Password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), cfg.HashCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	default:
		return nil, ErrNoPassword
	}

	return &Service{
		storage:       storage,
		random:        rnd,
		logger:        logger.With(slog.String("component", "auth")),
		hash:          hash,
		idLength:      cfg.IDLength,
		maxIDAttempts: cfg.MaxIDAttempts,
	}, nil
}

// CheckPassword returns ErrInvalidPassword unless password equals the shared secret
func (s *Service) CheckPassword(password string) error {
	// bcrypt ignores bytes past the limit, so a longer submission can never be equal
	if len(password) > MaxPasswordLength {
		return ErrInvalidPassword
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("password comparison failed", slog.String("error", err.Error()))
		}
		return ErrInvalidPassword
	}
	return nil
}

// NewPlayerID returns an id not held by any connected player. The caller must
// save the player before another id is allocated.
func (s *Service) NewPlayerID(ctx context.Context) (model.PlayerID, error) {
	for i := 0; i < s.maxIDAttempts; i++ {
		id := model.PlayerID(s.random.Token(s.idLength))
		_, err := s.storage.GetPlayer(ctx, id)
		if errors.Is(err, model.ErrPlayerNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
		s.logger.Debug("player id collision", slog.String("player_id", string(id)))
	}
	return "", ErrIDSpaceExhausted
}
