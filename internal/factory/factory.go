package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/wordduel/internal/dependencies/clock"
	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/services/auth"
	"github.com/mcoot/wordduel/internal/services/duel"
	"github.com/mcoot/wordduel/internal/storage"
	"github.com/mcoot/wordduel/internal/storage/memory"
	redisstorage "github.com/mcoot/wordduel/internal/storage/redis"
	"github.com/mcoot/wordduel/internal/transport"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	AuthService    *auth.Service
	DuelController *duel.Controller

	// Transport
	Server *transport.Server
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds the shared password settings (required)
	AuthConfig auth.Config
	// DuelConfig holds match rules (optional)
	// Zero fields fall back to duel.DefaultConfig()
	DuelConfig duel.Config
	// TransportConfig holds the game listener settings (optional)
	// If Network is empty, defaults to transport.DefaultConfig()
	TransportConfig transport.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	transportCfg := cfg.TransportConfig
	if transportCfg.Network == "" {
		transportCfg = transport.DefaultConfig()
	}

	app, err := newWithDependencies(store, clock.New(), random.New(), cfg.AuthConfig, cfg.DuelConfig, transportCfg, logger)
	if err != nil {
		_ = closeStorage(store)
		return nil, err
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	duelCfg duel.Config,
	transportCfg transport.Config,
	logger *slog.Logger,
) (*App, error) {
	authService, err := auth.New(store, rnd, authCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	controller := duel.NewController(store, authService, clk, duelCfg, logger)
	server := transport.NewServer(transportCfg, controller, logger)
	controller.SetSender(server)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		AuthService:    authService,
		DuelController: controller,
		Server:         server,
	}, nil
}

// Close releases the storage backend
func (a *App) Close() error {
	return closeStorage(a.Storage)
}

func closeStorage(store storage.Storage) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
