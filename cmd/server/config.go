package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mcoot/wordduel/internal/api"
	"github.com/mcoot/wordduel/internal/factory"
	"github.com/mcoot/wordduel/internal/services/auth"
	"github.com/mcoot/wordduel/internal/services/duel"
	redisstorage "github.com/mcoot/wordduel/internal/storage/redis"
	"github.com/mcoot/wordduel/internal/transport"
)

// serverConfig is everything main needs, read from the environment
type serverConfig struct {
	Factory    factory.Config
	Admin      api.ServerConfig
	AdminToken string
	LogLevel   slog.Level
}

// adminEnabled reports whether the admin HTTP server should run
func (c serverConfig) adminEnabled() bool {
	return c.Admin.Port != 0
}

func loadConfig() (serverConfig, error) {
	var cfg serverConfig

	level, err := parseLevel(os.Getenv("WORDDUEL_LOG_LEVEL"))
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = level

	// Game listener
	tc := transport.DefaultConfig()
	tc.Network = envOrDefault("WORDDUEL_NETWORK", tc.Network)
	tc.SocketPath = envOrDefault("WORDDUEL_SOCKET_PATH", tc.SocketPath)
	tc.Host = envOrDefault("WORDDUEL_HOST", tc.Host)
	if tc.Port, err = envInt("WORDDUEL_PORT", tc.Port); err != nil {
		return cfg, err
	}
	if _, _, err := tc.Address(); err != nil {
		return cfg, err
	}

	// Shared password
	ac := auth.DefaultConfig()
	ac.Password = os.Getenv("WORDDUEL_PASSWORD")
	ac.PasswordHash = os.Getenv("WORDDUEL_PASSWORD_HASH")
	if ac.Password == "" && ac.PasswordHash == "" {
		return cfg, errors.New("WORDDUEL_PASSWORD or WORDDUEL_PASSWORD_HASH required")
	}
	if len(ac.Password) > auth.MaxPasswordLength && ac.PasswordHash == "" {
		return cfg, fmt.Errorf("WORDDUEL_PASSWORD must be at most %d bytes", auth.MaxPasswordLength)
	}

	// Match rules
	dc := duel.DefaultConfig()
	dc.GiveUpWord = envOrDefault("WORDDUEL_GIVE_UP", dc.GiveUpWord)
	if dc.MaxAttempts, err = envInt("WORDDUEL_MAX_ATTEMPTS", dc.MaxAttempts); err != nil {
		return cfg, err
	}
	if dc.MaxAttempts < 1 {
		return cfg, errors.New("WORDDUEL_MAX_ATTEMPTS must be at least 1")
	}

	cfg.Factory = factory.Config{
		AuthConfig:      ac,
		DuelConfig:      dc,
		TransportConfig: tc,
		StorageType:     os.Getenv("STORAGE_TYPE"),
	}

	// Configure Redis if storage type is redis
	if cfg.Factory.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.Factory.RedisConfig = &redisCfg
	}

	// Admin API
	cfg.Admin = api.DefaultServerConfig()
	cfg.Admin.Host = envOrDefault("WORDDUEL_ADMIN_HOST", cfg.Admin.Host)
	if cfg.Admin.Port, err = envInt("WORDDUEL_ADMIN_PORT", cfg.Admin.Port); err != nil {
		return cfg, err
	}
	cfg.AdminToken = os.Getenv("WORDDUEL_ADMIN_TOKEN")

	return cfg, nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("WORDDUEL_LOG_LEVEL: %w", err)
	}
	return level, nil
}
