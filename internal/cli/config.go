package cli

import (
	"os"
	"strconv"

	"github.com/mcoot/wordduel/internal/transport"
)

// Config holds CLI configuration
type Config struct {
	Network    string
	SocketPath string
	Host       string
	Port       int
	AdminURL   string
	AdminToken string
	Output     string
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	defaults := transport.DefaultConfig()
	return &Config{
		Network:    getEnvOrDefault("WORDDUEL_NETWORK", defaults.Network),
		SocketPath: getEnvOrDefault("WORDDUEL_SOCKET_PATH", defaults.SocketPath),
		Host:       getEnvOrDefault("WORDDUEL_HOST", defaults.Host),
		Port:       getEnvIntOrDefault("WORDDUEL_PORT", defaults.Port),
		AdminURL:   getEnvOrDefault("WORDDUEL_ADMIN_URL", "http://localhost:8081"),
		AdminToken: os.Getenv("WORDDUEL_ADMIN_TOKEN"),
		Output:     "text",
		Verbose:    false,
	}
}

// Transport returns the settings used to dial the game server
func (c *Config) Transport() transport.Config {
	t := transport.DefaultConfig()
	t.Network = c.Network
	t.SocketPath = c.SocketPath
	t.Host = c.Host
	t.Port = c.Port
	return t
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
