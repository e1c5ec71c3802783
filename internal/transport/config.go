package transport

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Network kinds a server can listen on
const (
	NetworkUnix = "unix"
	NetworkTCP  = "tcp"
)

// Config holds configuration for the game listener
type Config struct {
	Network    string
	SocketPath string
	Host       string
	Port       int

	// WriteTimeout bounds a single frame write to a slow peer
	WriteTimeout time.Duration
	// SendBuffer is the number of outbound messages queued per connection
	SendBuffer int
	// ShutdownTimeout bounds how long Shutdown waits for connections to drain
	ShutdownTimeout time.Duration

	// MessageRate is the sustained number of inbound messages per second a
	// connection may send; reading pauses until messages above it fit. Zero
	// disables the limit.
	MessageRate  float64
	MessageBurst int
}

// DefaultConfig returns sensible defaults for the game listener
func DefaultConfig() Config {
	return Config{
		Network:         NetworkUnix,
		SocketPath:      "/tmp/wordduel.sock",
		Host:            "127.0.0.1",
		Port:            4000,
		WriteTimeout:    5 * time.Second,
		SendBuffer:      64,
		ShutdownTimeout: 10 * time.Second,
		MessageRate:     20,
		MessageBurst:    40,
	}
}

// Address returns the network and address to listen on or dial
func (c Config) Address() (string, string, error) {
	switch c.Network {
	case NetworkUnix:
		if c.SocketPath == "" {
			return "", "", fmt.Errorf("%w: unix network needs a socket path", ErrInvalidConfig)
		}
		return NetworkUnix, c.SocketPath, nil
	case NetworkTCP:
		return NetworkTCP, net.JoinHostPort(c.Host, strconv.Itoa(c.Port)), nil
	default:
		return "", "", fmt.Errorf("%w: unknown network %q", ErrInvalidConfig, c.Network)
	}
}
