package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/services/duel"
)

// Errors
var (
	ErrInvalidConfig      = errors.New("invalid transport config")
	ErrConnectionClosed   = errors.New("connection closed")
	ErrSendQueueFull      = errors.New("send queue full")
	ErrUnknownConnection  = errors.New("unknown connection")
	ErrNotListening       = errors.New("server is not listening")
	ErrSocketPathOccupied = errors.New("socket path is occupied by a non-socket file")
)

// Handler receives connection events. *duel.Controller implements it.
type Handler interface {
	Connect(ctx context.Context, conn duel.ConnID)
	Handle(ctx context.Context, conn duel.ConnID, m protocol.Message) error
	Disconnect(ctx context.Context, conn duel.ConnID) error
}

// Server accepts game connections on one unix or tcp listener
type Server struct {
	cfg     Config
	handler Handler
	logger  *slog.Logger

	listener net.Listener
	nextID   atomic.Uint64
	closing  atomic.Bool

	mu    sync.Mutex
	conns map[duel.ConnID]*connection
	wg    sync.WaitGroup
}

// Ensure Server can deliver the controller's messages
var _ duel.Sender = (*Server)(nil)

// NewServer creates a new game Server
func NewServer(cfg Config, handler Handler, logger *slog.Logger) *Server {
	defaults := DefaultConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = defaults.SendBuffer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With(slog.String("component", "transport")),
		conns:   make(map[duel.ConnID]*connection),
	}
}

// Listen opens the listener. A stale unix socket file is removed first.
func (s *Server) Listen() error {
	network, addr, err := s.cfg.Address()
	if err != nil {
		return err
	}

	if network == NetworkUnix {
		if err := removeStaleSocket(addr); err != nil {
			return err
		}
	}

	ln, err := net.Listen(network, addr)
	if err != nil {
		return fmt.Errorf("listen %s %s: %w", network, addr, err)
	}
	s.listener = ln

	s.logger.Info("listening", slog.String("network", network), slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the listener address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Shutdown. Any other accept failure is
// returned and is fatal for the server.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return ErrNotListening
	}

	for {
		raw, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if s.closing.Load() {
			_ = raw.Close()
			return nil
		}

		c := newConnection(duel.ConnID(s.nextID.Add(1)), raw, s.cfg, s.logger)

		s.mu.Lock()
		s.conns[c.id] = c
		s.mu.Unlock()

		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			c.writeLoop(s.cfg.WriteTimeout)
		}()
		go func() {
			defer s.wg.Done()
			s.readLoop(ctx, c)
		}()
	}
}

// readLoop feeds decoded messages to the handler in arrival order
func (s *Server) readLoop(ctx context.Context, c *connection) {
	c.logger.Debug("connection accepted", slog.String("remote", remoteAddr(c.raw)))
	s.handler.Connect(ctx, c.id)

	defer func() {
		c.close()

		s.mu.Lock()
		delete(s.conns, c.id)
		s.mu.Unlock()

		if err := s.handler.Disconnect(ctx, c.id); err != nil {
			c.logger.Error("disconnect failed", slog.String("error", err.Error()))
		}
		c.logger.Debug("connection closed", slog.Duration("connection_duration", time.Since(c.connectedAt)))
	}()

	for {
		m, err := c.conn.Receive()
		if err != nil {
			if errors.Is(err, protocol.ErrMalformed) {
				c.logger.Warn("skipping malformed frame", slog.String("error", err.Error()))
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.logger.Info("read failed", slog.String("error", err.Error()))
			}
			return
		}

		// Excess messages are delayed, never dropped, so no request goes unanswered
		if err := c.throttle(); err != nil {
			return
		}

		if err := s.handler.Handle(ctx, c.id, m); err != nil {
			c.logger.Error("handle failed",
				slog.String("kind", m.Kind.String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Send queues m for the connection without blocking
func (s *Server) Send(conn duel.ConnID, m protocol.Message) error {
	s.mu.Lock()
	c, ok := s.conns[conn]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownConnection
	}
	return c.enqueue(m)
}

// ConnectionCount returns the number of open connections
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown stops accepting, closes every connection and waits for the
// connection goroutines to finish
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down game server")
	s.closing.Store(true)

	var err error
	if s.listener != nil {
		if cerr := s.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}

	s.mu.Lock()
	for _, c := range s.conns {
		c.close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown error: %w", shutdownCtx.Err())
	}

	s.logger.Info("game server stopped")
	return err
}

// removeStaleSocket deletes a socket file left by a previous run
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%w: %s", ErrSocketPathOccupied, path)
	}
	return os.Remove(path)
}

func remoteAddr(c net.Conn) string {
	if addr := c.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
