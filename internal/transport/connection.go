package transport

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/wordduel/internal/protocol"
	"github.com/mcoot/wordduel/internal/services/duel"
)

// connection is one accepted stream with its outbound queue
type connection struct {
	id          duel.ConnID
	raw         net.Conn
	conn        *protocol.Conn
	send        chan protocol.Message
	done        chan struct{}
	closeOnce   sync.Once
	limiter     *rate.Limiter
	ctx         context.Context
	cancel      context.CancelFunc
	connectedAt time.Time
	logger      *slog.Logger
}

func newConnection(id duel.ConnID, raw net.Conn, cfg Config, logger *slog.Logger) *connection {
	var limiter *rate.Limiter
	if cfg.MessageRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MessageRate), max(cfg.MessageBurst, 1))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &connection{
		id:          id,
		raw:         raw,
		conn:        protocol.NewConn(raw),
		send:        make(chan protocol.Message, cfg.SendBuffer),
		done:        make(chan struct{}),
		limiter:     limiter,
		ctx:         ctx,
		cancel:      cancel,
		connectedAt: time.Now(),
		logger:      logger.With(slog.Uint64("conn", uint64(id))),
	}
}

// enqueue never blocks. A full queue means the peer is not reading, so the
// connection is closed and the reader reports the disconnect.
func (c *connection) enqueue(m protocol.Message) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- m:
		return nil
	default:
		c.logger.Warn("send queue full, closing connection", slog.String("kind", m.Kind.String()))
		c.close()
		return ErrSendQueueFull
	}
}

// allow reports whether another inbound message fits the rate limit right now
func (c *connection) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// throttle blocks until the next inbound message fits the rate limit. It fails
// only once the connection is closed.
func (c *connection) throttle() error {
	if c.allow() {
		return nil
	}
	c.logger.Debug("rate limit exceeded, delaying message")
	return c.limiter.Wait(c.ctx)
}

// writeLoop drains the queue until the connection closes
func (c *connection) writeLoop(timeout time.Duration) {
	for {
		select {
		case m := <-c.send:
			if timeout > 0 {
				_ = c.raw.SetWriteDeadline(time.Now().Add(timeout))
			}
			if err := c.conn.Send(m); err != nil {
				c.logger.Warn("write failed",
					slog.String("kind", m.Kind.String()),
					slog.String("error", err.Error()),
				)
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancel()
		_ = c.raw.Close()
	})
}
