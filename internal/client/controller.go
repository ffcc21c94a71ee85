package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ghostrun/ghostnet/internal/protocol"
	"go.uber.org/zap"
)

// Controller owns the connection to the server. There is no reconnect:
// once the connection is lost it stays lost. Game loop only.
type Controller struct {
	dial   DialFunc
	player LocalPlayer
	conn   Conn

	lost   bool
	onLost func()

	pingSent time.Time
	rtt      time.Duration
	now      func() time.Time

	log *zap.Logger
}

func NewController(dial DialFunc, player LocalPlayer, log *zap.Logger) *Controller {
	return &Controller{
		dial:   dial,
		player: player,
		now:    time.Now,
		log:    log,
	}
}

// OnLost registers the callback run once when the connection drops.
func (c *Controller) OnLost(fn func()) {
	c.onLost = fn
}

// Start connects and queues JoinGame with the local player's current state.
func (c *Controller) Start(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.conn = conn
	c.log.Info("connected to server")
	c.Send(protocol.JoinGame{Movement: c.player.Movement()})
	return nil
}

// Connected reports whether the connection is up.
func (c *Controller) Connected() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

// Send buffers m for the next flush. Reports false when not connected.
func (c *Controller) Send(m protocol.Message) bool {
	if !c.Connected() {
		return false
	}
	c.conn.Send(protocol.Encode(m))
	return true
}

// Ping sends a ping and starts the round-trip clock.
func (c *Controller) Ping() {
	if c.Send(protocol.Ping{}) {
		c.pingSent = c.now()
	}
}

// RTT returns the last measured round-trip time, 0 before the first pong.
func (c *Controller) RTT() time.Duration {
	return c.rtt
}

func (c *Controller) pong() {
	if c.pingSent.IsZero() {
		c.log.Debug("unsolicited pong")
		return
	}
	c.rtt = c.now().Sub(c.pingSent)
	c.pingSent = time.Time{}
	c.log.Debug("pong", zap.Duration("rtt", c.rtt))
}

// Flush hands buffered messages to the writer.
func (c *Controller) Flush() {
	if c.conn != nil {
		c.conn.FlushOutput()
	}
}

// Inbound returns received payloads, nil before Start.
func (c *Controller) Inbound() <-chan []byte {
	if c.conn == nil {
		return nil
	}
	return c.conn.Inbound()
}

// Leave queues LeaveGame, gives the writer up to timeout to send it, and
// closes the connection.
func (c *Controller) Leave(timeout time.Duration) {
	if !c.Connected() {
		return
	}
	c.Send(protocol.LeaveGame{})
	c.conn.Shutdown(timeout)
	c.lost = true
	c.log.Info("left game")
}

// checkLost fires the lost callback the first time the connection is seen
// closed.
func (c *Controller) checkLost() {
	if c.lost || c.conn == nil || !c.conn.IsClosed() {
		return
	}
	c.lost = true
	c.log.Warn("connection to server lost")
	if c.onLost != nil {
		c.onLost()
	}
}
