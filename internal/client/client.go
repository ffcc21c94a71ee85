// Package client is the replication client: it keeps one connection to the
// server, submits the local player's movement, and turns snapshots into
// ghosts and highscore updates.
package client

import (
	"context"
	"time"

	"github.com/ghostrun/ghostnet/internal/data"
	"github.com/ghostrun/ghostnet/internal/protocol"
)

// LocalPlayer reports the local player's kinematic state.
type LocalPlayer interface {
	Movement() protocol.Movement
}

// GhostRenderer creates the visible counterpart of a remote player.
type GhostRenderer interface {
	SpawnGhost(id uint64, sprite data.Sprite, m protocol.Movement) GhostHandle
}

// GhostHandle is one spawned ghost.
type GhostHandle interface {
	Move(m protocol.Movement)
	Despawn()
}

// HighscoreDisplay shows the best time known to the client.
type HighscoreDisplay interface {
	ShowHighscore(seconds uint64)
}

// Conn is the client end of a connection. *net.Session implements it.
type Conn interface {
	Send(data []byte)
	FlushOutput()
	Inbound() <-chan []byte
	IsClosed() bool
	Shutdown(timeout time.Duration)
	Close()
}

// DialFunc opens a connection to the server.
type DialFunc func(ctx context.Context) (Conn, error)
