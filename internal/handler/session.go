package handler

import (
	"github.com/ghostrun/ghostnet/internal/core/event"
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"go.uber.org/zap"
)

// HandleJoinGame processes C_JOIN_GAME.
func HandleJoinGame(clientID uint64, r *packet.Reader, deps *Deps) {
	msg, err := protocol.ReadJoinGame(r)
	if err != nil {
		dropMalformed(deps, clientID, packet.C_OPCODE_JOIN_GAME, err)
		return
	}
	event.Emit(deps.Bus, event.PlayerJoined{ClientID: clientID, Movement: msg.Movement})
}

// HandlePlayerMoved processes C_PLAYER_MOVED.
func HandlePlayerMoved(clientID uint64, r *packet.Reader, deps *Deps) {
	msg, err := protocol.ReadPlayerMoved(r)
	if err != nil {
		dropMalformed(deps, clientID, packet.C_OPCODE_PLAYER_MOVED, err)
		return
	}
	event.Emit(deps.Bus, event.PlayerMoved{ClientID: clientID, Movement: msg.Movement})
}

// HandleLeaveGame processes C_LEAVE_GAME. The connection itself stays open
// until the client closes it.
func HandleLeaveGame(clientID uint64, r *packet.Reader, deps *Deps) {
	if err := protocol.ReadEmpty(r); err != nil {
		dropMalformed(deps, clientID, packet.C_OPCODE_LEAVE_GAME, err)
		return
	}
	event.Emit(deps.Bus, event.PlayerLeft{ClientID: clientID})
}

// onPlayerJoined creates the session. A second join from the same client is
// ignored; the current highscore is sent either way.
func onPlayerJoined(e event.PlayerJoined, deps *Deps) {
	if deps.Sessions.Join(e.ClientID, e.Movement) {
		deps.Log.Info("player joined",
			zap.Uint64("client", e.ClientID),
			zap.Int("players", deps.Sessions.Len()),
		)
	} else {
		deps.Log.Debug("duplicate join ignored", zap.Uint64("client", e.ClientID))
	}
	deps.Out.Send(e.ClientID, protocol.Encode(protocol.InformAboutHighscore{
		TimeInSeconds: deps.Highscore.Best(),
	}))
}

// onPlayerMoved stores the movement and resets the inactivity timer. Moves
// for unknown clients are dropped; they never create a session.
func onPlayerMoved(e event.PlayerMoved, deps *Deps) {
	deps.Sessions.Move(e.ClientID, e.Movement)
}

func onPlayerLeft(e event.PlayerLeft, deps *Deps) {
	if deps.Sessions.Leave(e.ClientID) {
		deps.Log.Info("player left",
			zap.Uint64("client", e.ClientID),
			zap.Int("players", deps.Sessions.Len()),
		)
	}
}
