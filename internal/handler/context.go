package handler

import (
	"github.com/ghostrun/ghostnet/internal/core/event"
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/world"
	"go.uber.org/zap"
)

// Transport is the outbound side of the connection table.
type Transport interface {
	Send(clientID uint64, data []byte)
	Broadcast(data []byte)
	Clients() []uint64
	Disconnect(clientID uint64)
}

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Sessions  *world.Sessions
	Highscore *world.Highscore
	Out       Transport
	Bus       *event.Bus
	Log       *zap.Logger
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	connected := []packet.SessionState{packet.StateConnected}
	// A leave queued just before the socket closed is still honoured.
	leaving := []packet.SessionState{packet.StateConnected, packet.StateDisconnecting}

	reg.Register(packet.C_OPCODE_PING, connected,
		func(clientID uint64, r *packet.Reader) {
			HandlePing(clientID, r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_JOIN_GAME, connected,
		func(clientID uint64, r *packet.Reader) {
			HandleJoinGame(clientID, r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_PLAYER_MOVED, connected,
		func(clientID uint64, r *packet.Reader) {
			HandlePlayerMoved(clientID, r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_REQUEST_HIGHSCORE, connected,
		func(clientID uint64, r *packet.Reader) {
			HandleRequestHighscore(clientID, r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_LEAVE_GAME, leaving,
		func(clientID uint64, r *packet.Reader) {
			HandleLeaveGame(clientID, r, deps)
		},
	)
}

// SubscribeAll wires the world mutations behind the routed events. They run
// when the event system dispatches the bus, in emission order.
func SubscribeAll(deps *Deps) {
	event.Subscribe(deps.Bus, func(e event.PlayerJoined) { onPlayerJoined(e, deps) })
	event.Subscribe(deps.Bus, func(e event.PlayerMoved) { onPlayerMoved(e, deps) })
	event.Subscribe(deps.Bus, func(e event.PlayerLeft) { onPlayerLeft(e, deps) })
	event.Subscribe(deps.Bus, func(e event.HighscoreRequested) { onHighscoreRequested(e, deps) })
}

func dropMalformed(deps *Deps, clientID uint64, opcode byte, err error) {
	deps.Log.Debug("malformed message dropped",
		zap.Uint64("client", clientID),
		zap.Uint8("opcode", opcode),
		zap.Error(err),
	)
}
