package handler

import (
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/protocol"
)

// HandlePing answers C_PING with S_PONG right away. It never touches the
// world session, so pings do not count as liveness.
func HandlePing(clientID uint64, r *packet.Reader, deps *Deps) {
	if err := protocol.ReadEmpty(r); err != nil {
		dropMalformed(deps, clientID, packet.C_OPCODE_PING, err)
		return
	}
	deps.Out.Send(clientID, protocol.Encode(protocol.Pong{}))
}
