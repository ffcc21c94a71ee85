package client

import (
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"go.uber.org/zap"
)

// Router hands server messages to the ghost and highscore reconcilers.
type Router struct {
	ctrl      *Controller
	ghosts    *Ghosts
	highscore *HighscoreReconciler
	log       *zap.Logger
}

func NewRouter(ctrl *Controller, ghosts *Ghosts, highscore *HighscoreReconciler, log *zap.Logger) *Router {
	return &Router{ctrl: ctrl, ghosts: ghosts, highscore: highscore, log: log}
}

// Register maps the server opcodes into reg.
func (rt *Router) Register(reg *packet.Registry) {
	connected := []packet.SessionState{packet.StateConnected, packet.StateDisconnecting}

	reg.Register(packet.S_OPCODE_PONG, connected,
		func(_ uint64, r *packet.Reader) {
			if err := protocol.ReadEmpty(r); err != nil {
				rt.dropMalformed(packet.S_OPCODE_PONG, err)
				return
			}
			rt.ctrl.pong()
		},
	)
	reg.Register(packet.S_OPCODE_UPDATE_MOVED_PLAYERS, connected,
		func(_ uint64, r *packet.Reader) {
			msg, err := protocol.ReadUpdateMovedPlayers(r)
			if err != nil {
				rt.dropMalformed(packet.S_OPCODE_UPDATE_MOVED_PLAYERS, err)
				return
			}
			rt.ghosts.Reconcile(msg.Players)
		},
	)
	reg.Register(packet.S_OPCODE_INFORM_HIGHSCORE, connected,
		func(_ uint64, r *packet.Reader) {
			msg, err := protocol.ReadInformAboutHighscore(r)
			if err != nil {
				rt.dropMalformed(packet.S_OPCODE_INFORM_HIGHSCORE, err)
				return
			}
			rt.highscore.Apply(msg.TimeInSeconds)
		},
	)
}

func (rt *Router) dropMalformed(opcode byte, err error) {
	rt.log.Debug("malformed message dropped", zap.Uint8("opcode", opcode), zap.Error(err))
}
