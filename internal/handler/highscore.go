package handler

import (
	"github.com/ghostrun/ghostnet/internal/core/event"
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"go.uber.org/zap"
)

// HandleRequestHighscore processes C_REQUEST_HIGHSCORE. No session is
// required; any connected client may submit a time.
func HandleRequestHighscore(clientID uint64, r *packet.Reader, deps *Deps) {
	msg, err := protocol.ReadRequestPossibleHighscore(r)
	if err != nil {
		dropMalformed(deps, clientID, packet.C_OPCODE_REQUEST_HIGHSCORE, err)
		return
	}
	event.Emit(deps.Bus, event.HighscoreRequested{ClientID: clientID, TimeInSeconds: msg.TimeInSeconds})
}

// onHighscoreRequested broadcasts S_INFORM_HIGHSCORE to every connection
// when the candidate beats the record.
func onHighscoreRequested(e event.HighscoreRequested, deps *Deps) {
	if !deps.Highscore.Accept(e.TimeInSeconds) {
		deps.Log.Debug("highscore candidate rejected",
			zap.Uint64("client", e.ClientID),
			zap.Uint64("candidate", e.TimeInSeconds),
			zap.Uint64("best", deps.Highscore.Best()),
		)
		return
	}
	deps.Log.Info("new highscore",
		zap.Uint64("client", e.ClientID),
		zap.Uint64("seconds", e.TimeInSeconds),
	)
	deps.Out.Broadcast(protocol.Encode(protocol.InformAboutHighscore{TimeInSeconds: e.TimeInSeconds}))
}
