package client

import (
	"github.com/ghostrun/ghostnet/internal/protocol"
	"go.uber.org/zap"
)

// Sender queues a message for the server.
type Sender interface {
	Send(m protocol.Message) bool
}

// HighscoreReconciler keeps the displayed highscore in step with the server
// and submits finished runs.
type HighscoreReconciler struct {
	display HighscoreDisplay
	out     Sender
	best    uint64
	log     *zap.Logger
}

func NewHighscoreReconciler(display HighscoreDisplay, out Sender, log *zap.Logger) *HighscoreReconciler {
	return &HighscoreReconciler{display: display, out: out, log: log}
}

// Apply takes a record announced by the server. Zero means no record and
// leaves the display alone.
func (h *HighscoreReconciler) Apply(seconds uint64) {
	if seconds == 0 {
		return
	}
	h.best = seconds
	h.display.ShowHighscore(seconds)
}

// Finish offers a completed run to the server.
func (h *HighscoreReconciler) Finish(elapsed uint64) {
	if !h.out.Send(protocol.RequestPossibleHighscore{TimeInSeconds: elapsed}) {
		h.log.Debug("run not submitted, not connected", zap.Uint64("seconds", elapsed))
	}
}

// Best returns the last non-zero record applied.
func (h *HighscoreReconciler) Best() uint64 {
	return h.best
}
