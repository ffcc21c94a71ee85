package system

import (
	"time"

	coresys "github.com/ghostrun/ghostnet/internal/core/system"
	"github.com/ghostrun/ghostnet/internal/handler"
	"github.com/ghostrun/ghostnet/internal/world"
	"go.uber.org/zap"
)

// ReaperSystem ages every session by the real elapsed time and evicts the
// ones that stayed silent longer than the timeout. Their connections are
// closed as well. Phase 2 (Update).
type ReaperSystem struct {
	sessions *world.Sessions
	out      handler.Transport
	timeout  time.Duration
	log      *zap.Logger
}

func NewReaperSystem(sessions *world.Sessions, out handler.Transport, timeout time.Duration, log *zap.Logger) *ReaperSystem {
	return &ReaperSystem{
		sessions: sessions,
		out:      out,
		timeout:  timeout,
		log:      log,
	}
}

func (s *ReaperSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ReaperSystem) Update(dt time.Duration) {
	for _, id := range s.sessions.Age(dt, s.timeout) {
		s.log.Info("player timed out",
			zap.Uint64("client", id),
			zap.Duration("timeout", s.timeout),
		)
		s.out.Disconnect(id)
	}
}
