package system

import (
	"time"

	coresys "github.com/ghostrun/ghostnet/internal/core/system"
	"github.com/ghostrun/ghostnet/internal/handler"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"github.com/ghostrun/ghostnet/internal/world"
	"go.uber.org/zap"
)

// BroadcastSystem sends every connected client a snapshot of all other
// players once per interval. Phase 3 (PostUpdate), so joins and evictions
// from the same tick are already reflected.
type BroadcastSystem struct {
	sessions *world.Sessions
	out      handler.Transport
	interval time.Duration
	elapsed  time.Duration
	log      *zap.Logger
}

func NewBroadcastSystem(sessions *world.Sessions, out handler.Transport, interval time.Duration, log *zap.Logger) *BroadcastSystem {
	return &BroadcastSystem{
		sessions: sessions,
		out:      out,
		interval: interval,
		log:      log,
	}
}

func (s *BroadcastSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *BroadcastSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed -= s.interval
	if s.elapsed >= s.interval {
		// A stalled loop does not owe a burst of snapshots.
		s.elapsed = 0
	}
	s.broadcast()
}

func (s *BroadcastSystem) broadcast() {
	for _, id := range s.out.Clients() {
		snap := s.sessions.Snapshot(id)
		if len(snap) > protocol.MaxSnapshotPlayers {
			s.log.Warn("snapshot truncated",
				zap.Uint64("client", id),
				zap.Int("players", len(snap)),
				zap.Int("max", protocol.MaxSnapshotPlayers),
			)
			snap = snap[:protocol.MaxSnapshotPlayers]
		}
		s.out.Send(id, protocol.Encode(protocol.UpdateMovedPlayers{Players: snap}))
	}
}
