package system

import (
	"time"

	coresys "github.com/ghostrun/ghostnet/internal/core/system"
)

// Flusher hands buffered output to the connection writers.
type Flusher interface {
	FlushAll()
}

// OutputSystem flushes everything the tick produced. Phase 4 (Output).
type OutputSystem struct {
	out Flusher
}

func NewOutputSystem(out Flusher) *OutputSystem {
	return &OutputSystem{out: out}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.out.FlushAll()
}
