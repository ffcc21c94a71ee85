package system

import (
	"time"

	"github.com/ghostrun/ghostnet/internal/core/event"
	coresys "github.com/ghostrun/ghostnet/internal/core/system"
)

// EventSystem applies the events routed during input, in the order they
// were emitted. Phase 1 (PreUpdate).
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.DispatchAll()
}
