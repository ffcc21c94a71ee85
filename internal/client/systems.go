package client

import (
	"time"

	coresys "github.com/ghostrun/ghostnet/internal/core/system"
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"go.uber.org/zap"
)

// InputSystem drains the server's messages through the registry and
// notices a lost connection. Phase 0 (Input).
type InputSystem struct {
	ctrl       *Controller
	registry   *packet.Registry
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(ctrl *Controller, registry *packet.Registry, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{ctrl: ctrl, registry: registry, maxPerTick: maxPerTick, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	in := s.ctrl.Inbound()
	state := packet.StateConnected
	if !s.ctrl.Connected() {
		state = packet.StateDisconnecting
	}
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-in:
			if err := s.registry.Dispatch(0, state, data); err != nil {
				s.log.Debug("packet dispatch error", zap.Error(err))
			}
		default:
			goto drained
		}
	}
drained:
	s.ctrl.checkLost()
}

// SubmitSystem uploads the local movement on a fixed interval while
// connected. Phase 2 (Update); register it after the local simulation so it
// reports this tick's state.
type SubmitSystem struct {
	ctrl     *Controller
	player   LocalPlayer
	interval time.Duration
	elapsed  time.Duration
}

func NewSubmitSystem(ctrl *Controller, player LocalPlayer, interval time.Duration) *SubmitSystem {
	return &SubmitSystem{ctrl: ctrl, player: player, interval: interval}
}

func (s *SubmitSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SubmitSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed -= s.interval
	if s.elapsed >= s.interval {
		s.elapsed = 0
	}
	s.ctrl.Send(protocol.PlayerMoved{Movement: s.player.Movement()})
}

// OutputSystem flushes the tick's messages to the writer. Phase 4 (Output).
type OutputSystem struct {
	ctrl *Controller
}

func NewOutputSystem(ctrl *Controller) *OutputSystem {
	return &OutputSystem{ctrl: ctrl}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.ctrl.Flush()
}
