package system

import (
	"time"

	coresys "github.com/ghostrun/ghostnet/internal/core/system"
	"github.com/ghostrun/ghostnet/internal/net"
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"go.uber.org/zap"
)

// InputSystem accepts new connections and drains every connection's inbound
// queue through the packet registry. Phase 0 (Input).
type InputSystem struct {
	conns      <-chan *net.Session
	registry   *packet.Registry
	store      *net.SessionStore
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	conns <-chan *net.Session,
	registry *packet.Registry,
	store *net.SessionStore,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		conns:      conns,
		registry:   registry,
		store:      store,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.conns:
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Drain in ascending id order, arrival order within a connection.
	s.store.ForEach(func(sess *net.Session) {
		if sess.IsClosed() {
			// Whatever arrived before the close is still routed, e.g. a
			// LeaveGame sent right before the client hung up.
			s.drain(sess, cap(sess.InQueue))
			s.store.Remove(sess.ID)
			// The world session is left for the reaper.
			s.log.Info("client disconnected", zap.Uint64("session", sess.ID), zap.String("ip", sess.IP))
			return
		}
		s.drain(sess, s.maxPerTick)
	})
}

func (s *InputSystem) drain(sess *net.Session, limit int) {
	for i := 0; i < limit; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess.ID, sess.State(), data); err != nil {
				s.log.Debug("packet dispatch error",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}
