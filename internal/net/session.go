package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghostrun/ghostnet/internal/net/packet"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SessionConfig sizes a connection's queues and limits.
type SessionConfig struct {
	InQueueSize      int
	OutQueueSize     int
	WriteTimeout     time.Duration
	PacketsPerSecond int // 0 = unlimited
	Burst            int
}

// Session represents a single connection, on either end. Network I/O runs
// in dedicated goroutines; everything else is called from the game loop.
type Session struct {
	ID   uint64
	conn net.Conn

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue  chan []byte // game loop reads payloads from here
	OutQueue chan []byte // writer goroutine reads from here

	IP string

	outBuf  [][]byte     // buffered payloads, flushed once per tick (game loop only)
	pending atomic.Int64 // payloads handed to OutQueue but not yet written

	writeTimeout time.Duration
	limiter      *rate.Limiter // readLoop goroutine only

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, cfg SessionConfig, log *zap.Logger) *Session {
	s := &Session{
		ID:           id,
		conn:         conn,
		InQueue:      make(chan []byte, cfg.InQueueSize),
		OutQueue:     make(chan []byte, cfg.OutQueueSize),
		IP:           conn.RemoteAddr().String(),
		writeTimeout: cfg.WriteTimeout,
		closeCh:      make(chan struct{}),
		log:          log.With(zap.Uint64("session", id)),
	}
	if cfg.PacketsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = cfg.PacketsPerSecond
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.PacketsPerSecond), burst)
	}
	s.state.Store(int32(packet.StateConnected))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Inbound returns the queue of received payloads.
func (s *Session) Inbound() <-chan []byte {
	return s.InQueue
}

// Send buffers a payload for sending. Nothing reaches the socket until
// FlushOutput is called. Game loop only.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, data)
}

// FlushOutput drains the output buffer to OutQueue for the writeLoop goroutine.
// Non-blocking: if OutQueue is full, the session is disconnected (backpressure).
func (s *Session) FlushOutput() {
	for _, data := range s.outBuf {
		if s.closed.Load() {
			break
		}
		s.pending.Add(1)
		select {
		case s.OutQueue <- data:
		default:
			s.pending.Add(-1)
			s.log.Warn("output queue full, dropping slow connection")
			s.Close()
		}
	}
	clear(s.outBuf)
	s.outBuf = s.outBuf[:0]
}

// Shutdown flushes buffered output, waits up to timeout for the writer to
// put it on the wire, then closes. Nothing is acknowledged by the peer.
func (s *Session) Shutdown(timeout time.Duration) {
	s.FlushOutput()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	poll := time.NewTicker(5 * time.Millisecond)
	defer poll.Stop()

	for s.pending.Load() > 0 {
		select {
		case <-deadline.C:
			s.log.Debug("shutdown timed out with unsent output", zap.Int64("pending", s.pending.Load()))
			s.Close()
			return
		case <-s.closeCh:
			return
		case <-poll.C:
		}
	}
	s.Close()
}

// Close shuts down the session. Safe to call from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop reads frames from the connection and pushes them onto InQueue
// for the game loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.log.Warn("packet rate exceeded, disconnecting")
			return
		}

		// Block until InQueue has space or the session closes. Dropping here
		// would reorder a client's messages relative to each other.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop reads payloads from OutQueue and writes them as frames.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			ok := s.writeOne(data)
			s.pending.Add(-1)
			if !ok {
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

func (s *Session) writeOne(data []byte) bool {
	if len(data) > 0 {
		s.log.Debug("TX",
			zap.Uint8("op", data[0]),
			zap.Int("len", len(data)),
		)
	}

	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if err := WriteFrame(s.conn, data); err != nil {
		if !s.closed.Load() {
			s.log.Debug("write error", zap.Error(err))
		}
		return false
	}
	return true
}
