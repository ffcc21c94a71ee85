package system

import (
	gonet "net"
	"reflect"
	"testing"
	"time"

	"github.com/ghostrun/ghostnet/internal/core/event"
	coresys "github.com/ghostrun/ghostnet/internal/core/system"
	"github.com/ghostrun/ghostnet/internal/handler"
	"github.com/ghostrun/ghostnet/internal/net"
	"github.com/ghostrun/ghostnet/internal/net/packet"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"github.com/ghostrun/ghostnet/internal/world"
	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"
)

type sent struct {
	to  uint64 // 0 for broadcast
	msg protocol.Message
}

type fakeTransport struct {
	clients      []uint64
	out          []sent
	disconnected []uint64
	flushes      int
}

func (f *fakeTransport) Send(clientID uint64, data []byte) {
	m, err := protocol.Decode(data)
	if err != nil {
		panic(err)
	}
	f.out = append(f.out, sent{to: clientID, msg: m})
}

func (f *fakeTransport) Broadcast(data []byte) {
	m, err := protocol.Decode(data)
	if err != nil {
		panic(err)
	}
	f.out = append(f.out, sent{msg: m})
}

func (f *fakeTransport) Clients() []uint64 { return f.clients }

func (f *fakeTransport) Disconnect(clientID uint64) {
	f.disconnected = append(f.disconnected, clientID)
}

func (f *fakeTransport) FlushAll() { f.flushes++ }

func (f *fakeTransport) take() []sent {
	out := f.out
	f.out = nil
	return out
}

// server wires the routing and scheduling systems around a fake transport.
// Messages are fed straight into the registry, standing in for InputSystem.
type server struct {
	reg    *packet.Registry
	deps   *handler.Deps
	out    *fakeTransport
	runner *coresys.Runner
	inbox  []inbound
}

type inbound struct {
	from uint64
	msg  protocol.Message
}

func newServer(clients ...uint64) *server {
	out := &fakeTransport{clients: clients}
	deps := &handler.Deps{
		Sessions:  world.NewSessions(),
		Highscore: &world.Highscore{},
		Out:       out,
		Bus:       event.NewBus(),
		Log:       zap.NewNop(),
	}
	reg := packet.NewRegistry(zap.NewNop())
	handler.RegisterAll(reg, deps)
	handler.SubscribeAll(deps)

	srv := &server{reg: reg, deps: deps, out: out}
	r := coresys.NewRunner()
	r.Register(coresys.Func{P: coresys.PhaseInput, Fn: func(time.Duration) {
		for _, in := range srv.inbox {
			_ = reg.Dispatch(in.from, packet.StateConnected, protocol.Encode(in.msg))
		}
		srv.inbox = nil
	}})
	r.Register(NewEventSystem(deps.Bus))
	r.Register(NewReaperSystem(deps.Sessions, out, 10*time.Second, zap.NewNop()))
	r.Register(NewBroadcastSystem(deps.Sessions, out, time.Second, zap.NewNop()))
	r.Register(NewOutputSystem(out))
	srv.runner = r
	return srv
}

func (s *server) recv(from uint64, msgs ...protocol.Message) {
	for _, m := range msgs {
		s.inbox = append(s.inbox, inbound{from: from, msg: m})
	}
}

func mv(x, y float32) protocol.Movement {
	return protocol.Movement{VelocityX: 1, VelocityY: -1, TranslationX: x, TranslationY: y}
}

func assertSent(t *testing.T, got, want []sent) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sent = %+v\nwant %+v", got, want)
	}
}

func TestJoinReceivesCurrentHighscore(t *testing.T) {
	srv := newServer(7)
	srv.recv(7, protocol.JoinGame{Movement: mv(1, 2)})
	srv.runner.Tick(16 * time.Millisecond)

	assertSent(t, srv.out.take(), []sent{{to: 7, msg: protocol.InformAboutHighscore{TimeInSeconds: 0}}})
	testutil.AssertEqual(t, "flushes", srv.out.flushes, 1)
}

func TestSnapshotExcludesRecipient(t *testing.T) {
	srv := newServer(1, 2)
	srv.recv(1, protocol.JoinGame{Movement: mv(10, 0)})
	srv.recv(2, protocol.JoinGame{Movement: mv(20, 0)})
	srv.runner.Tick(500 * time.Millisecond)
	srv.out.take()

	srv.runner.Tick(500 * time.Millisecond)
	assertSent(t, srv.out.take(), []sent{
		{to: 1, msg: protocol.UpdateMovedPlayers{Players: protocol.Snapshot{{ID: 2, Movement: mv(20, 0)}}}},
		{to: 2, msg: protocol.UpdateMovedPlayers{Players: protocol.Snapshot{{ID: 1, Movement: mv(10, 0)}}}},
	})
}

func TestJoinVisibleToBroadcastInSameTick(t *testing.T) {
	srv := newServer(1, 2)
	srv.recv(1, protocol.JoinGame{Movement: mv(1, 1)})
	srv.runner.Tick(999 * time.Millisecond)
	srv.out.take()

	srv.recv(2, protocol.JoinGame{Movement: mv(2, 2)})
	srv.runner.Tick(time.Millisecond)
	assertSent(t, srv.out.take(), []sent{
		{to: 2, msg: protocol.InformAboutHighscore{}},
		{to: 1, msg: protocol.UpdateMovedPlayers{Players: protocol.Snapshot{{ID: 2, Movement: mv(2, 2)}}}},
		{to: 2, msg: protocol.UpdateMovedPlayers{Players: protocol.Snapshot{{ID: 1, Movement: mv(1, 1)}}}},
	})
}

func TestEmptySnapshotStillSent(t *testing.T) {
	srv := newServer(3)
	srv.runner.Tick(time.Second)

	assertSent(t, srv.out.take(), []sent{
		{to: 3, msg: protocol.UpdateMovedPlayers{Players: protocol.Snapshot{}}},
	})
}

func TestBroadcastCadence(t *testing.T) {
	srv := newServer(1)
	count := 0
	for i := 0; i < 100; i++ {
		srv.runner.Tick(50 * time.Millisecond)
		count += len(srv.out.take())
	}
	testutil.AssertEqual(t, "snapshots in 5s", count, 5)
}

func TestLatestMovementWins(t *testing.T) {
	srv := newServer(1, 2)
	srv.recv(1, protocol.JoinGame{Movement: mv(0, 0)})
	srv.recv(2, protocol.JoinGame{})
	srv.recv(1, protocol.PlayerMoved{Movement: mv(5, 0)}, protocol.PlayerMoved{Movement: mv(6, 0)})
	srv.runner.Tick(time.Second)

	got := srv.out.take()
	want := sent{to: 2, msg: protocol.UpdateMovedPlayers{Players: protocol.Snapshot{{ID: 1, Movement: mv(6, 0)}}}}
	if !reflect.DeepEqual(got[len(got)-1], want) {
		t.Fatalf("last sent = %+v, want %+v", got[len(got)-1], want)
	}
}

func TestSilentPlayerEvicted(t *testing.T) {
	srv := newServer(4)
	srv.recv(4, protocol.JoinGame{Movement: mv(1, 1)})
	srv.runner.Tick(0)

	for i := 0; i < 10; i++ {
		srv.runner.Tick(time.Second)
	}
	testutil.AssertEqual(t, "alive at exactly the timeout", srv.deps.Sessions.Len(), 1)
	testutil.AssertEqual(t, "no disconnect yet", len(srv.out.disconnected), 0)

	srv.runner.Tick(time.Millisecond)
	testutil.AssertEqual(t, "evicted", srv.deps.Sessions.Len(), 0)
	if !reflect.DeepEqual(srv.out.disconnected, []uint64{4}) {
		t.Fatalf("disconnected = %v", srv.out.disconnected)
	}

	// a late move does not bring the session back
	srv.recv(4, protocol.PlayerMoved{Movement: mv(9, 9)})
	srv.runner.Tick(16 * time.Millisecond)
	testutil.AssertEqual(t, "sessions after late move", srv.deps.Sessions.Len(), 0)
}

func TestMovementKeepsPlayerAlive(t *testing.T) {
	srv := newServer(5)
	srv.recv(5, protocol.JoinGame{})
	srv.runner.Tick(0)

	for i := 0; i < 30; i++ {
		srv.recv(5, protocol.PlayerMoved{Movement: mv(float32(i), 0)})
		srv.runner.Tick(time.Second)
	}
	testutil.AssertEqual(t, "sessions", srv.deps.Sessions.Len(), 1)
	testutil.AssertEqual(t, "disconnects", len(srv.out.disconnected), 0)
}

func TestEvictedPlayerLeavesSnapshotSameTick(t *testing.T) {
	srv := newServer(1, 2)
	srv.recv(1, protocol.JoinGame{})
	srv.recv(2, protocol.JoinGame{})
	srv.runner.Tick(0)
	srv.out.take()

	// only client 2 keeps talking
	for i := 0; i < 10; i++ {
		srv.recv(2, protocol.PlayerMoved{})
		srv.runner.Tick(time.Second)
		srv.out.take()
	}
	srv.recv(2, protocol.PlayerMoved{Movement: mv(3, 3)})
	srv.runner.Tick(time.Second)

	got := srv.out.take()
	assertSent(t, got, []sent{
		{to: 1, msg: protocol.UpdateMovedPlayers{Players: protocol.Snapshot{{ID: 2, Movement: mv(3, 3)}}}},
		{to: 2, msg: protocol.UpdateMovedPlayers{Players: protocol.Snapshot{}}},
	})
}

func TestHighscoreBroadcastToEveryone(t *testing.T) {
	srv := newServer(1, 2)
	srv.recv(1, protocol.RequestPossibleHighscore{TimeInSeconds: 42})
	srv.runner.Tick(0)
	srv.recv(2, protocol.RequestPossibleHighscore{TimeInSeconds: 30})
	srv.runner.Tick(0)
	srv.recv(1, protocol.RequestPossibleHighscore{TimeInSeconds: 0})
	srv.runner.Tick(0)

	assertSent(t, srv.out.take(), []sent{
		{msg: protocol.InformAboutHighscore{TimeInSeconds: 42}},
		{msg: protocol.InformAboutHighscore{TimeInSeconds: 30}},
	})
	testutil.AssertEqual(t, "best", srv.deps.Highscore.Best(), uint64(30))

	srv.recv(3, protocol.JoinGame{})
	srv.runner.Tick(0)
	assertSent(t, srv.out.take(), []sent{{to: 3, msg: protocol.InformAboutHighscore{TimeInSeconds: 30}}})
}

func TestSnapshotTruncatedToFrame(t *testing.T) {
	srv := newServer(1)
	for id := uint64(2); id < uint64(protocol.MaxSnapshotPlayers)+10; id++ {
		srv.deps.Sessions.Join(id, protocol.Movement{})
	}
	srv.runner.Tick(time.Second)

	got := srv.out.take()
	testutil.AssertEqual(t, "messages", len(got), 1)
	snap := got[0].msg.(protocol.UpdateMovedPlayers).Players
	testutil.AssertEqual(t, "players", len(snap), protocol.MaxSnapshotPlayers)
}

func pipeSession(t *testing.T, id uint64) *net.Session {
	t.Helper()
	c1, c2 := gonet.Pipe()
	t.Cleanup(func() { c1.Close(); c2.Close() })
	return net.NewSession(c1, id, net.SessionConfig{InQueueSize: 8, OutQueueSize: 8}, zap.NewNop())
}

func TestInputSystemRoutesAndForgetsClosedConnections(t *testing.T) {
	sessions := world.NewSessions()
	store := net.NewSessionStore()
	bus := event.NewBus()
	deps := &handler.Deps{
		Sessions:  sessions,
		Highscore: &world.Highscore{},
		Out:       store,
		Bus:       bus,
		Log:       zap.NewNop(),
	}
	reg := packet.NewRegistry(zap.NewNop())
	handler.RegisterAll(reg, deps)
	handler.SubscribeAll(deps)

	conns := make(chan *net.Session, 4)
	input := NewInputSystem(conns, reg, store, 1, zap.NewNop())
	events := NewEventSystem(bus)

	a, b := pipeSession(t, 1), pipeSession(t, 2)
	conns <- a
	conns <- b
	a.InQueue <- protocol.Encode(protocol.JoinGame{Movement: mv(1, 0)})
	a.InQueue <- protocol.Encode(protocol.PlayerMoved{Movement: mv(2, 0)})
	b.InQueue <- protocol.Encode(protocol.JoinGame{Movement: mv(7, 0)})

	input.Update(0)
	events.Update(0)
	testutil.AssertEqual(t, "connections", store.Count(), 2)
	testutil.AssertEqual(t, "sessions", sessions.Len(), 2)
	s, _ := sessions.Get(1)
	testutil.AssertEqual(t, "move deferred by per-tick cap", s.Movement, mv(1, 0))

	input.Update(0)
	events.Update(0)
	s, _ = sessions.Get(1)
	testutil.AssertEqual(t, "move applied", s.Movement, mv(2, 0))

	b.Close()
	input.Update(0)
	testutil.AssertEqual(t, "connections after close", store.Count(), 1)
	testutil.AssertEqual(t, "world session kept for reaper", sessions.Len(), 2)
}

func TestInputSystemHonoursLeaveBeforeClose(t *testing.T) {
	sessions := world.NewSessions()
	store := net.NewSessionStore()
	bus := event.NewBus()
	deps := &handler.Deps{
		Sessions:  sessions,
		Highscore: &world.Highscore{},
		Out:       store,
		Bus:       bus,
		Log:       zap.NewNop(),
	}
	reg := packet.NewRegistry(zap.NewNop())
	handler.RegisterAll(reg, deps)
	handler.SubscribeAll(deps)

	conns := make(chan *net.Session, 1)
	input := NewInputSystem(conns, reg, store, 4, zap.NewNop())

	a := pipeSession(t, 1)
	conns <- a
	a.InQueue <- protocol.Encode(protocol.JoinGame{})
	input.Update(0)
	bus.DispatchAll()
	testutil.AssertEqual(t, "joined", sessions.Len(), 1)

	a.InQueue <- protocol.Encode(protocol.LeaveGame{})
	a.Close()
	input.Update(0)
	bus.DispatchAll()
	testutil.AssertEqual(t, "left", sessions.Len(), 0)
	testutil.AssertEqual(t, "connections", store.Count(), 0)
}
