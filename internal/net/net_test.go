package net

import (
	"bytes"
	"context"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"
)

var testConfig = SessionConfig{
	InQueueSize:  16,
	OutQueueSize: 16,
	WriteTimeout: time.Second,
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{102, 1, 2, 3}
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "frame length", buf.Len(), len(payload)+2)

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload = %v, want %v", got, payload)
	}
}

func TestFrameErrors(t *testing.T) {
	err := WriteFrame(&bytes.Buffer{}, nil)
	testutil.AssertErrorContains(t, err, "invalid payload size")

	err = WriteFrame(&bytes.Buffer{}, make([]byte, MaxPayload+1))
	testutil.AssertErrorContains(t, err, "invalid payload size")

	_, err = ReadFrame(bytes.NewReader([]byte{2, 0}))
	testutil.AssertErrorContains(t, err, "invalid frame length")

	_, err = ReadFrame(bytes.NewReader([]byte{8, 0, 1}))
	testutil.AssertErrorContains(t, err, "read frame payload")

	_, err = ReadFrame(bytes.NewReader([]byte{8}))
	testutil.AssertErrorContains(t, err, "read frame header")
}

func pipeSession(t *testing.T, id uint64) *Session {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { a.Close(); b.Close() })
	return NewSession(a, id, testConfig, zap.NewNop())
}

func TestSessionStore(t *testing.T) {
	st := NewSessionStore()
	s3 := pipeSession(t, 3)
	s1 := pipeSession(t, 1)
	s2 := pipeSession(t, 2)
	st.Add(s3)
	st.Add(s1)
	st.Add(s2)

	if !reflect.DeepEqual(st.Clients(), []uint64{1, 2, 3}) {
		t.Fatalf("clients = %v", st.Clients())
	}

	st.Disconnect(2)
	testutil.AssertEqual(t, "closed", s2.IsClosed(), true)
	if !reflect.DeepEqual(st.Clients(), []uint64{1, 3}) {
		t.Fatalf("clients after disconnect = %v", st.Clients())
	}
	testutil.AssertEqual(t, "count", st.Count(), 3)

	st.Send(1, []byte{101})
	st.Send(99, []byte{101})
	st.Broadcast([]byte{103, 0, 0, 0, 0, 0, 0, 0, 0})
	testutil.AssertEqual(t, "s1 buffered", len(s1.outBuf), 2)
	testutil.AssertEqual(t, "s3 buffered", len(s3.outBuf), 1)
	testutil.AssertEqual(t, "s2 buffered", len(s2.outBuf), 0)

	st.Remove(2)
	testutil.AssertEqual(t, "removed", st.Get(2) == nil, true)
}

func TestFlushOutputBackpressure(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	s := NewSession(a, 1, SessionConfig{InQueueSize: 1, OutQueueSize: 1}, zap.NewNop())

	s.Send([]byte{101})
	s.Send([]byte{101})
	s.FlushOutput()

	testutil.AssertEqual(t, "closed", s.IsClosed(), true)
	testutil.AssertEqual(t, "buffer cleared", len(s.outBuf), 0)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func recv(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func startLoopback(t *testing.T, cfg SessionConfig) (*Session, *Session) {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0", cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.AcceptLoop()
	t.Cleanup(srv.Shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cli, err := Dial(ctx, srv.Addr().String(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(cli.Close)

	select {
	case remote := <-srv.NewSessions():
		t.Cleanup(remote.Close)
		return cli, remote
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted")
		return nil, nil
	}
}

func TestLoopbackExchange(t *testing.T) {
	cli, remote := startLoopback(t, testConfig)
	testutil.AssertEqual(t, "server-assigned id", remote.ID, uint64(1))
	testutil.AssertEqual(t, "client id", cli.ID, uint64(0))

	cli.Send([]byte{1})
	cli.Send([]byte{3, 9, 9})
	cli.FlushOutput()

	if got := recv(t, remote.Inbound()); !bytes.Equal(got, []byte{1}) {
		t.Fatalf("first payload = %v", got)
	}
	if got := recv(t, remote.Inbound()); !bytes.Equal(got, []byte{3, 9, 9}) {
		t.Fatalf("second payload = %v", got)
	}

	remote.Send([]byte{101})
	remote.FlushOutput()
	if got := recv(t, cli.Inbound()); !bytes.Equal(got, []byte{101}) {
		t.Fatalf("reply = %v", got)
	}
}

func TestShutdownDeliversQueuedOutput(t *testing.T) {
	cli, remote := startLoopback(t, testConfig)

	cli.Send([]byte{5})
	cli.Shutdown(time.Second)
	testutil.AssertEqual(t, "client closed", cli.IsClosed(), true)

	if got := recv(t, remote.Inbound()); !bytes.Equal(got, []byte{5}) {
		t.Fatalf("payload = %v", got)
	}
	waitFor(t, "server side close", remote.IsClosed)
}

func TestRateLimitDisconnects(t *testing.T) {
	cfg := testConfig
	cfg.PacketsPerSecond = 1
	cfg.Burst = 1
	cli, remote := startLoopback(t, cfg)

	for i := 0; i < 3; i++ {
		cli.Send([]byte{1})
	}
	cli.FlushOutput()

	waitFor(t, "rate limited close", remote.IsClosed)
}
