package sim

import (
	"testing"
	"time"

	"github.com/ghostrun/ghostnet/internal/core/event"
	"github.com/ghostrun/ghostnet/internal/data"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"github.com/pixil98/go-testutil"
	"go.uber.org/zap"
)

func newTestWorld(levelLength, speed float64) (*World, *event.Bus) {
	bus := event.NewBus()
	cfg := DefaultConfig(levelLength)
	cfg.RunSpeed = speed
	return NewWorld(cfg, bus, zap.NewNop()), bus
}

func TestRunnerMovesTowardFinish(t *testing.T) {
	w, _ := newTestWorld(10000, 200)
	start := w.Movement()

	for i := 0; i < 50; i++ {
		w.Update(20 * time.Millisecond)
	}

	m := w.Movement()
	if m.TranslationX <= start.TranslationX+150 {
		t.Fatalf("runner x = %f, expected roughly 200 after 1s", m.TranslationX)
	}
	if m.VelocityX < 199 || m.VelocityX > 201 {
		t.Fatalf("runner vx = %f, want 200", m.VelocityX)
	}
	if m.TranslationY > 0 {
		t.Fatalf("runner fell through the floor: y = %f", m.TranslationY)
	}
}

func TestFinishEmitsWholeSeconds(t *testing.T) {
	w, bus := newTestWorld(500, 200)
	var finished []uint64
	event.Subscribe(bus, func(e event.LevelFinished) { finished = append(finished, e.ElapsedSeconds) })

	for i := 0; i < 200 && len(finished) == 0; i++ {
		w.Update(20 * time.Millisecond)
		bus.DispatchAll()
	}

	if len(finished) != 1 {
		t.Fatalf("finished = %v, want one lap", finished)
	}
	testutil.AssertEqual(t, "seconds", finished[0], uint64(2))
	testutil.AssertEqual(t, "stopwatch reset", w.Elapsed(), time.Duration(0))
	if x := w.Movement().TranslationX; x > 10 {
		t.Fatalf("runner not back at start: x = %f", x)
	}
}

func TestGhostLifecycle(t *testing.T) {
	w, _ := newTestWorld(1000, 0)
	sprite := data.Sprite{Path: "player_sprites/Charakter3.png", Width: 13, Height: 16}

	h := w.SpawnGhost(2, sprite, protocol.Movement{TranslationX: 40, TranslationY: -8, VelocityX: 99})
	testutil.AssertEqual(t, "ghosts", w.Ghosts(), 1)

	g := h.(*ghostBody)
	x, y := g.Position()
	testutil.AssertEqual(t, "spawn x", x, 40.0)
	testutil.AssertEqual(t, "spawn y", y, -8.0)

	h.Move(protocol.Movement{TranslationX: 60, TranslationY: -8, VelocityX: 99})
	w.Update(100 * time.Millisecond)
	x, _ = g.Position()
	testutil.AssertEqual(t, "ghost holds reported position", x, 60.0)

	h.Despawn()
	h.Despawn()
	testutil.AssertEqual(t, "ghosts after despawn", w.Ghosts(), 0)
}
