package system

import (
	"reflect"
	"testing"
	"time"
)

func TestRunnerPhaseOrder(t *testing.T) {
	var order []string
	record := func(name string, p Phase) System {
		return Func{P: p, Fn: func(time.Duration) { order = append(order, name) }}
	}

	r := NewRunner()
	r.Register(record("flush", PhaseOutput))
	r.Register(record("broadcast", PhasePostUpdate))
	r.Register(record("reaper", PhaseUpdate))
	r.Register(record("events", PhasePreUpdate))
	r.Register(record("input", PhaseInput))
	r.Register(record("submit", PhaseUpdate))

	r.Tick(time.Millisecond)

	want := []string{"input", "events", "reaper", "submit", "broadcast", "flush"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestRunnerPassesElapsed(t *testing.T) {
	var total time.Duration
	r := NewRunner()
	r.Register(Func{P: PhaseUpdate, Fn: func(dt time.Duration) { total += dt }})

	r.Tick(20 * time.Millisecond)
	r.Tick(30 * time.Millisecond)

	if total != 50*time.Millisecond {
		t.Fatalf("total = %s, want 50ms", total)
	}
}
