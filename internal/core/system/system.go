package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain connection queues
	PhasePreUpdate               // 1: apply this tick's routed events
	PhaseUpdate                  // 2: liveness, local simulation, movement submission
	PhasePostUpdate              // 3: snapshot broadcast
	PhaseOutput                  // 4: flush buffered packets
)

// System is the interface every game-loop system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Func adapts a plain function into a System.
type Func struct {
	P  Phase
	Fn func(dt time.Duration)
}

func (f Func) Phase() Phase            { return f.P }
func (f Func) Update(dt time.Duration) { f.Fn(dt) }
