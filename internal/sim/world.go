package sim

import (
	"math"
	"time"

	"github.com/ghostrun/ghostnet/internal/client"
	"github.com/ghostrun/ghostnet/internal/core/event"
	coresys "github.com/ghostrun/ghostnet/internal/core/system"
	"github.com/ghostrun/ghostnet/internal/data"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
)

const (
	collisionTypeSolid cp.CollisionType = iota + 1
	collisionTypeRunner
	collisionTypeGhost
)

// Config describes the headless level.
type Config struct {
	LevelLength  float64 // x of the finish line
	Gravity      float64 // y-down, pixels/s²
	RunSpeed     float64 // pixels/s
	RunnerWidth  float64
	RunnerHeight float64
}

func DefaultConfig(levelLength float64) Config {
	return Config{
		LevelLength:  levelLength,
		Gravity:      900,
		RunSpeed:     240,
		RunnerWidth:  13,
		RunnerHeight: 16,
	}
}

// World is the client's local physics: one runner body that runs toward the
// finish line on a flat floor, plus a kinematic body per ghost. It stands in
// for the player-input and rendering collaborators. Game loop only.
type World struct {
	cfg   Config
	space *cp.Space

	runner      *cp.Body
	runnerShape *cp.Shape

	elapsed time.Duration // stopwatch for the current run
	laps    int

	ghosts int
	bus    *event.Bus
	log    *zap.Logger
}

func NewWorld(cfg Config, bus *event.Bus, log *zap.Logger) *World {
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: cfg.Gravity})

	w := &World{cfg: cfg, space: space, bus: bus, log: log}
	w.buildFloor()
	w.attachRunner()
	return w
}

// buildFloor lays a static segment along y=0 from behind the start to past
// the finish line.
func (w *World) buildFloor() {
	floor := cp.NewSegment(w.space.StaticBody,
		cp.Vector{X: -w.cfg.RunnerWidth * 10, Y: 0},
		cp.Vector{X: w.cfg.LevelLength + w.cfg.RunnerWidth*10, Y: 0},
		1,
	)
	floor.SetFriction(0.8)
	floor.SetCollisionType(collisionTypeSolid)
	w.space.AddShape(floor)
}

func (w *World) attachRunner() {
	body := cp.NewBody(1, math.Inf(1))
	body.SetAngle(0)
	body.SetAngularVelocity(0)
	body.SetPosition(w.startPosition())
	shape := cp.NewBox(body, w.cfg.RunnerWidth, w.cfg.RunnerHeight, 0)
	shape.SetFriction(0)
	shape.SetCollisionType(collisionTypeRunner)

	w.space.AddBody(body)
	w.space.AddShape(shape)
	w.runner = body
	w.runnerShape = shape
}

func (w *World) startPosition() cp.Vector {
	return cp.Vector{X: 0, Y: -w.cfg.RunnerHeight/2 - 1.5}
}

func (w *World) Phase() coresys.Phase { return coresys.PhaseUpdate }

// Update drives the runner, steps the space and checks the finish line.
func (w *World) Update(dt time.Duration) {
	v := w.runner.Velocity()
	w.runner.SetVelocity(w.cfg.RunSpeed, v.Y)
	w.space.Step(dt.Seconds())
	w.elapsed += dt

	if w.runner.Position().X >= w.cfg.LevelLength {
		w.finish()
	}
}

// finish reports the run time in whole seconds and puts the runner back at
// the start for another lap.
func (w *World) finish() {
	seconds := uint64(w.elapsed / time.Second)
	w.laps++
	w.log.Info("level finished",
		zap.Int("lap", w.laps),
		zap.Uint64("seconds", seconds),
	)
	event.Emit(w.bus, event.LevelFinished{ElapsedSeconds: seconds})

	w.elapsed = 0
	w.runner.SetPosition(w.startPosition())
	w.runner.SetVelocityVector(cp.Vector{})
}

// Movement reports the runner's kinematic state.
func (w *World) Movement() protocol.Movement {
	pos := w.runner.Position()
	vel := w.runner.Velocity()
	return protocol.Movement{
		VelocityX:    float32(vel.X),
		VelocityY:    float32(vel.Y),
		TranslationX: float32(pos.X),
		TranslationY: float32(pos.Y),
	}
}

// Elapsed returns the stopwatch of the current run.
func (w *World) Elapsed() time.Duration {
	return w.elapsed
}

// Ghosts returns the number of ghost bodies in the space.
func (w *World) Ghosts() int {
	return w.ghosts
}

// SpawnGhost adds a kinematic body sized by the sprite. Ghost shapes are
// sensors so they never push the local runner.
func (w *World) SpawnGhost(id uint64, sprite data.Sprite, m protocol.Movement) client.GhostHandle {
	body := cp.NewKinematicBody()
	shape := cp.NewBox(body, sprite.Width, sprite.Height, 0)
	shape.SetFriction(0)
	shape.SetSensor(true)
	shape.SetCollisionType(collisionTypeGhost)

	w.space.AddBody(body)
	w.space.AddShape(shape)
	w.ghosts++

	g := &ghostBody{world: w, id: id, body: body, shape: shape}
	g.Move(m)
	return g
}

type ghostBody struct {
	world   *World
	id      uint64
	body    *cp.Body
	shape   *cp.Shape
	removed bool
}

// Move places the ghost at the reported translation. Velocity is not
// applied; ghosts hold still between snapshots.
func (g *ghostBody) Move(m protocol.Movement) {
	if g.removed {
		return
	}
	g.body.SetPosition(cp.Vector{X: float64(m.TranslationX), Y: float64(m.TranslationY)})
	g.body.SetVelocityVector(cp.Vector{})
}

func (g *ghostBody) Despawn() {
	if g.removed {
		return
	}
	g.removed = true
	g.world.space.RemoveShape(g.shape)
	g.world.space.RemoveBody(g.body)
	g.world.ghosts--
}

// Position returns the ghost body's current position.
func (g *ghostBody) Position() (x, y float64) {
	p := g.body.Position()
	return p.X, p.Y
}
