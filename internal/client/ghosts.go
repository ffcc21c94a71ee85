package client

import (
	"slices"

	"github.com/ghostrun/ghostnet/internal/data"
	"github.com/ghostrun/ghostnet/internal/protocol"
	"go.uber.org/zap"
)

// Ghost is a remote player the client believes present.
type Ghost struct {
	ID       uint64
	Movement protocol.Movement
	Sprite   data.Sprite
	handle   GhostHandle
}

// Ghosts mirrors the latest snapshot as spawned ghosts.
type Ghosts struct {
	renderer GhostRenderer
	sprites  *data.SpriteTable
	byID     map[uint64]*Ghost
	log      *zap.Logger
}

func NewGhosts(renderer GhostRenderer, sprites *data.SpriteTable, log *zap.Logger) *Ghosts {
	return &Ghosts{
		renderer: renderer,
		sprites:  sprites,
		byID:     make(map[uint64]*Ghost),
		log:      log,
	}
}

type ghostDiff struct {
	update  []protocol.PlayerUpdate
	despawn []uint64
	spawn   []protocol.PlayerUpdate
}

// Reconcile makes the ghost set equal to the snapshot's id set: present ids
// are moved, absent ones despawned, new ones spawned.
func (g *Ghosts) Reconcile(snap protocol.Snapshot) {
	d := g.diff(snap)

	for _, p := range d.update {
		ghost := g.byID[p.ID]
		ghost.Movement = p.Movement
		ghost.handle.Move(p.Movement)
	}
	for _, id := range d.despawn {
		g.byID[id].handle.Despawn()
		delete(g.byID, id)
		g.log.Debug("ghost despawned", zap.Uint64("id", id))
	}
	for _, p := range d.spawn {
		sprite := g.sprites.ForID(p.ID)
		g.byID[p.ID] = &Ghost{
			ID:       p.ID,
			Movement: p.Movement,
			Sprite:   sprite,
			handle:   g.renderer.SpawnGhost(p.ID, sprite, p.Movement),
		}
		g.log.Debug("ghost spawned", zap.Uint64("id", p.ID), zap.String("sprite", sprite.Path))
	}
}

// diff classifies the snapshot against the current ghosts. A repeated id
// keeps its last entry.
func (g *Ghosts) diff(snap protocol.Snapshot) ghostDiff {
	latest := make(map[uint64]protocol.PlayerUpdate, len(snap))
	order := make([]uint64, 0, len(snap))
	for _, p := range snap {
		if _, seen := latest[p.ID]; !seen {
			order = append(order, p.ID)
		}
		latest[p.ID] = p
	}

	var d ghostDiff
	for _, id := range order {
		if _, ok := g.byID[id]; ok {
			d.update = append(d.update, latest[id])
		} else {
			d.spawn = append(d.spawn, latest[id])
		}
	}
	for id := range g.byID {
		if _, ok := latest[id]; !ok {
			d.despawn = append(d.despawn, id)
		}
	}
	slices.Sort(d.despawn)
	return d
}

func (g *Ghosts) Get(id uint64) (*Ghost, bool) {
	ghost, ok := g.byID[id]
	return ghost, ok
}

func (g *Ghosts) Len() int {
	return len(g.byID)
}

// IDs returns the ghost ids in ascending order.
func (g *Ghosts) IDs() []uint64 {
	ids := make([]uint64, 0, len(g.byID))
	for id := range g.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
