// Package world owns the authoritative per-room game state: every
// Worm, Food, and Player, plus the rectangle/circle geometry of the
// playfield. Grounded on the teacher's server/room.go, which owns
// Players the same way (a map plus channels for cross-context
// mutation) — generalized here to also own Worms and Food. The maps
// are plain containers; World itself does not check invariants.
package world

import (
	"wormarena/internal/food"
	"wormarena/internal/geomath"
	"wormarena/internal/ids"
	"wormarena/internal/worm"
)

// Player is a connected participant. It owns only the ID of its current
// Worm, never a pointer, per spec.md §9.
type Player struct {
	ID             ids.PlayerID
	SocketID       string
	Name           string
	Score          int
	WormID         ids.WormID
	HasWorm        bool
	LastInputTime  int64
	IsAlive        bool
}

// World holds all live entities for one Room.
type World struct {
	Worms   map[ids.WormID]*worm.Worm
	Food    map[ids.FoodID]*food.Food
	Players map[ids.PlayerID]*Player

	WorldWidth  float64
	WorldHeight float64
	RMap        float64 // circular playfield radius

	CurrentTick   int64
	StartTimeMs   int64

	nextWormID ids.WormID
	nextFoodID ids.FoodID
}

// New creates an empty world of the given rectangle size. RMap is
// derived as width/2, the circular playfield inscribed in that
// rectangle, per spec.md §3.
func New(width, height float64, startTimeMs int64) *World {
	return &World{
		Worms:       make(map[ids.WormID]*worm.Worm),
		Food:        make(map[ids.FoodID]*food.Food),
		Players:     make(map[ids.PlayerID]*Player),
		WorldWidth:  width,
		WorldHeight: height,
		RMap:        width / 2,
		StartTimeMs: startTimeMs,
	}
}

// Center returns the world midpoint, the center of the circular
// playfield.
func (w *World) Center() geomath.Point {
	return geomath.Point{X: w.WorldWidth / 2, Y: w.WorldHeight / 2}
}

// NextWormID allocates a fresh, never-reused worm ID.
func (w *World) NextWormID() ids.WormID {
	w.nextWormID++
	return w.nextWormID
}

// NextFoodID allocates a fresh, never-reused food ID.
func (w *World) NextFoodID() ids.FoodID {
	w.nextFoodID++
	return w.nextFoodID
}

// AddPlayer registers a newly joined player.
func (w *World) AddPlayer(p *Player) {
	w.Players[p.ID] = p
}

// RemovePlayer removes a player (and, if present, leaves its worm to be
// cleaned up by the normal death pipeline — the caller is responsible
// for killing the worm first if an immediate removal is desired).
func (w *World) RemovePlayer(id ids.PlayerID) {
	delete(w.Players, id)
}

// AddWorm registers a newly spawned worm.
func (w *World) AddWorm(wm *worm.Worm) {
	w.Worms[wm.ID] = wm
}

// RemoveWorm deletes a worm from the world. Called by the Food
// subsystem once it has converted a dead worm to loot, in the same tick
// the worm died.
func (w *World) RemoveWorm(id ids.WormID) {
	delete(w.Worms, id)
}

// AddFood registers a food item.
func (w *World) AddFood(f *food.Food) {
	w.Food[f.ID] = f
}

// RemoveFood deletes a food item, e.g. on consumption.
func (w *World) RemoveFood(id ids.FoodID) {
	delete(w.Food, id)
}

// LivingWorms returns the set of currently alive worms. The returned
// slice is freshly allocated each call; callers in a hot path should
// prefer iterating w.Worms directly and checking IsAlive when order
// does not matter.
func (w *World) LivingWorms() []*worm.Worm {
	out := make([]*worm.Worm, 0, len(w.Worms))
	for _, wm := range w.Worms {
		if wm.IsAlive {
			out = append(out, wm)
		}
	}
	return out
}
