// Package foodsys implements the three food-economy phases that run
// after collision each tick: death-to-loot conversion, the magnet
// effect, and respawn to target density (spec.md §4.5).
//
// Grounded on sonpython-slether__{snake,food,game_loop}.go for the
// death-drop and magnet algorithms (the teacher's world has no food at
// all), adapted to spec.md's exact formulas (loot count ~ length/20,
// quadratic magnet ease-in, reject-near-worm-heads respawn) rather than
// the reference's flat drop-rate/linear-pull choices.
package foodsys

import (
	"math"

	"wormarena/internal/food"
	"wormarena/internal/geomath"
	"wormarena/internal/ids"
	"wormarena/internal/spatial"
	"wormarena/internal/world"
)

// Tunables is the subset of config.Tunables this package needs.
type Tunables struct {
	FoodMinRadius  float64
	FoodMaxRadius  float64
	RMagnet        float64
	MagnetVMin     float64
	MagnetVMax     float64
	FoodTarget     int
	RespawnPerTick int
	SpawnRejectR   float64 // min distance from a living worm head to accept a respawn position
}

// RandSource supplies uniform [0,1) values; a real process passes
// math/rand, tests pass a deterministic stub.
type RandSource func() float64

// ProcessDeaths converts every worm marked dead-but-not-yet-processed
// into loot scattered along its former segments, then removes it from
// the world. A worm is converted and removed in the same call; when the
// Room runs this in its food phase, that is the tick in which the worm
// died. The worm is not kept in the world for a further tick.
func ProcessDeaths(w *world.World, grid *spatial.Grid, segmentsOf func(id ids.WormID) []geomath.Point, lengthOf func(id ids.WormID) float64, rand RandSource) {
	var toRemove []ids.WormID

	for id, wm := range w.Worms {
		if wm.IsAlive {
			continue
		}
		segs := segmentsOf(id)
		length := lengthOf(id)

		count := int(math.Max(1, math.Floor(length/20)))
		if count > len(segs) {
			count = len(segs)
		}
		if count < 1 && len(segs) > 0 {
			count = 1
		}

		for i := 0; i < count; i++ {
			var pos geomath.Point
			if len(segs) > 0 {
				pos = segs[i*len(segs)/max1(count)]
			}
			r := lootRadius(rand)
			value := int(math.Max(1, math.Floor(r*0.5)))
			color := food.ColorFor(food.TierLoot, rand)
			fid := w.NextFoodID()
			f := food.New(fid, pos, value, r, color, food.TierLoot)
			w.AddFood(f)
			grid.AddFood(uint64(fid), pos.X, pos.Y)
		}

		toRemove = append(toRemove, id)
	}

	for _, id := range toRemove {
		w.RemoveWorm(id)
	}
}

func lootRadius(rand RandSource) float64 {
	// U(FOOD_MIN+2, FOOD_MAX+4), per spec.md §4.5(a); with the package
	// defaults (3, 8) this is U(5, 12).
	const lo, hi = 5.0, 12.0
	return lo + rand()*(hi-lo)
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// ApplyMagnet pulls nearby food toward each living worm's head with a
// quadratic ease-in speed curve (units/s, scaled by dt). Moving food
// (already self-propelled) is exempt. Magnet never consumes — it only
// relocates.
func ApplyMagnet(w *world.World, grid *spatial.Grid, t Tunables, dt float64, headOf func(id ids.WormID) geomath.Point) {
	for id, wm := range w.Worms {
		if !wm.IsAlive {
			continue
		}
		head := headOf(id)
		nearby := grid.FoodInRadius(head.X, head.Y, t.RMagnet)
		for _, fid := range nearby {
			f, ok := w.Food[ids.FoodID(fid)]
			if !ok || f.IsConsumed || f.Tier == food.TierMoving {
				continue
			}
			dist := geomath.Dist(head, f.Position)
			if dist >= t.RMagnet || dist == 0 {
				continue
			}
			frac := 1 - dist/t.RMagnet
			speed := t.MagnetVMin + (t.MagnetVMax-t.MagnetVMin)*frac*frac
			moveBy := speed * dt
			if moveBy > dist {
				moveBy = dist
			}
			dx := (head.X - f.Position.X) / dist
			dy := (head.Y - f.Position.Y) / dist
			grid.RemoveFood(fid)
			f.Position.X += dx * moveBy
			f.Position.Y += dy * moveBy
			grid.AddFood(fid, f.Position.X, f.Position.Y)
		}
	}
}

// Respawn spawns new food up to FoodTarget, bounded by RespawnPerTick
// per tick, positioned uniformly over the playfield disk, rejecting
// positions too close to a living worm's head (falling back to any
// disk position after 10 failed attempts), per spec.md §4.5(c).
func Respawn(w *world.World, grid *spatial.Grid, t Tunables, rand RandSource) {
	deficit := t.FoodTarget - len(w.Food)
	if deficit <= 0 {
		return
	}
	spawn := deficit
	if spawn > t.RespawnPerTick {
		spawn = t.RespawnPerTick
	}

	center := w.Center()
	margin := 100.0
	diskR := w.RMap - margin
	if diskR < 0 {
		diskR = w.RMap
	}

	for i := 0; i < spawn; i++ {
		pos := findSafeSpawnPosition(w, center, diskR, t.SpawnRejectR, rand)
		isMedium := rand() < 0.10
		tier := food.TierCommon
		value := 1
		radius := t.FoodMinRadius
		if isMedium {
			tier = food.TierMedium
			value = 3
			radius = (t.FoodMinRadius + t.FoodMaxRadius) / 2
		}
		color := food.ColorFor(tier, rand)
		fid := w.NextFoodID()
		f := food.New(fid, pos, value, radius, color, tier)
		w.AddFood(f)
		grid.AddFood(uint64(fid), pos.X, pos.Y)
	}
}

func findSafeSpawnPosition(w *world.World, center geomath.Point, diskR, rejectR float64, rand RandSource) geomath.Point {
	for attempt := 0; attempt < 10; attempt++ {
		pos := geomath.RandomPointInDisk(center.X, center.Y, diskR, rand)
		safe := true
		for _, wm := range w.Worms {
			if !wm.IsAlive {
				continue
			}
			if geomath.Dist(pos, wm.Head) < rejectR {
				safe = false
				break
			}
		}
		if safe {
			return pos
		}
	}
	return geomath.RandomPointInDisk(center.X, center.Y, diskR, rand)
}
