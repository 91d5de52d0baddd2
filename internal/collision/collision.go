// Package collision implements worm↔worm and worm↔food resolution
// using the spatial index built earlier in the tick. Order within the
// tick is deterministic: worms are visited in ascending ID order
// (their insertion order, since IDs are allocated monotonically),
// matching spec.md §4.4.
//
// Grounded on sonpython-slether__game_loop.go's detectCollisions and
// collectFood (the teacher has no collision system at all — its world
// has nothing to collide with), adapted to spec.md's head-vs-body-only
// kill model (no head-to-head rule) and its anti-tunneling sweep test,
// neither of which the reference implements.
package collision

import (
	"sort"

	"wormarena/internal/food"
	"wormarena/internal/geomath"
	"wormarena/internal/ids"
	"wormarena/internal/spatial"
	"wormarena/internal/world"
	"wormarena/internal/worm"
)

// EventType distinguishes the two kinds of collision event spec.md §4
// names.
type EventType int

const (
	EventWormWorm EventType = iota
	EventWormFood
)

// Event records a single collision resolution for the leaderboard/score
// pipeline and for observability.
type Event struct {
	Type     EventType
	Victim   ids.WormID
	Killer   ids.WormID // EventWormWorm only
	Food     ids.FoodID // EventWormFood only
	Position geomath.Point
}

func sortedLivingWormIDs(w *world.World) []ids.WormID {
	out := make([]ids.WormID, 0, len(w.Worms))
	for id, wm := range w.Worms {
		if wm.IsAlive {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ResolveWormWorm tests every living worm's head against every nearby
// living worm's body, killing worms on first intersection. Worms within
// spawnGraceMs of spawn are immune and skipped as victims entirely
// (spec.md invariant I6/P3). selfCollision, when enabled, additionally
// tests a worm's head against its own segments beyond index 5 (the
// neck) — disabled by default per spec.md §4.4/§9.
func ResolveWormWorm(w *world.World, grid *spatial.Grid, nowMs int64, t worm.Tunables, spawnGraceMs int64, selfCollision bool) []Event {
	var events []Event

	for _, victimID := range sortedLivingWormIDs(w) {
		wm, ok := w.Worms[victimID]
		if !ok || !wm.IsAlive {
			continue
		}
		if nowMs-wm.SpawnTimeMs < spawnGraceMs {
			continue
		}

		headRadius := wm.Segments(t)[0].Radius
		candidateIDs := grid.NearbyWorms(wm.Head.X, wm.Head.Y)

		killed := false
		for _, otherID := range candidateIDs {
			if otherID == uint64(victimID) {
				continue
			}
			other, ok := w.Worms[ids.WormID(otherID)]
			if !ok || !other.IsAlive {
				continue
			}
			for _, seg := range other.Segments(t) {
				if geomath.CirclesIntersect(wm.Head, headRadius, seg.Point, seg.Radius) {
					wm.Die()
					events = append(events, Event{Type: EventWormWorm, Victim: victimID, Killer: other.ID, Position: wm.Head})
					killed = true
					break
				}
			}
			if killed {
				break
			}
		}

		if killed || !selfCollision {
			continue
		}
		selfSegs := wm.Segments(t)
		for i := 6; i < len(selfSegs); i++ {
			if geomath.CirclesIntersect(wm.Head, headRadius, selfSegs[i].Point, selfSegs[i].Radius) {
				wm.Die()
				events = append(events, Event{Type: EventWormWorm, Victim: victimID, Killer: victimID, Position: wm.Head})
				break
			}
		}
	}

	return events
}

// ResolveWormFood tests every living worm's head against nearby,
// not-yet-consumed food, both by direct-hit distance and by a swept
// test against the segment from the head to the penultimate path point
// (anti-tunneling, spec.md §4.4 step 2). On a hit it grows the worm,
// awards points to its player, marks the food consumed, and removes it
// from the spatial index in the same tick so it cannot be eaten twice
// (spec.md invariant P4).
func ResolveWormFood(w *world.World, grid *spatial.Grid, t worm.Tunables, pointsPerFood int, foodMaxRadius float64) []Event {
	var events []Event

	for _, victimID := range sortedLivingWormIDs(w) {
		wm := w.Worms[victimID]
		head := wm.Head
		headRadius := wm.Segments(t)[0].Radius

		queryR := headRadius + foodMaxRadius*2
		candidateIDs := grid.FoodInRadius(head.X, head.Y, queryR)

		for _, fid := range candidateIDs {
			f, ok := w.Food[ids.FoodID(fid)]
			if !ok || f.IsConsumed {
				continue
			}

			grab := headRadius + f.Radius
			hit := geomath.Dist(head, f.Position) <= grab
			if !hit {
				prev := wm.PenultimatePathPoint()
				hit = geomath.DistSqPointSegment(f.Position, head, prev) <= grab*grab
			}
			if !hit {
				continue
			}

			f.IsConsumed = true
			wm.Grow(float64(f.Value), t)
			awardFoodPoints(w, wm, f, pointsPerFood)
			grid.RemoveFood(fid)
			w.RemoveFood(ids.FoodID(fid))
			events = append(events, Event{Type: EventWormFood, Victim: victimID, Food: ids.FoodID(fid), Position: f.Position})
		}
	}

	return events
}

func awardFoodPoints(w *world.World, wm *worm.Worm, f *food.Food, pointsPerFood int) {
	p, ok := w.Players[wm.PlayerID]
	if !ok {
		return
	}
	p.Score += f.Value * pointsPerFood
}
