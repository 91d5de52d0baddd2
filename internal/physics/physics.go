// Package physics implements the per-tick worm advancement phase:
// Worm.Step for every living worm, followed by the circular world
// boundary check. No collision resolution happens here (spec.md §4.3).
package physics

import (
	"wormarena/internal/geomath"
	"wormarena/internal/worm"
	"wormarena/internal/world"
)

// Advance steps every living worm and kills any whose head has crossed
// the circular playfield boundary. There is no wrap-around.
func Advance(w *world.World, dt float64, t worm.Tunables) {
	center := w.Center()
	for _, wm := range w.Worms {
		if !wm.IsAlive {
			continue
		}
		wm.Step(dt, t)
		if geomath.Dist(wm.Head, center) > w.RMap {
			wm.Die()
		}
	}
}
