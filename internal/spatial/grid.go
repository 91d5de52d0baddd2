// Package spatial implements the cell-hash grid used to make per-tick
// collision and food queries tractable at hundreds of concurrent worms.
//
// Grounded on sonpython-slether__world.go's SpatialGrid (the teacher
// itself never needed a spatial index — its world is a 4-directional
// toy grid with no collision queries), translated into the ID-through-
// a-map ownership idiom the rest of this module uses: the grid stores
// only entity IDs, never pointers, per spec.md §9 ("Entity references").
package spatial

import "math"

// CellSize is the default cell edge length (spec.md §4.2).
const CellSize = 500.0

type cellKey struct {
	cx, cy int32
}

// Grid is a uniform cell-hash grid over worm segment samples and food
// positions. Worms are rebuilt wholesale once per tick; food is
// maintained incrementally since it is long-lived.
type Grid struct {
	cellSize float64
	worms    map[cellKey][]uint64
	food     map[cellKey][]uint64
	foodCell map[uint64]cellKey // reverse index so RemoveFood is O(1)
}

// New creates a grid with the given cell size.
func New(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = CellSize
	}
	return &Grid{
		cellSize: cellSize,
		worms:    make(map[cellKey][]uint64),
		food:     make(map[cellKey][]uint64),
		foodCell: make(map[uint64]cellKey),
	}
}

func (g *Grid) cellOf(x, y float64) cellKey {
	// floor division so negative coordinates hash correctly
	return cellKey{
		cx: int32(math.Floor(x / g.cellSize)),
		cy: int32(math.Floor(y / g.cellSize)),
	}
}

// ClearWorms empties the worm grid ahead of a rebuild.
func (g *Grid) ClearWorms() {
	for k := range g.worms {
		delete(g.worms, k)
	}
}

// InsertWormPoint records that wormID occupies the cell covering (x, y).
func (g *Grid) InsertWormPoint(wormID uint64, x, y float64) {
	k := g.cellOf(x, y)
	bucket := g.worms[k]
	if len(bucket) > 0 && bucket[len(bucket)-1] == wormID {
		return // cheap de-dup for consecutive same-worm samples in one cell
	}
	g.worms[k] = append(bucket, wormID)
}

// AddFood inserts a food item at (x, y) into the food grid.
func (g *Grid) AddFood(foodID uint64, x, y float64) {
	k := g.cellOf(x, y)
	g.food[k] = append(g.food[k], foodID)
	g.foodCell[foodID] = k
}

// RemoveFood removes a food item from the food grid. Safe to call with
// an ID not present (no-op) — callers rely on this when a pellet was
// already consumed earlier in the same tick.
func (g *Grid) RemoveFood(foodID uint64) {
	k, ok := g.foodCell[foodID]
	if !ok {
		return
	}
	bucket := g.food[k]
	for i, id := range bucket {
		if id == foodID {
			bucket[i] = bucket[len(bucket)-1]
			g.food[k] = bucket[:len(bucket)-1]
			break
		}
	}
	delete(g.foodCell, foodID)
}

// NearbyWorms returns the deduplicated worm IDs in the 3x3 block of
// cells around the cell covering (x, y).
func (g *Grid) NearbyWorms(x, y float64) []uint64 {
	center := g.cellOf(x, y)
	seen := make(map[uint64]struct{})
	var out []uint64
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			k := cellKey{cx: center.cx + dx, cy: center.cy + dy}
			for _, id := range g.worms[k] {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// WormsInRadius returns the deduplicated worm IDs touching the bounding
// square of a circle of radius r centered at (x, y).
func (g *Grid) WormsInRadius(x, y, r float64) []uint64 {
	return g.idsInRadius(g.worms, x, y, r)
}

// FoodInRadius returns the deduplicated food IDs touching the bounding
// square of a circle of radius r centered at (x, y).
func (g *Grid) FoodInRadius(x, y, r float64) []uint64 {
	return g.idsInRadius(g.food, x, y, r)
}

func (g *Grid) idsInRadius(table map[cellKey][]uint64, x, y, r float64) []uint64 {
	minK := g.cellOf(x-r, y-r)
	maxK := g.cellOf(x+r, y+r)
	seen := make(map[uint64]struct{})
	var out []uint64
	for cx := minK.cx; cx <= maxK.cx; cx++ {
		for cy := minK.cy; cy <= maxK.cy; cy++ {
			k := cellKey{cx: cx, cy: cy}
			for _, id := range table[k] {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}
