package foodsys

import (
	"testing"

	"wormarena/internal/food"
	"wormarena/internal/geomath"
	"wormarena/internal/ids"
	"wormarena/internal/spatial"
	"wormarena/internal/worm"
	"wormarena/internal/world"
)

func aliveWormStub() *worm.Worm {
	return worm.New(1, 1, "w", geomath.Point{}, 0, "#fff", "d", 10, 100, 0, worm.Tunables{MaxPathPoints: 64, SegSpacing: 6})
}

func deadWormStub() *worm.Worm {
	w := aliveWormStub()
	w.Die()
	return w
}

func cyclicRand(seq ...float64) RandSource {
	i := 0
	return func() float64 {
		v := seq[i%len(seq)]
		i++
		return v
	}
}

func testTunables() Tunables {
	return Tunables{
		FoodMinRadius:  3,
		FoodMaxRadius:  8,
		RMagnet:        100,
		MagnetVMin:     10,
		MagnetVMax:     200,
		FoodTarget:     50,
		RespawnPerTick: 5,
		SpawnRejectR:   50,
	}
}

func TestProcessDeathsDropsLootAndRemovesWorm(t *testing.T) {
	w := world.New(2000, 2000, 0)
	grid := spatial.New(500)

	deadID := ids.WormID(1)
	w.Worms[deadID] = deadWormStub()

	segs := []geomath.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}}
	segmentsOf := func(id ids.WormID) []geomath.Point { return segs }
	lengthOf := func(id ids.WormID) float64 { return 60 } // count = floor(60/20) = 3

	before := len(w.Food)
	ProcessDeaths(w, grid, segmentsOf, lengthOf, cyclicRand(0.1, 0.5, 0.9))

	if len(w.Food) != before+3 {
		t.Fatalf("len(w.Food) = %d, want %d loot pellets dropped", len(w.Food), before+3)
	}
	if _, stillPresent := w.Worms[deadID]; stillPresent {
		t.Fatal("a processed dead worm should be removed from the world")
	}
	for _, f := range w.Food {
		if f.Tier != food.TierLoot {
			t.Fatalf("dropped food should be TierLoot, got %v", f.Tier)
		}
	}
}

func TestProcessDeathsSkipsLivingWorms(t *testing.T) {
	w := world.New(2000, 2000, 0)
	grid := spatial.New(500)
	aliveID := ids.WormID(1)
	w.Worms[aliveID] = aliveWormStub()

	ProcessDeaths(w, grid, func(ids.WormID) []geomath.Point { return nil }, func(ids.WormID) float64 { return 0 }, cyclicRand(0))

	if _, ok := w.Worms[aliveID]; !ok {
		t.Fatal("a living worm must not be removed by ProcessDeaths")
	}
	if len(w.Food) != 0 {
		t.Fatal("no loot should be dropped for a living worm")
	}
}

func TestApplyMagnetPullsFoodTowardHead(t *testing.T) {
	w := world.New(2000, 2000, 0)
	grid := spatial.New(500)
	tn := testTunables()

	livingID := ids.WormID(1)
	w.Worms[livingID] = aliveWormStub()

	f := food.New(1, geomath.Point{X: 50, Y: 0}, 1, 3, "#fff", food.TierCommon)
	w.AddFood(f)
	grid.AddFood(1, f.Position.X, f.Position.Y)

	startDist := f.Position.X
	ApplyMagnet(w, grid, tn, 0.1, func(ids.WormID) geomath.Point { return geomath.Point{X: 0, Y: 0} })

	if f.Position.X >= startDist {
		t.Fatalf("food should move closer to the head, before=%v after=%v", startDist, f.Position.X)
	}
}

func TestApplyMagnetIgnoresMovingFood(t *testing.T) {
	w := world.New(2000, 2000, 0)
	grid := spatial.New(500)
	tn := testTunables()
	w.Worms[1] = aliveWormStub()

	f := food.NewMoving(1, geomath.Point{X: 50, Y: 0}, 1, 3, 2, "#ffd700", 0, 50)
	w.AddFood(f)
	grid.AddFood(1, f.Position.X, f.Position.Y)

	ApplyMagnet(w, grid, tn, 0.1, func(ids.WormID) geomath.Point { return geomath.Point{X: 0, Y: 0} })

	if f.Position.X != 50 {
		t.Fatalf("moving food must be exempt from the magnet, moved to %v", f.Position.X)
	}
}

func TestRespawnFillsUpToTargetBoundedByPerTick(t *testing.T) {
	w := world.New(2000, 2000, 0)
	grid := spatial.New(500)
	tn := testTunables()
	tn.FoodTarget = 3
	tn.RespawnPerTick = 10

	Respawn(w, grid, tn, cyclicRand(0.2, 0.5, 0.8, 0.1))
	if len(w.Food) != 3 {
		t.Fatalf("len(w.Food) = %d, want exactly FoodTarget (3)", len(w.Food))
	}
}

func TestRespawnNoopWhenAtTarget(t *testing.T) {
	w := world.New(2000, 2000, 0)
	grid := spatial.New(500)
	tn := testTunables()
	tn.FoodTarget = 1
	w.AddFood(food.New(1, geomath.Point{X: 0, Y: 0}, 1, 3, "#fff", food.TierCommon))

	Respawn(w, grid, tn, cyclicRand(0.5))
	if len(w.Food) != 1 {
		t.Fatalf("len(w.Food) = %d, want unchanged at 1 when already at target", len(w.Food))
	}
}

func TestFindSafeSpawnPositionRejectsNearWormHeads(t *testing.T) {
	w := world.New(2000, 2000, 0)
	wm := aliveWormStub()
	wm.Head = geomath.Point{X: 1000, Y: 1000}
	w.Worms[1] = wm

	// First two draws land exactly on the worm's head (rejected), third
	// draw lands elsewhere and should be accepted.
	rand := cyclicRand(0, 0, 0, 0, 0.9, 0.9)
	pos := findSafeSpawnPosition(w, geomath.Point{X: 1000, Y: 1000}, 500, 50, rand)
	if geomath.Dist(pos, wm.Head) < 50 {
		t.Fatalf("expected a position at least 50 away from the worm head, got %v (head at %v)", pos, wm.Head)
	}
}
