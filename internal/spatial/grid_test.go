package spatial

import "testing"

func containsID(ids []uint64, id uint64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func TestAddAndRemoveFood(t *testing.T) {
	g := New(100)
	g.AddFood(1, 50, 50)
	g.AddFood(2, 950, 950)

	near := g.FoodInRadius(50, 50, 10)
	if !containsID(near, 1) {
		t.Fatalf("expected food 1 near (50,50), got %v", near)
	}
	if containsID(near, 2) {
		t.Fatalf("food 2 should not be near (50,50), got %v", near)
	}

	g.RemoveFood(1)
	near = g.FoodInRadius(50, 50, 10)
	if containsID(near, 1) {
		t.Fatal("removed food should no longer be indexed")
	}

	// Removing an absent ID is a documented no-op, not an error.
	g.RemoveFood(999)
}

func TestInsertWormPointAndClear(t *testing.T) {
	g := New(100)
	g.InsertWormPoint(10, 0, 0)
	g.InsertWormPoint(10, 5, 5) // same cell, same worm: de-duped
	g.InsertWormPoint(20, 0, 0)

	nearby := g.NearbyWorms(0, 0)
	if !containsID(nearby, 10) || !containsID(nearby, 20) {
		t.Fatalf("expected both worms near origin, got %v", nearby)
	}

	g.ClearWorms()
	nearby = g.NearbyWorms(0, 0)
	if len(nearby) != 0 {
		t.Fatalf("ClearWorms should empty the worm grid, got %v", nearby)
	}
}

func TestWormsInRadiusCrossesCellBoundaries(t *testing.T) {
	g := New(100)
	g.InsertWormPoint(1, 149, 0) // in cell 1, 50 units from a query centered in cell 0
	got := g.WormsInRadius(99, 0, 60)
	if !containsID(got, 1) {
		t.Fatalf("expected worm across a cell boundary to be found, got %v", got)
	}
}

func TestNegativeCoordinatesHashCorrectly(t *testing.T) {
	g := New(100)
	g.InsertWormPoint(1, -10, -10)
	got := g.NearbyWorms(-10, -10)
	if !containsID(got, 1) {
		t.Fatalf("expected worm at negative coordinates to be found, got %v", got)
	}
}
