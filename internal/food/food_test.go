package food

import (
	"math"
	"testing"

	"wormarena/internal/geomath"
)

func TestColorForPicksFromPalette(t *testing.T) {
	got := ColorFor(TierLoot, func() float64 { return 0 })
	found := false
	for _, c := range Palette[TierLoot] {
		if c == got {
			found = true
		}
	}
	if !found {
		t.Fatalf("ColorFor(TierLoot) = %q, not in its palette", got)
	}
}

func TestColorForFallsBackToCommonForUnknownTier(t *testing.T) {
	got := ColorFor(Tier(99), func() float64 { return 0.5 })
	found := false
	for _, c := range Palette[TierCommon] {
		if c == got {
			found = true
		}
	}
	if !found {
		t.Fatalf("unknown tier should fall back to the common palette, got %q", got)
	}
}

func TestStepMovingIsNoopForNonMovingFood(t *testing.T) {
	f := New(1, geomath.Point{X: 10, Y: 10}, 1, 4, "#fff", TierCommon)
	before := f.Position
	f.StepMoving(0, 0, 1000, func() float64 { return 0 }, 10, 20)
	if f.Position != before {
		t.Fatal("StepMoving must not move non-moving-tier food")
	}
}

func TestStepMovingAdvancesAlongAngle(t *testing.T) {
	f := NewMoving(1, geomath.Point{X: 0, Y: 0}, 1, 4, 5, "#ffd700", 0, 100)
	f.StepMoving(0, 0, 1000, func() float64 { return 0 }, 10, 20)
	if f.Position.X <= 0 {
		t.Fatalf("moving food with angle 0 should drift in +X, got %v", f.Position)
	}
}

func TestStepMovingBouncesOffBoundary(t *testing.T) {
	f := NewMoving(1, geomath.Point{X: 99, Y: 0}, 1, 4, 5, "#ffd700", 0, 100)
	f.StepMoving(0, 0, 100, func() float64 { return 0 }, 10, 20)

	dist := math.Hypot(f.Position.X, f.Position.Y)
	if dist > 100 {
		t.Fatalf("bounced food should be pulled back inside the boundary, dist=%v", dist)
	}
	if f.MoveAngle == 0 {
		t.Fatal("bouncing off the boundary should change the travel angle")
	}
}

func TestStepMovingPicksNewDirectionOnTTLExpiry(t *testing.T) {
	f := NewMoving(1, geomath.Point{X: 0, Y: 0}, 1, 4, 1, "#ffd700", 0, 1)
	f.StepMoving(0, 0, 1000, func() float64 { return 0.75 }, 10, 20)
	wantAngle := 0.75 * 2 * math.Pi
	if math.Abs(f.MoveAngle-wantAngle) > 1e-9 {
		t.Fatalf("MoveAngle = %v, want %v after TTL expiry reroll", f.MoveAngle, wantAngle)
	}
	if f.MoveTicksTTL < 10 || f.MoveTicksTTL >= 20 {
		t.Fatalf("MoveTicksTTL = %d, want within [10,20) after reroll", f.MoveTicksTTL)
	}
}
