// Package food implements the pellet entity and its cosmetic tiers.
//
// Grounded on sonpython-slether__food.go for the tiered-palette and
// moving-food behavior (the teacher has no food entity at all — its
// world has nothing to eat), translated to spec.md §3's Food shape
// (value/radius/color/is_consumed) with tiers layered on top per
// SPEC_FULL.md §3's supplement.
package food

import (
	"math"

	"wormarena/internal/geomath"
	"wormarena/internal/ids"
)

// Tier is a cosmetic/behavioral classification layered on top of the
// authoritative value/radius fields.
type Tier int

const (
	TierCommon Tier = iota
	TierMedium
	TierLoot
	TierMoving
)

// Food is a collectible pellet.
type Food struct {
	ID         ids.FoodID
	Position   geomath.Point
	Value      int
	Radius     float64
	Color      string
	Tier       Tier
	IsConsumed bool

	// Moving-food fields, only meaningful when Tier == TierMoving.
	MoveAngle    float64
	MoveSpeed    float64
	MoveTicksTTL int
}

// Palette holds the color choices for each tier, in the spirit of
// sonpython-slether__food.go's per-level palettes.
var Palette = map[Tier][]string{
	TierCommon: {"#ff6b6b", "#ffd93d", "#6bcb77", "#4d96ff", "#ff922b", "#cc5de8", "#20c997", "#f06595", "#74c0fc", "#a9e34b"},
	TierMedium: {"#f39c12", "#e67e22", "#d35400", "#c0392b", "#e74c3c"},
	TierLoot:   {"#8e44ad", "#9b59b6", "#6c3483", "#a569bd", "#7d3c98"},
	TierMoving: {"#ffd700"},
}

// ColorFor picks a color from the tier's palette using randFn (a
// uniform [0,1) generator) for determinism-friendly testing.
func ColorFor(t Tier, randFn func() float64) string {
	choices := Palette[t]
	if len(choices) == 0 {
		choices = Palette[TierCommon]
	}
	return choices[int(randFn()*float64(len(choices)))%len(choices)]
}

// New creates a pellet at the given position.
func New(id ids.FoodID, pos geomath.Point, value int, radius float64, color string, tier Tier) *Food {
	return &Food{ID: id, Position: pos, Value: value, Radius: radius, Color: color, Tier: tier}
}

// NewMoving creates a self-propelled pellet that drifts and bounces off
// the circular boundary, independent of the magnet effect.
func NewMoving(id ids.FoodID, pos geomath.Point, value int, radius, speed float64, color string, angle float64, ttlTicks int) *Food {
	return &Food{
		ID: id, Position: pos, Value: value, Radius: radius, Color: color, Tier: TierMoving,
		MoveAngle: angle, MoveSpeed: speed, MoveTicksTTL: ttlTicks,
	}
}

// StepMoving advances a moving food item by one tick, bouncing it off
// the circular playfield boundary (reflecting about the boundary
// normal), and counts down its direction-change timer. No-op for
// non-moving food.
func (f *Food) StepMoving(centerX, centerY, rMap float64, randFn func() float64, dirMinTicks, dirMaxTicks int) {
	if f.Tier != TierMoving {
		return
	}
	f.Position.X += math.Cos(f.MoveAngle) * f.MoveSpeed
	f.Position.Y += math.Sin(f.MoveAngle) * f.MoveSpeed

	dx := f.Position.X - centerX
	dy := f.Position.Y - centerY
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist > rMap {
		nx, ny := -dx/dist, -dy/dist
		vx, vy := math.Cos(f.MoveAngle), math.Sin(f.MoveAngle)
		dot := vx*nx + vy*ny
		vx -= 2 * dot * nx
		vy -= 2 * dot * ny
		f.MoveAngle = math.Atan2(vy, vx)
		f.Position.X = centerX - nx*(rMap-1)
		f.Position.Y = centerY - ny*(rMap-1)
	}

	f.MoveTicksTTL--
	if f.MoveTicksTTL <= 0 {
		f.MoveAngle = randFn() * 2 * math.Pi
		f.MoveTicksTTL = dirMinTicks + int(randFn()*float64(dirMaxTicks-dirMinTicks))
	}
}
