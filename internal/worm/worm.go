// Package worm implements the central entity of the simulation: a
// player-controlled, lengthening trail through the arena.
//
// Grounded on the teacher's server/player.go for the shape of the type
// (small struct, ID/name/cosmetics up top, kinematics below) and on
// sonpython-slether__snake.go for the movement math (turn-rate clamp,
// boost burn, boundary test) — translated from that reference's
// shift-whole-array trail into the ring-buffer path + cached segment
// sampling spec.md §4.1 actually specifies.
package worm

import (
	"math"

	"wormarena/internal/geomath"
	"wormarena/internal/ids"
)

// Segment is a sampled collision circle along a worm's body.
type Segment struct {
	Point  geomath.Point
	Radius float64
}

// Worm is the central mutable entity of the simulation.
type Worm struct {
	ID       ids.WormID
	PlayerID ids.PlayerID
	Name     string
	SkinID   string
	Color    string

	Head            geomath.Point
	Direction       float64
	TargetDirection float64
	BaseSpeed       float64
	IsBoosting      bool
	SpawnTimeMs     int64

	Length float64

	IsAlive bool

	path *path

	segments      []Segment
	segmentsValid bool

	massDebt float64 // boost burn accumulator, spec.md §9
}

// Tunables is the subset of config.Tunables the worm package needs,
// passed explicitly rather than importing internal/config to keep this
// package dependency-free and trivially unit-testable.
type Tunables struct {
	SegRadius       float64
	SegSpacing      float64
	PathRes         float64
	StepMax         float64
	MaxTurnPerTick  float64
	MaxLen          float64
	MinBoostLength  float64
	BoostMult       float64
	MaxPathPoints   int
	BoostBurnPerSec float64
}

// New creates a Worm with a straight seeded path of initLen points
// behind origin in the given direction.
func New(id ids.WormID, player ids.PlayerID, name string, origin geomath.Point, direction float64, color, skinID string, initLen, baseSpeed float64, spawnTimeMs int64, t Tunables) *Worm {
	w := &Worm{
		ID:              id,
		PlayerID:        player,
		Name:            name,
		SkinID:          skinID,
		Color:           color,
		Head:            origin,
		Direction:       geomath.WrapAngle(direction),
		TargetDirection: geomath.WrapAngle(direction),
		BaseSpeed:       baseSpeed,
		SpawnTimeMs:     spawnTimeMs,
		Length:          initLen,
		IsAlive:         true,
		path:            newPath(t.MaxPathPoints),
	}
	n := int(math.Max(2, math.Round(initLen)))
	w.path.SeedStraightLine(origin, direction, n, t.SegSpacing)
	return w
}

// SetTargetDirection stores the latest requested heading; it takes
// effect gradually over subsequent Step calls via the turn-rate clamp.
func (w *Worm) SetTargetDirection(theta float64) {
	w.TargetDirection = geomath.WrapAngle(theta)
}

// SetBoosting sets the boost flag, refusing to engage boost when the
// worm is too short to afford it (spec.md invariant I5/P10). Calling
// this twice with the same value in one tick is idempotent (P8).
func (w *Worm) SetBoosting(b bool, t Tunables) {
	if b && w.Length > t.MinBoostLength {
		w.IsBoosting = true
		return
	}
	w.IsBoosting = false
}

// Grow increases length, capped at MaxLen, and invalidates the segment
// cache.
func (w *Worm) Grow(delta float64, t Tunables) {
	w.Length = math.Min(w.Length+delta, t.MaxLen)
	w.segmentsValid = false
}

// Die marks the worm dead. Idempotent.
func (w *Worm) Die() {
	w.IsAlive = false
}

// PathLen returns the number of retained path points.
func (w *Worm) PathLen() int { return w.path.Len() }

// PathArcLen returns the path's current total arc length.
func (w *Worm) PathArcLen() float64 { return w.path.ArcLen() }

// PathPoints returns the retained path in tail→head order, for full
// serialization.
func (w *Worm) PathPoints() []geomath.Point { return w.path.PointsTailToHead() }

// PenultimatePathPoint returns the sample just tail-ward of the head,
// used by the worm↔food anti-tunneling sweep test.
func (w *Worm) PenultimatePathPoint() geomath.Point { return w.path.PenultimateFromHead() }

// Step advances the worm by one tick. dt is seconds. Step never fails;
// every cleanup is idempotent (spec.md §4.1 "Failure semantics").
func (w *Worm) Step(dt float64, t Tunables) {
	if !w.IsAlive {
		return
	}

	effectiveSpeed := w.BaseSpeed
	if w.IsBoosting {
		effectiveSpeed *= t.BoostMult
		w.massDebt += t.BoostBurnPerSec * dt
		for w.massDebt >= 1 && w.Length > 0 {
			w.Length--
			w.massDebt--
			w.segmentsValid = false
		}
		if w.Length <= t.MinBoostLength {
			w.IsBoosting = false
		}
	}

	totalAngleDelta := geomath.Clamp(geomath.AngleDiff(w.Direction, w.TargetDirection), -t.MaxTurnPerTick, t.MaxTurnPerTick)

	d := effectiveSpeed * dt
	steps := 1
	if t.StepMax > 0 && d > t.StepMax {
		steps = int(math.Ceil(d / t.StepMax))
	}
	subDist := d / float64(steps)
	subAngle := totalAngleDelta / float64(steps)

	for i := 0; i < steps; i++ {
		w.Direction = geomath.WrapAngle(w.Direction + subAngle)
		newHead := geomath.Point{
			X: w.Head.X + math.Cos(w.Direction)*subDist,
			Y: w.Head.Y + math.Sin(w.Direction)*subDist,
		}
		if geomath.Dist(newHead, w.Head) > t.PathRes {
			w.path.AppendHead(newHead)
		}
		w.Head = newHead
	}

	w.path.TrimToArcLength(w.Length * t.SegSpacing)
	w.segmentsValid = false
}

// Segments returns the cached equidistant collision samples along the
// path, recomputing if the cache was invalidated by a mutation of path
// or length. Returns a single-element slice containing the head if the
// path has 0 or 1 points.
func (w *Worm) Segments(t Tunables) []Segment {
	if w.segmentsValid {
		return w.segments
	}
	w.segments = w.recomputeSegments(t)
	w.segmentsValid = true
	return w.segments
}

func (w *Worm) recomputeSegments(t Tunables) []Segment {
	if w.path.Len() <= 1 {
		return []Segment{{Point: w.Head, Radius: t.SegRadius + 2}}
	}

	maxN := int(math.Max(1, math.Ceil(w.Length)))
	out := make([]Segment, 0, maxN)

	var prev geomath.Point
	have := false
	accum := 0.0

	w.path.WalkFromHead(func(pt geomath.Point) bool {
		if !have {
			prev = pt
			have = true
			out = append(out, Segment{Point: pt, Radius: t.SegRadius + 2})
			return len(out) < maxN
		}
		accum += geomath.Dist(prev, pt)
		prev = pt
		for accum >= t.SegSpacing {
			out = append(out, Segment{Point: pt, Radius: t.SegRadius})
			accum -= t.SegSpacing
			if len(out) >= maxN {
				return false
			}
		}
		return len(out) < maxN
	})

	return out
}
