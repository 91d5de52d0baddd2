package worm

import (
	"math"

	"wormarena/internal/geomath"
)

// path is a fixed-capacity ring buffer over a worm's trail history, in
// tail→head order, with the running arc length maintained incrementally
// so trimming is O(1) amortized rather than O(n) per tick.
//
// Grounded on spec.md §9's design note: "use a ring buffer (double-ended
// queue) over a fixed-capacity backing array sized for the worst case
// (2000 points)." The teacher's own entities never needed anything this
// elaborate (server/player.go is a single point); this is new code
// written in the teacher's small-file, single-purpose idiom.
type path struct {
	buf    []geomath.Point
	start  int // index of the tail (oldest) point
	count  int
	arcLen float64
}

func newPath(capacity int) *path {
	return &path{buf: make([]geomath.Point, capacity)}
}

func (p *path) at(i int) geomath.Point {
	return p.buf[(p.start+i)%len(p.buf)]
}

func (p *path) set(i int, v geomath.Point) {
	p.buf[(p.start+i)%len(p.buf)] = v
}

// Len returns the number of points currently retained.
func (p *path) Len() int { return p.count }

// ArcLen returns the total arc length of the retained path.
func (p *path) ArcLen() float64 { return p.arcLen }

// Head returns the most recently appended point (the worm's head).
func (p *path) Head() geomath.Point { return p.at(p.count - 1) }

// Tail returns the oldest retained point.
func (p *path) Tail() geomath.Point { return p.at(0) }

// PenultimateFromHead returns the sample just tail-ward of the head,
// used by the worm↔food anti-tunneling sweep test. Returns the head
// itself if the path has only one point.
func (p *path) PenultimateFromHead() geomath.Point {
	if p.count < 2 {
		return p.Head()
	}
	return p.at(p.count - 2)
}

// AppendHead appends pt as the new head, evicting the oldest point if
// the ring is at capacity.
func (p *path) AppendHead(pt geomath.Point) {
	if p.count > 0 {
		p.arcLen += geomath.Dist(p.Head(), pt)
	}
	if p.count == len(p.buf) {
		if p.count >= 2 {
			p.arcLen -= geomath.Dist(p.at(0), p.at(1))
		}
		p.start = (p.start + 1) % len(p.buf)
		p.count--
	}
	idx := (p.start + p.count) % len(p.buf)
	p.buf[idx] = pt
	p.count++
}

// TrimToArcLength trims from the tail until the total arc length is at
// most maxLen. The final retained tail segment is truncated mid-segment
// so the result is exact, not quantized to a whole point.
func (p *path) TrimToArcLength(maxLen float64) {
	for p.count >= 2 && p.arcLen > maxLen {
		tail := p.at(0)
		next := p.at(1)
		segLen := geomath.Dist(tail, next)
		if segLen <= 0 {
			p.start = (p.start + 1) % len(p.buf)
			p.count--
			continue
		}
		remainderIfDropped := p.arcLen - segLen
		if remainderIfDropped >= maxLen {
			p.arcLen = remainderIfDropped
			p.start = (p.start + 1) % len(p.buf)
			p.count--
			continue
		}
		excess := p.arcLen - maxLen
		t := excess / segLen
		newTail := geomath.Point{
			X: tail.X + (next.X-tail.X)*t,
			Y: tail.Y + (next.Y-tail.Y)*t,
		}
		p.set(0, newTail)
		p.arcLen = maxLen
		break
	}
}

// PointsTailToHead returns a freshly allocated copy of the retained path
// in tail→head order, for full serialization.
func (p *path) PointsTailToHead() []geomath.Point {
	out := make([]geomath.Point, p.count)
	for i := 0; i < p.count; i++ {
		out[i] = p.at(i)
	}
	return out
}

// WalkFromHead invokes f for each point starting at the head and
// advancing tail-ward, stopping early if f returns false. Avoids
// allocating when only a prefix is needed (segment sampling).
func (p *path) WalkFromHead(f func(pt geomath.Point) bool) {
	for i := p.count - 1; i >= 0; i-- {
		if !f(p.at(i)) {
			return
		}
	}
}

// SeedStraightLine resets the path to a straight line of n points ending
// at head, running back along -direction with the given spacing. Used
// to seed a newly spawned worm's initial trail.
func (p *path) SeedStraightLine(head geomath.Point, direction float64, n int, spacing float64) {
	p.start = 0
	p.count = 0
	p.arcLen = 0
	cosv, sinv := math.Cos(direction), math.Sin(direction)
	pts := make([]geomath.Point, n)
	for i := 0; i < n; i++ {
		back := float64(n-1-i) * spacing
		pts[i] = geomath.Point{X: head.X - back*cosv, Y: head.Y - back*sinv}
	}
	for _, pt := range pts {
		p.AppendHead(pt)
	}
}
