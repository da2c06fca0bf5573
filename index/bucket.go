package index

import (
	"github.com/paulmach/orb"
	"math"
)

// bucket holds the points of one grid bin. The order of the entries has no meaning.
type bucket struct {
	points []orb.Point
}

func (b *bucket) add(point orb.Point) {
	b.points = append(b.points, point)
}

func (b *bucket) len() int {
	return len(b.points)
}

// removeFirstApprox removes the first entry whose coordinates both differ by at most tolerance from the target. It
// returns false when no such entry exists.
func (b *bucket) removeFirstApprox(target orb.Point, tolerance float64) bool {
	for i, point := range b.points {
		if approxEqual(point, target, tolerance) {
			last := len(b.points) - 1
			copy(b.points[i:], b.points[i+1:])
			b.points[last] = orb.Point{}
			b.points = b.points[:last]
			return true
		}
	}
	return false
}

func (b *bucket) clear() {
	b.points = nil
}

func approxEqual(a orb.Point, b orb.Point, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) <= tolerance && math.Abs(a.Y()-b.Y()) <= tolerance
}
