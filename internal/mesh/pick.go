package mesh

import (
	"math"

	"mesh-warp/pkg/geometry"
)

// DefaultPickDistance is the pointer tolerance, in pixels, for selecting a point.
const DefaultPickDistance = 10

// FindNearest returns the control point closest to (x, y) and its distance.
// ok is false when no point lies within maxDistance. On ties the first point
// in row-major order wins.
func (g *Grid) FindNearest(x, y, maxDistance float64) (p Point, dist float64, ok bool) {
	target := geometry.Point2D{X: x, Y: y}
	best := -1
	minDist := math.Inf(1)

	for i, pt := range g.points {
		d := pt.Pos().Distance(target)
		if d < minDist {
			minDist = d
			best = i
		}
	}

	if best < 0 || minDist > maxDistance {
		return Point{}, 0, false
	}
	return g.points[best], minDist, true
}
