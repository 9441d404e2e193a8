package geometry

import "gonum.org/v1/gonum/spatial/r2"

// IsConvex reports whether the polygon is convex.
// Collinear edges are tolerated; a self-intersecting quad is not convex.
func IsConvex(polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	n := len(polygon)
	var sign int

	for i := 0; i < n; i++ {
		cross := crossProduct(
			polygon[i],
			polygon[(i+1)%n],
			polygon[(i+2)%n],
		)

		if cross != 0 {
			currentSign := 1
			if cross < 0 {
				currentSign = -1
			}

			if sign == 0 {
				sign = currentSign
			} else if currentSign != sign {
				return false
			}
		}
	}

	return true
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return r2.Cross(r2.Sub(a.Vec(), o.Vec()), r2.Sub(b.Vec(), o.Vec()))
}
