package mesh

import (
	"gonum.org/v1/gonum/mat"

	"mesh-warp/pkg/geometry"
)

// CellRef addresses one cell of the lattice.
type CellRef struct {
	Row int
	Col int
}

// Folds reports cells whose corners no longer form a consistently oriented
// quad, i.e. where a control point was dragged across a neighbor. The map is
// still computed for such cells; this is diagnostic only.
func (g *Grid) Folds() []CellRef {
	var folded []CellRef
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			quad, _ := g.Cell(r, c)
			if cellFolded(quad) {
				folded = append(folded, CellRef{Row: r, Col: c})
			}
		}
	}
	if len(folded) > 0 {
		logger().Warn("folded mesh cells", "count", len(folded))
	}
	return folded
}

// cellFolded checks the Jacobian at each corner of the quad. For an unfolded
// cell (x right, y down) every corner determinant is positive.
func cellFolded(q [4]geometry.Point2D) bool {
	if !geometry.IsConvex(q[:]) {
		return true
	}
	for k := 0; k < 4; k++ {
		// Corner k with its neighbors along the cell's u (column) and v (row)
		// axes. Winding is TL, TR, BR, BL.
		var du, dv geometry.Point2D
		switch k {
		case 0:
			du, dv = q[1].Sub(q[0]), q[3].Sub(q[0])
		case 1:
			du, dv = q[1].Sub(q[0]), q[2].Sub(q[1])
		case 2:
			du, dv = q[2].Sub(q[3]), q[2].Sub(q[1])
		case 3:
			du, dv = q[2].Sub(q[3]), q[3].Sub(q[0])
		}
		j := mat.NewDense(2, 2, []float64{
			du.X, dv.X,
			du.Y, dv.Y,
		})
		if mat.Det(j) <= 0 {
			return true
		}
	}
	return false
}
