// Package mesh provides the control-point lattice that drives a warp.
//
// A Grid with R rows and C columns of cells holds (R+1)x(C+1) points stored
// row-major. Each point carries its fixed lattice address (Row, Col) and a
// mutable pixel-space position in the source image.
package mesh

import (
	"errors"
	"fmt"

	"mesh-warp/pkg/geometry"
)

// DefaultBorderFraction is the inset of a freshly built grid, as a fraction
// of the image width/height.
const DefaultBorderFraction = 0.1

// MaxPoints bounds the number of control points in a grid.
const MaxPoints = 1 << 20

var (
	// ErrInvalidDimension is returned for non-positive rows, cols or sizes.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrOutOfRange is returned for a row/col outside the lattice.
	ErrOutOfRange = errors.New("point index out of range")
	// ErrMalformedData is returned when a serialized mesh has the wrong shape.
	ErrMalformedData = errors.New("malformed mesh data")
)

// Point is a control point: a sub-pixel position plus its lattice address.
type Point struct {
	X   float64
	Y   float64
	Row int
	Col int
}

// Pos returns the point position.
func (p Point) Pos() geometry.Point2D {
	return geometry.Point2D{X: p.X, Y: p.Y}
}

// Grid is a rectangular lattice of control points.
type Grid struct {
	rows   int
	cols   int
	points []Point
}

// New builds a regular grid of rows x cols cells inset from the image
// border by borderFraction of the image height/width.
func New(rows, cols, imageHeight, imageWidth int, borderFraction float64) (*Grid, error) {
	if err := checkLattice(rows, cols); err != nil {
		return nil, err
	}
	if imageHeight <= 0 || imageWidth <= 0 {
		return nil, fmt.Errorf("%w: image %dx%d", ErrInvalidDimension, imageWidth, imageHeight)
	}

	g := newGrid(rows, cols)

	borderH := float64(imageHeight) * borderFraction
	borderW := float64(imageWidth) * borderFraction
	xs := geometry.Linspace(borderW, float64(imageWidth)-borderW, cols+1)
	ys := geometry.Linspace(borderH, float64(imageHeight)-borderH, rows+1)

	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			p := &g.points[g.index(r, c)]
			p.X = xs[c]
			p.Y = ys[r]
		}
	}

	return g, nil
}

// checkLattice rejects grids with fewer than one cell or more than
// MaxPoints points.
func checkLattice(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("%w: grid %dx%d", ErrInvalidDimension, rows, cols)
	}
	if rows >= MaxPoints || cols >= MaxPoints || (rows+1)*(cols+1) > MaxPoints {
		return fmt.Errorf("%w: grid %dx%d exceeds %d points", ErrInvalidDimension, rows, cols, MaxPoints)
	}
	return nil
}

// newGrid allocates a lattice with identities assigned and zero positions.
func newGrid(rows, cols int) *Grid {
	g := &Grid{
		rows:   rows,
		cols:   cols,
		points: make([]Point, (rows+1)*(cols+1)),
	}
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			g.points[g.index(r, c)] = Point{Row: r, Col: c}
		}
	}
	return g
}

// Rows returns the number of cell rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of cell columns.
func (g *Grid) Cols() int { return g.cols }

// Len returns the number of control points.
func (g *Grid) Len() int { return len(g.points) }

func (g *Grid) index(row, col int) int {
	return row*(g.cols+1) + col
}

func (g *Grid) inRange(row, col int) bool {
	return row >= 0 && row <= g.rows && col >= 0 && col <= g.cols
}

// Point returns the control point at (row, col).
func (g *Grid) Point(row, col int) (Point, error) {
	if !g.inRange(row, col) {
		return Point{}, fmt.Errorf("%w: (%d, %d) in %dx%d grid", ErrOutOfRange, row, col, g.rows, g.cols)
	}
	return g.points[g.index(row, col)], nil
}

// SetPoint overwrites the position of the point at (row, col).
// Positions are not clamped; bounding is the caller's job.
func (g *Grid) SetPoint(row, col int, x, y float64) error {
	if !g.inRange(row, col) {
		return fmt.Errorf("%w: (%d, %d) in %dx%d grid", ErrOutOfRange, row, col, g.rows, g.cols)
	}
	p := &g.points[g.index(row, col)]
	p.X = x
	p.Y = y
	return nil
}

// Points returns a row-major copy of all control points.
func (g *Grid) Points() []Point {
	out := make([]Point, len(g.points))
	copy(out, g.points)
	return out
}

// Lattice returns the point positions as a [row][col] slice.
func (g *Grid) Lattice() [][]geometry.Point2D {
	out := make([][]geometry.Point2D, g.rows+1)
	for r := range out {
		row := make([]geometry.Point2D, g.cols+1)
		for c := range row {
			row[c] = g.points[g.index(r, c)].Pos()
		}
		out[r] = row
	}
	return out
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	return &Grid{
		rows:   g.rows,
		cols:   g.cols,
		points: g.Points(),
	}
}

// Bounds returns the bounding box of all control point positions.
func (g *Grid) Bounds() geometry.Rect {
	pts := make([]geometry.Point2D, len(g.points))
	for i, p := range g.points {
		pts[i] = p.Pos()
	}
	return geometry.BoundingBox(pts)
}

// Cell returns the corner positions of the cell at (row, col) in winding
// order: top-left, top-right, bottom-right, bottom-left.
func (g *Grid) Cell(row, col int) ([4]geometry.Point2D, error) {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return [4]geometry.Point2D{}, fmt.Errorf("%w: cell (%d, %d) in %dx%d grid", ErrOutOfRange, row, col, g.rows, g.cols)
	}
	return [4]geometry.Point2D{
		g.points[g.index(row, col)].Pos(),
		g.points[g.index(row, col+1)].Pos(),
		g.points[g.index(row+1, col+1)].Pos(),
		g.points[g.index(row+1, col)].Pos(),
	}, nil
}
