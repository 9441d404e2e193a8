package mesh

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"mesh-warp/pkg/geometry"
)

// File is the serialized form of a Grid. Point identity is implicit from
// the position in the nested Points list.
type File struct {
	Rows   int                  `json:"rows"`
	Cols   int                  `json:"cols"`
	Points [][]geometry.Point2D `json:"points"`
}

// pointRecord distinguishes a missing coordinate from a zero one.
type pointRecord struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type rawFile struct {
	Rows   *int            `json:"rows"`
	Cols   *int            `json:"cols"`
	Points [][]pointRecord `json:"points"`
}

// ToFile returns the serializable form of the grid.
func (g *Grid) ToFile() File {
	return File{
		Rows:   g.rows,
		Cols:   g.cols,
		Points: g.Lattice(),
	}
}

// FromFile rebuilds a grid from its serialized form.
// The image dimensions are the bounds context for the loaded positions;
// points outside the image are kept but logged.
func FromFile(f File, imageHeight, imageWidth int) (*Grid, error) {
	if err := checkLattice(f.Rows, f.Cols); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if len(f.Points) != f.Rows+1 {
		return nil, fmt.Errorf("%w: %d point rows, want %d", ErrMalformedData, len(f.Points), f.Rows+1)
	}

	g := newGrid(f.Rows, f.Cols)
	frame := geometry.Rect{Width: float64(imageWidth), Height: float64(imageHeight)}
	outside := 0
	for r, row := range f.Points {
		if len(row) != f.Cols+1 {
			return nil, fmt.Errorf("%w: row %d has %d points, want %d", ErrMalformedData, r, len(row), f.Cols+1)
		}
		for c, p := range row {
			g.points[g.index(r, c)].X = p.X
			g.points[g.index(r, c)].Y = p.Y
			if !frame.Contains(p) {
				outside++
			}
		}
	}

	if outside > 0 {
		b := g.Bounds()
		logger().Warn("mesh points outside image", "count", outside,
			"width", imageWidth, "height", imageHeight,
			"minX", b.X, "minY", b.Y, "maxX", b.X+b.Width, "maxY", b.Y+b.Height)
	}
	return g, nil
}

// Decode reads a JSON mesh and rebuilds the grid.
func Decode(r io.Reader, imageHeight, imageWidth int) (*Grid, error) {
	var raw rawFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if raw.Rows == nil || raw.Cols == nil {
		return nil, fmt.Errorf("%w: missing rows or cols", ErrMalformedData)
	}

	f := File{
		Rows:   *raw.Rows,
		Cols:   *raw.Cols,
		Points: make([][]geometry.Point2D, len(raw.Points)),
	}
	for r, row := range raw.Points {
		f.Points[r] = make([]geometry.Point2D, len(row))
		for c, p := range row {
			if p.X == nil || p.Y == nil {
				return nil, fmt.Errorf("%w: point (%d, %d) lacks x/y", ErrMalformedData, r, c)
			}
			f.Points[r][c] = geometry.Point2D{X: *p.X, Y: *p.Y}
		}
	}

	return FromFile(f, imageHeight, imageWidth)
}

// Encode writes the grid as indented JSON.
func (g *Grid) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(g.ToFile())
}

// Load reads a mesh file from disk.
func Load(path string, imageHeight, imageWidth int) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f, imageHeight, imageWidth)
}

// Save writes the grid to a mesh file.
func (g *Grid) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := g.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
