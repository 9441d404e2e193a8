package mesh

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r2"

	"mesh-warp/internal/warp"
)

// CoordinateMap builds the dense destination-to-source map for an output of
// the given size.
//
// The destination reference grid is the regular lattice with cells of
// outputWidth/cols by outputHeight/rows pixels. Output pixel (j, i) falls in
// reference cell (floor(j*cols/outputWidth), floor(i*rows/outputHeight)); its
// source coordinate is the bilinear blend of that cell's four current control
// points. Folded cells are interpolated like any other.
func (g *Grid) CoordinateMap(outputWidth, outputHeight int) (*warp.Map, error) {
	return g.CoordinateMapWorkers(outputWidth, outputHeight, 1)
}

// CoordinateMapWorkers is CoordinateMap split into row bands computed by up to
// workers goroutines. The grid is snapshotted first, so callers may edit it
// again as soon as this returns.
func (g *Grid) CoordinateMapWorkers(outputWidth, outputHeight, workers int) (*warp.Map, error) {
	if outputWidth <= 0 || outputHeight <= 0 || outputWidth > warp.MaxPixels/outputHeight {
		return nil, fmt.Errorf("%w: output %dx%d", ErrInvalidDimension, outputWidth, outputHeight)
	}
	m, err := warp.NewMap(outputWidth, outputHeight)
	if err != nil {
		return nil, err
	}

	snap := g.Clone()
	src := make([]r2.Vec, len(snap.points))
	for i, p := range snap.points {
		src[i] = r2.Vec{X: p.X, Y: p.Y}
	}

	if workers < 1 {
		workers = 1
	}
	if workers > outputHeight {
		workers = outputHeight
	}
	logger().Debug("computing coordinate map",
		"width", outputWidth, "height", outputHeight,
		"rows", snap.rows, "cols", snap.cols, "workers", workers)

	band := (outputHeight + workers - 1) / workers
	var eg errgroup.Group
	for start := 0; start < outputHeight; start += band {
		lo, hi := start, min(start+band, outputHeight)
		eg.Go(func() error {
			for i := lo; i < hi; i++ {
				snap.fillRow(m, src, i)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// fillRow computes one output row of the map from the snapshot positions.
func (g *Grid) fillRow(m *warp.Map, src []r2.Vec, i int) {
	xs, ys := m.Row(i)
	stride := g.cols + 1

	y := float64(i) * float64(g.rows) / float64(m.Height)
	y0 := int(math.Floor(y))
	y1 := min(y0+1, g.rows)
	wy := y - float64(y0)

	for j := range xs {
		x := float64(j) * float64(g.cols) / float64(m.Width)
		x0 := int(math.Floor(x))
		x1 := min(x0+1, g.cols)
		wx := x - float64(x0)

		p00 := src[y0*stride+x0]
		p01 := src[y0*stride+x1]
		p10 := src[y1*stride+x0]
		p11 := src[y1*stride+x1]

		top := r2.Add(r2.Scale(1-wx, p00), r2.Scale(wx, p01))
		bottom := r2.Add(r2.Scale(1-wx, p10), r2.Scale(wx, p11))
		p := r2.Add(r2.Scale(1-wy, top), r2.Scale(wy, bottom))

		xs[j] = float32(p.X)
		ys[j] = float32(p.Y)
	}
}
