package warp

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/sync/errgroup"
)

// Remapper produces an output image by sampling src at the coordinates in m.
// The output is m.Width x m.Height regardless of the source size.
type Remapper interface {
	Remap(src *image.Gray, m *Map) (*image.Gray, error)
}

// Bilinear is the pure-Go Remapper. Coordinates outside the source are
// clamped to the nearest edge pixel.
type Bilinear struct {
	// Workers bounds the number of row bands sampled concurrently.
	// Zero or one means sequential.
	Workers int
}

// Resample remaps src through m sequentially.
func Resample(src *image.Gray, m *Map) (*image.Gray, error) {
	return Bilinear{}.Remap(src, m)
}

// Remap implements Remapper.
func (b Bilinear) Remap(src *image.Gray, m *Map) (*image.Gray, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrInvalidSize)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	dst := image.NewGray(image.Rect(0, 0, m.Width, m.Height))

	workers := max(b.Workers, 1)
	workers = min(workers, m.Height)
	band := (m.Height + workers - 1) / workers

	logger().Debug("remapping", "width", m.Width, "height", m.Height, "workers", workers)

	var eg errgroup.Group
	for start := 0; start < m.Height; start += band {
		lo, hi := start, min(start+band, m.Height)
		eg.Go(func() error {
			for row := lo; row < hi; row++ {
				xs, ys := m.Row(row)
				out := dst.Pix[row*dst.Stride : row*dst.Stride+m.Width]
				for col := range out {
					out[col] = toUint8(Sample(src, float64(xs[col]), float64(ys[col])))
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}

// Sample returns the bilinear interpolation of src at (x, y), where (0, 0)
// is the center of the top-left pixel. Coordinates are clamped to
// [0, width-1] x [0, height-1] first.
func Sample(src *image.Gray, x, y float64) float64 {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	x = clampCoord(x, w)
	y = clampCoord(y, h)

	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	at := func(px, py int) float64 {
		return float64(src.Pix[(py)*src.Stride+px])
	}

	top := (1-fx)*at(x0, y0) + fx*at(x1, y0)
	bottom := (1-fx)*at(x0, y1) + fx*at(x1, y1)
	return (1-fy)*top + fy*bottom
}

func clampCoord(v float64, size int) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if limit := float64(size - 1); v > limit {
		return limit
	}
	return v
}

func toUint8(v float64) uint8 {
	v = math.Floor(v + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
