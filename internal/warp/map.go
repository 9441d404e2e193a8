// Package warp resamples grayscale images through dense coordinate maps.
package warp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidSize is returned for a map or image with non-positive dimensions
// or more than MaxPixels pixels.
var ErrInvalidSize = errors.New("invalid size")

// MaxPixels bounds the pixel count of a map and of a resampled image.
const MaxPixels = 1 << 28

// Map is a dense destination-to-source lookup. For output pixel (col, row)
// X[row*Width+col], Y[row*Width+col] is the source coordinate to sample.
type Map struct {
	Width  int
	Height int
	X      []float32
	Y      []float32
}

// NewMap allocates a zeroed map.
func NewMap(width, height int) (*Map, error) {
	if !validSize(width, height) {
		return nil, fmt.Errorf("%w: map %dx%d", ErrInvalidSize, width, height)
	}
	n := width * height
	return &Map{
		Width:  width,
		Height: height,
		X:      make([]float32, n),
		Y:      make([]float32, n),
	}, nil
}

// IdentityMap returns a map where every pixel samples itself.
func IdentityMap(width, height int) (*Map, error) {
	m, err := NewMap(width, height)
	if err != nil {
		return nil, err
	}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			m.Set(col, row, float32(col), float32(row))
		}
	}
	return m, nil
}

// At returns the source coordinate for output pixel (col, row).
func (m *Map) At(col, row int) (x, y float32) {
	i := row*m.Width + col
	return m.X[i], m.Y[i]
}

// Set stores the source coordinate for output pixel (col, row).
func (m *Map) Set(col, row int, x, y float32) {
	i := row*m.Width + col
	m.X[i] = x
	m.Y[i] = y
}

// Row returns the X and Y slices for one output row, sharing storage.
func (m *Map) Row(row int) (xs, ys []float32) {
	start := row * m.Width
	return m.X[start : start+m.Width], m.Y[start : start+m.Width]
}

// Clone returns an independent copy of the map.
func (m *Map) Clone() *Map {
	c := &Map{
		Width:  m.Width,
		Height: m.Height,
		X:      make([]float32, len(m.X)),
		Y:      make([]float32, len(m.Y)),
	}
	copy(c.X, m.X)
	copy(c.Y, m.Y)
	return c
}

func (m *Map) validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil map", ErrInvalidSize)
	}
	if !validSize(m.Width, m.Height) {
		return fmt.Errorf("%w: map %dx%d", ErrInvalidSize, m.Width, m.Height)
	}
	n := m.Width * m.Height
	if len(m.X) != n || len(m.Y) != n {
		return fmt.Errorf("%w: map %dx%d has %d/%d entries", ErrInvalidSize, m.Width, m.Height, len(m.X), len(m.Y))
	}
	return nil
}

// validSize reports whether width x height is positive and within MaxPixels
// without overflowing.
func validSize(width, height int) bool {
	return width > 0 && height > 0 && width <= MaxPixels/height
}

// DisplacementStats summarizes how far a map moves pixels from identity.
type DisplacementStats struct {
	Mean   float64
	StdDev float64
	Max    float64
}

// Displacement measures |map(p) - p| over all output pixels.
func (m *Map) Displacement() DisplacementStats {
	d := make([]float64, 0, len(m.X))
	var maxD float64
	for row := 0; row < m.Height; row++ {
		xs, ys := m.Row(row)
		for col := range xs {
			v := math.Hypot(float64(xs[col])-float64(col), float64(ys[col])-float64(row))
			d = append(d, v)
			if v > maxD {
				maxD = v
			}
		}
	}
	if len(d) == 0 {
		return DisplacementStats{}
	}
	mean, std := stat.MeanStdDev(d, nil)
	if len(d) == 1 {
		std = 0
	}
	return DisplacementStats{Mean: mean, StdDev: std, Max: maxD}
}
