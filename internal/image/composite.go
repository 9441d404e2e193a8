package image

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// BlendMode specifies how two images are combined.
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDifference
)

func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "Normal"
	case BlendMultiply:
		return "Multiply"
	case BlendScreen:
		return "Screen"
	case BlendOverlay:
		return "Overlay"
	case BlendDifference:
		return "Difference"
	default:
		return "Unknown"
	}
}

// ParseBlendMode accepts the names produced by String, case-insensitively.
func ParseBlendMode(s string) (BlendMode, error) {
	for m := BlendNormal; m <= BlendDifference; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}
	return BlendNormal, fmt.Errorf("unknown blend mode %q", s)
}

// Blend composites top over base. The result has the size of base; pixels
// of top outside base are ignored, base pixels not covered by top are kept.
func Blend(base, top *image.Gray, mode BlendMode, opacity float64) *image.Gray {
	result := Clone(base)
	rb := result.Bounds()
	tb := top.Bounds()
	w := min(rb.Dx(), tb.Dx())
	h := min(rb.Dy(), tb.Dy())
	opacity = clamp(opacity, 0, 1)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := float64(result.Pix[y*result.Stride+x]) / 255
			s := float64(top.Pix[y*top.Stride+x]) / 255
			v := blend(d, s, mode)
			v = v*opacity + d*(1-opacity)
			result.Pix[y*result.Stride+x] = uint8(math.Round(clamp(v, 0, 1) * 255))
		}
	}
	return result
}

// blend performs the blend operation on normalized gray values.
func blend(d, s float64, mode BlendMode) float64 {
	switch mode {
	case BlendMultiply:
		return s * d
	case BlendScreen:
		return 1 - (1-s)*(1-d)
	case BlendOverlay:
		if d < 0.5 {
			return 2 * s * d
		}
		return 1 - 2*(1-s)*(1-d)
	case BlendDifference:
		return math.Abs(s - d)
	default:
		return s
	}
}

// SideBySide places left and right next to each other on a black canvas.
func SideBySide(left, right *image.Gray) *image.Gray {
	lb, rb := left.Bounds(), right.Bounds()
	out := image.NewGray(image.Rect(0, 0, lb.Dx()+rb.Dx(), max(lb.Dy(), rb.Dy())))
	for y := 0; y < lb.Dy(); y++ {
		copy(out.Pix[y*out.Stride:], left.Pix[y*left.Stride:y*left.Stride+lb.Dx()])
	}
	for y := 0; y < rb.Dy(); y++ {
		copy(out.Pix[y*out.Stride+lb.Dx():], right.Pix[y*right.Stride:y*right.Stride+rb.Dx()])
	}
	return out
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
