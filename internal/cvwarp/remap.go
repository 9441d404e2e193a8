// Package cvwarp provides an OpenCV-backed warp.Remapper.
package cvwarp

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"mesh-warp/internal/warp"
)

// Remapper resamples with cv::remap using bilinear interpolation and
// replicated borders, matching warp.Bilinear.
type Remapper struct{}

var _ warp.Remapper = Remapper{}

// Remap implements warp.Remapper.
func (Remapper) Remap(src *image.Gray, m *warp.Map) (*image.Gray, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", warp.ErrInvalidSize)
	}
	if m == nil || m.Width <= 0 || m.Height <= 0 {
		return nil, fmt.Errorf("%w: empty map", warp.ErrInvalidSize)
	}

	srcMat, err := grayToMat(src)
	if err != nil {
		return nil, err
	}
	defer srcMat.Close()

	mapX := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV32F)
	defer mapX.Close()
	mapY := gocv.NewMatWithSize(m.Height, m.Width, gocv.MatTypeCV32F)
	defer mapY.Close()

	for row := 0; row < m.Height; row++ {
		xs, ys := m.Row(row)
		for col := range xs {
			mapX.SetFloatAt(row, col, xs[col])
			mapY.SetFloatAt(row, col, ys[col])
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Remap(srcMat, &dst, &mapX, &mapY, gocv.InterpolationLinear, gocv.BorderReplicate, color.RGBA{})
	if dst.Empty() {
		return nil, fmt.Errorf("opencv remap produced no output")
	}

	return matToGray(dst)
}

// grayToMat copies a gray image into a single-channel 8-bit Mat.
func grayToMat(img *image.Gray) (gocv.Mat, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(buf[y*w:(y+1)*w], img.Pix[y*img.Stride:y*img.Stride+w])
	}
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, buf)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to create source mat: %w", err)
	}
	return mat, nil
}

// matToGray copies a single-channel 8-bit Mat into a new gray image.
func matToGray(mat gocv.Mat) (*image.Gray, error) {
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return nil, fmt.Errorf("unexpected mat type %v", mat.Type())
	}
	w, h := mat.Cols(), mat.Rows()
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, mat.ToBytes())
	return out, nil
}
