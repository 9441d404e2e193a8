// Package image provides grayscale image loading, saving, and compositing.
package image

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

var (
	// ErrDecode is returned when input bytes are not a decodable image.
	ErrDecode = errors.New("image decode error")
	// ErrEmpty is returned when a decoded image has zero width or height.
	ErrEmpty = errors.New("image is empty")
	// ErrUnsupportedFormat is returned for a file extension with no codec.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Layer is a loaded single-channel source image.
type Layer struct {
	Path   string      // Original file path, empty for in-memory sources
	Format string      // Codec name reported by the decoder
	Image  *image.Gray // Pixel data, origin at (0, 0)
}

// NewLayer wraps an already decoded image, converting it to gray.
func NewLayer(img image.Image) (*Layer, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmpty
	}
	return &Layer{Image: ToGray(img)}, nil
}

// Load loads an image from the specified path and returns a Layer.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	layer, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	layer.Path = path
	return layer, nil
}

// Decode reads any registered format (PNG, JPEG, BMP, TIFF) and converts it
// to 8-bit gray.
func Decode(r io.Reader) (*Layer, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	layer, err := NewLayer(img)
	if err != nil {
		return nil, err
	}
	layer.Format = format
	return layer, nil
}

// ToGray returns img as an *image.Gray with its origin at (0, 0).
// A gray input already at the origin is returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
	return gray
}

// Clone returns a deep copy of a gray image with its origin at (0, 0).
func Clone(img *image.Gray) *image.Gray {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[y*img.Stride:y*img.Stride+b.Dx()])
	}
	return out
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

var supportedFormats = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif"}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}
