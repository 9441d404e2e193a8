// Package overlay draws the control mesh over an image for inspection.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"mesh-warp/internal/mesh"
	"mesh-warp/pkg/colorutil"
)

// Zoom limits, as in the interactive canvas.
const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// Style controls how the mesh is drawn.
type Style struct {
	LineColor     color.Color
	PointColor    color.Color
	SelectedColor color.Color
	LineWidth     float64
	PointRadius   float64
}

// DefaultStyle returns blue lattice lines and red point markers.
func DefaultStyle() Style {
	return Style{
		LineColor:     colorutil.Blue,
		PointColor:    colorutil.Red,
		SelectedColor: colorutil.Yellow,
		LineWidth:     1,
		PointRadius:   3,
	}
}

// Options configures Render.
type Options struct {
	Style Style
	// Zoom scales the output; mesh coordinates are scaled with it.
	// Zero means 1. Values are clamped to [MinZoom, MaxZoom].
	Zoom float64
	// Selected highlights one control point when non-nil.
	Selected *mesh.Point
}

// Render draws the lattice lines and control points of g over base.
func Render(base image.Image, g *mesh.Grid, opts Options) (image.Image, error) {
	if base == nil || base.Bounds().Empty() {
		return nil, fmt.Errorf("overlay: empty base image")
	}
	if g == nil {
		return nil, fmt.Errorf("overlay: nil mesh")
	}

	zoom := opts.Zoom
	if zoom == 0 {
		zoom = 1
	}
	zoom = max(MinZoom, min(MaxZoom, zoom))

	style := opts.Style
	if style.LineColor == nil {
		style = DefaultStyle()
	}

	canvas := scaled(base, zoom)
	dc := gg.NewContextForImage(canvas)
	defer dc.Close()

	lattice := g.Lattice()

	dc.SetColor(style.LineColor)
	dc.SetLineWidth(style.LineWidth)
	for r := range lattice {
		for c := 0; c < len(lattice[r])-1; c++ {
			p1, p2 := lattice[r][c], lattice[r][c+1]
			dc.DrawLine(p1.X*zoom, p1.Y*zoom, p2.X*zoom, p2.Y*zoom)
		}
	}
	for r := 0; r < len(lattice)-1; r++ {
		for c := range lattice[r] {
			p1, p2 := lattice[r][c], lattice[r+1][c]
			dc.DrawLine(p1.X*zoom, p1.Y*zoom, p2.X*zoom, p2.Y*zoom)
		}
	}
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("overlay: stroke lines: %w", err)
	}

	dc.SetColor(style.PointColor)
	for r := range lattice {
		for c, p := range lattice[r] {
			if opts.Selected != nil && opts.Selected.Row == r && opts.Selected.Col == c {
				continue
			}
			dc.DrawCircle(p.X*zoom, p.Y*zoom, style.PointRadius)
		}
	}
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("overlay: fill points: %w", err)
	}

	if sel := opts.Selected; sel != nil {
		p, err := g.Point(sel.Row, sel.Col)
		if err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
		dc.SetColor(style.SelectedColor)
		dc.DrawCircle(p.X*zoom, p.Y*zoom, style.PointRadius*1.5)
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("overlay: fill selection: %w", err)
		}
	}

	return dc.Image(), nil
}

// scaled converts base to RGBA at the given zoom.
func scaled(base image.Image, zoom float64) *image.RGBA {
	b := base.Bounds()
	w := max(1, int(float64(b.Dx())*zoom+0.5))
	h := max(1, int(float64(b.Dy())*zoom+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), base, b.Min, xdraw.Src)
		return dst
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), base, b, xdraw.Src, nil)
	return dst
}
