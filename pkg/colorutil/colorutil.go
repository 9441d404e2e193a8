// Package colorutil provides shared color utilities for mesh visualisation.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Parse converts a color name from the palette above, case-sensitive and
// lower case, to its value.
func Parse(name string) (color.RGBA, bool) {
	switch name {
	case "black":
		return Black, true
	case "white":
		return White, true
	case "red":
		return Red, true
	case "blue":
		return Blue, true
	case "cyan":
		return Cyan, true
	case "magenta":
		return Magenta, true
	case "yellow":
		return Yellow, true
	}
	return color.RGBA{}, false
}
