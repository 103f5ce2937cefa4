// Package layout maps the editor's logical pixel space onto the physical
// page of an exported document and fits images into frames.
//
// The editor works in a 1280x720 space. Exported pages are 10in x 5.625in
// (16:9), so one inch holds 128 logical pixels.
package layout

import "math"

const (
	// PixelsPerInch is the single scale factor between editor pixels and inches.
	PixelsPerInch = 128.0

	// EMUPerInch is the OOXML English Metric Unit density.
	EMUPerInch = 914400

	// PageWidth and PageHeight are the editor space in logical pixels.
	PageWidth  = 1280.0
	PageHeight = 720.0

	pointsPerInch = 72.0
)

// Rect is a rectangle in logical pixels.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Page is the full-bleed rectangle.
func Page() Rect {
	return Rect{W: PageWidth, H: PageHeight}
}

// Aspect returns width/height, or 1 for a degenerate rectangle.
func (r Rect) Aspect() float64 {
	if r.W <= 0 || r.H <= 0 {
		return 1
	}
	return r.W / r.H
}

// ToInches maps logical pixels to inches.
func ToInches(px float64) float64 {
	return px / PixelsPerInch
}

// FromInches maps inches back to logical pixels.
func FromInches(in float64) float64 {
	return in * PixelsPerInch
}

// ToEMU maps logical pixels to whole EMUs.
func ToEMU(px float64) int64 {
	return int64(math.Round(ToInches(px) * EMUPerInch))
}

// FromEMU maps EMUs back to logical pixels.
func FromEMU(emu int64) float64 {
	return FromInches(float64(emu) / EMUPerInch)
}

// FontPoints maps a font size in logical pixels to whole points, at least 1.
func FontPoints(px int) int {
	pt := int(math.Round(ToInches(float64(px)) * pointsPerInch))
	if pt < 1 {
		return 1
	}
	return pt
}

// Fit returns the largest rectangle with the image's aspect ratio that fits
// inside container, centered on the axis with slack.
func Fit(container Rect, imgW, imgH int) Rect {
	imgAspect := 1.0
	if imgW > 0 && imgH > 0 {
		imgAspect = float64(imgW) / float64(imgH)
	}

	var w, h float64
	if imgAspect > container.Aspect() {
		w = container.W
		h = w / imgAspect
	} else {
		h = container.H
		w = h * imgAspect
	}

	return Rect{
		X: container.X + (container.W-w)/2,
		Y: container.Y + (container.H-h)/2,
		W: w,
		H: h,
	}
}
