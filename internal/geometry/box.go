// Package geometry converts between the pixel-space boxes the detector
// emits and the resolution-independent boxes stored with each detection.
package geometry

import "image"

// PixelBox is a detector box in pixel corner coordinates.
type PixelBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// NormalizedBox is an origin/size box with every component in [0,1]
// relative to the image dimensions.
type NormalizedBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Normalize converts a pixel corner box to a fractional origin/size box.
// Components are clamped so a box touching the image edge stays in [0,1].
func Normalize(box PixelBox, width, height int) NormalizedBox {
	if width <= 0 || height <= 0 {
		return NormalizedBox{}
	}

	w := float64(width)
	h := float64(height)

	return NormalizedBox{
		X:      clamp01(box.X1 / w),
		Y:      clamp01(box.Y1 / h),
		Width:  clamp01((box.X2 - box.X1) / w),
		Height: clamp01((box.Y2 - box.Y1) / h),
	}
}

// PaddedCrop expands a normalized box by padding (a fraction of the box's
// own size on each side) and returns the pixel rectangle to cut for the
// classifier, clamped to the image bounds. The returned rectangle may be
// empty for degenerate boxes; callers must check before cropping.
func PaddedCrop(box NormalizedBox, width, height int, padding float64) image.Rectangle {
	x := int(box.X * float64(width))
	y := int(box.Y * float64(height))
	w := int(box.Width * float64(width))
	h := int(box.Height * float64(height))

	padX := int(float64(w) * padding)
	padY := int(float64(h) * padding)

	left := max(0, x-padX)
	top := max(0, y-padY)
	right := min(width, x+w+padX)
	bottom := min(height, y+h+padY)

	if right <= left || bottom <= top {
		return image.Rectangle{}
	}
	return image.Rect(left, top, right, bottom)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
