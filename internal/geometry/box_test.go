package geometry

import (
	"image"
	"math"
	"testing"
)

func TestNormalizeCenterBox(t *testing.T) {
	got := Normalize(PixelBox{X1: 100, Y1: 50, X2: 300, Y2: 250}, 400, 500)

	want := NormalizedBox{X: 0.25, Y: 0.1, Width: 0.5, Height: 0.4}
	if !boxClose(got, want) {
		t.Fatalf("normalized = %+v, want %+v", got, want)
	}
}

func TestNormalizeEdgeTouchingBox(t *testing.T) {
	got := Normalize(PixelBox{X1: 0, Y1: 0, X2: 400, Y2: 500}, 400, 500)
	want := NormalizedBox{X: 0, Y: 0, Width: 1, Height: 1}
	if !boxClose(got, want) {
		t.Fatalf("full-frame box = %+v, want %+v", got, want)
	}
}

func TestNormalizeClampsOverflow(t *testing.T) {
	// detectors occasionally emit corners a pixel outside the frame
	got := Normalize(PixelBox{X1: -5, Y1: -2, X2: 405, Y2: 502}, 400, 500)
	if got.X != 0 || got.Y != 0 || got.Width != 1 || got.Height != 1 {
		t.Fatalf("overflow box should clamp to unit box, got %+v", got)
	}
}

func TestNormalizeZeroDimensions(t *testing.T) {
	got := Normalize(PixelBox{X1: 1, Y1: 1, X2: 2, Y2: 2}, 0, 0)
	if got != (NormalizedBox{}) {
		t.Fatalf("zero-dimension image should yield zero box, got %+v", got)
	}
}

func TestPaddedCropInterior(t *testing.T) {
	box := NormalizedBox{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}
	rect := PaddedCrop(box, 400, 400, 0.1)

	// box is 200px wide, padding adds 20px each side
	want := image.Rect(80, 80, 320, 320)
	if rect != want {
		t.Fatalf("crop = %v, want %v", rect, want)
	}
}

func TestPaddedCropClampedAtEdges(t *testing.T) {
	box := NormalizedBox{X: 0, Y: 0, Width: 1, Height: 1}
	rect := PaddedCrop(box, 400, 300, 0.1)
	if rect != image.Rect(0, 0, 400, 300) {
		t.Fatalf("edge crop should clamp to image, got %v", rect)
	}
}

func TestPaddedCropDegenerateBox(t *testing.T) {
	box := NormalizedBox{X: 0.5, Y: 0.5, Width: 0, Height: 0}
	rect := PaddedCrop(box, 400, 400, 0.1)
	if !rect.Empty() {
		t.Fatalf("zero-size box should yield empty rect, got %v", rect)
	}
}

func TestPaddedCropTinyBoxStaysValid(t *testing.T) {
	box := NormalizedBox{X: 0.5, Y: 0.5, Width: 0.01, Height: 0.01}
	rect := PaddedCrop(box, 400, 400, 0.1)
	if rect.Empty() {
		t.Fatalf("4px box should survive padding, got %v", rect)
	}
	if rect.Min.X < 0 || rect.Max.X > 400 || rect.Min.Y < 0 || rect.Max.Y > 400 {
		t.Fatalf("crop escaped image bounds: %v", rect)
	}
}

func boxClose(a, b NormalizedBox) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps &&
		math.Abs(a.Width-b.Width) < eps && math.Abs(a.Height-b.Height) < eps
}
