// Package quality scores camera-trap frames so downstream review queues can
// skip washed-out or blurred captures. Scores are advisory and never gate
// the pipeline.
package quality

import (
	"bytes"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	defaultSharpnessScale = 500.0

	brightnessWeight = 0.3
	sharpnessWeight  = 0.7
)

// Scores holds the three per-image quality metrics, each in [0,1] and
// rounded to four decimals.
type Scores struct {
	Brightness float64
	Sharpness  float64
	Overall    float64
}

// Neutral is the fallback when an image cannot be decoded; the pipeline
// stores it rather than failing on a metric that is advisory anyway.
func Neutral() Scores {
	return Scores{Brightness: 0.5, Sharpness: 0.5, Overall: 0.5}
}

// Scorer computes quality metrics on decoded frames. scale divides the raw
// Laplacian variance before clamping, so a larger scale makes the sharpness
// score harder to saturate.
type Scorer struct {
	scale float64
}

func NewScorer(scale float64) *Scorer {
	if scale <= 0 {
		scale = defaultSharpnessScale
	}
	return &Scorer{scale: scale}
}

// Score decodes the image and computes brightness, sharpness and the
// weighted overall score. Undecodable input yields Neutral().
func (s *Scorer) Score(data []byte) Scores {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return Neutral()
	}
	return s.ScoreImage(img)
}

// ScoreImage computes the metrics on an already-decoded image.
func (s *Scorer) ScoreImage(img image.Image) Scores {
	gray := luminance(img)
	if len(gray) == 0 || len(gray[0]) == 0 {
		return Neutral()
	}

	brightness := meanOf(gray) / 255.0
	sharpness := math.Min(laplacianVariance(gray)/s.scale, 1.0)

	// centered brightness contributes most at mid-gray and nothing at
	// pure black or white
	centered := 1.0 - 2.0*math.Abs(brightness-0.5)
	overall := brightnessWeight*centered + sharpnessWeight*sharpness

	return Scores{
		Brightness: round4(brightness),
		Sharpness:  round4(sharpness),
		Overall:    round4(overall),
	}
}

// luminance converts to an 8-bit grayscale grid using the standard luma
// weights, matching what imaging.Grayscale would produce per pixel.
func luminance(img image.Image) [][]float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	grid := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit channels
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			row[x] = lum
		}
		grid[y] = row
	}
	return grid
}

// laplacianVariance applies the 4-neighbour Laplacian kernel with reflected
// edges and returns the variance of the response. Flat frames score zero;
// crisp edges push the variance up.
func laplacianVariance(gray [][]float64) float64 {
	h := len(gray)
	w := len(gray[0])

	at := func(y, x int) float64 {
		if y < 0 {
			y = 0
		} else if y >= h {
			y = h - 1
		}
		if x < 0 {
			x = 0
		} else if x >= w {
			x = w - 1
		}
		return gray[y][x]
	}

	resp := make([]float64, 0, w*h)
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := at(y-1, x) + at(y+1, x) + at(y, x-1) + at(y, x+1) - 4*gray[y][x]
			resp = append(resp, v)
			sum += v
		}
	}

	mean := sum / float64(len(resp))
	var variance float64
	for _, v := range resp {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(resp))
}

func meanOf(grid [][]float64) float64 {
	var sum float64
	var n int
	for _, row := range grid {
		for _, v := range row {
			sum += v
		}
		n += len(row)
	}
	return sum / float64(n)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
