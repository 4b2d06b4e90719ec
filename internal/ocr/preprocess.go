package ocr

import (
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMinShortSide is the upscale floor for light preprocessing.
	DefaultMinShortSide = 1200
	// aggressiveMinShortSide is the upscale floor for aggressive preprocessing.
	aggressiveMinShortSide = 2000
)

// DefaultStrategies is the as-is pass followed by the light-preprocessing pass,
// which only runs when the first produced nothing.
func DefaultStrategies(minShortSide int) []Strategy {
	return []Strategy{
		{
			Name:    "no_preprocessing",
			Configs: []RecognizeOptions{{}},
		},
		{
			Name:        "light_preprocessing",
			Prepare:     LightPreprocess(minShortSide),
			Configs:     []RecognizeOptions{{OEM: 3, PSM: 6}, {OEM: 3, PSM: 11}},
			OnlyIfEmpty: true,
		},
	}
}

// ExhaustiveStrategies appends the aggressive and multi-language passes to the
// defaults. They always run while the deadline allows.
func ExhaustiveStrategies(minShortSide int) []Strategy {
	return append(DefaultStrategies(minShortSide),
		Strategy{
			Name:    "aggressive_preprocessing",
			Prepare: AggressivePreprocess(aggressiveMinShortSide),
			Configs: []RecognizeOptions{{OEM: 3, PSM: 6}, {OEM: 3, PSM: 11}, {OEM: 3, PSM: 3}},
		},
		Strategy{
			Name:    "multilang",
			Prepare: LightPreprocess(minShortSide),
			Configs: []RecognizeOptions{
				{Lang: "hin+eng", OEM: 3, PSM: 6},
				{Lang: "hin+eng", OEM: 3, PSM: 11},
			},
		},
	)
}

// LightPreprocess converts to grayscale, sharpens once and upscales so the
// shorter side reaches minShortSide.
func LightPreprocess(minShortSide int) func(image.Image) (image.Image, error) {
	return func(img image.Image) (image.Image, error) {
		out := imaging.Grayscale(img)
		out = imaging.Sharpen(out, 1.0)
		return toGray(upscaleShortSide(out, minShortSide)), nil
	}
}

// AggressivePreprocess is meant for faint or worn scans.
func AggressivePreprocess(minShortSide int) func(image.Image) (image.Image, error) {
	return func(img image.Image) (image.Image, error) {
		out := imaging.Grayscale(img)
		out = imaging.Sharpen(out, 1.0)
		out = imaging.Sharpen(out, 1.0)
		out = imaging.AdjustContrast(out, 60)
		out = imaging.AdjustBrightness(out, 20)
		out = imaging.Sharpen(out, 3.0)
		return toGray(upscaleShortSide(out, minShortSide)), nil
	}
}

func upscaleShortSide(img image.Image, floor int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	short := min(w, h)
	if floor <= 0 || short <= 0 || short >= floor {
		return img
	}
	scale := float64(floor) / float64(short)
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	return imaging.Resize(img, nw, nh, imaging.Lanczos)
}

// toGray collapses to a single channel.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}
