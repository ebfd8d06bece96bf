package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	_ "golang.org/x/image/tiff"
)

// defaultBrightnessThreshold is the mean luma (0-255) below which a still
// image is considered too dark to keep
const defaultBrightnessThreshold = 25

var qualityExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".tiff": true, ".tif": true,
}

// QualityScorer flags low quality media
type QualityScorer interface {
	Applies(path string) bool
	IsLowQuality(fs afero.Fs, path string) (bool, error)
}

// BrightnessScorer flags JPEG and TIFF images whose mean brightness is
// below Threshold
type BrightnessScorer struct {
	Threshold float64
}

func (s BrightnessScorer) Applies(path string) bool {
	return qualityExtensions[strings.ToLower(filepath.Ext(path))]
}

func (s BrightnessScorer) IsLowQuality(fs afero.Fs, path string) (bool, error) {
	f, err := fs.Open(path)
	if err != nil {
		return false, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return false, fmt.Errorf("decode image: %w", err)
	}

	return meanBrightness(img) < s.Threshold, nil
}

// meanBrightness averages BT.601 luma over every pixel
func meanBrightness(img image.Image) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}

	var sum uint64
	// JPEG decodes to YCbCr whose Y plane already is BT.601 luma
	if ycc, ok := img.(*image.YCbCr); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				sum += uint64(ycc.Y[ycc.YOffset(x, y)])
			}
		}
		return float64(sum) / float64(n)
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += uint64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return float64(sum) / float64(n)
}
