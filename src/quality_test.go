package main

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/spf13/afero"
	"golang.org/x/image/tiff"
)

func solidImage(v uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func encodeTIFF(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestBrightnessScorer(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/dark.jpg", encodeJPEG(t, solidImage(8)))
	writeFile(t, fs, "/bright.jpg", encodeJPEG(t, solidImage(200)))
	writeFile(t, fs, "/dark.tif", encodeTIFF(t, solidImage(5)))
	writeFile(t, fs, "/bright.tiff", encodeTIFF(t, solidImage(180)))

	s := BrightnessScorer{Threshold: defaultBrightnessThreshold}
	tests := []struct {
		path string
		want bool
	}{
		{"/dark.jpg", true},
		{"/bright.jpg", false},
		{"/dark.tif", true},
		{"/bright.tiff", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := s.IsLowQuality(fs, tt.path)
			if err != nil {
				t.Fatalf("IsLowQuality: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsLowQuality(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestBrightnessScorerUndecodable(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/broken.jpg", "not a jpeg")

	low, err := BrightnessScorer{Threshold: defaultBrightnessThreshold}.IsLowQuality(fs, "/broken.jpg")
	if err == nil {
		t.Error("expected decode error")
	}
	if low {
		t.Error("undecodable image flagged as low quality")
	}
}

func TestBrightnessScorerApplies(t *testing.T) {
	s := BrightnessScorer{}
	for path, want := range map[string]bool{
		"a.JPG":  true,
		"a.jpeg": true,
		"a.tif":  true,
		"a.png":  false,
		"a.mp4":  false,
	} {
		if got := s.Applies(path); got != want {
			t.Errorf("Applies(%s) = %v, want %v", path, got, want)
		}
	}
}
