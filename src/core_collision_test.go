package main

import (
	"testing"

	"github.com/spf13/afero"
)

func TestResolveCollision(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"free", nil, "photo_001.jpg"},
		{"taken", []string{"photo_001.jpg"}, "photo_001_1.jpg"},
		{"continues after highest", []string{"photo_001.jpg", "photo_001_1.jpg", "photo_001_3.jpg"}, "photo_001_4.jpg"},
		{"ignores non numeric suffix", []string{"photo_001.jpg", "photo_001_copy.jpg"}, "photo_001_1.jpg"},
		{"suffix with other extension counts", []string{"photo_001.jpg", "photo_001_2.png"}, "photo_001_3.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := fs.MkdirAll("/dst", 0755); err != nil {
				t.Fatal(err)
			}
			for _, name := range tt.existing {
				writeFile(t, fs, "/dst/"+name, name)
			}

			got, err := resolveCollision(fs, "/dst", "photo_001.jpg")
			if err != nil {
				t.Fatalf("resolveCollision: %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveCollision = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveCollisionMissingDir(t *testing.T) {
	// A dry run plans into directories that do not exist yet
	got, err := resolveCollision(afero.NewMemMapFs(), "/dst/2023/05", "a.jpg")
	if err != nil || got != "a.jpg" {
		t.Errorf("resolveCollision = %q, %v; want a.jpg", got, err)
	}
}

func TestNumericSuffix(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"img_7.jpg", 7, true},
		{"img_12", 12, true},
		{"img_.jpg", 0, false},
		{"img_1a.jpg", 0, false},
		{"other_3.jpg", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := numericSuffix(tt.name, "img_")
			if got != tt.want || ok != tt.ok {
				t.Errorf("numericSuffix(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}
