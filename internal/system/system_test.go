package system

import (
	"image"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestNaturalLess(t *testing.T) {
	names := []string{"gen_10.png", "gen_2.png", "gen_1.png", "gen_100.png", "gen_20.png", "gen_3.png"}
	sort.Slice(names, func(i, j int) bool { return NaturalLess(names[i], names[j]) })

	want := []string{"gen_1.png", "gen_2.png", "gen_3.png", "gen_10.png", "gen_20.png", "gen_100.png"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s (all: %v)", i, want[i], names[i], names)
		}
	}
}

func TestNaturalLessEdgeCases(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"a", "b", true},
		{"b", "a", false},
		{"frame", "frame1", true},
		{"frame1", "frame", false},
		{"x007", "x7", false},
		{"x7", "x007", true},
		{"x09", "x10", true},
		{"same", "same", false},
	}
	for _, tt := range tests {
		if got := NaturalLess(tt.a, tt.b); got != tt.want {
			t.Errorf("NaturalLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEstimateMemory(t *testing.T) {
	got := EstimateMemory(10, 100, 100, 2, true)
	want := uint64(10*100*100 + 2*100*100*4)
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}

	rgba := EstimateMemory(10, 100, 100, 2, false)
	if rgba != uint64(10*100*100*4+2*100*100*4) {
		t.Errorf("unexpected RGBA estimate %d", rgba)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if n := DefaultWorkers(); n < 1 {
		t.Errorf("expected at least one worker, got %d", n)
	}
}

func TestGenerateOutputPath(t *testing.T) {
	path := GenerateOutputPath("output", "my frames/", ".gif")
	if filepath.Dir(path) != "output" {
		t.Errorf("expected output dir, got %s", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "my_frames_") {
		t.Errorf("unexpected base name %s", filepath.Base(path))
	}
	if filepath.Ext(path) != ".gif" {
		t.Errorf("expected .gif extension, got %s", path)
	}
}

func TestImagePoolReuse(t *testing.T) {
	pool := NewImagePool()
	rect := image.Rect(0, 0, 8, 4)

	img := pool.Get(rect)
	if img.Bounds() != rect {
		t.Fatalf("expected %v, got %v", rect, img.Bounds())
	}
	pool.Put(img)

	other := pool.Get(image.Rect(0, 0, 2, 2))
	if other.Bounds().Dx() != 2 {
		t.Errorf("pool returned wrong size: %v", other.Bounds())
	}
	pool.Put(nil)

	// same size at another origin reuses the canvas with its bounds moved
	moved := image.Rect(3, 5, 11, 9)
	again := pool.Get(moved)
	if again.Bounds() != moved || len(again.Pix) != 8*4*4 {
		t.Errorf("expected %v with %d bytes, got %v with %d", moved, 8*4*4, again.Bounds(), len(again.Pix))
	}
	again.Set(10, 8, image.White.C)
	pool.Put(again)

	// sub-images are not pooled
	big := image.NewRGBA(image.Rect(0, 0, 16, 16))
	pool.Put(big.SubImage(image.Rect(0, 0, 8, 4)).(*image.RGBA))
	if got := pool.Get(rect); got.Bounds() != rect || got.Stride != 8*4 {
		t.Errorf("pool handed out a foreign canvas: %v stride %d", got.Bounds(), got.Stride)
	}
}
