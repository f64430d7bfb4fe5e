package atlas

import (
	"image"
	"testing"
)

// TestNewAllocatorDefaultOptions tests that the default minimum region is 1x1.
func TestNewAllocatorDefaultOptions(t *testing.T) {
	a, err := NewAllocator(64)
	if err != nil {
		t.Fatal(err)
	}
	if a.MinSubTextureSize() != 1 {
		t.Errorf("MinSubTextureSize() = %d, want 1", a.MinSubTextureSize())
	}
	if a.Levels() != a.MipCount() {
		t.Errorf("Levels() = %d, want MipCount() = %d", a.Levels(), a.MipCount())
	}
}

// TestWithMinSubTextureSize tests that the option drops the deepest levels.
func TestWithMinSubTextureSize(t *testing.T) {
	full, _ := NewAllocator(256)
	trimmed, err := NewAllocator(256, WithMinSubTextureSize(16))
	if err != nil {
		t.Fatal(err)
	}

	if trimmed.Levels() != full.Levels()-4 {
		t.Errorf("Levels() = %d, want %d", trimmed.Levels(), full.Levels()-4)
	}
	if trimmed.NodeCount() >= full.NodeCount()/64 {
		t.Errorf("NodeCount() = %d, not much smaller than %d", trimmed.NodeCount(), full.NodeCount())
	}
	if _, ok, err := trimmed.AllocNode(16); !ok || err != nil {
		t.Errorf("AllocNode(16) = %v, %v", ok, err)
	}
}

// TestMultipleOptions tests that the last option wins.
func TestMultipleOptions(t *testing.T) {
	a, err := NewAllocator(64, WithMinSubTextureSize(2), WithMinSubTextureSize(8))
	if err != nil {
		t.Fatal(err)
	}
	if a.MinSubTextureSize() != 8 {
		t.Errorf("MinSubTextureSize() = %d, want 8", a.MinSubTextureSize())
	}
}

// TestWithSurface tests drawing into a caller-owned image.
func TestWithSurface(t *testing.T) {
	surface := image.NewRGBA(image.Rect(0, 0, 32, 32))
	a, err := NewAtlas[int](testConfig(32, 8, 0), WithSurface(surface))
	if err != nil {
		t.Fatal(err)
	}

	r, err := a.Put(1, solid(8, 8, red))
	if err != nil {
		t.Fatal(err)
	}
	if got := surface.RGBAAt(r.X, r.Y); got != red {
		t.Errorf("surface pixel = %v, want %v", got, red)
	}
}
