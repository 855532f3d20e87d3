package font

import (
	"testing"

	"golang.org/x/image/font/gofont/gomono"

	"github.com/dshills/glyphterm/internal/renderer/core"
)

func goMonoAtlas(t *testing.T) *Atlas {
	t.Helper()
	tf, err := ParseSFNTWithStyle(gomono.TTF, FamilyGoMono, core.StyleRegular)
	if err != nil {
		t.Fatalf("ParseSFNTWithStyle: %v", err)
	}
	return newAtlas(1, tf, 32)
}

func TestAtlasMask(t *testing.T) {
	a := goMonoAtlas(t)

	g := a.Glyph('A')
	if g == NotdefGlyph {
		t.Fatal("Go Mono should cover 'A'")
	}

	m, err := a.Mask(g)
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	if m.Image == nil {
		t.Fatal("'A' should have ink")
	}
	b := m.Image.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		t.Errorf("mask bounds = %v, want non-empty", b)
	}
	// Glyph sits above the baseline, so the top is negative.
	if m.Offset.Y >= 0 {
		t.Errorf("Offset.Y = %d, want negative", m.Offset.Y)
	}

	var inked int
	for _, v := range m.Image.Pix {
		if v > 0 {
			inked++
		}
	}
	if inked == 0 {
		t.Error("mask has no coverage")
	}

	again, _ := a.Mask(g)
	if again != m {
		t.Error("second Mask call should hit the cache")
	}
	if a.MaskCount() != 1 {
		t.Errorf("MaskCount() = %d, want 1", a.MaskCount())
	}
}

func TestAtlasMaskSpace(t *testing.T) {
	a := goMonoAtlas(t)

	m, err := a.Mask(a.Glyph(' '))
	if err != nil {
		t.Fatalf("Mask: %v", err)
	}
	if m.Image != nil {
		t.Error("space should have no ink")
	}
}

func TestAtlasDestroy(t *testing.T) {
	a := goMonoAtlas(t)
	g := a.Glyph('x')
	if _, err := a.Mask(g); err != nil {
		t.Fatalf("Mask: %v", err)
	}

	a.Destroy()

	if !a.Destroyed() {
		t.Error("Destroyed() should be true")
	}
	if a.MaskCount() != 0 {
		t.Errorf("MaskCount() = %d, want 0", a.MaskCount())
	}
	// Still usable for specs built before eviction.
	if m, err := a.Mask(g); err != nil || m.Image == nil {
		t.Errorf("Mask after Destroy = (%v, %v)", m, err)
	}
	if a.MaskCount() != 0 {
		t.Error("destroyed atlas should not cache")
	}
}

func TestAtlasNil(t *testing.T) {
	var a *Atlas
	if a.ID() != 0 || a.Glyph('a') != NotdefGlyph || a.Size() != 0 || a.Typeface() != nil {
		t.Error("nil atlas accessors should return zero values")
	}
	a.Destroy()
	if a.Destroyed() {
		t.Error("nil atlas is never destroyed")
	}
}
