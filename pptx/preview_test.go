package pptx

import (
	"bytes"
	"image/png"
	"os"
	"testing"
)

func TestRenderSlideBackgroundAndSize(t *testing.T) {
	img, err := buildSample().RenderSlide(0, &PreviewOptions{Width: 320})
	if err != nil {
		t.Fatalf("RenderSlide failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 320 || b.Dy() != 180 {
		t.Fatalf("unexpected preview size %dx%d", b.Dx(), b.Dy())
	}
	r, g, bl, _ := img.At(2, 2).RGBA()
	if r>>8 != 0x1F || g>>8 != 0x4E || bl>>8 != 0x79 {
		t.Errorf("background pixel = %02x%02x%02x, want 1f4e79", r>>8, g>>8, bl>>8)
	}
}

func TestRenderSlideOutOfRange(t *testing.T) {
	if _, err := buildSample().RenderSlide(3, nil); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestSavePreviews(t *testing.T) {
	paths, err := buildSample().SavePreviews(t.TempDir(), &PreviewOptions{Width: 200})
	if err != nil {
		t.Fatalf("SavePreviews failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 previews, got %d", len(paths))
	}
	data, err := os.ReadFile(paths[2])
	if err != nil {
		t.Fatal(err)
	}
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		t.Errorf("preview is not a PNG: %v", err)
	}
}

func TestRenderSlideRectFill(t *testing.T) {
	p := New()
	s := p.AddSlide()
	s.AddRect(HexColor("FF8000")).Place(0, 0, Inches(1), Inches(1))
	img, err := p.RenderSlide(0, &PreviewOptions{Width: 100})
	if err != nil {
		t.Fatal(err)
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if r>>8 != 0xFF || g>>8 != 0x80 || b>>8 != 0 {
		t.Errorf("rect pixel = %02x%02x%02x, want ff8000", r>>8, g>>8, b>>8)
	}
}

func TestColorNRGBA(t *testing.T) {
	c := HexColor("FF8000").NRGBA(0)
	if c.R != 0xFF || c.G != 0x80 || c.B != 0 || c.A != 0xFF {
		t.Errorf("NRGBA = %+v", c)
	}
	if a := HexColor("FF8000").NRGBA(50).A; a != 127 {
		t.Errorf("alpha = %d, want 127", a)
	}
}

func TestFontCacheEmbedded(t *testing.T) {
	fc := NewEmbeddedFontCache()
	if fc.Face(FallbackFontName, 12, false, false) == nil {
		t.Fatal("embedded fallback face missing")
	}
	if fc.Face("no such family", 12, false, false) != nil {
		t.Error("unknown family should not resolve")
	}
	if fc.FaceOrFallback("no such family", 12, true, false) == nil {
		t.Error("FaceOrFallback should fall back to the embedded face")
	}
	a := fc.MeasureFace(FallbackFontName, 12, false, false)
	b := fc.MeasureFace(FallbackFontName, 12, false, false)
	if a != b {
		t.Error("faces should be cached")
	}
}

func TestEncodePreviewPNG(t *testing.T) {
	data, err := buildSample().EncodePreview(1, &PreviewOptions{Width: 160})
	if err != nil {
		t.Fatalf("EncodePreview failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if cfg.Width != 160 || cfg.Height != 90 {
		t.Errorf("preview is %dx%d, want 160x90", cfg.Width, cfg.Height)
	}
	if _, err := buildSample().EncodePreview(-1, nil); err == nil {
		t.Error("expected out-of-range error")
	}
}
