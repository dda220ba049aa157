package watermark

import (
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func writeTestFont(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goregular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write test font: %v", err)
	}
	return path
}

func maxAlpha(img *image.NRGBA) uint8 {
	var max uint8
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > max {
			max = img.Pix[i]
		}
	}
	return max
}

func TestRenderTextProducesRaster(t *testing.T) {
	fontPath := writeTestFont(t)

	raster, err := RenderText("HOME", 1000, fontPath, 100, 20)
	if err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	if raster.Bounds().Dx() <= 0 || raster.Bounds().Dy() <= 0 {
		t.Fatalf("raster has degenerate bounds %v", raster.Bounds())
	}
	// At full opacity a fully covered glyph pixel is fully opaque.
	if got := maxAlpha(raster); got != 255 {
		t.Fatalf("max alpha = %d, want 255 at full opacity", got)
	}
}

func TestRenderTextOpacityFades(t *testing.T) {
	fontPath := writeTestFont(t)

	full, err := RenderText("HOME", 1000, fontPath, 100, 20)
	if err != nil {
		t.Fatalf("RenderText full opacity: %v", err)
	}
	faded, err := RenderText("HOME", 1000, fontPath, 40, 20)
	if err != nil {
		t.Fatalf("RenderText faded: %v", err)
	}

	if !full.Bounds().Eq(faded.Bounds()) {
		t.Fatalf("opacity changed raster bounds: %v vs %v", full.Bounds(), faded.Bounds())
	}
	if maxAlpha(faded) >= maxAlpha(full) {
		t.Fatalf("faded raster max alpha %d not below full-opacity %d", maxAlpha(faded), maxAlpha(full))
	}
}

func TestRenderTextZeroOpacityIsTransparent(t *testing.T) {
	fontPath := writeTestFont(t)

	raster, err := RenderText("HOME", 1000, fontPath, 0, 20)
	if err != nil {
		t.Fatalf("RenderText: %v", err)
	}
	if got := maxAlpha(raster); got != 0 {
		t.Fatalf("max alpha = %d, want 0 at zero opacity", got)
	}
}

func TestRenderTextLongerTextRendersSmaller(t *testing.T) {
	fontPath := writeTestFont(t)

	short, err := RenderText("W", 500, fontPath, 100, 20)
	if err != nil {
		t.Fatalf("RenderText short: %v", err)
	}
	long, err := RenderText("WWWWWWWW", 500, fontPath, 100, 20)
	if err != nil {
		t.Fatalf("RenderText long: %v", err)
	}
	if long.Bounds().Dy() >= short.Bounds().Dy() {
		t.Fatalf("glyph height did not shrink with length: short %d, long %d", short.Bounds().Dy(), long.Bounds().Dy())
	}
}

func TestRenderTextMissingFont(t *testing.T) {
	_, err := RenderText("HOME", 1000, filepath.Join(t.TempDir(), "missing.ttf"), 100, 20)
	if !errors.Is(err, ErrFontNotFound) {
		t.Fatalf("error = %v, want ErrFontNotFound", err)
	}
}

func TestRenderTextCorruptFont(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ttf")
	if err := os.WriteFile(path, []byte("definitely not a font"), 0o644); err != nil {
		t.Fatalf("write corrupt font: %v", err)
	}
	_, err := RenderText("HOME", 1000, path, 100, 20)
	if !errors.Is(err, ErrFontNotFound) {
		t.Fatalf("error = %v, want ErrFontNotFound", err)
	}
}

func TestRenderTextEmptyText(t *testing.T) {
	_, err := RenderText("", 1000, writeTestFont(t), 100, 20)
	if !errors.Is(err, ErrRender) {
		t.Fatalf("error = %v, want ErrRender", err)
	}
}

func TestRenderTextFontSizeCollapses(t *testing.T) {
	// A tiny reference width against a long string rounds the font size to
	// zero, which is a render failure rather than a crash.
	_, err := RenderText("a very long watermark string indeed", 10, writeTestFont(t), 100, 1)
	if !errors.Is(err, ErrRender) {
		t.Fatalf("error = %v, want ErrRender", err)
	}
}

func TestScaledAlpha(t *testing.T) {
	tests := []struct {
		opacity int
		want    uint8
	}{
		{-5, 0},
		{0, 0},
		{1, 2},
		{50, 127},
		{70, 178},
		{100, 255},
		{140, 255},
	}
	for _, tc := range tests {
		if got := scaledAlpha(tc.opacity); got != tc.want {
			t.Fatalf("scaledAlpha(%d) = %d, want %d", tc.opacity, got, tc.want)
		}
	}
}
