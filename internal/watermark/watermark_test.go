package watermark

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int, fill color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = fill.R
		img.Pix[i+1] = fill.G
		img.Pix[i+2] = fill.B
		img.Pix[i+3] = fill.A
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func writeJPEG(t *testing.T, path string, w, h int, fill color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = fill.R
		img.Pix[i+1] = fill.G
		img.Pix[i+2] = fill.B
		img.Pix[i+3] = 0xFF
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func decodeBuffer(t *testing.T, buf *bytes.Buffer) (image.Image, string) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode output buffer: %v", err)
	}
	return img, format
}

func channelDelta(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d
}

func nearColor(t *testing.T, img image.Image, x, y int, want color.NRGBA, tolerance int) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	got := color.NRGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 0xFF}
	if channelDelta(got.R, want.R) > tolerance ||
		channelDelta(got.G, want.G) > tolerance ||
		channelDelta(got.B, want.B) > tolerance {
		t.Fatalf("pixel (%d,%d) = %+v, want within %d of %+v", x, y, got, tolerance, want)
	}
}

func TestPlacementAnchors(t *testing.T) {
	opts := func(a Anchor) Options {
		return Options{Anchor: a, Padding: 10}
	}

	tests := []struct {
		name   string
		anchor Anchor
		want   image.Point
	}{
		{"bottom-right", AnchorBottomRight, image.Pt(890, 740)},
		{"bottom-left", AnchorBottomLeft, image.Pt(10, 740)},
		{"top-right", AnchorTopRight, image.Pt(890, 10)},
		{"top-left", AnchorTopLeft, image.Pt(10, 10)},
		{"center", AnchorCenter, image.Pt(450, 375)},
		{"unrecognized falls back to bottom-right", Anchor("somewhere"), image.Pt(890, 740)},
		{"empty falls back to bottom-right", Anchor(""), image.Pt(890, 740)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := placement(1000, 800, 100, 50, opts(tc.anchor), false)
			if got != tc.want {
				t.Fatalf("placement(%s) = %v, want %v", tc.anchor, got, tc.want)
			}
		})
	}
}

func TestPlacementTextIgnoresAnchor(t *testing.T) {
	for _, anchor := range []Anchor{AnchorBottomRight, AnchorBottomLeft, AnchorTopRight, AnchorTopLeft, AnchorCenter, Anchor("junk")} {
		got := placement(1000, 800, 100, 50, Options{Anchor: anchor, Padding: 10}, true)
		want := image.Pt(450, 375)
		if got != want {
			t.Fatalf("text placement with anchor %q = %v, want centered %v", anchor, got, want)
		}
	}
}

func TestResizeToBasePreservesRatio(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 323, 199))

	dst := resizeToBase(src, 1000, 37)

	wantW := int(math.Round(1000 * 37.0 / 100))
	if dst.Bounds().Dx() != wantW {
		t.Fatalf("resized width = %d, want %d", dst.Bounds().Dx(), wantW)
	}
	srcRatio := 199.0 / 323.0
	gotRatio := float64(dst.Bounds().Dy()) / float64(dst.Bounds().Dx())
	if math.Abs(gotRatio-srcRatio)*float64(dst.Bounds().Dx()) > 1 {
		t.Fatalf("aspect ratio drifted more than one pixel: got %f, want %f", gotRatio, srcRatio)
	}
}

func TestAttenuateAlphaFloors(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Pix[3] = 255
	img.Pix[7] = 101

	attenuateAlpha(img, 70)

	// 255*0.7 = 178.5 and 101*0.7 = 70.7, both floored.
	if img.Pix[3] != 178 || img.Pix[7] != 70 {
		t.Fatalf("alpha = (%d, %d), want (178, 70)", img.Pix[3], img.Pix[7])
	}
}

func TestCompositeImageWatermarkBottomRight(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	markPath := filepath.Join(dir, "mark.png")
	white := color.NRGBA{255, 255, 255, 255}
	red := color.NRGBA{200, 30, 30, 255}
	writePNG(t, basePath, 1000, 800, white)
	writePNG(t, markPath, 200, 100, red)

	buf, err := Composite(basePath, ImageAsset(markPath), Options{
		ScalePercent:   10,
		OpacityPercent: 100,
		Anchor:         AnchorBottomRight,
		Padding:        DefaultPadding,
	})
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}

	out, format := decodeBuffer(t, buf)
	if format != "jpeg" {
		t.Fatalf("output format = %q, want jpeg", format)
	}
	if out.Bounds().Dx() != 1000 || out.Bounds().Dy() != 800 {
		t.Fatalf("output dimensions = %dx%d, want 1000x800", out.Bounds().Dx(), out.Bounds().Dy())
	}

	// Watermark resizes to 100x50 and lands with its top-left at (890, 740).
	nearColor(t, out, 890+50, 740+25, red, 12)
	// Pixels outside the watermark footprint stay base-colored.
	nearColor(t, out, 10, 10, white, 12)
	nearColor(t, out, 500, 400, white, 12)
	nearColor(t, out, 880, 735, white, 12)
}

func TestCompositeZeroOpacityLeavesBaseUntouched(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.jpg")
	markPath := filepath.Join(dir, "mark.png")
	writeJPEG(t, basePath, 400, 300, color.NRGBA{80, 120, 200, 255})
	writePNG(t, markPath, 100, 100, color.NRGBA{0, 0, 0, 255})

	withMark, err := Composite(basePath, ImageAsset(markPath), Options{
		ScalePercent:   25,
		OpacityPercent: 0,
		Anchor:         AnchorCenter,
		Padding:        DefaultPadding,
	})
	if err != nil {
		t.Fatalf("Composite with zero opacity: %v", err)
	}

	baseImg, err := decodeNRGBA(basePath)
	if err != nil {
		t.Fatalf("decode base: %v", err)
	}
	baseline := new(bytes.Buffer)
	if err := jpeg.Encode(baseline, baseImg, &jpeg.Options{Quality: jpegQuality}); err != nil {
		t.Fatalf("re-encode base: %v", err)
	}

	if !bytes.Equal(withMark.Bytes(), baseline.Bytes()) {
		t.Fatalf("zero-opacity watermark altered the output: %d vs %d bytes and differing content", withMark.Len(), baseline.Len())
	}
}

func TestCompositeFullOpacityKeepsWatermarkAlphaExact(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.Pix[3] = 255
	img.Pix[7] = 128
	img.Pix[11] = 1
	want := append([]uint8(nil), img.Pix...)

	// Composite skips attenuation entirely at 100 percent; this pins the
	// no-op so a "multiply by 1.0" rounding regression cannot sneak in.
	attenuateAlpha(img, 100)

	if !bytes.Equal(img.Pix, want) {
		t.Fatalf("alpha changed at full opacity: %v, want %v", img.Pix, want)
	}
}

func TestCompositeTextWatermarkCenteredDespiteAnchor(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	writePNG(t, basePath, 600, 400, color.NRGBA{10, 10, 10, 255})

	raster := image.NewNRGBA(image.Rect(0, 0, 100, 40))
	for i := 0; i < len(raster.Pix); i += 4 {
		raster.Pix[i] = 255
		raster.Pix[i+1] = 255
		raster.Pix[i+2] = 255
		raster.Pix[i+3] = 255
	}

	compose := func(anchor Anchor) *bytes.Buffer {
		buf, err := Composite(basePath, TextAsset(raster), Options{
			ScalePercent:   25,
			OpacityPercent: 100,
			Anchor:         anchor,
			Padding:        DefaultPadding,
		})
		if err != nil {
			t.Fatalf("Composite text anchor %q: %v", anchor, err)
		}
		return buf
	}

	topLeft := compose(AnchorTopLeft)
	center := compose(AnchorCenter)
	if !bytes.Equal(topLeft.Bytes(), center.Bytes()) {
		t.Fatalf("text watermark placement depends on anchor; top-left and center outputs differ")
	}

	out, _ := decodeBuffer(t, topLeft)
	// Raster occupies (250,180)-(350,220); the top-left corner stays dark.
	nearColor(t, out, 300, 200, color.NRGBA{255, 255, 255, 255}, 12)
	nearColor(t, out, 15, 15, color.NRGBA{10, 10, 10, 255}, 12)
}

func TestCompositeRoundTripDimensions(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	markPath := filepath.Join(dir, "mark.png")
	writePNG(t, basePath, 321, 207, color.NRGBA{90, 90, 90, 255})
	writePNG(t, markPath, 64, 64, color.NRGBA{255, 0, 0, 128})

	buf, err := Composite(basePath, ImageAsset(markPath), Options{
		ScalePercent:   15,
		OpacityPercent: 70,
		Anchor:         AnchorBottomRight,
		Padding:        DefaultPadding,
	})
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}

	out, format := decodeBuffer(t, buf)
	if format != "jpeg" {
		t.Fatalf("output format = %q, want jpeg", format)
	}
	if !out.Bounds().Eq(image.Rect(0, 0, 321, 207)) {
		t.Fatalf("output bounds = %v, want 321x207", out.Bounds())
	}
}

func TestCompositeMissingBaseImage(t *testing.T) {
	dir := t.TempDir()
	markPath := filepath.Join(dir, "mark.png")
	writePNG(t, markPath, 10, 10, color.NRGBA{255, 255, 255, 255})

	buf, err := Composite(filepath.Join(dir, "nope.png"), ImageAsset(markPath), Options{ScalePercent: 10, OpacityPercent: 100})
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("error = %v, want ErrImageDecode", err)
	}
	if buf != nil {
		t.Fatalf("expected nil buffer on decode failure")
	}
}

func TestCompositeCorruptBaseImage(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "corrupt.jpg")
	if err := os.WriteFile(basePath, []byte("not an image at all"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	markPath := filepath.Join(dir, "mark.png")
	writePNG(t, markPath, 10, 10, color.NRGBA{255, 255, 255, 255})

	_, err := Composite(basePath, ImageAsset(markPath), Options{ScalePercent: 10, OpacityPercent: 100})
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("error = %v, want ErrImageDecode", err)
	}
}

func TestCompositeCorruptWatermarkImage(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	writePNG(t, basePath, 100, 100, color.NRGBA{255, 255, 255, 255})
	markPath := filepath.Join(dir, "mark.png")
	if err := os.WriteFile(markPath, []byte{0x00, 0x01, 0x02}, 0o644); err != nil {
		t.Fatalf("write corrupt mark: %v", err)
	}

	_, err := Composite(basePath, ImageAsset(markPath), Options{ScalePercent: 10, OpacityPercent: 100})
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("error = %v, want ErrImageDecode", err)
	}
}

func TestCompositeEmptyAsset(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base.png")
	writePNG(t, basePath, 100, 100, color.NRGBA{255, 255, 255, 255})

	if _, err := Composite(basePath, Asset{}, Options{ScalePercent: 10, OpacityPercent: 100}); err == nil {
		t.Fatalf("expected error for empty asset")
	}
}
