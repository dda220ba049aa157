package watermark

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"unicode/utf8"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// RenderText rasterizes a text watermark into a transparent raster sized to
// exactly the text's glyph bounding box. The glyphs are drawn with a
// semi-transparent white fill over a semi-transparent black stroke outline,
// both faded by opacityPercent. Opacity is baked into the returned raster, so
// Composite must not attenuate it again.
//
// referenceWidth is the width of the image the text will be placed onto and
// drives the font size together with scalePercent and the text length.
func RenderText(text string, referenceWidth int, fontPath string, opacityPercent int, scalePercent int) (*image.NRGBA, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, pathError(fontPath, ErrFontNotFound, err)
	}
	ttf, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, pathError(fontPath, ErrFontNotFound, err)
	}

	runeCount := utf8.RuneCountInString(text)
	if runeCount == 0 {
		return nil, fmt.Errorf("%w: empty text", ErrRender)
	}

	// Font size scales inversely with the text length so longer strings render
	// smaller. The 1.8 multiplier is tuned by eye; changing it changes every
	// existing output.
	fontSize := int(math.Round(float64(referenceWidth) * float64(scalePercent) / 100 / float64(runeCount) * 1.8))
	if fontSize <= 0 {
		return nil, fmt.Errorf("%w: computed font size %d for text %q", ErrRender, fontSize, text)
	}

	face := truetype.NewFace(ttf, &truetype.Options{Size: float64(fontSize), DPI: 72})
	defer face.Close()

	bounds, _ := font.BoundString(face, text)
	width := (bounds.Max.X - bounds.Min.X).Ceil()
	height := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: text %q has an empty bounding box", ErrRender, text)
	}

	strokeWidth := fontSize / 25
	if strokeWidth < 1 {
		strokeWidth = 1
	}

	// Shift the pen so the tight bounding box lands at the raster origin.
	// Stroke pixels that fall outside the box are clipped, matching the
	// fill-only measurement above.
	origin := fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y}

	// Fill and stroke coverage are accumulated into separate masks and
	// colorized in one pass each, keeping the alpha uniform where offset
	// stroke draws overlap.
	strokeMask := image.NewAlpha(image.Rect(0, 0, width, height))
	drawer := &font.Drawer{Dst: strokeMask, Src: image.White, Face: face}
	for dy := -strokeWidth; dy <= strokeWidth; dy++ {
		for dx := -strokeWidth; dx <= strokeWidth; dx++ {
			if dx*dx+dy*dy > strokeWidth*strokeWidth {
				continue
			}
			drawer.Dot = fixed.Point26_6{X: origin.X + fixed.I(dx), Y: origin.Y + fixed.I(dy)}
			drawer.DrawString(text)
		}
	}

	fillMask := image.NewAlpha(image.Rect(0, 0, width, height))
	drawer = &font.Drawer{Dst: fillMask, Src: image.White, Face: face, Dot: origin}
	drawer.DrawString(text)

	// Fill and stroke opacity are derived independently even though the values
	// match; they have always faded together.
	fillAlpha := scaledAlpha(opacityPercent)
	strokeAlpha := scaledAlpha(opacityPercent)

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.DrawMask(img, img.Bounds(), image.NewUniform(color.NRGBA{0, 0, 0, strokeAlpha}), image.Point{}, strokeMask, image.Point{}, draw.Over)
	draw.DrawMask(img, img.Bounds(), image.NewUniform(color.NRGBA{255, 255, 255, fillAlpha}), image.Point{}, fillMask, image.Point{}, draw.Over)

	return img, nil
}

func scaledAlpha(opacityPercent int) uint8 {
	if opacityPercent <= 0 {
		return 0
	}
	if opacityPercent >= 100 {
		return 255
	}
	return uint8(255 * opacityPercent / 100)
}
