// Package watermark composites image or text watermarks onto base images and
// re-encodes the result as an in-memory JPEG. Each call is stateless and
// self-contained: inputs are read, transformed, and released before the call
// returns, so independent invocations are safe to run from parallel workers.
package watermark

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"os"

	_ "image/gif"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Anchor names a corner or center placement for image watermarks.
type Anchor string

const (
	AnchorBottomRight Anchor = "bottom-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorTopLeft     Anchor = "top-left"
	AnchorCenter      Anchor = "center"
)

// DefaultPadding is the edge distance, in pixels, applied by callers that do
// not ask for a specific padding.
const DefaultPadding = 10

const jpegQuality = 95

// Options control watermark sizing and placement.
type Options struct {
	// ScalePercent sizes the watermark as a percentage of the base image width.
	ScalePercent int
	// OpacityPercent attenuates the watermark's alpha channel, 0-100.
	OpacityPercent int
	// Anchor picks the placement corner for image watermarks. Text watermarks
	// are always centered regardless of this value; that is long-standing
	// behavior, not an oversight.
	Anchor Anchor
	// Padding is the pixel distance from the anchored edges.
	Padding int
}

type assetKind int

const (
	assetImage assetKind = iota + 1
	assetText
)

// Asset is the watermark to apply: either a path to a logo image, or a text
// raster already produced by RenderText. The variant is resolved once at the
// start of Composite, after which the blending path is kind-agnostic.
type Asset struct {
	kind   assetKind
	path   string
	raster *image.NRGBA
}

// ImageAsset selects a logo image on disk as the watermark.
func ImageAsset(path string) Asset {
	return Asset{kind: assetImage, path: path}
}

// TextAsset wraps a raster produced by RenderText.
func TextAsset(raster *image.NRGBA) Asset {
	return Asset{kind: assetText, raster: raster}
}

// IsText reports whether the asset is a text watermark.
func (a Asset) IsText() bool {
	return a.kind == assetText
}

// Composite applies the watermark asset to the base image and returns the
// result encoded as a quality-95 JPEG in an in-memory buffer. Persistence and
// transmission are the caller's concern. Failures are per-call: the returned
// error names the offending file and a batch caller is expected to report it
// and continue with its next image.
func Composite(baseImagePath string, asset Asset, opts Options) (*bytes.Buffer, error) {
	base, err := decodeNRGBA(baseImagePath)
	if err != nil {
		return nil, err
	}

	var mark *image.NRGBA
	switch asset.kind {
	case assetImage:
		src, err := decodeNRGBA(asset.path)
		if err != nil {
			return nil, err
		}
		mark = resizeToBase(src, base.Bounds().Dx(), opts.ScalePercent)
		if opts.OpacityPercent < 100 {
			attenuateAlpha(mark, opts.OpacityPercent)
		}
	case assetText:
		// Opacity was baked in by RenderText; the raster is used as-is.
		mark = asset.raster
	default:
		return nil, errors.New("watermark asset is empty")
	}

	pos := placement(base.Bounds().Dx(), base.Bounds().Dy(), mark.Bounds().Dx(), mark.Bounds().Dy(), opts, asset.IsText())

	// Paste the watermark onto a transparent layer using its own alpha as the
	// mask, then blend the layer over the base with a standard "over"
	// composite. Pixels outside the watermark footprint stay untouched.
	layer := image.NewNRGBA(base.Bounds())
	draw.Draw(layer, mark.Bounds().Add(pos), mark, image.Point{}, draw.Over)

	out := image.NewNRGBA(base.Bounds())
	draw.Draw(out, base.Bounds(), base, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), layer, image.Point{}, draw.Over)

	flattenOpaque(out)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, out, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, pathError(baseImagePath, err, nil)
	}
	return buf, nil
}

// placement resolves the watermark's top-left corner. Text watermarks are
// always centered; any unrecognized anchor falls back to bottom-right.
func placement(baseW, baseH, markW, markH int, opts Options, isText bool) image.Point {
	if isText {
		return image.Pt((baseW-markW)/2, (baseH-markH)/2)
	}
	padding := opts.Padding
	switch opts.Anchor {
	case AnchorBottomLeft:
		return image.Pt(padding, baseH-markH-padding)
	case AnchorTopRight:
		return image.Pt(baseW-markW-padding, padding)
	case AnchorTopLeft:
		return image.Pt(padding, padding)
	case AnchorCenter:
		return image.Pt((baseW-markW)/2, (baseH-markH)/2)
	default:
		return image.Pt(baseW-markW-padding, baseH-markH-padding)
	}
}

// resizeToBase scales the watermark to scalePercent of the base width,
// preserving the watermark's own aspect ratio.
func resizeToBase(src *image.NRGBA, baseWidth int, scalePercent int) *image.NRGBA {
	ratio := float64(src.Bounds().Dy()) / float64(src.Bounds().Dx())
	newW := int(math.Round(float64(baseWidth) * float64(scalePercent) / 100))
	if newW < 1 {
		newW = 1
	}
	newH := int(math.Round(float64(newW) * ratio))
	if newH < 1 {
		newH = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// attenuateAlpha multiplies every alpha sample by opacityPercent/100, flooring
// to integer channel values. RGB samples are left untouched.
func attenuateAlpha(img *image.NRGBA, opacityPercent int) {
	if opacityPercent < 0 {
		opacityPercent = 0
	}
	factor := float64(opacityPercent) / 100
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * factor)
	}
}

// flattenOpaque discards the alpha channel ahead of JPEG encoding, which has
// no transparency. RGB samples are kept as stored rather than being
// re-composited against a background.
func flattenOpaque(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
}

func decodeNRGBA(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pathError(path, ErrImageDecode, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, pathError(path, ErrImageDecode, err)
	}

	bounds := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst, nil
}
