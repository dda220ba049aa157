package watermark

import (
	"errors"
	"fmt"
)

// Failure classes surfaced by this package. Every error carries the offending
// file path in its message so a batch caller can report it and move on; match
// the class with errors.Is.
var (
	// ErrImageDecode marks a base image or image-watermark path that could not
	// be opened or decoded as a raster image.
	ErrImageDecode = errors.New("image decode failed")

	// ErrFontNotFound marks a font path that does not resolve to a loadable
	// TrueType/OpenType font file.
	ErrFontNotFound = errors.New("font not found")

	// ErrRender marks a text rasterization failure other than a missing font,
	// including degenerate empty input.
	ErrRender = errors.New("text rasterization failed")
)

func pathError(path string, class error, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", path, class)
	}
	return fmt.Errorf("%s: %w: %v", path, class, cause)
}
