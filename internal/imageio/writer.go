// Package imageio writes thumbnails losslessly, picking the encoder from the
// output file extension, and reads them back.
package imageio

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// Format is a supported output encoding.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
	TGA  Format = "tga"
)

// FormatFor picks the encoding for path. Unknown or missing extensions
// get PNG.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		return WebP
	case ".tga":
		return TGA
	default:
		return PNG
	}
}

// Encode writes img to w in the given format. Every format keeps the
// alpha channel.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case WebP:
		// nil options: lossless VP8L
		return nativewebp.Encode(w, img, nil)
	case TGA:
		return tga.Encode(w, img)
	default:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		return enc.Encode(w, img)
	}
}

// Save encodes img to path, creating parent directories as needed. A file
// left half-written by a failed encode is removed.
func Save(path string, img image.Image) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("imageio: create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("imageio: close %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := Encode(f, img, FormatFor(path)); err != nil {
		return fmt.Errorf("imageio: encode %s: %w", path, err)
	}
	return nil
}
