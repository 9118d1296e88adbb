// Package export encodes the final image to disk.
package export

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

// jpegQuality is the encoder quality for JPEG output
const jpegQuality = 90

// ScaleToFit downscales img so its longest side is at most maxDim pixels,
// preserving aspect ratio. Images already within the limit are returned as-is.
func ScaleToFit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	var dw, dh int
	if w >= h {
		dw = maxDim
		dh = h * maxDim / w
	} else {
		dh = maxDim
		dw = w * maxDim / h
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// Save writes the image to path, choosing the encoder from the file
// extension: .png (default), .jpg/.jpeg, or .webp. When maxDim > 0 the image
// is downscaled first.
func Save(path string, img image.Image, maxDim int, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	img = ScaleToFit(img, maxDim)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: jpegQuality})
	case ".webp":
		err = nativewebp.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	bounds := img.Bounds()
	logger.Info("saved output image",
		zap.String("path", path),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()))

	return nil
}
