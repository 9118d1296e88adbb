package stitch

import (
	"fmt"
	"image"
	"image/draw"

	"tilestitch/internal/geo"
)

// Crop cuts the canvas down to the exact geographic window. Both corners of
// the bounding box are mapped to canvas pixels via fractional in-tile
// interpolation; the crop rectangle is clamped to the canvas.
func Crop(canvas *image.RGBA, bbox geo.BoundingBox, zoom int, ext geo.Extent) (*image.RGBA, error) {
	left, bottom := geo.PixelInCanvas(bbox.South, bbox.West, zoom, ext)
	right, top := geo.PixelInCanvas(bbox.North, bbox.East, zoom, ext)

	rect := image.Rect(left, top, right, bottom).Intersect(canvas.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop bounds (%d,%d)-(%d,%d) are outside the canvas %v",
			left, top, right, bottom, canvas.Bounds())
	}

	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), canvas, rect.Min, draw.Src)
	return out, nil
}
