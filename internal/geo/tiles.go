package geo

import (
	"fmt"
	"sort"

	"github.com/google/hilbert"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
)

// Extent represents the min/max row and column bounds of a tile set
type Extent struct {
	MinCol int
	MaxCol int
	MinRow int
	MaxRow int
}

// Cols returns the number of columns in the extent
func (e Extent) Cols() int {
	return e.MaxCol - e.MinCol + 1
}

// Rows returns the number of rows in the extent
func (e Extent) Rows() int {
	return e.MaxRow - e.MinRow + 1
}

// CanvasSize returns the pixel dimensions of a canvas covering the extent
func (e Extent) CanvasSize() (width, height int) {
	return e.Cols() * TileSize, e.Rows() * TileSize
}

// TilesInBounds returns all tiles whose area intersects the bounding box at the
// given zoom level, edge tiles included. The result is sorted row-major so the
// set is deterministic for a given input.
func TilesInBounds(bbox BoundingBox, zoom int) ([]maptile.Tile, error) {
	if err := ValidateCoordinates(bbox, zoom); err != nil {
		return nil, err
	}

	set := tilecover.Bound(bbox.Bound(), maptile.Zoom(zoom))
	tiles := make([]maptile.Tile, 0, len(set))
	for tile := range set {
		tiles = append(tiles, tile)
	}

	sort.Slice(tiles, func(i, j int) bool {
		if tiles[i].Y != tiles[j].Y {
			return tiles[i].Y < tiles[j].Y
		}
		return tiles[i].X < tiles[j].X
	})

	return tiles, nil
}

// CalculateExtent calculates the min/max row and column bounds from a slice of tiles
func CalculateExtent(tiles []maptile.Tile) (Extent, error) {
	if len(tiles) == 0 {
		return Extent{}, fmt.Errorf("no tiles provided")
	}

	ext := Extent{
		MinCol: int(tiles[0].X),
		MaxCol: int(tiles[0].X),
		MinRow: int(tiles[0].Y),
		MaxRow: int(tiles[0].Y),
	}

	for _, tile := range tiles[1:] {
		col := int(tile.X)
		row := int(tile.Y)

		if col < ext.MinCol {
			ext.MinCol = col
		}
		if col > ext.MaxCol {
			ext.MaxCol = col
		}
		if row < ext.MinRow {
			ext.MinRow = row
		}
		if row > ext.MaxRow {
			ext.MaxRow = row
		}
	}

	return ext, nil
}

// SortHilbert reorders tiles along a Hilbert curve so consecutive fetches are
// spatially adjacent. All tiles must share the same zoom level.
func SortHilbert(tiles []maptile.Tile) {
	if len(tiles) == 0 {
		return
	}

	h, err := hilbert.NewHilbert(1 << tiles[0].Z)
	if err != nil {
		return
	}

	sort.Slice(tiles, func(i, j int) bool {
		di, _ := h.MapInverse(int(tiles[i].X), int(tiles[i].Y))
		dj, _ := h.MapInverse(int(tiles[j].X), int(tiles[j].Y))
		return di < dj
	})
}

// PixelInCanvas maps a geographic coordinate to a pixel position within a canvas
// whose origin is the northwest corner of the extent's minimum tile. The position
// within the containing tile is found by linear interpolation between the tile's
// northwest corner and its x+1/y+1 neighbors' corners.
func PixelInCanvas(lat, lon float64, zoom int, ext Extent) (x, y int) {
	tile := maptile.At(orb.Point{lon, lat}, maptile.Zoom(zoom))
	bound := tile.Bound()

	xRatio := (lon - bound.Min[0]) / (bound.Max[0] - bound.Min[0])
	yRatio := (bound.Max[1] - lat) / (bound.Max[1] - bound.Min[1])

	fx := float64(int(tile.X)-ext.MinCol)*TileSize + xRatio*TileSize
	fy := float64(int(tile.Y)-ext.MinRow)*TileSize + yRatio*TileSize

	return int(fx), int(fy)
}
