package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// BoundingBox represents a geographic bounding box
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Constants for validation
const (
	MinZoom = 0
	MaxZoom = 20

	MinLat = -85.051129 // Web Mercator limit
	MaxLat = 85.051129
	MinLon = -180.0
	MaxLon = 180.0

	TileSize = 256 // Standard tile size in pixels (256x256)
)

// Validate checks if the bounding box is valid
func (b BoundingBox) Validate() error {
	if b.South >= b.North {
		return fmt.Errorf("south (%f) must be less than north (%f)", b.South, b.North)
	}
	if b.West >= b.East {
		return fmt.Errorf("west (%f) must be less than east (%f)", b.West, b.East)
	}
	if b.South < -90 || b.North > 90 {
		return fmt.Errorf("latitude out of range [-90, 90]: south=%f, north=%f", b.South, b.North)
	}
	if b.West < -180 || b.East > 180 {
		return fmt.Errorf("longitude out of range [-180, 180]: west=%f, east=%f", b.West, b.East)
	}
	return nil
}

// Bound converts the bounding box to an orb.Bound
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// Center returns the center point of the bounding box
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.South + b.North) / 2, (b.West + b.East) / 2
}

// ValidateCoordinates validates zoom level and bounding box
func ValidateCoordinates(bbox BoundingBox, zoom int) error {
	if zoom < MinZoom || zoom > MaxZoom {
		return fmt.Errorf("zoom level %d out of range [%d, %d]", zoom, MinZoom, MaxZoom)
	}
	return bbox.Validate()
}

// ValidateTileCoordinates validates individual tile coordinates
func ValidateTileCoordinates(z, x, y int) error {
	if z < MinZoom || z > MaxZoom {
		return fmt.Errorf("zoom %d out of range [%d, %d]", z, MinZoom, MaxZoom)
	}

	maxTile := (1 << z) - 1
	if x < 0 || x > maxTile {
		return fmt.Errorf("x %d out of range [0, %d] for zoom %d", x, maxTile, z)
	}
	if y < 0 || y > maxTile {
		return fmt.Errorf("y %d out of range [0, %d] for zoom %d", y, maxTile, z)
	}

	return nil
}
