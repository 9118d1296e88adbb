// Package provider holds the catalog of XYZ tile servers that tiles can be
// fetched from, both built-in and user-configured.
package provider

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/maptile"
)

// Provider name constants for consistent naming across the application
const (
	ProviderOSM         = "osm"
	ProviderOpenTopoMap = "opentopomap"
	ProviderStadiaMaps  = "stadia"

	DisplayNameOSM         = "OpenStreetMap Standard"
	DisplayNameOpenTopoMap = "OpenTopoMap"
	DisplayNameStadiaMaps  = "Stadia Maps Outdoors"
)

// Provider represents an XYZ raster tile server
type Provider struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	URLTemplate string `json:"url"` // contains {z}, {x}, {y} placeholders
	Attribution string `json:"attribution,omitempty"`
	MaxZoom     int    `json:"maxZoom,omitempty"`
	TileExt     string `json:"tileExt,omitempty"` // "png", "jpg" or "webp"; defaults to "png"
	RequiresKey bool   `json:"requiresKey"`       // key is sent as an Authorization: Bearer header
}

// BuiltIn returns the built-in provider catalog in presentation order.
func BuiltIn() []Provider {
	return []Provider{
		{
			Name:        ProviderOSM,
			DisplayName: DisplayNameOSM,
			URLTemplate: "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "© OpenStreetMap contributors",
			MaxZoom:     19,
			TileExt:     "png",
		},
		{
			Name:        ProviderOpenTopoMap,
			DisplayName: DisplayNameOpenTopoMap,
			URLTemplate: "https://tile.opentopomap.org/{z}/{x}/{y}.png",
			Attribution: "© OpenStreetMap contributors, SRTM | © OpenTopoMap (CC-BY-SA)",
			MaxZoom:     17,
			TileExt:     "png",
		},
		{
			Name:        ProviderStadiaMaps,
			DisplayName: DisplayNameStadiaMaps,
			URLTemplate: "https://tiles.stadiamaps.com/tiles/outdoors/{z}/{x}/{y}.png",
			Attribution: "© Stadia Maps © OpenMapTiles © OpenStreetMap contributors",
			MaxZoom:     19,
			TileExt:     "png",
			RequiresKey: true,
		},
	}
}

// Lookup finds a provider by name, searching the built-in catalog first and
// then the supplied custom providers.
func Lookup(name string, custom []Provider) (Provider, error) {
	for _, p := range BuiltIn() {
		if p.Name == name {
			return p, nil
		}
	}
	for _, p := range custom {
		if p.Name == name {
			return p, nil
		}
	}
	return Provider{}, fmt.Errorf("unknown provider: %s", name)
}

// TileURL formats the provider's URL template with the tile coordinates
func (p Provider) TileURL(tile maptile.Tile) string {
	url := strings.ReplaceAll(p.URLTemplate, "{z}", strconv.Itoa(int(tile.Z)))
	url = strings.ReplaceAll(url, "{x}", strconv.FormatUint(uint64(tile.X), 10))
	url = strings.ReplaceAll(url, "{y}", strconv.FormatUint(uint64(tile.Y), 10))
	return url
}

// Ext returns the tile file extension, defaulting to png
func (p Provider) Ext() string {
	if p.TileExt == "" {
		return "png"
	}
	return p.TileExt
}

// Validate validates a provider configuration
func (p Provider) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if p.URLTemplate == "" {
		return fmt.Errorf("provider URL is required")
	}
	for _, placeholder := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(p.URLTemplate, placeholder) {
			return fmt.Errorf("provider URL must contain %s placeholder", placeholder)
		}
	}
	if p.TileExt != "" && p.TileExt != "png" && p.TileExt != "jpg" && p.TileExt != "webp" {
		return fmt.Errorf("invalid tile extension: %s (must be png, jpg, or webp)", p.TileExt)
	}
	return nil
}

// ValidateZoom validates a zoom level against the provider's limit
func (p Provider) ValidateZoom(zoom int) error {
	if p.MaxZoom > 0 && zoom > p.MaxZoom {
		return fmt.Errorf("zoom %d exceeds maximum %d for %s", zoom, p.MaxZoom, p.Name)
	}
	if zoom < 0 {
		return fmt.Errorf("zoom %d is below minimum 0", zoom)
	}
	return nil
}
