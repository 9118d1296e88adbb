// Package naming builds deterministic cache and output file names from
// provider identity and tile/bbox coordinates.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// KeyHash returns a short fingerprint of an API key for use in cache file
// names, so tiles fetched with different keys never collide. Returns an empty
// string for an empty key.
func KeyHash(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:])[:8]
}

// CacheFileName builds the flat cache file name for a tile.
// Format: {provider}_{keyhash}_{z}_{x}_{y}.{ext}; the keyhash segment is
// elided when no API key is in use.
func CacheFileName(providerName, keyHash string, z, x, y int, ext string) string {
	if keyHash == "" {
		return fmt.Sprintf("%s_%d_%d_%d.%s", providerName, z, x, y, ext)
	}
	return fmt.Sprintf("%s_%s_%d_%d_%d.%s", providerName, keyHash, z, x, y, ext)
}

// OutputFileName creates a standardized output image filename
// Format: {provider}_z{zoom}_{bbox}.{ext}
func OutputFileName(providerName string, south, west, north, east float64, zoom int, ext string) string {
	bboxStr := fmt.Sprintf("%s-%s_%s-%s",
		SanitizeCoordinate(south, true),
		SanitizeCoordinate(north, true),
		SanitizeCoordinate(west, false),
		SanitizeCoordinate(east, false))

	return fmt.Sprintf("%s_z%d_%s.%s", providerName, zoom, bboxStr, ext)
}

// SanitizeCoordinate formats a coordinate for use in filenames (removes minus sign, uses N/S/E/W)
// Replaces decimal point with 'p' for Windows compatibility
func SanitizeCoordinate(coord float64, isLat bool) string {
	dir := "E"
	if isLat {
		if coord < 0 {
			dir = "S"
		} else {
			dir = "N"
		}
	} else {
		if coord < 0 {
			dir = "W"
		}
	}
	coordStr := fmt.Sprintf("%.4f", math.Abs(coord))
	coordStr = strings.Replace(coordStr, ".", "p", 1)
	return coordStr + dir
}
