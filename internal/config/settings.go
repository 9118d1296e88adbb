package config

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"tilestitch/internal/cache"
	"tilestitch/internal/provider"
)

// Settings represents persistent user preferences
type Settings struct {
	// Download settings
	OutputDir      string `json:"outputDir"`
	Workers        int    `json:"workers"`
	RequestDelayMS int    `json:"requestDelayMS"` // fixed delay between tile downloads
	UserAgent      string `json:"userAgent,omitempty"`

	// Cache settings
	CacheDir         string `json:"cacheDir"`
	CacheMemoryTiles int    `json:"cacheMemoryTiles"`

	// Default map settings
	DefaultZoom     int    `json:"defaultZoom"`
	DefaultProvider string `json:"defaultProvider"`

	// Output settings
	MaxDimension int `json:"maxDimension,omitempty"` // downscale longest side, 0 = off

	// Custom tile servers
	CustomProviders []provider.Provider `json:"customProviders"`
}

// DefaultSettings returns default settings
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	outputDir := filepath.Join(homeDir, "Downloads", "maps")

	return &Settings{
		OutputDir:        outputDir,
		Workers:          1,
		RequestDelayMS:   300,
		CacheDir:         cache.DefaultDir(),
		CacheMemoryTiles: cache.DefaultMemoryEntries,
		DefaultZoom:      10,
		DefaultProvider:  provider.ProviderOSM,
		CustomProviders:  []provider.Provider{},
	}
}

// SettingsPath returns the settings file path
func SettingsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".tilestitch", "settings.json")
}

// LoadSettings loads settings from path, merging defaults for missing fields.
// A missing file is not an error; defaults are returned.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		path = SettingsPath()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	defaults := DefaultSettings()
	if settings.OutputDir == "" {
		settings.OutputDir = defaults.OutputDir
	}
	if settings.Workers == 0 {
		settings.Workers = defaults.Workers
	}
	if settings.RequestDelayMS == 0 {
		settings.RequestDelayMS = defaults.RequestDelayMS
	}
	if settings.CacheDir == "" {
		settings.CacheDir = defaults.CacheDir
	}
	if settings.CacheMemoryTiles == 0 {
		settings.CacheMemoryTiles = defaults.CacheMemoryTiles
	}
	if settings.DefaultZoom == 0 {
		settings.DefaultZoom = defaults.DefaultZoom
	}
	if settings.DefaultProvider == "" {
		settings.DefaultProvider = defaults.DefaultProvider
	}

	for _, p := range settings.CustomProviders {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("invalid custom provider %q: %w", p.Name, err)
		}
	}

	return &settings, nil
}

// SaveSettings saves settings to path
func SaveSettings(path string, settings *Settings) error {
	if path == "" {
		path = SettingsPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
