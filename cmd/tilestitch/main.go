package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tilestitch/internal/cache"
	"tilestitch/internal/config"
	"tilestitch/internal/export"
	"tilestitch/internal/fetch"
	"tilestitch/internal/geo"
	"tilestitch/internal/logger"
	"tilestitch/internal/naming"
	"tilestitch/internal/provider"
	"tilestitch/internal/ratelimit"
	"tilestitch/internal/stitch"
)

// avgTileSizeKB is used for the pre-download size estimate shown in the
// confirmation prompt
const avgTileSizeKB = 15.0

func main() {
	var (
		bboxFlag     = flag.String("bbox", "", "bounding box as south,west,north,east")
		zoomFlag     = flag.Int("zoom", 0, "zoom level")
		providerFlag = flag.String("provider", "", "tile provider name (interactive prompt when omitted)")
		apiKeyFlag   = flag.String("api-key", "", "API key sent as Authorization: Bearer header")
		outFlag      = flag.String("out", "", "output image path (.png, .jpg or .webp)")
		workersFlag  = flag.Int("workers", 0, "concurrent download workers (default 1: sequential)")
		delayFlag    = flag.Int("delay", -1, "fixed delay between tile downloads in milliseconds")
		cacheFlag    = flag.String("cache", "", "tile cache directory")
		maxDimFlag   = flag.Int("max-dim", 0, "downscale output so its longest side is at most this many pixels (0 = off)")
		yesFlag      = flag.Bool("yes", false, "skip the download confirmation prompt")
		clearFlag    = flag.Bool("clear-cache", false, "delete all cached tiles and exit")
		settingsFlag = flag.String("settings", "", "settings file path")
		logLevelFlag = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	log, err := logger.New(*logLevelFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log = log.With(zap.String("run_id", uuid.NewString()[:8]))

	settings, err := config.LoadSettings(*settingsFlag)
	if err != nil {
		log.Fatal("failed to load settings", zap.Error(err))
	}
	if *workersFlag > 0 {
		settings.Workers = *workersFlag
	}
	if *delayFlag >= 0 {
		settings.RequestDelayMS = *delayFlag
	}
	if *cacheFlag != "" {
		settings.CacheDir = *cacheFlag
	}
	if *maxDimFlag > 0 {
		settings.MaxDimension = *maxDimFlag
	}

	tileCache, err := cache.New(settings.CacheDir, settings.CacheMemoryTiles, log)
	if err != nil {
		log.Fatal("failed to initialize cache", zap.Error(err))
	}

	if *clearFlag {
		if err := tileCache.Clear(); err != nil {
			log.Fatal("failed to clear cache", zap.Error(err))
		}
		log.Info("cache cleared", zap.String("dir", tileCache.Dir()))
		return
	}

	bbox, err := parseBBox(*bboxFlag)
	if err != nil {
		log.Fatal("invalid bounding box", zap.Error(err))
	}

	zoom := *zoomFlag
	if zoom == 0 {
		zoom = settings.DefaultZoom
	}
	if err := geo.ValidateCoordinates(bbox, zoom); err != nil {
		log.Fatal("invalid coordinates", zap.Error(err))
	}

	stdin := bufio.NewReader(os.Stdin)

	p, err := chooseProvider(stdin, *providerFlag, settings)
	if err != nil {
		log.Fatal("provider selection failed", zap.Error(err))
	}
	if err := p.ValidateZoom(zoom); err != nil {
		log.Fatal("invalid zoom for provider", zap.Error(err))
	}

	apiKey := *apiKeyFlag
	if p.RequiresKey && apiKey == "" {
		fmt.Printf("API key for %s: ", p.Name)
		line, _ := stdin.ReadString('\n')
		apiKey = strings.TrimSpace(line)
	}
	if p.RequiresKey && apiKey == "" {
		log.Fatal("provider requires an API key", zap.String("provider", p.Name))
	}

	tiles, err := geo.TilesInBounds(bbox, zoom)
	if err != nil {
		log.Fatal("failed to enumerate tiles", zap.Error(err))
	}

	if p.Attribution != "" {
		fmt.Printf("Map data: %s\n", p.Attribution)
	}
	fmt.Printf("Need %d tiles (~%.1f MB) from %s at zoom %d\n",
		len(tiles), float64(len(tiles))*avgTileSizeKB/1024, p.Name, zoom)

	if !*yesFlag {
		fmt.Print("Continue with download? (y/n): ")
		line, _ := stdin.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(line)) != "y" {
			fmt.Println("Download cancelled.")
			return
		}
	}

	outPath := *outFlag
	if outPath == "" {
		if err := os.MkdirAll(settings.OutputDir, 0755); err != nil {
			log.Fatal("failed to create output directory", zap.Error(err))
		}
		outPath = filepath.Join(settings.OutputDir,
			naming.OutputFileName(p.Name, bbox.South, bbox.West, bbox.North, bbox.East, zoom, "png"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.NewLimiter(time.Duration(settings.RequestDelayMS)*time.Millisecond, log)
	client := fetch.NewClient(settings.UserAgent, fetch.DefaultTimeout, limiter, log)
	stitcher := stitch.NewStitcher(client, tileCache, settings.Workers, log)

	start := time.Now()
	stitcher.SetProgressCallback(func(done, total int) {
		if done%25 != 0 && done != total {
			return
		}
		elapsed := time.Since(start).Seconds()
		perSec := 0.0
		if elapsed > 0 {
			perSec = float64(done) / elapsed
		}
		log.Info("progress",
			zap.Int("done", done),
			zap.Int("total", total),
			zap.Float64("tiles_per_sec", perSec))
	})

	result, err := stitcher.Build(ctx, p, apiKey, bbox, zoom)
	if err != nil {
		log.Fatal("download failed", zap.Error(err))
	}
	if result.Failed > 0 {
		log.Warn("some tiles were left blank", zap.Int("failed", result.Failed))
	}

	cropped, err := stitch.Crop(result.Canvas, bbox, zoom, result.Extent)
	if err != nil {
		log.Fatal("crop failed", zap.Error(err))
	}

	if err := export.Save(outPath, cropped, settings.MaxDimension, log); err != nil {
		log.Fatal("failed to save output", zap.Error(err))
	}

	hits, misses := tileCache.HitRate()
	log.Info("done",
		zap.Int("downloaded", result.Downloaded),
		zap.Int("cached", result.Cached),
		zap.Int("failed", result.Failed),
		zap.Int64("cache_hits", hits),
		zap.Int64("cache_misses", misses),
		zap.Duration("elapsed", time.Since(start)))
	fmt.Printf("Saved as %s (%dx%d pixels)\n", outPath, cropped.Bounds().Dx(), cropped.Bounds().Dy())
}

// parseBBox parses "south,west,north,east"
func parseBBox(s string) (geo.BoundingBox, error) {
	if s == "" {
		return geo.BoundingBox{}, fmt.Errorf("missing -bbox (south,west,north,east)")
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("expected 4 comma-separated values, got %d", len(parts))
	}

	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("invalid coordinate %q: %w", part, err)
		}
		vals[i] = v
	}

	return geo.BoundingBox{South: vals[0], West: vals[1], North: vals[2], East: vals[3]}, nil
}

// chooseProvider resolves the provider from the flag, or prompts interactively
func chooseProvider(stdin *bufio.Reader, name string, settings *config.Settings) (provider.Provider, error) {
	if name != "" {
		return provider.Lookup(name, settings.CustomProviders)
	}

	catalog := append(provider.BuiltIn(), settings.CustomProviders...)
	fmt.Println("Available tile servers:")
	for i, p := range catalog {
		display := p.DisplayName
		if display == "" {
			display = p.Name
		}
		keyNote := ""
		if p.RequiresKey {
			keyNote = " (API key required)"
		}
		fmt.Printf("  %d) %s%s\n", i+1, display, keyNote)
	}
	fmt.Printf("Choose server [1-%d, default 1]: ", len(catalog))

	line, _ := stdin.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return catalog[0], nil
	}

	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > len(catalog) {
		return provider.Provider{}, fmt.Errorf("invalid choice: %s", line)
	}
	return catalog[idx-1], nil
}
