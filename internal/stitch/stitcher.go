// Package stitch downloads the tiles covering a bounding box and assembles
// them into a single composite canvas.
package stitch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/paulmach/orb/maptile"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"tilestitch/internal/cache"
	"tilestitch/internal/fetch"
	"tilestitch/internal/geo"
	"tilestitch/internal/naming"
	"tilestitch/internal/provider"
)

// DefaultWorkers is the default number of concurrent download workers. The
// pipeline is sequential by default; raise it only for servers that allow it.
const DefaultWorkers = 1

// Stitcher downloads tiles through the cache and pastes them into a canvas
type Stitcher struct {
	client     *fetch.Client
	tileCache  *cache.FileCache
	workers    int
	sem        *semaphore.Weighted
	logger     *zap.Logger
	onProgress func(done, total int)
}

// NewStitcher creates a stitcher with injected dependencies
func NewStitcher(client *fetch.Client, tileCache *cache.FileCache, workers int, logger *zap.Logger) *Stitcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Stitcher{
		client:    client,
		tileCache: tileCache,
		workers:   workers,
		sem:       semaphore.NewWeighted(int64(workers)),
		logger:    logger,
	}
}

// SetProgressCallback sets a callback invoked after each tile is processed
func (s *Stitcher) SetProgressCallback(fn func(done, total int)) {
	s.onProgress = fn
}

// Result holds the assembled canvas and per-run tile counters
type Result struct {
	Canvas *image.RGBA
	Extent geo.Extent
	Zoom   int

	Total      int
	Downloaded int
	Cached     int
	Failed     int

	// Failures aggregates per-tile errors. Failed tiles are left blank in
	// the canvas and never abort the run.
	Failures error
}

// tileResult holds the outcome of one tile fetch
type tileResult struct {
	tile   maptile.Tile
	data   []byte
	cached bool
	err    error
}

// Build enumerates the tiles covering bbox at the given zoom, fetches each
// one (cache first, then network), and pastes it into a canvas sized to the
// tile extent. Tiles are fetched in Hilbert order so consecutive requests are
// spatially adjacent.
func (s *Stitcher) Build(ctx context.Context, p provider.Provider, apiKey string, bbox geo.BoundingBox, zoom int) (*Result, error) {
	if err := p.ValidateZoom(zoom); err != nil {
		return nil, err
	}

	tiles, err := geo.TilesInBounds(bbox, zoom)
	if err != nil {
		return nil, err
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("no tiles in bounding box")
	}

	ext, err := geo.CalculateExtent(tiles)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate tile extent: %w", err)
	}

	total := len(tiles)
	width, height := ext.CanvasSize()
	s.logger.Info("assembling canvas",
		zap.Int("tiles", total),
		zap.Int("cols", ext.Cols()),
		zap.Int("rows", ext.Rows()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("workers", s.workers))

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	fetchOrder := make([]maptile.Tile, len(tiles))
	copy(fetchOrder, tiles)
	geo.SortHilbert(fetchOrder)

	keyHash := naming.KeyHash(apiKey)

	resultChan := make(chan tileResult, total)

	// One goroutine per tile, gated by the semaphore so at most s.workers
	// tiles are in flight at once.
	var wg sync.WaitGroup
	for _, tile := range fetchOrder {
		wg.Add(1)
		go func(tile maptile.Tile) {
			defer wg.Done()

			if err := s.sem.Acquire(ctx, 1); err != nil {
				resultChan <- tileResult{tile: tile, err: err}
				return
			}
			defer s.sem.Release(1)

			resultChan <- s.fetchOne(ctx, p, apiKey, keyHash, tile)
		}(tile)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	result := &Result{
		Extent: ext,
		Zoom:   zoom,
		Total:  total,
	}

	var done int64
	for res := range resultChan {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		count := atomic.AddInt64(&done, 1)
		if s.onProgress != nil {
			s.onProgress(int(count), total)
		}

		if res.err != nil {
			result.Failed++
			result.Failures = multierr.Append(result.Failures,
				fmt.Errorf("tile %d/%d/%d: %w", res.tile.Z, res.tile.X, res.tile.Y, res.err))
			s.logger.Warn("tile left blank",
				zap.Uint32("z", uint32(res.tile.Z)),
				zap.Uint32("x", res.tile.X),
				zap.Uint32("y", res.tile.Y),
				zap.Error(res.err))
			continue
		}

		img, _, err := image.Decode(bytes.NewReader(res.data))
		if err != nil {
			result.Failed++
			result.Failures = multierr.Append(result.Failures,
				fmt.Errorf("tile %d/%d/%d: decode: %w", res.tile.Z, res.tile.X, res.tile.Y, err))
			s.logger.Warn("tile decode failed",
				zap.Uint32("z", uint32(res.tile.Z)),
				zap.Uint32("x", res.tile.X),
				zap.Uint32("y", res.tile.Y),
				zap.Error(err))
			continue
		}

		xOff := (int(res.tile.X) - ext.MinCol) * geo.TileSize
		yOff := (int(res.tile.Y) - ext.MinRow) * geo.TileSize
		destRect := image.Rect(xOff, yOff, xOff+geo.TileSize, yOff+geo.TileSize)
		draw.Draw(canvas, destRect, img, image.Point{}, draw.Src)

		if res.cached {
			result.Cached++
		} else {
			result.Downloaded++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Canvas = canvas
	s.logger.Info("canvas assembled",
		zap.Int("downloaded", result.Downloaded),
		zap.Int("cached", result.Cached),
		zap.Int("failed", result.Failed))

	return result, nil
}

// fetchOne resolves a single tile: cache lookup first, then a rate-limited
// network fetch that fills the cache on success.
func (s *Stitcher) fetchOne(ctx context.Context, p provider.Provider, apiKey, keyHash string, tile maptile.Tile) tileResult {
	cacheName := naming.CacheFileName(p.Name, keyHash, int(tile.Z), int(tile.X), int(tile.Y), p.Ext())

	if s.tileCache != nil {
		if data, ok := s.tileCache.Get(cacheName); ok {
			return tileResult{tile: tile, data: data, cached: true}
		}
	}

	data, err := s.client.FetchTile(ctx, p, apiKey, tile)
	if err != nil {
		return tileResult{tile: tile, err: err}
	}

	if s.tileCache != nil {
		if err := s.tileCache.Put(cacheName, data); err != nil {
			s.logger.Warn("failed to cache tile", zap.String("file", cacheName), zap.Error(err))
		}
	}

	return tileResult{tile: tile, data: data}
}
