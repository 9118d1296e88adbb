// Package fetch implements the HTTP tile client.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"

	"tilestitch/internal/provider"
	"tilestitch/internal/ratelimit"
)

// DefaultUserAgent identifies this tool to tile servers, as required by most
// tile usage policies.
const DefaultUserAgent = "tilestitch/1.0 (batch map export; caching enabled; +https://github.com/roman-werner/tilestitch)"

// DefaultTimeout is the per-request timeout
const DefaultTimeout = 30 * time.Second

// Client handles communication with XYZ tile servers
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *ratelimit.Limiter
	logger     *zap.Logger
}

// NewClient creates a new tile client with system proxy support
func NewClient(userAgent string, timeout time.Duration, limiter *ratelimit.Limiter, logger *zap.Logger) *Client {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Use http.ProxyFromEnvironment to respect system proxy settings
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		userAgent: userAgent,
		limiter:   limiter,
		logger:    logger,
	}
}

// FetchTile downloads one tile from the provider and returns the raw bytes.
// The request carries the client's User-Agent and, when apiKey is non-empty,
// an Authorization: Bearer header. A non-200 response is an error.
func (c *Client) FetchTile(ctx context.Context, p provider.Provider, apiKey string, tile maptile.Tile) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	tileURL := p.TileURL(tile)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile: %w", err)
	}
	defer resp.Body.Close()

	if c.limiter != nil {
		c.limiter.CheckResponse(p.Name, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tile request failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read tile body: %w", err)
	}

	c.logger.Debug("fetched tile",
		zap.String("provider", p.Name),
		zap.Uint32("z", uint32(tile.Z)),
		zap.Uint32("x", tile.X),
		zap.Uint32("y", tile.Y),
		zap.Int("bytes", len(data)))

	return data, nil
}
